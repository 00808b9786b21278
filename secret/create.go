package secret

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/ruteri/wingedcap-client/vaultconf"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// NewSecret holds the parameters of a secret to create.
type NewSecret struct {
	Label   string
	Message string
	// Timelock is the number of seconds without a ping after which the keys unlock.
	Timelock     uint64
	Servers      []interfaces.ServerWithMeta
	RequiredKeys int
}

// Validate checks the parameters before anything is sent to a server.
func (ns NewSecret) Validate() error {
	switch {
	case ns.Label == "":
		return fmt.Errorf("%w: label is required", interfaces.ErrInvalidSecret)
	case ns.Message == "":
		return fmt.Errorf("%w: message is required", interfaces.ErrInvalidSecret)
	case ns.Timelock == 0:
		return fmt.Errorf("%w: timelock must be positive", interfaces.ErrInvalidSecret)
	case len(ns.Servers) == 0:
		return fmt.Errorf("%w: at least one server is required", interfaces.ErrInvalidSecret)
	case len(ns.Servers) > interfaces.MaxKeys:
		return fmt.Errorf("%w: at most %d servers are supported", interfaces.ErrInvalidSecret, interfaces.MaxKeys)
	case ns.RequiredKeys < 1 || ns.RequiredKeys > len(ns.Servers):
		return fmt.Errorf("%w: required keys must be between 1 and %d", interfaces.ErrInvalidSecret, len(ns.Servers))
	}

	for i, s := range ns.Servers {
		if s.Host == "" || s.PK == "" {
			return fmt.Errorf("%w: server %d is missing host or public key", interfaces.ErrInvalidSecret, i)
		}
	}
	return nil
}

// Created is the outcome of a successful creation.
type Created struct {
	Sender   interfaces.SenderStored
	Receiver interfaces.ReceiverStored
}

// Creator creates secrets. A Creator runs at most one creation at a time.
type Creator struct {
	client   interfaces.KeyServerClient
	splitter interfaces.SecretSplitter
	log      *slog.Logger

	inFlight atomic.Bool
}

func NewCreator(client interfaces.KeyServerClient, splitter interfaces.SecretSplitter, log *slog.Logger) *Creator {
	if log == nil {
		log = slog.Default()
	}
	return &Creator{
		client:   client,
		splitter: splitter,
		log:      log,
	}
}

// Create mints one key on every server, splits the message into one share
// per key and binds each share to its key. It returns ErrCreationInProgress
// if another Create on the same Creator has not returned yet.
//
// Any failure aborts the creation and is returned as a *CreationError. Keys
// minted before the failure are abandoned on their servers.
func (c *Creator) Create(ctx context.Context, ns NewSecret) (*Created, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, interfaces.ErrCreationInProgress
	}
	defer c.inFlight.Store(false)

	if err := ns.Validate(); err != nil {
		return nil, &interfaces.CreationError{Step: "validate", Err: err}
	}

	total := len(ns.Servers)
	sets, err := vaultconf.Generate(total, ns.RequiredKeys)
	if err != nil {
		return nil, &interfaces.CreationError{Step: "generate", Err: err}
	}

	ids, err := c.createKeys(ctx, ns.Servers, ns.Timelock)
	if err != nil {
		return nil, err
	}

	shares, err := c.splitter.Split([]byte(ns.Message), total, ns.RequiredKeys)
	if err != nil {
		return nil, &interfaces.CreationError{Step: "split", Err: err}
	}
	if len(shares) != total {
		return nil, &interfaces.CreationError{Step: "split", Err: fmt.Errorf("expected %d shares, got %d", total, len(shares))}
	}

	keys := make([]interfaces.KeyWithMeta, total)
	for i, s := range ns.Servers {
		keys[i] = interfaces.KeyWithMeta{Host: s.Host, PK: s.PK, ID: ids[i], Meta: s.Meta}
	}

	if err := c.bindKeys(ctx, keys, shares); err != nil {
		return nil, err
	}

	sender := interfaces.SenderStored{Label: ns.Label, Keys: keys, Sets: sets}
	c.log.Info("Secret created",
		"label", ns.Label,
		"total", total,
		"required", ns.RequiredKeys,
		"timelock", ns.Timelock)

	return &Created{
		Sender:   sender,
		Receiver: sender.ReceiverStored(ns.Label),
	}, nil
}

// InProgress reports whether a creation is running.
func (c *Creator) InProgress() bool {
	return c.inFlight.Load()
}

func (c *Creator) createKeys(ctx context.Context, servers []interfaces.ServerWithMeta, timelock uint64) ([]string, error) {
	ids := make([]string, len(servers))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range servers {
		i, s := i, s
		g.Go(func() error {
			id, err := c.client.CreateKey(gctx, s.Server(), timelock)
			if err == nil && id == "" {
				err = errors.New("empty key id")
			}
			if err != nil {
				return &interfaces.CreationError{Step: "create_key", Host: s.Host, Err: err}
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.log.Warn("Secret creation aborted", "err", err)
		return nil, err
	}
	return ids, nil
}

func (c *Creator) bindKeys(ctx context.Context, keys []interfaces.KeyWithMeta, shares []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			if err := c.client.BindKey(gctx, k.Key(), shares[i]); err != nil {
				return &interfaces.CreationError{Step: "bind_key", Host: k.Host, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.log.Warn("Secret creation aborted", "err", err)
		return err
	}
	return nil
}
