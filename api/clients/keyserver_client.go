package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ruteri/wingedcap-client/api"
	"github.com/ruteri/wingedcap-client/cryptoutils"
	"github.com/ruteri/wingedcap-client/interfaces"
)

// DefaultTimeout bounds a single key server call.
const DefaultTimeout = 30 * time.Second

const maxResponseSize = 1 << 20

// KeyServerClient talks to key servers over HTTP.
type KeyServerClient struct {
	httpClient *http.Client
	log        *slog.Logger
}

var _ interfaces.KeyServerClient = (*KeyServerClient)(nil)

// NewKeyServerClient creates a key server client.
//
// Parameters:
//   - log: Structured logger, slog.Default() if nil
//   - timeout: Per-call timeout (optional, default 30 seconds)
func NewKeyServerClient(log *slog.Logger, timeout ...time.Duration) *KeyServerClient {
	clientTimeout := DefaultTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		clientTimeout = timeout[0]
	}
	if log == nil {
		log = slog.Default()
	}

	return &KeyServerClient{
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
		log: log,
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *KeyServerClient) WithHTTPClient(httpClient *http.Client) *KeyServerClient {
	c.httpClient = httpClient
	return c
}

// CreateKey mints a new slot locked for timelock seconds.
func (c *KeyServerClient) CreateKey(ctx context.Context, server interfaces.Server, timelock uint64) (string, error) {
	var out api.CreateKeyOutput
	if err := c.fetch(ctx, server, "create_key", api.CreateKeyEndpoint, api.CreateKeyInput{Timelock: timelock}, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &interfaces.TransportError{Host: server.Host, Op: "create_key", Err: errors.New("server returned an empty key id")}
	}
	return out.ID, nil
}

// BindKey stores a share in the slot.
func (c *KeyServerClient) BindKey(ctx context.Context, key interfaces.Key, share string) error {
	var out api.BindKeyOutput
	return c.fetch(ctx, key.Server(), "bind_key", api.BindKeyEndpoint, api.BindKeyInput{ID: key.ID, Key: share}, &out)
}

// PingKey refreshes the slot's timelock and returns its state.
func (c *KeyServerClient) PingKey(ctx context.Context, key interfaces.Key) (interfaces.LockState, error) {
	var out api.PingKeyOutput
	if err := c.fetch(ctx, key.Server(), "ping_key", api.PingKeyEndpoint, api.PingKeyInput{ID: key.ID}, &out); err != nil {
		return interfaces.Locked, err
	}
	return out.State, nil
}

// GetKey reads the slot's share. The share is empty while the slot is locked.
func (c *KeyServerClient) GetKey(ctx context.Context, key interfaces.Key) (interfaces.GetKeyOutput, error) {
	var out api.GetKeyOutput
	if err := c.fetch(ctx, key.Server(), "get_key", api.GetKeyEndpoint, api.GetKeyInput{ID: key.ID}, &out); err != nil {
		return interfaces.GetKeyOutput{State: interfaces.Locked}, err
	}
	if out.State != interfaces.Unlocked {
		return interfaces.GetKeyOutput{State: interfaces.Locked}, nil
	}
	return interfaces.GetKeyOutput{State: interfaces.Unlocked, Share: out.Key}, nil
}

// fetch performs one sealed round trip. Every error is a *TransportError.
func (c *KeyServerClient) fetch(ctx context.Context, server interfaces.Server, op, endpoint string, in, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, server, endpoint, in, out)
	if err != nil {
		c.log.Debug("Key server call failed",
			slog.String("op", op),
			slog.String("host", server.Host),
			slog.Duration("duration", time.Since(start)),
			"err", err)
		return &interfaces.TransportError{Host: server.Host, Op: op, Err: err}
	}

	c.log.Debug("Key server call succeeded",
		slog.String("op", op),
		slog.String("host", server.Host),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (c *KeyServerClient) roundTrip(ctx context.Context, server interfaces.Server, endpoint string, in, out any) error {
	serverPub, err := cryptoutils.ParsePublicKeyHex(server.PK)
	if err != nil {
		return fmt.Errorf("invalid server key: %w", err)
	}

	replyKey, err := cryptoutils.GenerateKey()
	if err != nil {
		return fmt.Errorf("failed to generate reply key: %w", err)
	}

	env, err := api.SealRequest(serverPub, replyKey.PublicKey(), in)
	if err != nil {
		return err
	}

	reqJSON, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, BaseURL(server.Host)+endpoint, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var respEnv api.Envelope
	if err := json.Unmarshal(body, &respEnv); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}

	return api.OpenResponse(replyKey, &respEnv, out)
}

// BaseURL turns a server host into a URL prefix. Hosts without a scheme use https.
func BaseURL(host string) string {
	host = strings.TrimSuffix(host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}
