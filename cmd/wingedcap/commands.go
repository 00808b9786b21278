package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/wingedcap-client/api/clients"
	"github.com/ruteri/wingedcap-client/cmd/flags"
	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/ruteri/wingedcap-client/secret"
	"github.com/ruteri/wingedcap-client/shares"
	"github.com/ruteri/wingedcap-client/storage"
	"github.com/ruteri/wingedcap-client/vaultconf"
	"github.com/urfave/cli/v2"
)

type createOutput struct {
	ID       string                    `json:"id"`
	Conf     string                    `json:"conf"`
	Receiver interfaces.ReceiverStored `json:"receiver"`
}

type senderStatus struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	interfaces.SenderState
}

type receiverStatus struct {
	ID       string               `json:"id"`
	Label    string               `json:"label"`
	State    interfaces.LockState `json:"state"`
	Messages []string             `json:"messages,omitempty"`
}

type recordSummary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Keys  int    `json:"keys"`
	Conf  string `json:"conf"`
}

type listOutput struct {
	Senders   []recordSummary `json:"senders"`
	Receivers []recordSummary `json:"receivers"`
}

type confOutput struct {
	Conf string               `json:"conf"`
	Sets interfaces.VaultSets `json:"sets"`
}

func createAction(cCtx *cli.Context) error {
	log := flags.SetupLogger(cCtx)
	client := flags.NewKeyServerClient(cCtx, log)

	message, err := readMessage(cCtx)
	if err != nil {
		return err
	}

	unit, err := interfaces.ParseTimeUnit(cCtx.String(flagUnit.Name))
	if err != nil {
		return err
	}
	timelock := interfaces.Time{Magnitude: cCtx.Uint64(flagTimelock.Name), Unit: unit}

	servers, err := collectServers(cCtx, client)
	if err != nil {
		return err
	}

	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}

	log.Info("Creating secret", "label", cCtx.String(flagLabel.Name), "timelock", timelock.String(), "servers", len(servers))
	created, err := secret.NewCreator(client, shares.ShamirSplitter{}, log).Create(cCtx.Context, secret.NewSecret{
		Label:        cCtx.String(flagLabel.Name),
		Message:      message,
		Timelock:     timelock.Seconds(),
		Servers:      servers,
		RequiredKeys: cCtx.Int(flagRequired.Name),
	})
	if err != nil {
		return err
	}

	id, err := store.StoreSender(cCtx.Context, created.Sender)
	if err != nil {
		// The keys exist on the servers already; print the receiver so the secret is not lost.
		_ = printJSON(os.Stdout, created.Receiver)
		return fmt.Errorf("secret created but not stored: %w", err)
	}

	return printJSON(os.Stdout, createOutput{
		ID:       id,
		Conf:     vaultconf.Classify(created.Sender.Sets, len(created.Sender.Keys)).String(),
		Receiver: created.Receiver,
	})
}

func readMessage(cCtx *cli.Context) (string, error) {
	message := cCtx.String(flagMessage.Name)
	path := cCtx.String(flagMessageFile.Name)
	switch {
	case message != "" && path != "":
		return "", fmt.Errorf("--%s and --%s are mutually exclusive", flagMessage.Name, flagMessageFile.Name)
	case message != "":
		return message, nil
	case path != "":
		data, err := readInput(path, os.Stdin)
		if err != nil {
			return "", fmt.Errorf("could not read message: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("one of --%s or --%s is required", flagMessage.Name, flagMessageFile.Name)
	}
}

func collectServers(cCtx *cli.Context, client *clients.KeyServerClient) ([]interfaces.ServerWithMeta, error) {
	servers, err := parseServers(cCtx.StringSlice(flagServer.Name))
	if err != nil {
		return nil, err
	}

	if path := cCtx.String(flagServersFile.Name); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		fromFile, err := decodeServers(f)
		if err != nil {
			return nil, err
		}
		servers = append(servers, fromFile...)
	}

	if n := cCtx.Int(flagFromHub.Name); n > 0 {
		hub, err := flags.HubServer(cCtx)
		if err != nil {
			return nil, err
		}
		hubClient := clients.NewHubClient(hub, client)
		for i := 0; i < n; i++ {
			s, err := hubClient.GetServer(cCtx.Context)
			if err != nil {
				return nil, fmt.Errorf("could not get a server from the hub: %w", err)
			}
			servers = append(servers, s)
		}
	}

	if err := checkDistinct(servers); err != nil {
		return nil, err
	}
	return servers, nil
}

func pingAction(cCtx *cli.Context) error {
	log := flags.SetupLogger(cCtx)
	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}
	client := flags.NewKeyServerClient(cCtx, log)

	var senders []storage.StoredSender
	if cCtx.Bool(flagAll.Name) {
		senders, err = store.Senders(cCtx.Context)
	} else {
		var ref string
		if ref, err = refArg(cCtx); err != nil {
			return err
		}
		var sender storage.StoredSender
		sender, err = store.FindSender(cCtx.Context, ref)
		senders = []storage.StoredSender{sender}
	}
	if err != nil {
		return err
	}

	out := make([]senderStatus, 0, len(senders))
	for _, s := range senders {
		state, err := secret.PingSecret(cCtx.Context, client, s.Record.Sender(), log)
		if err != nil {
			return fmt.Errorf("%s: %w", s.ID, err)
		}
		if state.State == interfaces.Unlocked {
			log.Warn("Secret is unlocked", "id", s.ID, "label", s.Record.Label, "sets", state.UnlockedSets)
		}
		out = append(out, senderStatus{ID: s.ID, Label: s.Record.Label, SenderState: state})
	}

	if cCtx.Bool(flagAll.Name) {
		return printJSON(os.Stdout, out)
	}
	return printJSON(os.Stdout, out[0])
}

func getAction(cCtx *cli.Context) error {
	log := flags.SetupLogger(cCtx)
	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}

	ref, err := refArg(cCtx)
	if err != nil {
		return err
	}
	receiver, err := store.FindReceiver(cCtx.Context, ref)
	if err != nil {
		return err
	}

	state, err := secret.GetSecret(cCtx.Context, flags.NewKeyServerClient(cCtx, log), shares.ShamirSplitter{}, receiver.Record.Receiver(), log)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, newReceiverStatus(receiver, state))
}

func newReceiverStatus(receiver storage.StoredReceiver, state interfaces.ReceiverState) receiverStatus {
	return receiverStatus{
		ID:       receiver.ID,
		Label:    receiver.Record.Label,
		State:    state.State,
		Messages: state.Messages(),
	}
}

func watchAction(cCtx *cli.Context) error {
	ref, err := refArg(cCtx)
	if err != nil {
		return err
	}
	log := flags.SetupLogger(cCtx)
	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := &secret.Watcher{
		Client:   flags.NewKeyServerClient(cCtx, log),
		Splitter: shares.ShamirSplitter{},
		Log:      log,
		Interval: cCtx.Duration(flagInterval.Name),
		Jitter:   true,
	}

	if cCtx.Bool(flagReceiver.Name) {
		receiver, err := store.FindReceiver(ctx, ref)
		if err != nil {
			return err
		}
		err = watcher.WatchReceiver(ctx, receiver.Record.Receiver(), func(state interfaces.ReceiverState) bool {
			log.Info("Polled receiver", "id", receiver.ID, "state", state.State.String())
			if state.State != interfaces.Unlocked {
				return true
			}
			if err := printJSON(os.Stdout, newReceiverStatus(receiver, state)); err != nil {
				log.Error("Failed to print state", "err", err)
			}
			return false
		})
		return ignoreCanceled(err, log)
	}

	sender, err := store.FindSender(ctx, ref)
	if err != nil {
		return err
	}
	err = watcher.WatchSender(ctx, sender.Record.Sender(), func(state interfaces.SenderState) bool {
		log.Info("Pinged sender", "id", sender.ID, "state", state.State.String())
		if state.State != interfaces.Unlocked {
			return true
		}
		if err := printJSON(os.Stdout, senderStatus{ID: sender.ID, Label: sender.Record.Label, SenderState: state}); err != nil {
			log.Error("Failed to print state", "err", err)
		}
		return false
	})
	return ignoreCanceled(err, log)
}

func ignoreCanceled(err error, log *slog.Logger) error {
	if errors.Is(err, context.Canceled) {
		log.Info("Watch stopped")
		return nil
	}
	return err
}

func listAction(cCtx *cli.Context) error {
	log := flags.SetupLogger(cCtx)
	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}

	senders, err := store.Senders(cCtx.Context)
	if err != nil {
		return err
	}
	receivers, err := store.Receivers(cCtx.Context)
	if err != nil {
		return err
	}

	out := listOutput{
		Senders:   make([]recordSummary, 0, len(senders)),
		Receivers: make([]recordSummary, 0, len(receivers)),
	}
	for _, s := range senders {
		out.Senders = append(out.Senders, recordSummary{
			ID:    s.ID,
			Label: s.Record.Label,
			Keys:  len(s.Record.Keys),
			Conf:  vaultconf.Classify(s.Record.Sets, len(s.Record.Keys)).String(),
		})
	}
	for _, r := range receivers {
		out.Receivers = append(out.Receivers, recordSummary{
			ID:    r.ID,
			Label: r.Record.Label,
			Keys:  len(r.Record.Keys),
			Conf:  vaultconf.Classify(r.Record.Sets, len(r.Record.Keys)).String(),
		})
	}
	return printJSON(os.Stdout, out)
}

func confAction(cCtx *cli.Context) error {
	if cCtx.NArg() == 0 {
		sets, err := vaultconf.Generate(cCtx.Int(flagTotal.Name), cCtx.Int(flagRequired.Name))
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, confOutput{Conf: vaultconf.Classify(sets, cCtx.Int(flagTotal.Name)).String(), Sets: sets})
	}

	log := flags.SetupLogger(cCtx)
	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}

	var (
		sets     interfaces.VaultSets
		keyCount int
	)
	if cCtx.Bool(flagReceiver.Name) {
		receiver, err := store.FindReceiver(cCtx.Context, cCtx.Args().First())
		if err != nil {
			return err
		}
		sets, keyCount = receiver.Record.Sets, len(receiver.Record.Keys)
	} else {
		sender, err := store.FindSender(cCtx.Context, cCtx.Args().First())
		if err != nil {
			return err
		}
		sets, keyCount = sender.Record.Sets, len(sender.Record.Keys)
	}
	return printJSON(os.Stdout, confOutput{Conf: vaultconf.Classify(sets, keyCount).String(), Sets: sets})
}

func relabelAction(cCtx *cli.Context) error {
	if cCtx.NArg() != 2 {
		return errors.New("expected <id or label> <new label>")
	}
	ref, label := cCtx.Args().Get(0), cCtx.Args().Get(1)

	log := flags.SetupLogger(cCtx)
	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}

	if cCtx.Bool(flagReceiver.Name) {
		receiver, err := store.FindReceiver(cCtx.Context, ref)
		if err != nil {
			return err
		}
		id, err := store.RelabelReceiver(cCtx.Context, receiver.ID, label)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, map[string]string{"id": id, "label": label})
	}

	sender, err := store.FindSender(cCtx.Context, ref)
	if err != nil {
		return err
	}
	if err := store.RelabelSender(cCtx.Context, sender.ID, label); err != nil {
		return err
	}
	return printJSON(os.Stdout, map[string]string{"id": sender.ID, "label": label})
}

func removeAction(cCtx *cli.Context) error {
	log := flags.SetupLogger(cCtx)
	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}

	if cCtx.Bool(flagAll.Name) {
		if err := store.RemoveAll(cCtx.Context); err != nil {
			return err
		}
		log.Info("Removed all records")
		return nil
	}

	ref, err := refArg(cCtx)
	if err != nil {
		return err
	}

	var id string
	if cCtx.Bool(flagReceiver.Name) {
		receiver, err := store.FindReceiver(cCtx.Context, ref)
		if err != nil {
			return err
		}
		id = receiver.ID
	} else {
		sender, err := store.FindSender(cCtx.Context, ref)
		if err != nil {
			return err
		}
		id = sender.ID
	}

	if err := store.Remove(cCtx.Context, id); err != nil {
		return err
	}
	log.Info("Removed record", "id", id)
	return nil
}

func exportReceiverAction(cCtx *cli.Context) error {
	log := flags.SetupLogger(cCtx)
	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}

	ref, err := refArg(cCtx)
	if err != nil {
		return err
	}
	sender, err := store.FindSender(cCtx.Context, ref)
	if err != nil {
		return err
	}

	label := cCtx.String(flagLabel.Name)
	if label == "" {
		label = sender.Record.Label
	}
	return printJSON(os.Stdout, sender.Record.ReceiverStored(label))
}

func importAction(cCtx *cli.Context) error {
	log := flags.SetupLogger(cCtx)

	data, err := readInput(cCtx.Args().First(), os.Stdin)
	if err != nil {
		return fmt.Errorf("could not read record: %w", err)
	}
	record, err := decodeImport(cCtx.String(flagKind.Name), data, cCtx.String(flagLabel.Name))
	if err != nil {
		return err
	}

	store, err := flags.OpenRecordStore(cCtx, log)
	if err != nil {
		return err
	}

	var id string
	switch r := record.(type) {
	case interfaces.SenderStored:
		id, err = store.StoreSender(cCtx.Context, r)
	case interfaces.ReceiverStored:
		id, err = store.StoreReceiver(cCtx.Context, r)
	}
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, map[string]string{"id": id})
}

func hubServerAction(cCtx *cli.Context) error {
	log := flags.SetupLogger(cCtx)
	hub, err := flags.HubServer(cCtx)
	if err != nil {
		return err
	}

	server, err := clients.NewHubClient(hub, flags.NewKeyServerClient(cCtx, log)).GetServer(cCtx.Context)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, server)
}

// refArg returns the record reference passed as the first argument.
func refArg(cCtx *cli.Context) (string, error) {
	ref := cCtx.Args().First()
	if ref == "" {
		return "", errors.New("an id or label is required")
	}
	return ref, nil
}
