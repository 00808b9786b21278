package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/wingedcap-client/interfaces"
)

const (
	SenderPrefix   = "sender_"
	ReceiverPrefix = "receiver_"
)

var ErrAmbiguousLabel = errors.New("label matches more than one record")

// StoredSender is a sender record with the id it is stored under.
type StoredSender struct {
	ID     string                  `json:"id"`
	Record interfaces.SenderStored `json:"record"`
}

// StoredReceiver is a receiver record with the id it is stored under.
type StoredReceiver struct {
	ID     string                    `json:"id"`
	Record interfaces.ReceiverStored `json:"record"`
}

// RecordStore keeps sender and receiver records on a storage backend.
type RecordStore struct {
	backend interfaces.StorageBackend
	log     *slog.Logger
}

func NewRecordStore(backend interfaces.StorageBackend, log *slog.Logger) *RecordStore {
	if log == nil {
		log = slog.Default()
	}
	return &RecordStore{backend: backend, log: log}
}

// SenderID derives the storage id of a sender record from its keys and sets.
// Labels and server metadata do not take part.
func SenderID(sender interfaces.SenderStored) (string, error) {
	data, err := json.Marshal(sender.Sender())
	if err != nil {
		return "", fmt.Errorf("failed to marshal sender: %w", err)
	}
	sum := sha256.Sum256(data)
	return SenderPrefix + hex.EncodeToString(sum[:]), nil
}

// ReceiverID derives the storage id of a receiver record from its label.
func ReceiverID(label string) string {
	return ReceiverPrefix + url.PathEscape(label)
}

// StoreSender stores the record, replacing a previously stored copy of the same secret.
func (rs *RecordStore) StoreSender(ctx context.Context, sender interfaces.SenderStored) (string, error) {
	if err := sender.Validate(); err != nil {
		return "", fmt.Errorf("invalid sender record: %w", err)
	}
	id, err := SenderID(sender)
	if err != nil {
		return "", err
	}
	if err := rs.put(ctx, id, sender); err != nil {
		return "", err
	}
	rs.log.Debug("Stored sender", "id", id, "label", sender.Label)
	return id, nil
}

// StoreReceiver stores the record under its label, replacing any receiver with the same label.
func (rs *RecordStore) StoreReceiver(ctx context.Context, receiver interfaces.ReceiverStored) (string, error) {
	if receiver.Label == "" {
		return "", errors.New("receiver label is required")
	}
	if err := receiver.Validate(); err != nil {
		return "", fmt.Errorf("invalid receiver record: %w", err)
	}
	id := ReceiverID(receiver.Label)
	if err := rs.put(ctx, id, receiver); err != nil {
		return "", err
	}
	rs.log.Debug("Stored receiver", "id", id, "label", receiver.Label)
	return id, nil
}

// Sender fetches one sender record by id.
func (rs *RecordStore) Sender(ctx context.Context, id string) (interfaces.SenderStored, error) {
	var sender interfaces.SenderStored
	if !strings.HasPrefix(id, SenderPrefix) {
		return sender, fmt.Errorf("%w: %s is not a sender id", interfaces.ErrContentNotFound, id)
	}
	err := rs.get(ctx, id, &sender)
	return sender, err
}

// Receiver fetches one receiver record by id.
func (rs *RecordStore) Receiver(ctx context.Context, id string) (interfaces.ReceiverStored, error) {
	var receiver interfaces.ReceiverStored
	if !strings.HasPrefix(id, ReceiverPrefix) {
		return receiver, fmt.Errorf("%w: %s is not a receiver id", interfaces.ErrContentNotFound, id)
	}
	err := rs.get(ctx, id, &receiver)
	return receiver, err
}

// Senders returns every readable sender record. Unreadable records are logged and skipped.
func (rs *RecordStore) Senders(ctx context.Context) ([]StoredSender, error) {
	ids, err := rs.backend.List(ctx, SenderPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list senders: %w", err)
	}

	senders := make([]StoredSender, 0, len(ids))
	for _, id := range ids {
		var sender interfaces.SenderStored
		if err := rs.get(ctx, id, &sender); err != nil {
			rs.log.Warn("Skipping unreadable sender", "id", id, "err", err)
			continue
		}
		senders = append(senders, StoredSender{ID: id, Record: sender})
	}
	return senders, nil
}

// Receivers returns every readable receiver record. Unreadable records are logged and skipped.
func (rs *RecordStore) Receivers(ctx context.Context) ([]StoredReceiver, error) {
	ids, err := rs.backend.List(ctx, ReceiverPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list receivers: %w", err)
	}

	receivers := make([]StoredReceiver, 0, len(ids))
	for _, id := range ids {
		var receiver interfaces.ReceiverStored
		if err := rs.get(ctx, id, &receiver); err != nil {
			rs.log.Warn("Skipping unreadable receiver", "id", id, "err", err)
			continue
		}
		receivers = append(receivers, StoredReceiver{ID: id, Record: receiver})
	}
	return receivers, nil
}

// FindSender resolves a sender by id or by label.
func (rs *RecordStore) FindSender(ctx context.Context, ref string) (StoredSender, error) {
	if strings.HasPrefix(ref, SenderPrefix) {
		sender, err := rs.Sender(ctx, ref)
		if err == nil || !errors.Is(err, interfaces.ErrContentNotFound) {
			return StoredSender{ID: ref, Record: sender}, err
		}
	}

	senders, err := rs.Senders(ctx)
	if err != nil {
		return StoredSender{}, err
	}

	var found []StoredSender
	for _, s := range senders {
		if s.Record.Label == ref {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 0:
		return StoredSender{}, fmt.Errorf("%w: sender %q", interfaces.ErrContentNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return StoredSender{}, fmt.Errorf("%w: %q", ErrAmbiguousLabel, ref)
	}
}

// FindReceiver resolves a receiver by id or by label.
func (rs *RecordStore) FindReceiver(ctx context.Context, ref string) (StoredReceiver, error) {
	ids := []string{ReceiverID(ref)}
	if strings.HasPrefix(ref, ReceiverPrefix) {
		ids = append([]string{ref}, ids...)
	}

	for _, id := range ids {
		receiver, err := rs.Receiver(ctx, id)
		if err == nil {
			return StoredReceiver{ID: id, Record: receiver}, nil
		}
		if !errors.Is(err, interfaces.ErrContentNotFound) {
			return StoredReceiver{}, err
		}
	}
	return StoredReceiver{}, fmt.Errorf("%w: receiver %q", interfaces.ErrContentNotFound, ref)
}

// RelabelSender changes the label of a stored sender. Its id does not change.
func (rs *RecordStore) RelabelSender(ctx context.Context, id, label string) error {
	if label == "" {
		return errors.New("label is required")
	}
	sender, err := rs.Sender(ctx, id)
	if err != nil {
		return err
	}
	sender.Label = label
	return rs.put(ctx, id, sender)
}

// RelabelReceiver moves a stored receiver to a new label and returns its new id.
func (rs *RecordStore) RelabelReceiver(ctx context.Context, id, label string) (string, error) {
	receiver, err := rs.Receiver(ctx, id)
	if err != nil {
		return "", err
	}

	newID := ReceiverID(label)
	if newID != id {
		if _, err := rs.backend.Fetch(ctx, newID); err == nil {
			return "", fmt.Errorf("receiver %q already exists", label)
		}
	}

	receiver.Label = label
	if _, err := rs.StoreReceiver(ctx, receiver); err != nil {
		return "", err
	}
	if newID != id {
		if err := rs.backend.Delete(ctx, id); err != nil {
			return "", fmt.Errorf("failed to remove old receiver: %w", err)
		}
	}
	return newID, nil
}

// Remove deletes one sender or receiver record.
func (rs *RecordStore) Remove(ctx context.Context, id string) error {
	if !strings.HasPrefix(id, SenderPrefix) && !strings.HasPrefix(id, ReceiverPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return rs.backend.Delete(ctx, id)
}

// RemoveAll deletes every sender and receiver record.
func (rs *RecordStore) RemoveAll(ctx context.Context) error {
	var errs []error
	for _, prefix := range []string{SenderPrefix, ReceiverPrefix} {
		ids, err := rs.backend.List(ctx, prefix)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, id := range ids {
			if err := rs.backend.Delete(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (rs *RecordStore) put(ctx context.Context, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := rs.backend.Store(ctx, id, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", id, err)
	}
	return nil
}

func (rs *RecordStore) get(ctx context.Context, id string, record any) error {
	data, err := rs.backend.Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, record); err != nil {
		return fmt.Errorf("failed to parse %s: %w", id, err)
	}
	return nil
}
