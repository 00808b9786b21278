package secret

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/wingedcap-client/aggregate"
	"github.com/ruteri/wingedcap-client/fanout"
	"github.com/ruteri/wingedcap-client/interfaces"
)

// PingSecret pings every key of the sender record at once and aggregates the
// outcomes. Unreachable servers are reported as locked, never as errors; the
// only error is an invalid record.
func PingSecret(ctx context.Context, client interfaces.KeyServerClient, sender interfaces.Sender, log *slog.Logger) (interfaces.SenderState, error) {
	state, _, err := pingRound(ctx, client, sender, log)
	return state, err
}

// GetSecret fetches every key of the receiver record at once and combines the
// shares of every satisfied combination.
func GetSecret(ctx context.Context, client interfaces.KeyServerClient, splitter interfaces.SecretSplitter, receiver interfaces.Receiver, log *slog.Logger) (interfaces.ReceiverState, error) {
	state, _, err := getRound(ctx, client, splitter, receiver, log)
	return state, err
}

// pingRound also returns how many calls failed.
func pingRound(ctx context.Context, client interfaces.KeyServerClient, sender interfaces.Sender, log *slog.Logger) (interfaces.SenderState, int, error) {
	if err := sender.Validate(); err != nil {
		return interfaces.SenderState{State: interfaces.Locked}, 0, fmt.Errorf("invalid sender record: %w", err)
	}

	results := fanout.Run(ctx, sender.Keys, func(ctx context.Context, key interfaces.Key) (interfaces.LockState, error) {
		return client.PingKey(ctx, key)
	})

	keys := aggregate.SenderKeyStates(results, log)
	return aggregate.ProcessSenderState(keys, sender.Sets), fanout.Errors(results), nil
}

func getRound(ctx context.Context, client interfaces.KeyServerClient, splitter interfaces.SecretSplitter, receiver interfaces.Receiver, log *slog.Logger) (interfaces.ReceiverState, int, error) {
	if err := receiver.Validate(); err != nil {
		return interfaces.ReceiverState{State: interfaces.Locked}, 0, fmt.Errorf("invalid receiver record: %w", err)
	}

	results := fanout.Run(ctx, receiver.Keys, func(ctx context.Context, key interfaces.Key) (interfaces.GetKeyOutput, error) {
		return client.GetKey(ctx, key)
	})

	keys := aggregate.ReceiverKeyStates(results, log)
	return aggregate.ProcessReceiverState(keys, receiver.Sets, splitter, log), fanout.Errors(results), nil
}
