package secret

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ruteri/wingedcap-client/api/clients"
	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/ruteri/wingedcap-client/shares"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testServers(n int) []interfaces.ServerWithMeta {
	servers := make([]interfaces.ServerWithMeta, n)
	for i := range servers {
		servers[i] = interfaces.ServerWithMeta{
			Host: fmt.Sprintf("keys%d.example", i),
			PK:   fmt.Sprintf("pk%d", i),
		}
	}
	servers[0].Meta = &interfaces.ServerMeta{Provider: "acme", Location: "eu"}
	return servers
}

func validSecret(n, required int) NewSecret {
	return NewSecret{
		Label:        "will",
		Message:      "the key is under the mat",
		Timelock:     3600,
		Servers:      testServers(n),
		RequiredKeys: required,
	}
}

func TestCreate(t *testing.T) {
	client := new(clients.MockKeyServerClient)
	ns := validSecret(3, 2)

	for i, s := range ns.Servers {
		client.On("CreateKey", mock.Anything, s.Server(), uint64(3600)).Return(fmt.Sprintf("id%d", i), nil).Once()
	}
	var mu sync.Mutex
	bound := make(map[string]string)
	client.On("BindKey", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		key := args.Get(1).(interfaces.Key)
		mu.Lock()
		bound[key.ID] = args.String(2)
		mu.Unlock()
	}).Return(nil).Times(3)

	created, err := NewCreator(client, shares.ShamirSplitter{}, testLogger).Create(context.Background(), ns)
	require.NoError(t, err)
	client.AssertExpectations(t)

	sender := created.Sender
	assert.Equal(t, "will", sender.Label)
	require.Len(t, sender.Keys, 3)
	for i, k := range sender.Keys {
		assert.Equal(t, ns.Servers[i].Host, k.Host)
		assert.Equal(t, ns.Servers[i].PK, k.PK)
		assert.Equal(t, fmt.Sprintf("id%d", i), k.ID)
	}
	assert.Equal(t, ns.Servers[0].Meta, sender.Keys[0].Meta)
	assert.Equal(t, interfaces.VaultSets{{0, 1}, {0, 2}, {1, 2}}, sender.Sets)

	assert.Equal(t, "will", created.Receiver.Label)
	assert.Equal(t, sender.Receiver().Keys, created.Receiver.Keys)
	assert.Equal(t, sender.Sets, created.Receiver.Sets)

	// Each pair of bound shares recovers the message.
	splitter := shares.ShamirSplitter{}
	for _, set := range sender.Sets {
		parts := []string{bound[sender.Keys[set[0]].ID], bound[sender.Keys[set[1]].ID]}
		msg, err := splitter.Combine(parts)
		require.NoError(t, err)
		assert.Equal(t, ns.Message, string(msg))
	}
}

func TestCreateFailsOnOneServer(t *testing.T) {
	client := new(clients.MockKeyServerClient)
	ns := validSecret(4, 2)

	failing := ns.Servers[2]
	for i, s := range ns.Servers {
		if s.Host == failing.Host {
			client.On("CreateKey", mock.Anything, s.Server(), mock.Anything).
				Return("", &interfaces.TransportError{Host: s.Host, Op: "create_key", Err: errors.New("connection refused")})
			continue
		}
		client.On("CreateKey", mock.Anything, s.Server(), mock.Anything).Return(fmt.Sprintf("id%d", i), nil).Maybe()
	}

	created, err := NewCreator(client, shares.ShamirSplitter{}, testLogger).Create(context.Background(), ns)
	assert.Nil(t, created)

	var ce *interfaces.CreationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "create_key", ce.Step)
	assert.Equal(t, failing.Host, ce.Host)

	var te *interfaces.TransportError
	assert.True(t, errors.As(err, &te))

	client.AssertNotCalled(t, "BindKey", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateFailsOnBind(t *testing.T) {
	client := new(clients.MockKeyServerClient)
	ns := validSecret(2, 1)

	client.On("CreateKey", mock.Anything, mock.Anything, mock.Anything).Return("id", nil)
	client.On("BindKey", mock.Anything, interfaces.Key{Host: ns.Servers[0].Host, PK: ns.Servers[0].PK, ID: "id"}, mock.Anything).Return(nil).Maybe()
	client.On("BindKey", mock.Anything, interfaces.Key{Host: ns.Servers[1].Host, PK: ns.Servers[1].PK, ID: "id"}, mock.Anything).Return(errors.New("boom"))

	created, err := NewCreator(client, shares.ShamirSplitter{}, testLogger).Create(context.Background(), ns)
	assert.Nil(t, created)

	var ce *interfaces.CreationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "bind_key", ce.Step)
	assert.Equal(t, ns.Servers[1].Host, ce.Host)
}

func TestCreateEmptyKeyID(t *testing.T) {
	client := new(clients.MockKeyServerClient)
	client.On("CreateKey", mock.Anything, mock.Anything, mock.Anything).Return("", nil)

	_, err := NewCreator(client, shares.ShamirSplitter{}, testLogger).Create(context.Background(), validSecret(1, 1))
	var ce *interfaces.CreationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "create_key", ce.Step)
}

func TestCreateValidation(t *testing.T) {
	cases := map[string]func(ns *NewSecret){
		"empty label":       func(ns *NewSecret) { ns.Label = "" },
		"empty message":     func(ns *NewSecret) { ns.Message = "" },
		"zero timelock":     func(ns *NewSecret) { ns.Timelock = 0 },
		"no servers":        func(ns *NewSecret) { ns.Servers = nil },
		"zero required":     func(ns *NewSecret) { ns.RequiredKeys = 0 },
		"too many needed":   func(ns *NewSecret) { ns.RequiredKeys = 4 },
		"server without pk": func(ns *NewSecret) { ns.Servers[1].PK = "" },
		"too many servers":  func(ns *NewSecret) { ns.Servers = testServers(interfaces.MaxKeys + 1) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			client := new(clients.MockKeyServerClient)
			ns := validSecret(3, 2)
			mutate(&ns)

			_, err := NewCreator(client, shares.ShamirSplitter{}, testLogger).Create(context.Background(), ns)
			assert.ErrorIs(t, err, interfaces.ErrInvalidSecret)
			client.AssertNotCalled(t, "CreateKey", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateRejectsOversizedThreshold(t *testing.T) {
	client := new(clients.MockKeyServerClient)

	_, err := NewCreator(client, shares.ShamirSplitter{}, testLogger).Create(context.Background(), validSecret(70, 35))
	assert.ErrorIs(t, err, interfaces.ErrInvalidThreshold)
	client.AssertNotCalled(t, "CreateKey", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRefusesConcurrentUse(t *testing.T) {
	client := new(clients.MockKeyServerClient)
	release := make(chan struct{})
	started := make(chan struct{})

	client.On("CreateKey", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return("id", nil).Once()
	client.On("BindKey", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	creator := NewCreator(client, shares.ShamirSplitter{}, testLogger)

	done := make(chan error, 1)
	go func() {
		_, err := creator.Create(context.Background(), validSecret(1, 1))
		done <- err
	}()

	<-started
	assert.True(t, creator.InProgress())
	_, err := creator.Create(context.Background(), validSecret(1, 1))
	assert.ErrorIs(t, err, interfaces.ErrCreationInProgress)

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("creation did not finish")
	}
	assert.False(t, creator.InProgress())
}
