package clients

import (
	"context"
	"errors"

	"github.com/ruteri/wingedcap-client/api"
	"github.com/ruteri/wingedcap-client/interfaces"
)

// HubClient fetches key servers from a hub.
type HubClient struct {
	hub    interfaces.Server
	client *KeyServerClient
}

var _ interfaces.HubClient = (*HubClient)(nil)

// NewHubClient creates a client for the hub at the given server identity.
func NewHubClient(hub interfaces.Server, client *KeyServerClient) *HubClient {
	return &HubClient{hub: hub, client: client}
}

// GetServer returns one key server picked by the hub.
func (h *HubClient) GetServer(ctx context.Context) (interfaces.ServerWithMeta, error) {
	var out interfaces.ServerWithMeta
	if err := h.client.fetch(ctx, h.hub, "get_server", api.GetServerEndpoint, api.GetServerInput{}, &out); err != nil {
		return interfaces.ServerWithMeta{}, err
	}
	if out.Host == "" || out.PK == "" {
		return interfaces.ServerWithMeta{}, &interfaces.TransportError{Host: h.hub.Host, Op: "get_server", Err: errors.New("hub returned an incomplete server")}
	}
	return out, nil
}
