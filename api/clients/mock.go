package clients

import (
	"context"

	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockKeyServerClient mocks the KeyServerClient interface
type MockKeyServerClient struct {
	mock.Mock
}

var _ interfaces.KeyServerClient = (*MockKeyServerClient)(nil)

// CreateKey mocks the CreateKey method
func (m *MockKeyServerClient) CreateKey(ctx context.Context, server interfaces.Server, timelock uint64) (string, error) {
	args := m.Called(ctx, server, timelock)
	return args.String(0), args.Error(1)
}

// BindKey mocks the BindKey method
func (m *MockKeyServerClient) BindKey(ctx context.Context, key interfaces.Key, share string) error {
	args := m.Called(ctx, key, share)
	return args.Error(0)
}

// PingKey mocks the PingKey method
func (m *MockKeyServerClient) PingKey(ctx context.Context, key interfaces.Key) (interfaces.LockState, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(interfaces.LockState), args.Error(1)
}

// GetKey mocks the GetKey method
func (m *MockKeyServerClient) GetKey(ctx context.Context, key interfaces.Key) (interfaces.GetKeyOutput, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(interfaces.GetKeyOutput), args.Error(1)
}

// MockHubClient mocks the HubClient interface
type MockHubClient struct {
	mock.Mock
}

var _ interfaces.HubClient = (*MockHubClient)(nil)

// GetServer mocks the GetServer method
func (m *MockHubClient) GetServer(ctx context.Context) (interfaces.ServerWithMeta, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.ServerWithMeta), args.Error(1)
}
