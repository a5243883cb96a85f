package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invpulse/pkg/contracts"
)

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type fixedClients int

func (f fixedClients) ClientCount() int { return int(f) }

func TestHealthService_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus string
		wantStore  string
	}{
		{"store reachable", nil, "ready", "ready"},
		{"store down", errors.New("connection refused"), "not_ready", "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockPinger{}
			p.On("Ping", mock.Anything).Return(tt.pingErr).Once()

			hs := NewHealthService("1.2.3", "sqlite", p, fixedClients(2), quietLogger())
			status := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantStore, status.Services["store"].Status)
			assert.Equal(t, "2 WebSocket clients connected", status.Services["websocket"].Message)
			p.AssertExpectations(t)
		})
	}
}

func TestHealthService_NilDependencies(t *testing.T) {
	hs := NewHealthService("1.2.3", "memory", nil, nil, nil)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "WebSocket disabled", status.Services["websocket"].Message)
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("9.9.9", "memory", nil, nil, quietLogger())

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)

	v := hs.Version()
	assert.Equal(t, "9.9.9", v.Version)
	assert.Equal(t, contracts.APIVersion, v.APIVersion)
}
