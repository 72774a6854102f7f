package mcp

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil pipeline service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingPipelineService)
	})

	t.Run("nil ports returns error", func(t *testing.T) {
		_, err := NewServer(nil)
		assert.ErrorIs(t, err, ErrMissingPipelineService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("pipeline only is valid", func(t *testing.T) {
		ports := &Ports{Pipeline: &mockPipelineService{}}
		assert.NoError(t, ports.Validate())
		assert.False(t, ports.canRunPlans())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Pipeline: &mockPipelineService{},
			Plan:     &mockPlanService{},
			Executor: &mockExecutorService{},
			Cache:    &mockCacheService{},
			Errors:   &mockErrorHistory{},
		}
		assert.NoError(t, ports.Validate())
		assert.True(t, ports.canRunPlans())
	})

	t.Run("plan without executor cannot run plans", func(t *testing.T) {
		ports := &Ports{Pipeline: &mockPipelineService{}, Plan: &mockPlanService{}}
		assert.False(t, ports.canRunPlans())
	})
}

func TestInstructions(t *testing.T) {
	pipelineOnly := instructions(&Ports{Pipeline: &mockPipelineService{}})
	assert.Contains(t, pipelineOnly, "analyze")
	assert.NotContains(t, pipelineOnly, "execute")

	full := instructions(&Ports{
		Pipeline: &mockPipelineService{},
		Plan:     &mockPlanService{},
		Executor: &mockExecutorService{},
	})
	assert.Contains(t, full, "validate on the plan file before execute")
}

func TestServe_HealthAndShutdown(t *testing.T) {
	server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, Version, health["version"])
	assert.Equal(t, false, health["run_plans"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestRunHTTP_ListenError(t *testing.T) {
	server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}})
	require.NoError(t, err)

	err = server.RunHTTP(context.Background(), "256.0.0.1:bad")
	assert.ErrorContains(t, err, "listen 256.0.0.1:bad")
}
