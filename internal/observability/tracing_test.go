package observability

import (
	"context"
	"testing"

	"github.com/koopa0/concierge/internal/log"
)

func TestSetupReturnsShutdown(t *testing.T) {
	shutdown := Setup(context.Background(), Config{
		ServiceName: "concierge-test",
		Environment: "test",
	}, log.NewNop())

	if shutdown == nil {
		t.Fatal("Setup() returned nil shutdown")
	}
	// The exporter never connected; shutdown must still complete.
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error: %v", err)
	}
}

func TestSetupCustomAgentHost(t *testing.T) {
	shutdown := Setup(context.Background(), Config{
		AgentHost: "127.0.0.1:14318",
	}, log.NewNop())

	if shutdown == nil {
		t.Fatal("Setup() returned nil shutdown")
	}
	_ = shutdown(context.Background())
}
