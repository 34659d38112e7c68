package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/pie/internal/platform/otel"
)

func TestConfigActive(t *testing.T) {
	tcs := []struct {
		cfg  otel.Config
		want bool
	}{
		{cfg: otel.Config{}, want: false},
		{cfg: otel.Config{Endpoint: "  "}, want: false},
		{cfg: otel.Config{Endpoint: "http://localhost:4318"}, want: true},
		{cfg: otel.Config{Endpoint: "http://localhost:4318", Enabled: "FALSE"}, want: false},
		{cfg: otel.Config{Endpoint: "http://localhost:4318", Enabled: "true"}, want: true},
	}
	for _, tc := range tcs {
		if got := tc.cfg.Active(); got != tc.want {
			t.Fatalf("%+v.Active() = %v, want %v", tc.cfg, got, tc.want)
		}
	}
}

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("PIE_OTEL_ENDPOINT", "")
	t.Setenv("PIE_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("PIE_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("PIE_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address: nothing is exported because no span is recorded.
	t.Setenv("PIE_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("PIE_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopShutdownIgnoresCancelledContext(t *testing.T) {
	t.Setenv("PIE_OTEL_ENDPOINT", "")
	t.Setenv("PIE_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "noop-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}
