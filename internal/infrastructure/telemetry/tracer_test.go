package telemetry

import (
	"context"
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:4318", "localhost:4318"},
		{"https://collector:4318/v1/traces", "collector:4318"},
		{"otel:4318", "otel:4318"},
	}
	for _, tt := range tests {
		if got := parseEndpoint(tt.in); got != tt.want {
			t.Errorf("parseEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
	if TracerProvider != nil {
		t.Error("expected no tracer provider while disabled")
	}
}
