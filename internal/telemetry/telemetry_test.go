package telemetry

import (
	"context"
	"testing"
)

func TestInitTelemetry_NoEndpoint(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), "test-service", "v1.0.0", "test", "", nil)
	if err != nil {
		t.Fatalf("InitTelemetry failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want Endpoint
	}{
		{"http://localhost:4318", Endpoint{Host: "localhost:4318", TracePath: "/v1/traces", LogPath: "/v1/logs", MetricPath: "/v1/metrics", Insecure: true}},
		{"https://otlp-gateway.grafana.net/otlp", Endpoint{Host: "otlp-gateway.grafana.net", TracePath: "/otlp/v1/traces", LogPath: "/otlp/v1/logs", MetricPath: "/otlp/v1/metrics"}},
		{"https://collector.example.com/custom/v1/traces", Endpoint{Host: "collector.example.com", TracePath: "/custom/v1/traces", LogPath: "/custom/v1/logs", MetricPath: "/custom/v1/metrics"}},
		{"collector:4318", Endpoint{Host: "collector:4318", TracePath: "/v1/traces", LogPath: "/v1/logs", MetricPath: "/v1/metrics"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseEndpoint(tt.in); got != tt.want {
				t.Errorf("ParseEndpoint(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTracer(t *testing.T) {
	if Tracer("test-tracer") == nil {
		t.Fatal("Tracer returned nil")
	}
}
