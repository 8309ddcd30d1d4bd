package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_ENVIRONMENT", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := DefaultConfig()

	if cfg.ServiceName != "mealdb-mcp-server" {
		t.Errorf("Expected ServiceName 'mealdb-mcp-server', got %q", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "1.0.0" {
		t.Errorf("Expected ServiceVersion '1.0.0', got %q", cfg.ServiceVersion)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected Environment 'development', got %q", cfg.Environment)
	}
	if cfg.Enabled {
		t.Error("Expected Enabled to be false by default")
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("Expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDefaultConfig_WithEnvVars(t *testing.T) {
	t.Setenv("OTEL_ENVIRONMENT", "production")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	cfg := DefaultConfig()

	if cfg.Environment != "production" {
		t.Errorf("Expected Environment 'production', got %q", cfg.Environment)
	}
	if !cfg.Enabled {
		t.Error("Expected Enabled to be true")
	}
	if cfg.OTLPEndpoint != "localhost:4318" {
		t.Errorf("Expected OTLPEndpoint 'localhost:4318', got %q", cfg.OTLPEndpoint)
	}
}

func TestDefaultConfig_EnabledByEndpoint(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	if !DefaultConfig().Enabled {
		t.Error("Expected Enabled to be true when OTLP endpoint is set")
	}
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown returned error: %v", err)
	}
}

func TestSetup_EnabledWithStdout(t *testing.T) {
	cfg := Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		Enabled:        true,
		SampleRate:     1.0,
	}

	shutdown, err := Setup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if Tracer() == nil {
		t.Error("Expected tracer to be non-nil")
	}
}

func TestNewResource_MatchesDefaultSchema(t *testing.T) {
	res, err := newResource(Config{ServiceName: "svc", ServiceVersion: "2.0.0", Environment: "test"})
	if err != nil {
		t.Fatalf("newResource failed: %v", err)
	}
	if res.SchemaURL() != resource.Default().SchemaURL() {
		t.Errorf("Expected schema %q, got %q", resource.Default().SchemaURL(), res.SchemaURL())
	}

	name, ok := res.Set().Value("service.name")
	if !ok || name.AsString() != "svc" {
		t.Errorf("Expected service.name 'svc', got %v", name)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, sdktrace.AlwaysSample().Description()},
		{1.5, sdktrace.AlwaysSample().Description()},
		{0, sdktrace.NeverSample().Description()},
		{-0.5, sdktrace.NeverSample().Description()},
		{0.5, sdktrace.TraceIDRatioBased(0.5).Description()},
	}

	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestSpanHelpers(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test-span")
	defer span.End()

	if ctx == nil || span == nil {
		t.Fatal("StartSpan returned nil")
	}

	// None of these should panic on a no-op span.
	AddToolAttributes(span, "search_recipes", "search")
	AddRecipeAPIAttributes(span, "search", "Arrabiata")
	AddRecipeAPIAttributes(span, "random", "")
	AddIndexAttributes(span, 3, 42)
	RecordError(span, nil)
	RecordError(span, errors.New("test error"))
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TRACING_TEST_SET", "custom-value")
	t.Setenv("TRACING_TEST_EMPTY", "")

	if got := getEnvOrDefault("TRACING_TEST_SET", "default"); got != "custom-value" {
		t.Errorf("expected custom-value, got %q", got)
	}
	if got := getEnvOrDefault("TRACING_TEST_EMPTY", "default"); got != "default" {
		t.Errorf("expected default for empty var, got %q", got)
	}
	if got := getEnvOrDefault("TRACING_TEST_UNSET_XYZ", "default"); got != "default" {
		t.Errorf("expected default for unset var, got %q", got)
	}
}

func TestTracerName(t *testing.T) {
	if TracerName != "mealdb-mcp-server" {
		t.Errorf("Expected TracerName 'mealdb-mcp-server', got %q", TracerName)
	}
}
