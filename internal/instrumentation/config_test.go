package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Config
	}{
		{
			name: "defaults",
			want: Config{
				ServiceName:        "mcp-podfs",
				ServiceVersion:     "unknown",
				MetricsExporter:    ExporterPrometheus,
				TracingExporter:    ExporterNone,
				TraceSamplingRate:  0.1,
				PrometheusEndpoint: "/metrics",
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"OTEL_SERVICE_NAME":           "podfs-aks",
				"INSTRUMENTATION_ENABLED":     "true",
				"TRACING_EXPORTER":            "otlp",
				"OTEL_EXPORTER_OTLP_ENDPOINT": "otel-collector.monitoring:4318",
				"OTEL_EXPORTER_OTLP_INSECURE": "1",
				"OTEL_TRACES_SAMPLER_ARG":     "0.25",
				"PROMETHEUS_ENDPOINT":         "/internal/metrics",
				"METRICS_DETAILED_LABELS":     "true",
			},
			want: Config{
				ServiceName:        "podfs-aks",
				ServiceVersion:     "unknown",
				Enabled:            true,
				MetricsExporter:    ExporterPrometheus,
				TracingExporter:    ExporterOTLP,
				OTLPEndpoint:       "otel-collector.monitoring:4318",
				OTLPInsecure:       true,
				TraceSamplingRate:  0.25,
				PrometheusEndpoint: "/internal/metrics",
				DetailedLabels:     true,
			},
		},
		{
			name: "unparseable values keep defaults",
			env: map[string]string{
				"INSTRUMENTATION_ENABLED": "sometimes",
				"OTEL_TRACES_SAMPLER_ARG": "half",
			},
			want: Config{
				ServiceName:        "mcp-podfs",
				ServiceVersion:     "unknown",
				MetricsExporter:    ExporterPrometheus,
				TracingExporter:    ExporterNone,
				TraceSamplingRate:  0.1,
				PrometheusEndpoint: "/metrics",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, DefaultConfig())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "sampling rate above one",
			mutate:  func(c *Config) { c.TraceSamplingRate = 1.5 },
			wantErr: "trace sampling rate",
		},
		{
			name:    "negative sampling rate",
			mutate:  func(c *Config) { c.TraceSamplingRate = -0.1 },
			wantErr: "trace sampling rate",
		},
		{
			name:    "unknown metrics exporter",
			mutate:  func(c *Config) { c.MetricsExporter = "statsd" },
			wantErr: `unsupported metrics exporter "statsd"`,
		},
		{
			name:    "unknown tracing exporter",
			mutate:  func(c *Config) { c.TracingExporter = "jaeger" },
			wantErr: `unsupported tracing exporter "jaeger"`,
		},
		{
			name:    "otlp tracing without endpoint",
			mutate:  func(c *Config) { c.TracingExporter = ExporterOTLP },
			wantErr: "OTLP tracing requires",
		},
		{
			name:    "otlp metrics without endpoint",
			mutate:  func(c *Config) { c.MetricsExporter = ExporterOTLP },
			wantErr: "OTLP metrics require",
		},
		{
			name: "otlp with endpoint",
			mutate: func(c *Config) {
				c.MetricsExporter = ExporterOTLP
				c.TracingExporter = ExporterOTLP
				c.OTLPEndpoint = "localhost:4318"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
