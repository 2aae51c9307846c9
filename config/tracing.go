package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/ilyakaznacheev/cleanenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const defaultOTLPTracesPath = "/v1/traces"

type TracingConfig struct {
	Enabled     bool    `env:"OTEL_TRACES_ENABLED" env-default:"false"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" env-default:"carbioo-api"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"http://localhost:4318"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO" env-default:"1"`
}

func LoadTracingConfig() (*TracingConfig, error) {
	var cfg TracingConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read tracing config: %w", err)
	}

	cfg.ServiceName = strings.TrimSpace(cfg.ServiceName)
	if cfg.ServiceName == "" {
		cfg.ServiceName = "carbioo-api"
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("OTEL_TRACES_SAMPLER_RATIO must be within [0,1], got %g", cfg.SampleRatio)
	}
	return &cfg, nil
}

// RouterServiceName is the otelgin span name, or empty to leave the router
// uninstrumented.
func (c *TracingConfig) RouterServiceName() string {
	if c == nil || !c.Enabled {
		return ""
	}
	return c.ServiceName
}

// SetupTracing installs the global tracer provider. The returned shutdown is
// nil when tracing is off.
func SetupTracing(logger *log.Logger, cfg *TracingConfig, env Environment) (func(context.Context) error, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	endpoint, err := parseOTLPEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(context.Background(), endpoint.options()...)
	if err != nil {
		return nil, fmt.Errorf("setup tracing exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("deployment.environment", string(env)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("setup tracing resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("OpenTelemetry tracing enabled",
		"service", cfg.ServiceName,
		"endpoint", endpoint.HostPort+endpoint.Path,
		"sample_ratio", cfg.SampleRatio,
	)

	return tp.Shutdown, nil
}

type otlpEndpoint struct {
	HostPort string
	Path     string
	Insecure bool
}

func (e otlpEndpoint) options() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(e.HostPort),
		otlptracehttp.WithURLPath(e.Path),
	}
	if e.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// parseOTLPEndpoint accepts http(s)://host:port[/path] or a bare host:port,
// which is taken as plain http.
func parseOTLPEndpoint(raw string) (otlpEndpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return otlpEndpoint{}, fmt.Errorf("empty OTLP endpoint")
	}

	if !strings.Contains(raw, "://") {
		if strings.ContainsAny(raw, "/?#") {
			return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: a path needs a scheme, e.g. http://host:port/path", raw)
		}
		return otlpEndpoint{HostPort: raw, Path: defaultOTLPTracesPath, Insecure: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return otlpEndpoint{}, fmt.Errorf("unsupported OTLP endpoint scheme %q", u.Scheme)
	}

	path := u.EscapedPath()
	if path == "" || path == "/" {
		path = defaultOTLPTracesPath
	}

	return otlpEndpoint{HostPort: u.Host, Path: path, Insecure: scheme == "http"}, nil
}
