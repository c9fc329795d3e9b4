package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const localBlobSecret = "eventlens-local-dev"

type Config struct {
	Environment   string
	Server        ServerConfig
	Database      DatabaseConfig
	Blob          BlobConfig
	Upload        UploadConfig
	Events        EventsConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port        int
	PublicURL   string
	CORSOrigins []string
	RateLimit   float64
}

type DatabaseConfig struct {
	Driver    string
	Path      string
	URL       string
	LogTiming bool
}

type BlobConfig struct {
	Backend string
	Dir     string
	Secret  string
	S3      S3Config
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

type UploadConfig struct {
	TicketTTL      time.Duration
	ConfirmGrace   time.Duration
	MaxUploadBytes int64
	ReaperInterval time.Duration
	NodeID         int64
}

type EventsConfig struct {
	SinkURL string
}

type ObservabilityConfig struct {
	Enabled           bool
	OTLPEndpoint      string
	OTLPTraceHeaders  map[string]string
	OTLPMetricHeaders map[string]string
	ServiceName       string
	ServiceVer        string
	SamplingRatio     float64
	MetricsConsole    bool
}

func Load() (Config, error) {
	return load(true)
}

// LoadForTool loads config for CLI tools that never sign blob URLs.
func LoadForTool() (Config, error) {
	return load(false)
}

func load(requireBlobSecret bool) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("eventlens_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("eventlens_port", 8080)
	v.SetDefault("eventlens_public_url", "")
	v.SetDefault("eventlens_cors_origins", "*")
	v.SetDefault("eventlens_rate_limit", 20.0)
	v.SetDefault("eventlens_db_driver", "sqlite")
	v.SetDefault("eventlens_db_path", "data/eventlens")
	v.SetDefault("eventlens_database_url", "")
	v.SetDefault("eventlens_db_timing", false)
	v.SetDefault("eventlens_blob_backend", "local")
	v.SetDefault("eventlens_blob_dir", "data/blobs")
	v.SetDefault("eventlens_blob_secret", "")
	v.SetDefault("eventlens_s3_bucket", "event-photos")
	v.SetDefault("eventlens_s3_region", "auto")
	v.SetDefault("eventlens_s3_endpoint", "")
	v.SetDefault("eventlens_s3_access_key_id", "")
	v.SetDefault("eventlens_s3_secret_access_key", "")
	v.SetDefault("eventlens_s3_path_style", false)
	v.SetDefault("eventlens_ticket_ttl", "10m")
	v.SetDefault("eventlens_confirm_grace", "10m")
	v.SetDefault("eventlens_max_upload_bytes", 15<<20)
	v.SetDefault("eventlens_reaper_interval", "5m")
	v.SetDefault("eventlens_node_id", 1)
	v.SetDefault("eventlens_events_sink", "")
	v.SetDefault("eventlens_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_exporter_otlp_traces_headers", "")
	v.SetDefault("otel_exporter_otlp_metrics_headers", "")
	v.SetDefault("otel_service_name", "eventlens")
	v.SetDefault("eventlens_version", "dev")
	v.SetDefault("otel_service_version", "")
	v.SetDefault("eventlens_otel_sampling_ratio", 1.0)
	v.SetDefault("eventlens_otel_metrics_console", false)

	env := resolveEnvironment(v)
	port := v.GetInt("eventlens_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid EVENTLENS_PORT: %d", port)
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("eventlens_db_driver")))
	switch driver {
	case "", "sqlite":
		driver = "sqlite"
	case "postgres", "postgresql":
		driver = "postgres"
	default:
		return Config{}, fmt.Errorf("invalid EVENTLENS_DB_DRIVER: %q", driver)
	}
	databaseURL := strings.TrimSpace(v.GetString("eventlens_database_url"))
	if driver == "postgres" && databaseURL == "" {
		return Config{}, fmt.Errorf("EVENTLENS_DATABASE_URL is required for the postgres driver")
	}

	blobBackend := strings.ToLower(strings.TrimSpace(v.GetString("eventlens_blob_backend")))
	switch blobBackend {
	case "", "local":
		blobBackend = "local"
	case "s3", "r2":
		blobBackend = "s3"
	default:
		return Config{}, fmt.Errorf("invalid EVENTLENS_BLOB_BACKEND: %q", blobBackend)
	}

	samplingRatio := v.GetFloat64("eventlens_otel_sampling_ratio")
	if samplingRatio < 0 {
		samplingRatio = 0
	}
	if samplingRatio > 1 {
		samplingRatio = 1
	}

	ticketTTL := v.GetDuration("eventlens_ticket_ttl")
	if ticketTTL < time.Minute {
		ticketTTL = time.Minute
	}
	if ticketTTL > time.Hour {
		ticketTTL = time.Hour
	}

	confirmGrace := v.GetDuration("eventlens_confirm_grace")
	if confirmGrace < 0 {
		confirmGrace = 0
	}
	if confirmGrace > 24*time.Hour {
		confirmGrace = 24 * time.Hour
	}

	reaperInterval := v.GetDuration("eventlens_reaper_interval")
	if reaperInterval <= 0 {
		reaperInterval = 5 * time.Minute
	}
	if reaperInterval < 10*time.Second {
		reaperInterval = 10 * time.Second
	}

	maxUpload := v.GetInt64("eventlens_max_upload_bytes")
	if maxUpload <= 0 {
		maxUpload = 15 << 20
	}
	if maxUpload > 100<<20 {
		maxUpload = 100 << 20
	}

	nodeID := v.GetInt64("eventlens_node_id")
	if nodeID < 0 || nodeID > 1023 {
		return Config{}, fmt.Errorf("invalid EVENTLENS_NODE_ID: %d", nodeID)
	}

	rateLimit := v.GetFloat64("eventlens_rate_limit")
	if rateLimit < 0 {
		rateLimit = 0
	}

	publicURL := strings.TrimRight(strings.TrimSpace(v.GetString("eventlens_public_url")), "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://localhost:%d", port)
	}

	serviceName := strings.TrimSpace(v.GetString("otel_service_name"))
	if serviceName == "" {
		serviceName = "eventlens"
	}

	serviceVersion := strings.TrimSpace(v.GetString("eventlens_version"))
	if serviceVersion == "" {
		serviceVersion = strings.TrimSpace(v.GetString("otel_service_version"))
	}
	if serviceVersion == "" {
		serviceVersion = "dev"
	}

	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))
	otlpCommonHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers"))
	otlpTraceHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_traces_headers"))
	otlpMetricHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_metrics_headers"))
	metricsConsole := v.GetBool("eventlens_otel_metrics_console")
	otelEnabled := v.GetBool("eventlens_otel_enabled") || otlpEndpoint != "" || metricsConsole

	cfg := Config{
		Environment: env,
		Server: ServerConfig{
			Port:        port,
			PublicURL:   publicURL,
			CORSOrigins: splitList(v.GetString("eventlens_cors_origins")),
			RateLimit:   rateLimit,
		},
		Database: DatabaseConfig{
			Driver:    driver,
			Path:      strings.TrimSpace(v.GetString("eventlens_db_path")),
			URL:       databaseURL,
			LogTiming: v.GetBool("eventlens_db_timing"),
		},
		Blob: BlobConfig{
			Backend: blobBackend,
			Dir:     strings.TrimSpace(v.GetString("eventlens_blob_dir")),
			Secret:  strings.TrimSpace(v.GetString("eventlens_blob_secret")),
			S3: S3Config{
				Bucket:          strings.TrimSpace(v.GetString("eventlens_s3_bucket")),
				Region:          strings.TrimSpace(v.GetString("eventlens_s3_region")),
				Endpoint:        strings.TrimSpace(v.GetString("eventlens_s3_endpoint")),
				AccessKeyID:     strings.TrimSpace(v.GetString("eventlens_s3_access_key_id")),
				SecretAccessKey: strings.TrimSpace(v.GetString("eventlens_s3_secret_access_key")),
				PathStyle:       v.GetBool("eventlens_s3_path_style"),
			},
		},
		Upload: UploadConfig{
			TicketTTL:      ticketTTL,
			ConfirmGrace:   confirmGrace,
			MaxUploadBytes: maxUpload,
			ReaperInterval: reaperInterval,
			NodeID:         nodeID,
		},
		Events: EventsConfig{
			SinkURL: strings.TrimSpace(v.GetString("eventlens_events_sink")),
		},
		Observability: ObservabilityConfig{
			Enabled:           otelEnabled,
			OTLPEndpoint:      otlpEndpoint,
			OTLPTraceHeaders:  mergeHeaderMaps(otlpCommonHeaders, otlpTraceHeaders),
			OTLPMetricHeaders: mergeHeaderMaps(otlpCommonHeaders, otlpMetricHeaders),
			ServiceName:       serviceName,
			ServiceVer:        serviceVersion,
			SamplingRatio:     samplingRatio,
			MetricsConsole:    metricsConsole,
		},
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/eventlens"
	}
	if cfg.Blob.Dir == "" {
		cfg.Blob.Dir = "data/blobs"
	}
	if cfg.Blob.Backend == "s3" && cfg.Blob.S3.Bucket == "" {
		return Config{}, fmt.Errorf("EVENTLENS_S3_BUCKET is required for the s3 blob backend")
	}
	if requireBlobSecret && cfg.Blob.Backend == "local" && !cfg.IsLocalDevelopment() && cfg.Blob.Secret == "" {
		return Config{}, fmt.Errorf("EVENTLENS_BLOB_SECRET is required outside local/dev environments")
	}
	if requireBlobSecret && cfg.IsLocalDevelopment() && cfg.Blob.Secret == "" {
		cfg.Blob.Secret = localBlobSecret
	}

	return cfg, nil
}

func parseOTLPHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pair := strings.SplitN(part, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key := strings.TrimSpace(pair[0])
		value := strings.TrimSpace(pair[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeHeaderMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func splitList(raw string) []string {
	out := make([]string, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

// UsesDevBlobSecret reports whether the local fallback signing secret is active.
func (c Config) UsesDevBlobSecret() bool {
	return c.Blob.Backend == "local" && c.Blob.Secret == localBlobSecret
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"eventlens_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
