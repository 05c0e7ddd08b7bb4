package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/i474232898/air-quality-collector/internal/airquality/providers"
	"github.com/i474232898/air-quality-collector/internal/common"
)

// ErrConfiguration marks configuration the process cannot start with.
var ErrConfiguration = errors.New("invalid configuration")

const (
	envPrefix    = "AIRQ_"
	envFile      = "AIRQ_CONFIG"
	envLegacyKey = "API_KEY"
)

// DefaultRegions are the tracked metropolitan areas. The names double as the
// join key of the dashboard's coordinate table.
var DefaultRegions = []string{"서울", "인천", "울산", "대전", "부산", "광주", "대구"}

// AppConfig is immutable once loaded and handed to constructors.
type AppConfig struct {
	APIKey string `koanf:"api_key" validate:"required"`
	APIURL string `koanf:"api_url" validate:"required,url"`

	// Regions to collect, fetched sequentially every cycle.
	Regions []string `koanf:"regions" validate:"min=1,unique,dive,required"`

	// CollectInterval is the period between cycle starts.
	CollectInterval time.Duration `koanf:"collect_interval" validate:"gt=0"`
	HTTPTimeout     time.Duration `koanf:"http_timeout" validate:"gt=0"`

	OutputPath string `koanf:"output_path" validate:"required"`
	Port       string `koanf:"port" validate:"required,numeric"`
	LogLevel   string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`

	// Optional sinks.
	SQLitePath   string `koanf:"sqlite_path"`
	MQTTBroker   string `koanf:"mqtt_broker" validate:"omitempty,url"`
	MQTTTopic    string `koanf:"mqtt_topic" validate:"required_with=MQTTBroker"`
	MQTTClientID string `koanf:"mqtt_client_id"`

	GeocoderAPIKey string `koanf:"geocoder_api_key"`

	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout" validate:"required_with=BreakerFailureThreshold"`
}

// New returns the defaults.
func New() *AppConfig {
	regions := make([]string, len(DefaultRegions))
	copy(regions, DefaultRegions)
	return &AppConfig{
		APIURL:                  providers.DefaultAirKoreaURL,
		Regions:                 regions,
		CollectInterval:         time.Hour,
		HTTPTimeout:             10 * time.Second,
		OutputPath:              "air_quality.json",
		Port:                    "8080",
		LogLevel:                "info",
		MQTTTopic:               "airquality/snapshots",
		MQTTClientID:            "air-quality-collector",
		BreakerFailureThreshold: 3,
		BreakerTimeout:          30 * time.Minute,
	}
}

// Load layers defaults, the optional YAML file named by AIRQ_CONFIG and AIRQ_*
// environment variables. API_KEY is honoured when AIRQ_API_KEY is unset.
func Load(_ context.Context) (*AppConfig, error) {
	k := koanf.New(".")

	if path := os.Getenv(envFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: load %s: %v", ErrConfiguration, path, err)
		}
	}

	// AIRQ_COLLECT_INTERVAL -> collect_interval
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: load env: %v", ErrConfiguration, err)
	}

	cfg := *New()
	// Decoding into a pre-filled slice keeps its tail, so regions start empty.
	cfg.Regions = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(envLegacyKey)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Regions = common.SplitList(strings.Join(cfg.Regions, ","))
	if len(cfg.Regions) == 0 {
		cfg.Regions = New().Regions
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints. Every failure wraps ErrConfiguration.
func (c *AppConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key is required (set AIRQ_API_KEY or API_KEY)", ErrConfiguration)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}
