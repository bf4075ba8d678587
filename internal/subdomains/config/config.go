package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "SUBDOMAINS_"

// AppConfig holds the settings of the subdomains command line tool.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Workers bounds the number of lines parsed concurrently by scan.
	Workers int `koanf:"workers" validate:"gte=1,lte=1024"`

	// CacheSize is the number of parse results memoized by scan. 0 disables the cache.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// BloomCapacity and BloomFPRate size the filter behind scan --unique.
	BloomCapacity uint    `koanf:"bloom_capacity" validate:"gte=1"`
	BloomFPRate   float64 `koanf:"bloom_fp_rate" validate:"fp_rate"`

	// IndexPath is the bbolt database that records extracted registrable domains.
	IndexPath string `koanf:"index_path" validate:"required"`

	// AllowUnlistedTLD accepts hosts whose TLD is not on the Public Suffix List.
	AllowUnlistedTLD bool `koanf:"allow_unlisted_tld"`

	// MetricsFile, when set, receives Prometheus text-format metrics after a scan.
	MetricsFile string `koanf:"metrics_file"`
}

// DEFAULT_APP_CONFIG holds the values used when neither a file nor the
// environment overrides a key.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:           "prod",
	LogLevel:      "warn",
	Workers:       4,
	CacheSize:     4096,
	BloomCapacity: 100_000,
	BloomFPRate:   0.001,
	IndexPath:     "subdomains.db",
}

// validFPRate accepts false-positive rates strictly between 0 and 1.
func validFPRate(fl validator.FieldLevel) bool {
	p := fl.Field().Float()
	return p > 0 && p < 1
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// fileLoader reads an optional YAML, JSON or TOML file chosen by extension.
var fileLoader = func(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return k.Load(file.Provider(path), yaml.Parser())
	case ".json":
		return k.Load(file.Provider(path), json.Parser())
	case ".toml":
		return k.Load(file.Provider(path), toml.Parser())
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
}

var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), strings.TrimSpace(value)
		},
	}), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("fp_rate", validFPRate)
}

// Load builds the configuration from defaults, then the optional file at path,
// then SUBDOMAINS_* environment variables, and validates the result.
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := fileLoader(k, path); err != nil {
		return nil, fmt.Errorf("error loading config file: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
