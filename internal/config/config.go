package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Fingerprint FingerprintConfig `yaml:"fingerprint" mapstructure:"fingerprint"`
	Grouping    GroupingConfig    `yaml:"grouping" mapstructure:"grouping"`
	Mapping     MappingConfig     `yaml:"mapping" mapstructure:"mapping"`
	Reconcile   ReconcileConfig   `yaml:"reconcile" mapstructure:"reconcile"`
	Validate    ValidateConfig    `yaml:"validate" mapstructure:"validate"`
	Registry    RegistryConfig    `yaml:"registry" mapstructure:"registry"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Docstore    DocstoreConfig    `yaml:"docstore" mapstructure:"docstore"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// PipelineConfig configures the intake pipeline's on-disk state and batching.
type PipelineConfig struct {
	WorkDir      string `yaml:"work_dir" mapstructure:"work_dir"`
	BatchCeiling int    `yaml:"batch_ceiling" mapstructure:"batch_ceiling"`
}

// FingerprintConfig configures the fingerprinting engine.
type FingerprintConfig struct {
	EmptyThreshold int `yaml:"empty_threshold" mapstructure:"empty_threshold"`
	Workers        int `yaml:"workers" mapstructure:"workers"`
}

// GroupingConfig configures structural clustering. The thresholds were tuned
// by manual review of historical model files, not derived analytically, so
// they are configuration rather than constants.
type GroupingConfig struct {
	IdentityThreshold   float64 `yaml:"identity_threshold" mapstructure:"identity_threshold"`
	SubVariantThreshold float64 `yaml:"sub_variant_threshold" mapstructure:"sub_variant_threshold"`
}

// MappingConfig configures the reference mapper.
type MappingConfig struct {
	SynonymsPath string `yaml:"synonyms_path" mapstructure:"synonyms_path"`
}

// ReconcileConfig configures property-name reconciliation.
type ReconcileConfig struct {
	MaxEditDistance int     `yaml:"max_edit_distance" mapstructure:"max_edit_distance"`
	TokenOverlap    float64 `yaml:"token_overlap" mapstructure:"token_overlap"`
}

// ValidateConfig configures accuracy validation tolerances.
type ValidateConfig struct {
	RelativeTolerance float64 `yaml:"relative_tolerance" mapstructure:"relative_tolerance"`
	AbsoluteTolerance float64 `yaml:"absolute_tolerance" mapstructure:"absolute_tolerance"`
	MinAccuracy       float64 `yaml:"min_accuracy" mapstructure:"min_accuracy"`
}

// RegistryConfig locates the canonical field-reference workbook and the
// property registry database.
type RegistryConfig struct {
	FieldTablePath string `yaml:"field_table_path" mapstructure:"field_table_path"`
	PropertyDBURL  string `yaml:"property_db_url" mapstructure:"property_db_url"`
}

// StoreConfig configures the extraction-results database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DocstoreConfig configures the remote document-store clients.
type DocstoreConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	FTPAddr        string  `yaml:"ftp_addr" mapstructure:"ftp_addr"`
	FTPUser        string  `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword    string  `yaml:"ftp_password" mapstructure:"ftp_password"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("UNDERWRITING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("pipeline.work_dir", "./pipeline-state")
	v.SetDefault("pipeline.batch_ceiling", 500)
	v.SetDefault("fingerprint.empty_threshold", 20)
	v.SetDefault("fingerprint.workers", 8)
	v.SetDefault("grouping.identity_threshold", 0.95)
	v.SetDefault("grouping.sub_variant_threshold", 0.80)
	v.SetDefault("reconcile.max_edit_distance", 3)
	v.SetDefault("reconcile.token_overlap", 0.90)
	v.SetDefault("validate.relative_tolerance", 0.0001)
	v.SetDefault("validate.absolute_tolerance", 1e-10)
	v.SetDefault("validate.min_accuracy", 0.95)
	v.SetDefault("store.path", "underwriting.db")
	v.SetDefault("docstore.requests_per_sec", 4.0)
	v.SetDefault("docstore.timeout_secs", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
