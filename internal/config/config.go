// Package config loads worker settings from the environment and an optional
// config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pipetask-service/internal/pipetask"
)

const (
	DefaultKafkaBrokers           = "localhost:9092"
	DefaultTaskTopic              = "task_execution_requests"
	DefaultResultTopic            = "task_results"
	DefaultGroupID                = "task-worker-group"
	DefaultDBType                 = "sqlite"
	DefaultSQLiteDSN              = "gorm.db"
	DefaultServerAddr             = ":8080"
	DefaultGRPCAddr               = ":9090"
	DefaultCatalogRefreshInterval = time.Minute
	DefaultMaxConcurrentRuns      = 8
)

// Config is the full worker configuration.
type Config struct {
	KafkaBrokers []string
	TaskTopic    string
	ResultTopic  string
	GroupID      string

	DBType string
	DBDSN  string

	ServerAddr string
	GRPCAddr   string

	// LoggingLevel gates whether task log lines reach stdout. Tasks receive it
	// at construction.
	LoggingLevel           int
	CatalogRefreshInterval time.Duration
	// MaxConcurrentRuns caps how many Kafka requests execute at once.
	MaxConcurrentRuns      int
}

// Load reads configuration from environment variables (KAFKA_BROKERS,
// TASK_TOPIC, ...) and, when PIPETASK_CONFIG names a file, from that file.
// Environment variables win over the file.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetDefault("kafka_brokers", DefaultKafkaBrokers)
	v.SetDefault("task_topic", DefaultTaskTopic)
	v.SetDefault("result_topic", DefaultResultTopic)
	v.SetDefault("group_id", DefaultGroupID)
	v.SetDefault("db_type", DefaultDBType)
	v.SetDefault("db_dsn", "")
	v.SetDefault("server_addr", DefaultServerAddr)
	v.SetDefault("grpc_addr", DefaultGRPCAddr)
	v.SetDefault("logging_level", pipetask.DefaultLoggingLevel)
	v.SetDefault("catalog_refresh_interval", DefaultCatalogRefreshInterval.String())
	v.SetDefault("max_concurrent_runs", DefaultMaxConcurrentRuns)
	v.AutomaticEnv()

	if err := v.BindEnv("config_file", "PIPETASK_CONFIG"); err != nil {
		return Config{}, fmt.Errorf("failed to bind PIPETASK_CONFIG: %w", err)
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		KafkaBrokers:           splitList(v.GetString("kafka_brokers")),
		TaskTopic:              v.GetString("task_topic"),
		ResultTopic:            v.GetString("result_topic"),
		GroupID:                v.GetString("group_id"),
		DBType:                 strings.ToLower(v.GetString("db_type")),
		DBDSN:                  v.GetString("db_dsn"),
		ServerAddr:             v.GetString("server_addr"),
		GRPCAddr:               v.GetString("grpc_addr"),
		LoggingLevel:           v.GetInt("logging_level"),
		CatalogRefreshInterval: v.GetDuration("catalog_refresh_interval"),
		MaxConcurrentRuns:      v.GetInt("max_concurrent_runs"),
	}
	if cfg.DBType == DefaultDBType && cfg.DBDSN == "" {
		cfg.DBDSN = DefaultSQLiteDSN
	}
	return cfg, cfg.Validate()
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS must list at least one broker")
	}
	if c.TaskTopic == "" || c.ResultTopic == "" {
		return errors.New("TASK_TOPIC and RESULT_TOPIC must not be empty")
	}
	switch c.DBType {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q, expected sqlite or mysql", c.DBType)
	}
	if c.CatalogRefreshInterval <= 0 {
		return fmt.Errorf("CATALOG_REFRESH_INTERVAL must be positive, got %s", c.CatalogRefreshInterval)
	}
	if c.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_RUNS must be positive, got %d", c.MaxConcurrentRuns)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
