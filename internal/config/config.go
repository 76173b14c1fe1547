package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL      string
	RPCUser     string
	RPCPassword string
	Network     string
	NativeAsset string

	DecodeTimeout time.Duration
	UpdateBuffer  int

	Registry      string
	RegistryFile  string
	PGDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	Events       string
	EventsTopic  string
	KafkaBrokers []string
	Journal      string

	MaxRetries   int
	RetryBackoff time.Duration
	MetricsAddr  string
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SWAPEXEC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", "mainnet")
	v.SetDefault("native-asset", "rvn")
	v.SetDefault("decode-timeout", 5*time.Second)
	v.SetDefault("update-buffer", 16)
	v.SetDefault("registry", "memory")
	v.SetDefault("registry-file", "./data/assets.json")
	v.SetDefault("redis-key", "swapexec:assets")
	v.SetDefault("events", "none")
	v.SetDefault("events-topic", "swapexec.executions")
	v.SetDefault("journal", "./data/executions.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:        v.GetString("rpc"),
		RPCUser:       v.GetString("rpc-user"),
		RPCPassword:   v.GetString("rpc-password"),
		Network:       v.GetString("network"),
		NativeAsset:   v.GetString("native-asset"),
		DecodeTimeout: v.GetDuration("decode-timeout"),
		UpdateBuffer:  v.GetInt("update-buffer"),
		Registry:      strings.ToLower(v.GetString("registry")),
		RegistryFile:  v.GetString("registry-file"),
		PGDSN:         v.GetString("pg-dsn"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		RedisKey:      v.GetString("redis-key"),
		Events:        strings.ToLower(v.GetString("events")),
		EventsTopic:   v.GetString("events-topic"),
		KafkaBrokers:  listValue(v, "kafka-brokers"),
		Journal:       v.GetString("journal"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		MetricsAddr:   v.GetString("metrics-addr"),
		LogLevel:      v.GetString("log-level"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c Config) Validate() error {
	if c.DecodeTimeout <= 0 {
		return fmt.Errorf("decode-timeout must be positive, got %s", c.DecodeTimeout)
	}
	if c.UpdateBuffer <= 0 {
		return fmt.Errorf("update-buffer must be positive, got %d", c.UpdateBuffer)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must not be negative, got %d", c.MaxRetries)
	}
	if strings.TrimSpace(c.NativeAsset) == "" {
		return fmt.Errorf("native-asset is required")
	}
	return nil
}

// listValue reads key as a list. Items may also carry comma-separated values,
// which is how env vars and single flags supply several brokers.
func listValue(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
