package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NativeAsset != "rvn" || cfg.Registry != "memory" || cfg.Events != "none" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DecodeTimeout != 5*time.Second || cfg.UpdateBuffer != 16 {
		t.Fatalf("unexpected coordinator defaults: %s %d", cfg.DecodeTimeout, cfg.UpdateBuffer)
	}
	if cfg.MaxRetries != 5 || cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("unexpected retry defaults: %d %s", cfg.MaxRetries, cfg.RetryBackoff)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "swapexec.yaml")
	content := "rpc: http://file:8766\nregistry: file\nkafka-brokers:\n  - k1:9092\n  - k2:9092\ndecode-timeout: 2s\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SWAPEXEC_REGISTRY", "redis")
	t.Setenv("SWAPEXEC_RPC_USER", "alice")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Duration("decode-timeout", 5*time.Second, "")
	if err := flags.Parse([]string{"--rpc", "http://flag:8766"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(cfgFile, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://flag:8766" {
		t.Fatalf("flag should win: %s", cfg.RPCURL)
	}
	if cfg.Registry != "redis" {
		t.Fatalf("env should beat file: %s", cfg.Registry)
	}
	if cfg.RPCUser != "alice" {
		t.Fatalf("env value missing: %q", cfg.RPCUser)
	}
	if cfg.DecodeTimeout != 2*time.Second {
		t.Fatalf("file should beat unset flag default: %s", cfg.DecodeTimeout)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}

func TestLoadBrokersFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SWAPEXEC_KAFKA_BROKERS", " k1:9092, ,k2:9092 ")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "k1:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SWAPEXEC_DECODE_TIMEOUT", "0s")

	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadBrokersFromRepeatedFlag(t *testing.T) {
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSlice("kafka-brokers", nil, "")
	if err := flags.Parse([]string{"--kafka-brokers", "k1:9092,k2:9092", "--kafka-brokers", "k3:9092"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 3 || cfg.KafkaBrokers[2] != "k3:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
