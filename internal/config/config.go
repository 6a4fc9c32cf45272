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
	RPCURL           string
	Graph            string
	Address          string
	Events           []string
	ProverURL        string
	PrivateKey       string
	Wasm             string
	ImageHash        string
	Out              string
	OutFile          string
	PGDSN            string
	FetchConcurrency int
	BatchSize        uint64
	PerTxReceipts    bool
	MaxRetries       int
	RetryBackoff     time.Duration
	VerifyRoot       bool
	AllowEmpty       bool
	StateHandler     string
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ZKGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("graph", "./src/zkgraph.yaml")
	v.SetDefault("wasm", "./build/zkgraph_full.wasm")
	v.SetDefault("fetch-concurrency", 4)
	v.SetDefault("batch-size", uint64(100))
	v.SetDefault("per-tx-receipts", false)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("verify-root", true)
	v.SetDefault("allow-empty", false)
	v.SetDefault("state-handler", "none")
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
		RPCURL:           v.GetString("rpc"),
		Graph:            v.GetString("graph"),
		Address:          strings.TrimSpace(v.GetString("address")),
		Events:           getStringSlice(v, "event"),
		ProverURL:        v.GetString("prover-url"),
		PrivateKey:       v.GetString("private-key"),
		Wasm:             v.GetString("wasm"),
		ImageHash:        strings.ToUpper(strings.TrimSpace(v.GetString("image-hash"))),
		Out:              v.GetString("out"),
		OutFile:          v.GetString("outfile"),
		PGDSN:            v.GetString("pg-dsn"),
		FetchConcurrency: v.GetInt("fetch-concurrency"),
		BatchSize:        v.GetUint64("batch-size"),
		PerTxReceipts:    v.GetBool("per-tx-receipts"),
		MaxRetries:       v.GetInt("max-retries"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		VerifyRoot:       v.GetBool("verify-root"),
		AllowEmpty:       v.GetBool("allow-empty"),
		StateHandler:     v.GetString("state-handler"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

// splitAndClean splits on ';' so signatures such as Swap(address,uint256) survive.
func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ";")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
