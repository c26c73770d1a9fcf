// Package config resolves the scan configuration (spec.md §6 CLI surface)
// from flags, environment variables, and an optional config file, using
// viper the way the teacher's own config package resolves dictionary data:
// a lazily-built singleton with a multi-path search for its source.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Settings is the resolved configuration object the core scan driver
// consumes (spec.md §6).
type Settings struct {
	Subnet       string
	Targets      string
	Name         string
	Category     string
	Threads      int
	Timeout      time.Duration
	Proxy        string
	Fingerprint  bool
	DryRun       bool
	Validate     bool
	Dump         bool
	Contributors bool
	CatalogueDir string
	LogLevel     string
	Verbose      bool
	Debug        bool

	// RedisAddr, when non-empty, routes probes through the distributed
	// queue (queue.Queue) instead of scanning them in-process (SPEC_FULL.md
	// §7.2). Empty means the queue is disabled and scanning stays local.
	RedisAddr string
}

// candidatePaths mirrors the teacher's GetDictBasePath multi-path search:
// try the working directory, then common project-relative locations,
// before falling back to a default.
var candidatePaths = []string{
	".",
	"./config",
	"../config",
}

var (
	v     *viper.Viper
	vOnce sync.Once
)

func instance() *viper.Viper {
	vOnce.Do(func() {
		v = viper.New()
		v.SetConfigName("latchkey")
		v.SetConfigType("yaml")
		for _, p := range candidatePaths {
			v.AddConfigPath(p)
		}

		v.SetEnvPrefix("LATCHKEY")
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()

		v.SetDefault("threads", 10)
		v.SetDefault("timeout", 10)
		v.SetDefault("catalogue_dir", "catalogue")
		v.SetDefault("redis_addr", "")

		// A missing config file is not fatal: flags/env/defaults still
		// resolve a usable Settings (spec.md §6: "Environment: None
		// required").
		_ = v.ReadInConfig()
	})
	return v
}

// Load builds Settings from the merged flag/env/file/default view. flags,
// if non-nil, take precedence over the file and environment (viper's
// BindPFlag would do the same for a *pflag.FlagSet; Load accepts a plain
// map so cmd/latchkey's flag package output can be passed through without
// an extra dependency).
func Load(flags map[string]string) (*Settings, error) {
	vi := instance()
	for k, val := range flags {
		vi.Set(k, val)
	}

	s := &Settings{
		Subnet:       vi.GetString("subnet"),
		Targets:      vi.GetString("targets"),
		Name:         vi.GetString("name"),
		Category:     vi.GetString("category"),
		Threads:      vi.GetInt("threads"),
		Timeout:      time.Duration(vi.GetInt("timeout")) * time.Second,
		Proxy:        vi.GetString("proxy"),
		Fingerprint:  vi.GetBool("fingerprint"),
		DryRun:       vi.GetBool("dryrun"),
		Validate:     vi.GetBool("validate"),
		Dump:         vi.GetBool("dump"),
		Contributors: vi.GetBool("contributors"),
		CatalogueDir: vi.GetString("catalogue_dir"),
		LogLevel:     vi.GetString("log"),
		Verbose:      vi.GetBool("verbose"),
		Debug:        vi.GetBool("debug"),
		RedisAddr:    vi.GetString("redis_addr"),
	}

	if s.Threads <= 0 {
		return nil, fmt.Errorf("threads must be positive, got %d", s.Threads)
	}
	if s.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}

	return s, nil
}

// Reset clears the singleton, for tests that need a clean viper instance
// across Load calls (mirrors the teacher's ReloadDictConfig).
func Reset() {
	vOnce = sync.Once{}
	v = nil
}
