// Package config loads the parameters of a simulation from a YAML file and
// the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/dram"
	"github.com/sarchlab/cachesim/mem/memsys"
	"github.com/sarchlab/cachesim/sim"
)

var (
	// ErrInvalidLineSize is returned when the line size is not a power of 2.
	ErrInvalidLineSize = errors.New("line size must be a power of 2")

	// ErrWrongCoreCount is returned when the number of cores does not fit
	// the mode.
	ErrWrongCoreCount = errors.New("number of cores does not fit the mode")
)

// Environment variables that override the file.
const (
	EnvMode     = "CACHESIM_MODE"
	EnvNumCores = "CACHESIM_NUM_CORES"
	EnvSeed     = "CACHESIM_SEED"
)

// CacheConfig is the geometry of a cache.
type CacheConfig struct {
	Size  uint64 `yaml:"size"`
	Assoc int    `yaml:"assoc"`
}

// DramConfig selects the DRAM model.
type DramConfig struct {
	PagePolicy string `yaml:"page_policy"`
}

// Config holds all the parameters of a simulation. Fields left empty are
// filled by Resolve according to the mode. PartitionCore0Ways is a pointer
// so that a quota of zero ways can be told apart from no quota.
type Config struct {
	Mode               string      `yaml:"mode"`
	NumCores           int         `yaml:"num_cores"`
	LineSize           uint64      `yaml:"line_size"`
	ReplPolicy         string      `yaml:"repl_policy"`
	L2ReplPolicy       string      `yaml:"l2_repl_policy"`
	PartitionCore0Ways *int        `yaml:"partition_core0_ways"`
	Seed               int64       `yaml:"seed"`
	DCache             CacheConfig `yaml:"dcache"`
	ICache             CacheConfig `yaml:"icache"`
	L2Cache            CacheConfig `yaml:"l2cache"`
	Dram               DramConfig  `yaml:"dram"`
}

// Default returns the configuration used when nothing is specified: mode A,
// 32KB 8-way L1 caches, a 1MB 16-way L2, 64-byte lines and LRU replacement.
func Default() *Config {
	return &Config{
		Mode:       "A",
		LineSize:   64,
		ReplPolicy: "lru",
		DCache:     CacheConfig{Size: 32 * cache.KB, Assoc: 8},
		ICache:     CacheConfig{Size: 32 * cache.KB, Assoc: 8},
		L2Cache:    CacheConfig{Size: 1024 * cache.KB, Assoc: 16},
	}
}

// Load reads a YAML file on top of the defaults, applies the environment
// overrides, and resolves the mode-dependent fields. An empty path skips
// the file. Unknown keys in the file are errors.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}

		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(c); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}

	c.Resolve()

	return c, nil
}

// LoadDotEnv loads the given .env files into the environment. Variables
// already set win. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return nil
}

// ApplyEnv overrides the mode, the number of cores and the seed with the
// environment variables that are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvMode); v != "" {
		c.Mode = v
	}

	if v := os.Getenv(EnvNumCores); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNumCores, err)
		}

		c.NumCores = n
	}

	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}

		c.Seed = seed
	}

	return nil
}

// Resolve fills the fields whose default depends on the mode. Mode B uses a
// fixed-latency DRAM, modes C to E an open-page DRAM and mode F a
// close-page DRAM. Mode E partitions the L2 evenly between the cores.
// An unknown mode is left for Validate to report.
func (c *Config) Resolve() {
	mode, err := sim.ParseMode(c.Mode)
	if err != nil {
		return
	}

	if c.NumCores == 0 {
		c.NumCores = 1
		if mode.IsMultiCore() {
			c.NumCores = 2
		}
	}

	if c.L2ReplPolicy == "" {
		c.L2ReplPolicy = c.ReplPolicy
		if mode == sim.ModeE {
			c.L2ReplPolicy = "partition"
		}
	}

	if c.PartitionCore0Ways == nil {
		half := c.L2Cache.Assoc / 2
		c.PartitionCore0Ways = &half
	}

	if c.Dram.PagePolicy == "" {
		switch mode {
		case sim.ModeA, sim.ModeB:
			c.Dram.PagePolicy = "fixed"
		case sim.ModeF:
			c.Dram.PagePolicy = "close"
		default:
			c.Dram.PagePolicy = "open"
		}
	}
}

// Validate checks the configuration by building a memory system from it.
func (c *Config) Validate() error {
	b, err := c.MemsysBuilder()
	if err != nil {
		return err
	}

	_, err = b.Build()

	return err
}

// MemsysBuilder converts the configuration into a memory system builder.
// The builder still needs a clock.
func (c *Config) MemsysBuilder() (memsys.Builder, error) {
	b := memsys.MakeBuilder()

	mode, err := sim.ParseMode(c.Mode)
	if err != nil {
		return b, err
	}

	if c.NumCores < 1 || c.NumCores > memsys.MaxCores {
		return b, fmt.Errorf("%w: %d", memsys.ErrTooManyCores, c.NumCores)
	}

	if mode.IsMultiCore() && c.NumCores != memsys.MaxCores {
		return b, fmt.Errorf("%w: mode %s needs %d cores, got %d",
			ErrWrongCoreCount, mode, memsys.MaxCores, c.NumCores)
	}

	if c.LineSize == 0 || c.LineSize&(c.LineSize-1) != 0 {
		return b, fmt.Errorf("%w: %d", ErrInvalidLineSize, c.LineSize)
	}

	policy, err := cache.ParsePolicy(c.ReplPolicy)
	if err != nil {
		return b, err
	}

	l2Policy, err := cache.ParsePolicy(c.L2ReplPolicy)
	if err != nil {
		return b, err
	}

	pagePolicy, err := dram.ParsePagePolicy(c.Dram.PagePolicy)
	if err != nil {
		return b, err
	}

	b = b.WithMode(mode).
		WithNumCores(c.NumCores).
		WithLineSize(c.LineSize).
		WithDCache(c.DCache.memsysConfig()).
		WithICache(c.ICache.memsysConfig()).
		WithL2Cache(c.L2Cache.memsysConfig()).
		WithReplacementPolicy(policy).
		WithL2ReplacementPolicy(l2Policy).
		WithPartitionCore0Ways(c.core0Ways()).
		WithPagePolicy(pagePolicy).
		WithSeed(c.Seed)

	return b, nil
}

func (c *Config) core0Ways() int {
	if c.PartitionCore0Ways == nil {
		return c.L2Cache.Assoc / 2
	}

	return *c.PartitionCore0Ways
}

func (cc CacheConfig) memsysConfig() memsys.CacheConfig {
	return memsys.CacheConfig{ByteSize: cc.Size, WayAssociativity: cc.Assoc}
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}

	return string(out)
}
