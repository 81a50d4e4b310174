package regionserver

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the region server's configuration surface, generalizing
// internal/config/model.go's yaml-tagged-struct pattern to the keys and
// defaults spec.md §6 tables under their hbase.regionserver.* names.
type Config struct {
	Address                    string        `yaml:"address"`
	HandlerCount               int           `yaml:"handlerCount"`
	InfoPort                   int           `yaml:"infoPort"`
	MsgInterval                time.Duration `yaml:"msgInterval"`
	MasterLeasePeriod          time.Duration `yaml:"masterLeasePeriod"`
	ScannerLeasePeriod         time.Duration `yaml:"scannerLeasePeriod"`
	SplitCompactCheckFrequency time.Duration `yaml:"splitCompactCheckFrequency"`
	OptionalFlushPeriod        time.Duration `yaml:"optionalFlushPeriod"`
	GlobalMemcacheLimit        int64         `yaml:"globalMemcacheLimit"`
	GlobalMemcacheLimitLowMark int64         `yaml:"globalMemcacheLimitLowMark"`
	RetriesNumber              int           `yaml:"retriesNumber"`
	ThreadWakeFrequency        time.Duration `yaml:"threadWakeFrequency"`
	RootDir                    string        `yaml:"rootDir"`
	MasterAddress              string        `yaml:"masterAddress"`
}

// DefaultConfig mirrors spec.md §6's default column exactly.
func DefaultConfig() Config {
	limit := int64(536870912)
	return Config{
		Address:                    "0.0.0.0:60020",
		HandlerCount:               10,
		InfoPort:                   60030,
		MsgInterval:                3000 * time.Millisecond,
		MasterLeasePeriod:          30000 * time.Millisecond,
		ScannerLeasePeriod:         180000 * time.Millisecond,
		SplitCompactCheckFrequency: 20000 * time.Millisecond,
		OptionalFlushPeriod:        1800000 * time.Millisecond,
		GlobalMemcacheLimit:        limit,
		GlobalMemcacheLimitLowMark: limit / 2,
		RetriesNumber:              2,
		ThreadWakeFrequency:        10000 * time.Millisecond,
		RootDir:                    "/tmp/regionserver",
		MasterAddress:              "127.0.0.1:60000",
	}
}

// LoadConfig reads a yaml file into a Config seeded with defaults,
// following internal/config/loader.go's ReadFile+yaml.Unmarshal shape.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyOverrides merges master-supplied configuration overrides (the
// map<string,string> returned by startup(), spec §6) into cfg. Only the
// keys this core recognizes are applied; unknown keys are ignored, as the
// master may hand back overrides meant for the store/DFS layers this core
// treats as external.
func (c *Config) ApplyOverrides(overrides map[string]string) {
	if v, ok := overrides["rootDir"]; ok && v != "" {
		c.RootDir = v
	}
	if v, ok := overrides["address"]; ok && v != "" {
		c.Address = v
	}
}
