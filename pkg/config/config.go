// Package config loads the service configuration file. The detector
// label vocabulary lives here because it is externally configured, not
// baked into the code.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IndexConfig holds vector index connection details.
type IndexConfig struct {
	Addr       string `yaml:"addr"`
	Collection string `yaml:"collection"`
}

// WorkerConfig holds model worker connection details.
type WorkerConfig struct {
	URL         string `yaml:"url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IngestConfig configures the batch ingestion run.
type IngestConfig struct {
	BatchSize        int     `yaml:"batch_size"`
	Target           int     `yaml:"target"`
	FetchTimeoutSecs int     `yaml:"fetch_timeout_secs"`
	FetchPerSecond   float64 `yaml:"fetch_per_second"`
	NATSURL          string  `yaml:"nats_url"`
}

// SearchConfig configures the retrieval pipeline.
type SearchConfig struct {
	PageSize   int `yaml:"page_size"`
	CandidateK int `yaml:"candidate_k"`
}

// DetectConfig configures the default detection threshold. Clients that
// need a stricter cut pass their own threshold per request.
type DetectConfig struct {
	InteractiveThreshold float32 `yaml:"interactive_threshold"`
}

// Config is the root configuration.
type Config struct {
	Vocabulary []string     `yaml:"vocabulary"`
	Index      IndexConfig  `yaml:"index"`
	Worker     WorkerConfig `yaml:"worker"`
	Ingest     IngestConfig `yaml:"ingest"`
	Search     SearchConfig `yaml:"search"`
	Detect     DetectConfig `yaml:"detect"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Vocabulary: []string{"lamp", "floor lamp", "sofa", "couch", "table", "chair", "plant", "bed"},
		Index: IndexConfig{
			Addr:       "localhost:6334",
			Collection: "ecommerce-visual-search",
		},
		Worker: WorkerConfig{
			URL:         "http://localhost:8500",
			TimeoutSecs: 30,
		},
		Ingest: IngestConfig{
			BatchSize:        20,
			Target:           100,
			FetchTimeoutSecs: 5,
			FetchPerSecond:   10,
			NATSURL:          "",
		},
		Search: SearchConfig{
			PageSize:   5,
			CandidateK: 50,
		},
		Detect: DetectConfig{
			InteractiveThreshold: 0.1,
		},
	}
}

// Load reads a YAML config file, filling unset fields from Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Vocabulary) == 0 {
		return errors.New("config: vocabulary must not be empty")
	}
	if c.Index.Collection == "" {
		return errors.New("config: index.collection is required")
	}
	if c.Search.CandidateK <= c.Search.PageSize {
		return fmt.Errorf("config: candidate_k (%d) must exceed page_size (%d)",
			c.Search.CandidateK, c.Search.PageSize)
	}
	return nil
}
