package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ranking.PageRank.Damping != 0.85 {
		t.Errorf("damping = %v, want 0.85", cfg.Ranking.PageRank.Damping)
	}
	if cfg.Ranking.PageRank.MaxIterations != 30 {
		t.Errorf("pagerank iterations = %d, want 30", cfg.Ranking.PageRank.MaxIterations)
	}
	if cfg.Ranking.HITS.MaxIterations != 20 {
		t.Errorf("hits iterations = %d, want 20", cfg.Ranking.HITS.MaxIterations)
	}
	if cfg.Ranking.TFIDFWeight != 0.6 || cfg.Ranking.SecondaryWeight != 0.4 {
		t.Errorf("weights = %v/%v, want 0.6/0.4", cfg.Ranking.TFIDFWeight, cfg.Ranking.SecondaryWeight)
	}
	if cfg.Ranking.TopK != 10 {
		t.Errorf("topK = %d, want 10", cfg.Ranking.TopK)
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlData := `
ranking:
  pagerank:
    damping: 0.9
  hits:
    maxIterations: 50
data:
  indexPath: /srv/index.json
`
	if err := os.WriteFile(path, []byte(yamlData), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("MSE_DATA_GRAPH_PATH", "/srv/graph.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ranking.PageRank.Damping != 0.9 {
		t.Errorf("damping = %v, want 0.9", cfg.Ranking.PageRank.Damping)
	}
	if cfg.Ranking.PageRank.MaxIterations != 30 {
		t.Errorf("unset field lost its default: %d", cfg.Ranking.PageRank.MaxIterations)
	}
	if cfg.Ranking.HITS.MaxIterations != 50 {
		t.Errorf("hits iterations = %d, want 50", cfg.Ranking.HITS.MaxIterations)
	}
	if cfg.Data.IndexPath != "/srv/index.json" {
		t.Errorf("index path = %q", cfg.Data.IndexPath)
	}
	if cfg.Data.GraphPath != "/srv/graph.json" {
		t.Errorf("graph path = %q, want env override", cfg.Data.GraphPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"damping zero", func(c *Config) { c.Ranking.PageRank.Damping = 0 }, "damping"},
		{"damping one", func(c *Config) { c.Ranking.PageRank.Damping = 1 }, "damping"},
		{"pagerank iterations", func(c *Config) { c.Ranking.PageRank.MaxIterations = 0 }, "maxIterations"},
		{"hits threshold", func(c *Config) { c.Ranking.HITS.Threshold = -1 }, "threshold"},
		{"negative weight", func(c *Config) { c.Ranking.SecondaryWeight = -0.1 }, "weights"},
		{"topK", func(c *Config) { c.Ranking.TopK = 0 }, "topK"},
		{"store driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
