package config

import "time"

// defaultOverlapRatio derives the overlap when a config sets chunking.size alone.
const defaultOverlapRatio = 5

// Defaults returns a config with every field set to its default value.
// Load decodes the file over it, so explicit zero values in the file are kept.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "localhost", Port: 8080},
		Storage: StorageConfig{
			DatabasePath: "/usr/local/var/kotae/data/db/documents.db",
			IndexDir:     "/usr/local/var/kotae/data/indices",
		},
		Vector:    VectorConfig{Backend: "json"},
		Embedding: EmbeddingConfig{Dimensions: 128, CacheSize: 1000},
		Chunking:  ChunkingConfig{Size: 1000, Overlap: 200},
		LLM: LLMConfig{
			BaseURL:      "http://localhost:1234",
			Model:        "local-model",
			Timeout:      60 * time.Second,
			ProbeTimeout: 5 * time.Second,
			Temperature:  0.7,
			MaxTokens:    1000,
		},
		Watch: WatchConfig{
			Extensions: []string{".txt", ".md", ".markdown", ".pdf", ".docx", ".doc", ".xlsx", ".pptx", ".odt", ".rtf"},
		},
	}
}

// chunkingKeys records which chunking keys a config file sets.
type chunkingKeys struct {
	Chunking struct {
		Overlap *int `yaml:"overlap"`
	} `yaml:"chunking"`
}

// fitOverlap shrinks the default overlap when the file sets a chunk size at or
// below it and leaves overlap unset. An explicit overlap is never changed.
func fitOverlap(cfg *Config, keys chunkingKeys) {
	if keys.Chunking.Overlap != nil {
		return
	}
	if cfg.Chunking.Overlap >= cfg.Chunking.Size {
		cfg.Chunking.Overlap = cfg.Chunking.Size / defaultOverlapRatio
	}
}
