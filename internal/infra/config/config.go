// Package config provides application-wide configuration loaded from env vars,
// with an optional YAML overlay file for source endpoints and HTTP binding.
// Missing required values fail at startup, never mid-request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted for LLM_PROVIDER.
const (
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
)

// Config holds runtime configuration for medassist.
type Config struct {
	// LLM
	LLMProvider    string        // LLM_PROVIDER — default: "groq"
	GroqAPIKey     string        // GROQ_API_KEY — required when LLMProvider is "groq"
	GroqModel      string        // GROQ_MODEL — default: "llama-3.3-70b-versatile"
	GroqBaseURL    string        // GROQ_BASE_URL — default: "https://api.groq.com/openai/v1"
	MaxTokens      int           // GROQ_MAX_TOKENS — hard ceiling on completion tokens, default: 1024
	MaxRetries     int           // GROQ_MAX_RETRIES — default: 5
	RetryBaseDelay time.Duration // GROQ_RETRY_DELAY (seconds) — default: 10s

	// Ollama (embeddings for the local knowledge store, optional local chat)
	OllamaBaseURL    string // OLLAMA_BASE_URL — default: "http://localhost:11434"
	OllamaEmbedModel string // OLLAMA_EMBED_MODEL — default: "nomic-embed-text"
	OllamaChatModel  string // OLLAMA_CHAT_MODEL — default: "llama3.2:3b"

	// Knowledge store
	VectorDir string // VECTOR_INDEX_DIR — default: "vector_store"

	// External sources
	NCBIAPIKey   string // NCBI_API_KEY — optional, raises PubMed rate limits
	PubMedRetMax int    // PUBMED_RETMAX — default: 5
	Sources      SourceEndpoints

	// Server
	HTTPAddr string // MEDASSIST_ADDR — default: "0.0.0.0:8080"
	DBPath   string // MEDASSIST_DB — default: "medassist.db"
}

// SourceEndpoints are the base URLs of the external data sources.
// Overridable via the YAML config file — tests and mirrors point these at
// local servers.
type SourceEndpoints struct {
	PubMedBaseURL         string `yaml:"pubmed_base_url"`
	ClinicalTrialsBaseURL string `yaml:"clinicaltrials_base_url"`
	RxNormBaseURL         string `yaml:"rxnorm_base_url"`
	CDCSearchURL          string `yaml:"cdc_search_url"`
}

// fileOverlay is the shape of the optional MEDASSIST_CONFIG YAML file.
type fileOverlay struct {
	Addr    string          `yaml:"addr"`
	DBPath  string          `yaml:"db_path"`
	Sources SourceEndpoints `yaml:"sources"`
}

const (
	envLLMProvider      = "LLM_PROVIDER"
	envGroqAPIKey       = "GROQ_API_KEY"
	envGroqModel        = "GROQ_MODEL"
	envGroqBaseURL      = "GROQ_BASE_URL"
	envGroqMaxTokens    = "GROQ_MAX_TOKENS"
	envGroqMaxRetries   = "GROQ_MAX_RETRIES"
	envGroqRetryDelay   = "GROQ_RETRY_DELAY"
	envOllamaBaseURL    = "OLLAMA_BASE_URL"
	envOllamaEmbedModel = "OLLAMA_EMBED_MODEL"
	envOllamaChatModel  = "OLLAMA_CHAT_MODEL"
	envVectorDir        = "VECTOR_INDEX_DIR"
	envNCBIAPIKey       = "NCBI_API_KEY"
	envPubMedRetMax     = "PUBMED_RETMAX"
	envHTTPAddr         = "MEDASSIST_ADDR"
	envDBPath           = "MEDASSIST_DB"
	envConfigFile       = "MEDASSIST_CONFIG"
)

// DefaultSourceEndpoints returns the production endpoints of the public APIs.
func DefaultSourceEndpoints() SourceEndpoints {
	return SourceEndpoints{
		PubMedBaseURL:         "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
		ClinicalTrialsBaseURL: "https://clinicaltrials.gov/api/query",
		RxNormBaseURL:         "https://rxnav.nlm.nih.gov/REST",
		CDCSearchURL:          "https://www.cdc.gov/search.html",
	}
}

// Load reads configuration from environment variables (applying defaults),
// merges the optional YAML overlay, and validates required values.
func Load() (Config, error) {
	cfg := Config{
		LLMProvider:      envOr(envLLMProvider, ProviderGroq),
		GroqAPIKey:       os.Getenv(envGroqAPIKey),
		GroqModel:        envOr(envGroqModel, "llama-3.3-70b-versatile"),
		GroqBaseURL:      envOr(envGroqBaseURL, "https://api.groq.com/openai/v1"),
		MaxTokens:        envOrInt(envGroqMaxTokens, 1024),
		MaxRetries:       envOrInt(envGroqMaxRetries, 5),
		RetryBaseDelay:   time.Duration(envOrInt(envGroqRetryDelay, 10)) * time.Second,
		OllamaBaseURL:    envOr(envOllamaBaseURL, "http://localhost:11434"),
		OllamaEmbedModel: envOr(envOllamaEmbedModel, "nomic-embed-text"),
		OllamaChatModel:  envOr(envOllamaChatModel, "llama3.2:3b"),
		VectorDir:        envOr(envVectorDir, "vector_store"),
		NCBIAPIKey:       os.Getenv(envNCBIAPIKey),
		PubMedRetMax:     envOrInt(envPubMedRetMax, 5),
		Sources:          DefaultSourceEndpoints(),
		HTTPAddr:         envOr(envHTTPAddr, "0.0.0.0:8080"),
		DBPath:           envOr(envDBPath, "medassist.db"),
	}

	if path := os.Getenv(envConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadMCP reads the subset of configuration the MCP server needs: source
// endpoints, PubMed settings, and the database path. LLM settings are not
// validated since the MCP tools never call a model.
func LoadMCP() (Config, error) {
	cfg := Config{
		NCBIAPIKey:   os.Getenv(envNCBIAPIKey),
		PubMedRetMax: envOrInt(envPubMedRetMax, 5),
		Sources:      DefaultSourceEndpoints(),
		DBPath:       envOr(envDBPath, "medassist.db"),
	}

	if path := os.Getenv(envConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// applyFile merges non-empty values from the YAML overlay into cfg.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}

	if overlay.Addr != "" {
		c.HTTPAddr = overlay.Addr
	}
	if overlay.DBPath != "" {
		c.DBPath = overlay.DBPath
	}
	if overlay.Sources.PubMedBaseURL != "" {
		c.Sources.PubMedBaseURL = overlay.Sources.PubMedBaseURL
	}
	if overlay.Sources.ClinicalTrialsBaseURL != "" {
		c.Sources.ClinicalTrialsBaseURL = overlay.Sources.ClinicalTrialsBaseURL
	}
	if overlay.Sources.RxNormBaseURL != "" {
		c.Sources.RxNormBaseURL = overlay.Sources.RxNormBaseURL
	}
	if overlay.Sources.CDCSearchURL != "" {
		c.Sources.CDCSearchURL = overlay.Sources.CDCSearchURL
	}
	return nil
}

// validate enforces required configuration at startup.
func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			return fmt.Errorf("config: %s is required when %s=%s", envGroqAPIKey, envLLMProvider, ProviderGroq)
		}
	case ProviderOllama:
		// Local provider needs no credentials.
	default:
		return fmt.Errorf("config: unknown %s %q (supported: %s, %s)", envLLMProvider, c.LLMProvider, ProviderGroq, ProviderOllama)
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("config: %s must be positive, got %d", envGroqMaxTokens, c.MaxTokens)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("config: %s must be positive, got %d", envGroqMaxRetries, c.MaxRetries)
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrInt returns the integer value of the environment variable key,
// or fallback if unset or unparseable.
func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
