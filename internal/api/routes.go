// Route registration and go-chi router setup.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/akhawaja/medassist/internal/api/handlers"
	apmiddleware "github.com/akhawaja/medassist/internal/api/middleware"
	"github.com/akhawaja/medassist/internal/domain/audit"
	"github.com/akhawaja/medassist/internal/domain/knowledge"
	"github.com/akhawaja/medassist/internal/domain/research"
	"github.com/akhawaja/medassist/internal/domain/sources"
	"github.com/akhawaja/medassist/internal/infra/config"
	"github.com/akhawaja/medassist/internal/infra/llm"
	pkgauth "github.com/akhawaja/medassist/pkg/auth"
)

// NewRouter creates and configures a chi router with all routes and the
// domain services behind them.
func NewRouter(db *sql.DB, cfg config.Config) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check — unauthenticated, used by load balancers and probes
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// LLM providers: chat goes to the configured default, embeddings
	// always run on the local Ollama instance.
	ollama := llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel)
	providers := map[string]llm.Provider{"ollama": ollama}
	if cfg.GroqAPIKey != "" {
		providers["groq"] = llm.NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
	}
	router := llm.NewRouter(providers, cfg.LLMProvider)
	chatProvider, err := router.Route(context.Background())
	if err != nil {
		return nil, fmt.Errorf("resolve chat provider: %w", err)
	}
	caller := llm.NewCaller(chatProvider, llm.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxTokens:   cfg.MaxTokens,
	})

	store, err := knowledge.NewStore(cfg.VectorDir, ollama)
	if err != nil {
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}

	researchSvc := research.NewService(research.Config{
		Literature: sources.NewPubMedClient(cfg.Sources.PubMedBaseURL, cfg.NCBIAPIKey, cfg.PubMedRetMax),
		Guidelines: sources.NewGuidelinesClient(cfg.Sources.CDCSearchURL),
		Trials:     sources.NewTrialsClient(cfg.Sources.ClinicalTrialsBaseURL),
		Drugs:      sources.NewRxNormClient(cfg.Sources.RxNormBaseURL),
		Store:      store,
		Caller:     caller,
		Auditor:    audit.NewService(db),
	})

	askHandler := handlers.NewAskHandler(researchSvc)
	knowledgeHandler := handlers.NewKnowledgeHandler(store)

	r.Group(func(r chi.Router) {
		// Bearer JWT gate, active only when a secret is configured.
		if pkgauth.Enabled() {
			r.Use(apmiddleware.AuthMiddleware)
		}

		r.Post("/ask", askHandler.Ask)
		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/index", knowledgeHandler.Index)
			r.Post("/retrieve", knowledgeHandler.Retrieve)
		})
	})

	return r, nil
}
