// ABOUTME: Wires configuration into history stores, the LLM client, the index, and the agent
// ABOUTME: Commands open only the pieces they need and close them on exit
package commands

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/harper/study-agent/internal/charm"
	"github.com/harper/study-agent/internal/config"
	"github.com/harper/study-agent/internal/core"
	"github.com/harper/study-agent/internal/index"
	"github.com/harper/study-agent/internal/llm"
	"github.com/harper/study-agent/internal/search"
	"github.com/harper/study-agent/internal/storage"
	"github.com/harper/study-agent/internal/storage/sqlite"
)

// app holds the wired collaborators for one command invocation
type app struct {
	cfg     *config.Config
	history storage.HistoryStore
	llm     *llm.OpenAIClient
	docs    *index.Service
	agent   *core.Agent
	closers []func() error
}

// loadConfig reads .env and the environment, then applies the configured log level
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel)
	return cfg, nil
}

// openHistory opens the configured history backend
func openHistory(cfg *config.Config) (storage.HistoryStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.HistoryBackend {
	case config.HistorySQLite:
		db, err := sqlite.Open(cfg.HistoryDBPath())
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open history database: %w", err)
		}
		return sqlite.NewHistoryStore(db), db.Close, nil

	case config.HistoryCharm:
		client, err := charm.NewClient(&charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to Charm: %w", err)
		}
		return storage.NewCharmHistory(client), client.Close, nil

	default:
		return storage.NewJSONHistory(cfg.HistoryPath()), noop, nil
	}
}

// newLLMClient creates the OpenAI-compatible client from configuration
func newLLMClient(cfg *config.Config) (*llm.OpenAIClient, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	clientCfg := llm.DefaultConfig(cfg.OpenAIKey)
	clientCfg.BaseURL = cfg.OpenAIBaseURL
	clientCfg.EmbeddingModel = cfg.EmbeddingModel
	clientCfg.Timeout = cfg.Timeout
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.RetryDelay = cfg.RetryDelay

	return llm.NewOpenAIClientWithConfig(clientCfg)
}

// newDocuments builds the index service over the configured paths
func newDocuments(cfg *config.Config, embedder index.Embedder) (*index.Service, *index.Loader) {
	loader := index.NewLoader(cfg.IndexPath(), embedder, index.Options{
		TopK:           cfg.TopK,
		ScoreThreshold: cfg.ScoreThreshold,
	})
	builder := index.NewBuilder(cfg.IndexPath(), embedder, cfg.EmbeddingModel, logger)
	return index.NewService(loader, builder, cfg.PDFDir), loader
}

// newAgent wires the router and all three strategies
func newAgent(cfg *config.Config, client *llm.OpenAIClient, history storage.HistoryStore, loader *index.Loader) (*core.Agent, error) {
	router := core.NewRouter(cfg.Vocabulary)

	indexLoader := core.IndexLoaderFunc(func() (core.Retriever, error) {
		idx, err := loader.Load()
		if err != nil {
			return nil, err
		}
		return idx, nil
	})

	docGen := client.Generator(cfg.DocModel)
	return core.NewAgent(core.AgentConfig{
		Router:  router,
		History: history,
		PDF:     core.NewPDFStrategy(indexLoader, docGen, router.Sentinel(), cfg.TopK, logger),
		Chat:    core.NewChatStrategy(history, client.Generator(cfg.ChatModel), cfg.HistoryBudget, logger),
		Web:     core.NewWebStrategy(search.NewDuckDuckGo(), docGen, cfg.WebResults, logger),
		Logger:  logger,
	})
}

// openApp loads configuration and opens history. withAgent also wires the
// LLM client, document index, and agent.
func openApp(withAgent bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	history, closeHistory, err := openHistory(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, history: history, closers: []func() error{closeHistory}}
	if !withAgent {
		return a, nil
	}

	client, err := newLLMClient(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.llm = client

	docs, loader := newDocuments(cfg, client)
	a.docs = docs

	agent, err := newAgent(cfg, client, history, loader)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.agent = agent
	return a, nil
}

// openDocuments wires only the index service, for commands that never answer questions.
// A non-empty pdfDir overrides the configured directory.
func openDocuments(pdfDir string) (*config.Config, *index.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if pdfDir != "" {
		cfg.PDFDir = pdfDir
	}
	client, err := newLLMClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	docs, _ := newDocuments(cfg, client)
	return cfg, docs, nil
}

// Close releases everything the app opened
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
