package pipeline

import (
	"conversation-validator-go/internal/compliance"
	"conversation-validator-go/internal/config"
	"conversation-validator-go/internal/embedding"
	"conversation-validator-go/internal/entities"
	"conversation-validator-go/internal/extractor"
	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/metrics"
	"conversation-validator-go/internal/processor"
	"conversation-validator-go/internal/registry"
	"conversation-validator-go/internal/similarity"
	"conversation-validator-go/internal/tone"
	"conversation-validator-go/internal/transcription"
)

// NewAnalyzer wires the analysis services selected by cfg. Without a
// service URL, or in mock mode, the offline implementations are used.
func NewAnalyzer(cfg *config.Config, reg *registry.Registry, m *metrics.Metrics) *processor.Analyzer {
	log := logger.New().Component("wiring")

	var emb embedding.Service
	if cfg.UseMockEmbeddings || cfg.EmbeddingURL == "" {
		log.Info("using hashing embedder")
		emb = embedding.NewHashEmbedder(embedding.DefaultHashDims)
	} else {
		emb = embedding.NewHTTPClient(cfg.EmbeddingURL, cfg.EmbeddingModel, cfg.EmbeddingAPIKey)
	}

	var ner entities.Extractor
	if cfg.UseMockNER || cfg.NERURL == "" {
		log.Info("using gazetteer entity extractor")
		ner = entities.NewGazetteer(reg.Gazetteer)
	} else {
		ner = entities.NewHTTPClient(cfg.NERURL)
	}

	return processor.New(processor.Deps{
		Scorer:     similarity.NewScorer(emb),
		Extractor:  extractor.New(reg.Rules, ner),
		Tone:       tone.NewAnalyzer(reg.Profiles),
		Compliance: compliance.NewChecker(),
		Metrics:    m,
	})
}

// FromConfig builds a runner with the agent, variables and limits from cfg.
func FromConfig(cfg *config.Config, driver transcription.Driver, analyzer *processor.Analyzer, m *metrics.Metrics) *Runner {
	r := NewRunner(driver, analyzer)
	r.AgentURL = cfg.AgentURL
	if len(cfg.TemplateVars) > 0 {
		r.Vars = cfg.TemplateVars
	}
	if cfg.CaptureTimeoutSec > 0 {
		r.CaptureTimeout = cfg.CaptureTimeout()
	}
	if cfg.Concurrency > 0 {
		r.Concurrency = cfg.Concurrency
	}
	r.Metrics = m
	return r
}
