package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"excelytics/ai"
	"excelytics/domain/core"
	"excelytics/internal/errors"
	"excelytics/internal/logging"
	"excelytics/internal/metrics"
	"excelytics/models"
	"excelytics/ports"

	"github.com/goccy/go-json"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

const breakerName = "llm-insights"

// InsightConfig bounds insight generation.
type InsightConfig struct {
	Model          string
	MaxTokens      int
	Timeout        time.Duration
	SampleRows     int
	MaxConcurrency int
	CacheTTL       time.Duration
	// BreakerFailures is the number of consecutive upstream failures that
	// opens the breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

func (c *InsightConfig) withDefaults() {
	if c.SampleRows <= 0 {
		c.SampleRows = 50
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 4
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 800
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
}

// UsageRecorder accepts token usage for asynchronous persistence.
type UsageRecorder interface {
	RecordUsage(userID, fileID core.ID, operationType string, usage *models.UsageData)
}

// InsightService asks the LLM for a short narrative about a stored file.
// It makes exactly one upstream attempt per request.
type InsightService struct {
	files   *FileService
	llm     ports.LLMClient
	prompts *ai.InsightPromptBuilder
	usage   UsageRecorder
	cache   ports.Cache
	sem     *semaphore.Weighted
	breaker *gobreaker.CircuitBreaker[*models.LLMResponse]
	cfg     InsightConfig
	now     func() time.Time
}

// NewInsightService creates the service. llm may be nil, in which case
// every request fails as an upstream error. usage and cache may be nil.
func NewInsightService(files *FileService, llm ports.LLMClient, prompts *ai.InsightPromptBuilder, usage UsageRecorder, cache ports.Cache, cfg InsightConfig) *InsightService {
	cfg.withDefaults()
	metrics.CircuitBreakerState.Set(0)

	breaker := gobreaker.NewCircuitBreaker[*models.LLMResponse](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// a caller going away says nothing about the upstream
			return err == nil || stderrors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.Set(stateToFloat(to))
		},
	})

	return &InsightService{
		files:   files,
		llm:     llm,
		prompts: prompts,
		usage:   usage,
		cache:   cache,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		breaker: breaker,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Summarize returns an insight for a file the actor may read. Upstream
// failures leave the stored file untouched.
func (s *InsightService) Summarize(ctx context.Context, actor models.Actor, fileID core.ID) (*models.Insight, error) {
	file, err := s.files.Get(ctx, actor, fileID)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cached(ctx, fileID); ok {
		metrics.RecordInsight("cached", cached.Model, 0)
		return cached, nil
	}

	if s.llm == nil {
		metrics.RecordInsight("upstream_error", s.cfg.Model, 0)
		return nil, errors.ExternalServiceError("insight", fmt.Errorf("llm client not configured"))
	}

	sample := file.Table().Head(s.cfg.SampleRows)
	prompt, err := s.prompts.Build(file.OriginalName, len(file.Rows), sample)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build insight prompt")
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		metrics.RecordInsight("rejected", s.cfg.Model, 0)
		return nil, errors.Wrap(err, "insight request cancelled")
	}
	defer s.sem.Release(1)

	metrics.InsightsInFlight.Inc()
	resp, err := s.complete(ctx, prompt)
	metrics.InsightsInFlight.Dec()
	if err != nil {
		metrics.RecordInsight("upstream_error", s.cfg.Model, 0)
		log := logging.Ctx(ctx)
		log.Warn().Err(err).Str("file_id", fileID.String()).Msg("insight generation failed")
		return nil, err
	}

	text := strings.TrimSpace(resp.Content)
	insight := &models.Insight{
		FileID:      fileID,
		Text:        text,
		HTML:        renderMarkdown(text),
		Model:       s.cfg.Model,
		SampledRows: sample.Len(),
		GeneratedAt: s.now().UTC(),
	}
	tokens := 0
	if resp.Usage != nil {
		if resp.Usage.Model != "" {
			insight.Model = resp.Usage.Model
		}
		tokens = resp.Usage.TotalTokens
		if s.usage != nil {
			s.usage.RecordUsage(actor.UserID, fileID, models.OpFileInsights, resp.Usage)
		}
	}
	metrics.RecordInsight("generated", insight.Model, tokens)

	s.store(ctx, insight)
	return insight, nil
}

func (s *InsightService) complete(ctx context.Context, prompt string) (*models.LLMResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.breaker.Execute(func() (*models.LLMResponse, error) {
		return s.llm.ChatCompletionWithUsage(ctx, s.cfg.Model, prompt, s.cfg.MaxTokens)
	})
	switch {
	case err == nil:
		return resp, nil
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, errors.ExternalServiceError("insight", err)
	case errors.IsUpstream(err):
		return nil, err
	default:
		return nil, errors.ExternalServiceError("insight", err)
	}
}

func (s *InsightService) cached(ctx context.Context, fileID core.ID) (*models.Insight, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, insightCacheKey(fileID))
	if err != nil {
		if !stderrors.Is(err, ports.ErrCacheMiss) {
			log := logging.Ctx(ctx)
			log.Warn().Err(err).Msg("insight cache read failed")
		}
		return nil, false
	}
	var insight models.Insight
	if err := json.Unmarshal(raw, &insight); err != nil {
		return nil, false
	}
	insight.Cached = true
	return &insight, true
}

func (s *InsightService) store(ctx context.Context, insight *models.Insight) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(insight)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, insightCacheKey(insight.FileID), raw, s.cfg.CacheTTL); err != nil {
		log := logging.Ctx(ctx)
		log.Warn().Err(err).Msg("insight cache write failed")
	}
}

func renderMarkdown(text string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML | html.HrefTargetBlank})
	return string(markdown.ToHTML([]byte(text), p, r))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
