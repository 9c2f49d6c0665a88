package service

import (
	"context"
	"log/slog"
	"time"

	consentmodels "sofie/internal/consent/models"
	evmodels "sofie/internal/evidence/models"
	"sofie/internal/generation"
	"sofie/internal/guidance/metrics"
	"sofie/internal/guidance/models"
	"sofie/internal/guidance/prompt"
	"sofie/pkg/platform/middleware/requesttime"
	"sofie/pkg/platform/tracer"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ConsentGate,EvidenceSource

// ConsentGate decides whether a user may receive generated guidance.
type ConsentGate interface {
	VerifyOrDeny(ctx context.Context, userID string, consentType consentmodels.ConsentType) bool
}

// EvidenceSource ranks corpus records for a query.
type EvidenceSource interface {
	Query(text string, topK int) []evmodels.Hit
}

const (
	// RemediationMessage tells a denied caller how to proceed.
	RemediationMessage = "Consent required: grant wellness_guidance consent via POST /api/v1/consent/grant before requesting guidance."

	// FallbackMessage is returned to the user when generation fails.
	FallbackMessage = "I'm having trouble generating guidance right now. Please try again in a moment. " +
		"In the meantime, a few slow, deep breaths are a gentle way to reset."
)

// Orchestrator runs the guidance pipeline: consent gate, evidence retrieval,
// prompt assembly and generation. It holds no locks while generating.
type Orchestrator struct {
	consent     ConsentGate
	evidence    EvidenceSource
	generator   generation.Generator
	builder     *prompt.Builder
	tracer      tracer.Tracer
	metrics     *metrics.Metrics
	logger      *slog.Logger
	topK        int
	maxTokens   int
	temperature float64
	stop        []string
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

func WithPromptBuilder(b *prompt.Builder) Option {
	return func(o *Orchestrator) {
		if b != nil {
			o.builder = b
		}
	}
}

// WithTopK sets how many evidence hits are injected. Non-positive keeps 3.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithGenerationParams overrides max tokens and temperature.
// Non-positive max tokens and negative temperatures keep the defaults.
func WithGenerationParams(maxTokens int, temperature float64) Option {
	return func(o *Orchestrator) {
		if maxTokens > 0 {
			o.maxTokens = maxTokens
		}
		if temperature >= 0 {
			o.temperature = temperature
		}
	}
}

func New(consent ConsentGate, evidence EvidenceSource, generator generation.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		consent:     consent,
		evidence:    evidence,
		generator:   generator,
		builder:     prompt.New(),
		tracer:      tracer.NewNoop(),
		logger:      slog.Default(),
		topK:        3,
		maxTokens:   generation.DefaultMaxTokens,
		temperature: generation.DefaultTemperature,
		stop:        generation.DefaultStop,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Respond never returns an error. Denials and generation failures are
// reported through Result.Outcome.
func (o *Orchestrator) Respond(ctx context.Context, req models.Request) *models.Result {
	ctx, span := o.tracer.Start(ctx, tracer.SpanGuidanceRespond,
		tracer.String(tracer.AttrUserHash, tracer.HashUserID(req.UserID)),
	)
	result := o.respond(ctx, req)
	span.SetAttributes(tracer.String(tracer.AttrOutcome, string(result.Outcome)))
	span.End(nil)

	if o.metrics != nil {
		o.metrics.IncrementOutcome(string(result.Outcome))
	}
	return result
}

func (o *Orchestrator) respond(ctx context.Context, req models.Request) *models.Result {
	now := requesttime.Now(ctx)

	if !o.verify(ctx, req.UserID) {
		o.logger.InfoContext(ctx, "guidance denied without consent",
			"user_id", req.UserID,
		)
		return &models.Result{
			Outcome:   models.OutcomeConsentDenied,
			Message:   RemediationMessage,
			Evidence:  []models.EvidenceRef{},
			Timestamp: now,
		}
	}

	hits := o.queryEvidence(ctx, req.Query)
	refs := toRefs(hits)
	p := o.builder.Build(req.Query, hits, req.History, req.Context)
	// A supplied context counts as used even when every field is blank.
	contextUsed := req.Context != nil

	text, err := o.generate(ctx, p)
	if err != nil {
		o.logger.ErrorContext(ctx, "guidance generation failed",
			"user_id", req.UserID,
			"kind", generation.KindOf(err),
			"error", err,
		)
		return &models.Result{
			Outcome:         models.OutcomeGenerationFailed,
			Message:         FallbackMessage,
			ConsentVerified: true,
			ContextUsed:     contextUsed,
			Evidence:        refs,
			Timestamp:       now,
		}
	}

	return &models.Result{
		Outcome:         models.OutcomeOK,
		Text:            text,
		ConsentVerified: true,
		ContextUsed:     contextUsed,
		Evidence:        refs,
		Timestamp:       now,
	}
}

func (o *Orchestrator) verify(ctx context.Context, userID string) bool {
	ctx, span := o.tracer.Start(ctx, tracer.SpanConsentVerify)
	ok := o.consent.VerifyOrDeny(ctx, userID, consentmodels.TypeWellnessGuidance)
	span.SetAttributes(tracer.Bool(tracer.AttrConsentVerified, ok))
	span.End(nil)
	return ok
}

func (o *Orchestrator) queryEvidence(ctx context.Context, query string) []evmodels.Hit {
	_, span := o.tracer.Start(ctx, tracer.SpanEvidenceQuery)
	hits := o.evidence.Query(query, o.topK)
	span.SetAttributes(tracer.Int(tracer.AttrEvidenceHits, len(hits)))
	span.End(nil)
	if o.metrics != nil {
		o.metrics.ObserveEvidenceHits(len(hits))
	}
	return hits
}

func (o *Orchestrator) generate(ctx context.Context, p string) (string, error) {
	ctx, span := o.tracer.Start(ctx, tracer.SpanGenerationCall,
		tracer.Int(tracer.AttrPromptChars, len(p)),
	)
	start := time.Now()
	text, err := o.generator.Generate(ctx, generation.Params{
		Prompt:      p,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		Stop:        o.stop,
	})
	span.End(err)

	if o.metrics != nil {
		o.metrics.ObserveGenerationLatency(time.Since(start).Seconds())
		if err != nil {
			o.metrics.IncrementGenerationFailure(string(generation.KindOf(err)))
		}
	}
	return text, err
}

func toRefs(hits []evmodels.Hit) []models.EvidenceRef {
	refs := make([]models.EvidenceRef, 0, len(hits))
	for _, h := range hits {
		refs = append(refs, models.EvidenceRef{
			ID:      h.Record.ID,
			Name:    h.Record.DisplayName(),
			Module:  h.SourceModule,
			Kind:    string(h.Record.Kind),
			Score:   h.Score,
			StudyID: h.Record.FirstStudyID(),
		})
	}
	return refs
}
