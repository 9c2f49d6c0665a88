// Package library loads the evidence corpus and answers relevance queries.
//
// The loaded corpus is an immutable snapshot. Queries read the current
// snapshot without locking; Reload builds a new one and swaps it in.
package library

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"sofie/internal/evidence/metrics"
	"sofie/internal/evidence/models"
)

// DefaultTopK is used when a query asks for zero or fewer hits.
const DefaultTopK = 3

// ErrNoSource is returned by Reload when the library was built without a Source.
var ErrNoSource = errors.New("evidence library has no source")

type snapshot struct {
	modules  []string
	records  []*models.Record
	measured []models.MeasuredEntry
	failed   int
	loadedAt time.Time
}

// Library is safe for concurrent use.
type Library struct {
	source  Source
	current atomic.Pointer[snapshot]
	logger  *slog.Logger
	metrics *metrics.Metrics
	topK    int
}

type Option func(*Library)

// WithLogger sets the logger for load warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// WithMetrics enables corpus and query metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Library) {
		l.metrics = m
	}
}

// WithDefaultTopK overrides DefaultTopK for queries with topK <= 0.
func WithDefaultTopK(k int) Option {
	return func(l *Library) {
		if k > 0 {
			l.topK = k
		}
	}
}

// New creates an empty library reading from source. Call Load before querying.
func New(source Source, opts ...Option) *Library {
	l := &Library{
		source: source,
		logger: slog.Default(),
		topK:   DefaultTopK,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.current.Store(&snapshot{})
	return l
}

// Load reads the whole corpus. Malformed files and records are logged and
// skipped; only an unusable source location returns an error, in which case
// the previous snapshot stays active.
func (l *Library) Load(ctx context.Context) error {
	if l.source == nil {
		return ErrNoSource
	}
	files, readErrs, err := l.source.Files(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "evidence library unavailable",
			"location", l.source.Location(),
			"error", err,
		)
		return err
	}

	next := &snapshot{loadedAt: time.Now()}
	for _, re := range readErrs {
		l.logger.ErrorContext(ctx, "failed to read evidence module",
			"file", re.Name,
			"error", re.Err,
		)
		l.countFailure("read")
		next.failed++
	}

	byModule := make(map[string]*parsedModule, len(files))
	for _, f := range files {
		module := moduleKey(f.Name)
		parsed, err := parseModule(module, f.Data)
		if err != nil {
			l.logger.ErrorContext(ctx, "invalid evidence module, skipping",
				"file", f.Name,
				"error", err,
			)
			l.countFailure("decode")
			next.failed++
			continue
		}
		for _, issue := range parsed.Issues {
			l.logger.WarnContext(ctx, "skipping malformed evidence record",
				"file", f.Name,
				"kind", issue.Kind,
				"index", issue.Index,
				"error", issue.Err,
			)
			l.countFailure("record")
		}
		if _, dup := byModule[module]; dup {
			l.logger.WarnContext(ctx, "evidence module defined twice, later file wins",
				"module", module,
				"file", f.Name,
			)
		}
		byModule[module] = parsed
	}

	for module := range byModule {
		next.modules = append(next.modules, module)
	}
	sort.Strings(next.modules)
	for _, module := range next.modules {
		next.records = append(next.records, byModule[module].Records...)
		next.measured = append(next.measured, byModule[module].Measured...)
	}

	l.current.Store(next)
	if l.metrics != nil {
		l.metrics.SetCorpusSize(len(next.modules), len(next.records))
	}
	l.logger.InfoContext(ctx, "evidence library loaded",
		"location", l.source.Location(),
		"modules", len(next.modules),
		"records", len(next.records),
		"failed", next.failed,
	)
	return nil
}

// Reload is Load under its operational name.
func (l *Library) Reload(ctx context.Context) error {
	return l.Load(ctx)
}

// Query scores every record against text and returns at most topK hits with
// a positive score, best first. Equal scores are ordered by source module,
// then kind (protocol, system, ritual), then position in the module.
func (l *Library) Query(text string, topK int) []models.Hit {
	start := time.Now()
	if topK <= 0 {
		topK = l.topK
	}
	snap := l.current.Load()
	words := distinctWords(text)

	hits := make([]models.Hit, 0)
	if len(words) > 0 {
		for _, rec := range snap.records {
			score := relevance(words, rec.ScoreText())
			if score <= 0 {
				continue
			}
			hits = append(hits, models.Hit{Record: rec, Score: score, SourceModule: rec.SourceModule})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.SourceModule != b.SourceModule {
			return a.SourceModule < b.SourceModule
		}
		if a.Record.Kind != b.Record.Kind {
			return a.Record.Kind.Rank() < b.Record.Kind.Rank()
		}
		return a.Record.Index < b.Record.Index
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	if l.metrics != nil {
		l.metrics.ObserveQuery(time.Since(start).Seconds(), len(hits))
	}
	return hits
}

// ToneCommand looks up protocolID in the measured registries, first module
// in name order winning.
func (l *Library) ToneCommand(protocolID string) (*models.ToneCommand, bool) {
	for _, m := range l.current.Load().measured {
		if m.ID == protocolID {
			return models.NewToneCommand(m.HZ), true
		}
	}
	return nil, false
}

// Stats describes the active snapshot.
func (l *Library) Stats() models.Stats {
	snap := l.current.Load()
	return models.Stats{
		Modules:       len(snap.modules),
		Records:       len(snap.records),
		MeasuredTones: len(snap.measured),
		FailedModules: snap.failed,
	}
}

// Modules lists the loaded module names in order.
func (l *Library) Modules() []string {
	return append([]string(nil), l.current.Load().modules...)
}

func (l *Library) countFailure(reason string) {
	if l.metrics != nil {
		l.metrics.IncrementLoadFailure(reason)
	}
}
