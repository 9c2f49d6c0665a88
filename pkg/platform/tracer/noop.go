package tracer

import (
	"context"
	"sync"
)

// NoopTracer is a tracer that does nothing.
type NoopTracer struct{}

// NewNoop creates a new no-op tracer.
func NewNoop() *NoopTracer {
	return &NoopTracer{}
}

// Start returns the context unchanged and a no-op span.
func (t *NoopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(_ error)                       {}
func (noopSpan) SetAttributes(_ ...Attribute)      {}
func (noopSpan) AddEvent(_ string, _ ...Attribute) {}

// Recorder keeps finished spans in memory so tests can assert on them.
type Recorder struct {
	mu    sync.Mutex
	spans []RecordedSpan
}

// RecordedSpan is a span captured by Recorder.
type RecordedSpan struct {
	Name  string
	Attrs map[string]any
	Err   error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start begins a span that is appended to the recorder when it ends.
func (r *Recorder) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	s := &recordedSpan{rec: r, span: RecordedSpan{Name: name, Attrs: map[string]any{}}}
	s.SetAttributes(attrs...)
	return ctx, s
}

// Spans returns a copy of the finished spans in end order.
func (r *Recorder) Spans() []RecordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedSpan(nil), r.spans...)
}

// Names returns the names of the finished spans in end order.
func (r *Recorder) Names() []string {
	spans := r.Spans()
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	return names
}

type recordedSpan struct {
	rec  *Recorder
	span RecordedSpan
}

func (s *recordedSpan) End(err error) {
	s.span.Err = err
	s.rec.mu.Lock()
	s.rec.spans = append(s.rec.spans, s.span)
	s.rec.mu.Unlock()
}

func (s *recordedSpan) SetAttributes(attrs ...Attribute) {
	for _, a := range attrs {
		s.span.Attrs[a.Key] = a.Value
	}
}

func (s *recordedSpan) AddEvent(_ string, _ ...Attribute) {}

var (
	_ Tracer = (*NoopTracer)(nil)
	_ Tracer = (*Recorder)(nil)
	_ Span   = noopSpan{}
	_ Span   = (*recordedSpan)(nil)
)
