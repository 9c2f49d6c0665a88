// Package tracer is a small tracing abstraction over OpenTelemetry.
//
// Services depend on the Tracer interface only, so tests can use NoopTracer or
// Recorder while production wires OTelTracer.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
// Example:
//
//	ctx, span := t.Start(ctx, tracer.SpanGuidanceRespond,
//	    tracer.String(tracer.AttrUserHash, tracer.HashUserID(userID)),
//	)
//	defer span.End(nil)
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Float64 creates a float64 attribute.
func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashUserID pseudonymizes a user id so traces can be correlated without
// carrying the raw identifier.
func HashUserID(userID string) string {
	if userID == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanGuidanceRespond  = "guidance.respond"
	SpanConsentVerify    = "guidance.consent_verify"
	SpanEvidenceQuery    = "guidance.evidence_query"
	SpanGenerationCall   = "guidance.generate"
	SpanRitualEvaluation = "ritual.evaluate"
)

// Attribute keys.
const (
	AttrUserHash        = "user.hash"
	AttrConsentVerified = "consent.verified"
	AttrEvidenceHits    = "evidence.hits"
	AttrPromptChars     = "prompt.chars"
	AttrOutcome         = "guidance.outcome"
	AttrTriggerCount    = "ritual.triggers"
)
