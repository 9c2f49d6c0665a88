package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sofie/internal/audit"
	"sofie/internal/consent/metrics"
	"sofie/internal/consent/models"
	dErrors "sofie/pkg/domain-errors"
	"sofie/pkg/platform/middleware/requesttime"
	"sofie/pkg/platform/sentinel"
	platformsync "sofie/pkg/platform/sync"
)

// Store defines the persistence interface for consent records.
// Error Contract:
// - Find returns sentinel.ErrNotFound when no record exists
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	Save(ctx context.Context, consent *models.Record) error
	Find(ctx context.Context, userID string, consentType models.ConsentType) (*models.Record, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Record, error)
}

type Option func(*Ledger)

// Ledger owns the consent state machine. Every read-then-mutate sequence on a
// (user, consent type) key runs inside one ConsentStoreTx, so concurrent
// callers on the same key are serialized while other keys proceed.
type Ledger struct {
	store      Store
	tx         ConsentStoreTx
	auditor    *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	consentTTL time.Duration
	enforce    bool
}

// New builds a Ledger over store. Enforcement is on and the TTL is
// models.DefaultTTL unless overridden.
func New(store Store, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:      store,
		auditor:    auditor,
		logger:     logger,
		consentTTL: models.DefaultTTL,
		enforce:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.consentTTL <= 0 {
		l.consentTTL = models.DefaultTTL
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.tx == nil {
		tx := newShardedConsentTx(store)
		if l.metrics != nil {
			tx.observer = func(wait time.Duration) { l.metrics.ObserveShardLockWait(wait.Seconds()) }
		}
		l.tx = tx
	}
	return l
}

// WithMetrics sets the metrics instance for the ledger.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// WithLogger sets the logger instance for the ledger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithConsentTTL configures how long a grant stays valid.
// Zero or negative values keep the 24 hour default.
func WithConsentTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		if ttl > 0 {
			l.consentTTL = ttl
		}
	}
}

// WithTx replaces the in-process key lock, e.g. with a database transaction.
func WithTx(tx ConsentStoreTx) Option {
	return func(l *Ledger) {
		l.tx = tx
	}
}

// WithEnforcement toggles the gate. When disabled VerifyOrDeny always allows.
func WithEnforcement(enabled bool) Option {
	return func(l *Ledger) {
		l.enforce = enabled
	}
}

// EnforcementEnabled reports whether VerifyOrDeny consults stored consent.
func (l *Ledger) EnforcementEnabled() bool {
	return l.enforce
}

// TTL returns the validity window applied to new grants.
func (l *Ledger) TTL() time.Duration {
	return l.consentTTL
}

// Grant records a fresh granted consent, replacing whatever was stored for
// the key. Nothing from the previous record survives.
func (l *Ledger) Grant(ctx context.Context, userID string, consentType models.ConsentType, purpose string) (*models.Record, error) {
	if err := validateKey(userID, consentType); err != nil {
		return nil, err
	}
	start := time.Now()
	now := requesttime.Now(ctx)

	record, err := models.NewGrant(userID, consentType, strings.TrimSpace(purpose), now, l.consentTTL)
	if err != nil {
		return nil, err
	}

	err = l.tx.RunInTx(ctx, keyFor(userID, consentType), func(ctx context.Context, st Store) error {
		return l.save(ctx, st, record)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save consent")
	}

	l.emitAudit(ctx, audit.Event{
		UserID:      userID,
		ConsentType: string(consentType),
		Purpose:     record.Purpose,
		Action:      models.AuditActionConsentGranted,
		Decision:    models.AuditDecisionGranted,
		Reason:      models.AuditReasonUserInitiated,
		Timestamp:   now,
	})
	l.logger.InfoContext(ctx, "consent granted",
		"user_id", userID,
		"consent_type", consentType,
		"expires_at", record.ExpiresAt,
	)
	if l.metrics != nil {
		l.metrics.IncrementConsentsGranted(string(consentType))
		l.metrics.ObserveConsentGrantLatency(time.Since(start).Seconds())
	}
	return record.Clone(), nil
}

// Check returns the consent currently in force for the key. A missing record
// yields a transient denied record that is never stored. A granted record past
// its expiry is coerced to expired and the coercion is persisted.
func (l *Ledger) Check(ctx context.Context, userID string, consentType models.ConsentType) (*models.Record, error) {
	if err := validateKey(userID, consentType); err != nil {
		return nil, err
	}
	now := requesttime.Now(ctx)

	var out *models.Record
	var expired bool
	err := l.tx.RunInTx(ctx, keyFor(userID, consentType), func(ctx context.Context, st Store) error {
		record, err := l.find(ctx, st, userID, consentType)
		if errors.Is(err, sentinel.ErrNotFound) {
			out = models.Denied(userID, consentType)
			return nil
		}
		if err != nil {
			return err
		}
		if record.Status == models.StatusGranted && record.EffectiveStatus(now) == models.StatusExpired {
			record.Status = models.StatusExpired
			if err := l.save(ctx, st, record); err != nil {
				return err
			}
			expired = true
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read consent")
	}

	if expired {
		l.emitAudit(ctx, audit.Event{
			UserID:      userID,
			ConsentType: string(consentType),
			Purpose:     out.Purpose,
			Action:      models.AuditActionConsentExpired,
			Decision:    models.AuditDecisionExpired,
			Reason:      models.AuditReasonTTLElapsed,
			Timestamp:   now,
		})
		l.logger.InfoContext(ctx, "consent expired",
			"user_id", userID,
			"consent_type", consentType,
			"expired_at", out.ExpiresAt,
		)
		if l.metrics != nil {
			l.metrics.IncrementConsentsExpired(string(consentType))
		}
	}
	return out, nil
}

// Revoke marks the stored record revoked. Revoking twice leaves the first
// revocation time in place. A missing record yields a transient denied record.
func (l *Ledger) Revoke(ctx context.Context, userID string, consentType models.ConsentType) (*models.Record, error) {
	if err := validateKey(userID, consentType); err != nil {
		return nil, err
	}
	now := requesttime.Now(ctx)

	var out *models.Record
	var changed bool
	err := l.tx.RunInTx(ctx, keyFor(userID, consentType), func(ctx context.Context, st Store) error {
		record, err := l.find(ctx, st, userID, consentType)
		if errors.Is(err, sentinel.ErrNotFound) {
			out = models.Denied(userID, consentType)
			return nil
		}
		if err != nil {
			return err
		}
		if record.Revoke(now) {
			if err := l.save(ctx, st, record); err != nil {
				return err
			}
			changed = true
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke consent")
	}

	if changed {
		l.emitAudit(ctx, audit.Event{
			UserID:      userID,
			ConsentType: string(consentType),
			Purpose:     out.Purpose,
			Action:      models.AuditActionConsentRevoked,
			Decision:    models.AuditDecisionRevoked,
			Reason:      models.AuditReasonUserInitiated,
			Timestamp:   now,
		})
		l.logger.InfoContext(ctx, "consent revoked",
			"user_id", userID,
			"consent_type", consentType,
		)
		if l.metrics != nil {
			l.metrics.IncrementConsentsRevoked(string(consentType))
		}
	}
	return out, nil
}

// VerifyOrDeny is the gate in front of privileged work. It never returns an
// error: a store fault denies the request.
func (l *Ledger) VerifyOrDeny(ctx context.Context, userID string, consentType models.ConsentType) bool {
	now := requesttime.Now(ctx)
	if !l.enforce {
		l.logger.WarnContext(ctx, "consent enforcement disabled, allowing request",
			"user_id", userID,
			"consent_type", consentType,
		)
		l.emitAudit(ctx, audit.Event{
			UserID:      userID,
			ConsentType: string(consentType),
			Action:      models.AuditActionEnforcementBypass,
			Decision:    models.AuditDecisionAllowed,
			Reason:      models.AuditReasonEnforcementDisable,
			Timestamp:   now,
		})
		if l.metrics != nil {
			l.metrics.IncrementEnforcementBypassed()
		}
		return true
	}

	record, err := l.Check(ctx, userID, consentType)
	if err != nil {
		l.logger.ErrorContext(ctx, "consent check failed, denying request",
			"user_id", userID,
			"consent_type", consentType,
			"error", err,
		)
		l.recordCheck(ctx, userID, consentType, "error", now)
		return false
	}

	status := record.EffectiveStatus(now)
	l.recordCheck(ctx, userID, consentType, string(status), now)
	return status == models.StatusGranted
}

// List returns every record held for the user with its status as of now.
// Expired records are reported as expired but not rewritten.
func (l *Ledger) List(ctx context.Context, userID string) ([]*models.Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}
	now := requesttime.Now(ctx)

	start := time.Now()
	records, err := l.store.ListByUser(ctx, userID)
	l.observeStore("list", start)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list consents")
	}

	out := make([]*models.Record, 0, len(records))
	for _, r := range records {
		c := r.Clone()
		c.Status = c.EffectiveStatus(now)
		out = append(out, c)
	}
	return out, nil
}

func (l *Ledger) recordCheck(ctx context.Context, userID string, consentType models.ConsentType, status string, now time.Time) {
	passed := status == string(models.StatusGranted)
	event := audit.Event{
		UserID:      userID,
		ConsentType: string(consentType),
		Action:      models.AuditActionConsentCheckFailed,
		Decision:    models.AuditDecisionDenied,
		Reason:      status,
		Timestamp:   now,
	}
	if passed {
		event.Action = models.AuditActionConsentCheckPassed
		event.Decision = models.AuditDecisionAllowed
	}
	l.emitAudit(ctx, event)

	if !passed {
		l.logger.WarnContext(ctx, "consent check denied",
			"user_id", userID,
			"consent_type", consentType,
			"status", status,
		)
	}
	if l.metrics == nil {
		return
	}
	if passed {
		l.metrics.IncrementConsentCheckPassed(string(consentType))
	} else {
		l.metrics.IncrementConsentCheckFailed(string(consentType), status)
	}
}

func (l *Ledger) find(ctx context.Context, st Store, userID string, consentType models.ConsentType) (*models.Record, error) {
	start := time.Now()
	defer l.observeStore("find", start)
	return st.Find(ctx, userID, consentType)
}

func (l *Ledger) save(ctx context.Context, st Store, record *models.Record) error {
	start := time.Now()
	defer l.observeStore("save", start)
	return st.Save(ctx, record)
}

func (l *Ledger) observeStore(op string, start time.Time) {
	if l.metrics != nil {
		l.metrics.ObserveStoreOperationLatency(op, time.Since(start).Seconds())
	}
}

func (l *Ledger) emitAudit(ctx context.Context, event audit.Event) {
	if l.auditor == nil {
		return
	}
	if err := l.auditor.Emit(ctx, event); err != nil {
		l.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"user_id", event.UserID,
			"error", err,
		)
	}
}

func validateKey(userID string, consentType models.ConsentType) error {
	if strings.TrimSpace(userID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}
	if !consentType.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("invalid consent type: %s", consentType))
	}
	return nil
}

func keyFor(userID string, consentType models.ConsentType) string {
	return platformsync.Key(userID, string(consentType))
}
