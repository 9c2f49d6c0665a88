package sink

import (
	"context"

	"sofie/internal/ritual/ledger"
	"sofie/internal/ritual/models"
)

// RitualLogger records scheduled rituals.
type RitualLogger interface {
	LogRitual(ctx context.Context, r ledger.Ritual) error
}

// Ledger logs every trigger in the batch as a pending ritual.
type Ledger struct {
	log RitualLogger
}

func NewLedger(log RitualLogger) *Ledger {
	return &Ledger{log: log}
}

func (l *Ledger) Name() string { return "ledger" }

func (l *Ledger) Write(ctx context.Context, batch models.Batch) error {
	for _, t := range batch.Triggers {
		if err := l.log.LogRitual(ctx, ledger.Ritual{
			TS:          batch.GeneratedAt,
			Name:        t.Ritual,
			AutoTrigger: t.Reason,
		}); err != nil {
			return err
		}
	}
	return nil
}
