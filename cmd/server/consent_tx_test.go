package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	consentservice "sofie/internal/consent/service"
	dErrors "sofie/pkg/domain-errors"
)

func TestConsentPostgresTxRejectsCancelledContext(t *testing.T) {
	tx := newConsentPostgresTx(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := tx.RunInTx(ctx, "u1|wellness_guidance", func(context.Context, consentservice.Store) error {
		called = true
		return nil
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	assert.False(t, called)
}
