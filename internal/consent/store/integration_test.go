//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sofie/internal/consent/models"
	"sofie/pkg/platform/sentinel"
	"sofie/pkg/testutil/containers"
)

type consentStore interface {
	Save(ctx context.Context, consent *models.Record) error
	Find(ctx context.Context, userID string, consentType models.ConsentType) (*models.Record, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Record, error)
	Health(ctx context.Context) error
}

// StoreContractSuite runs the same behavioural checks against every backend.
type StoreContractSuite struct {
	suite.Suite
	newStore func() consentStore
	reset    func(ctx context.Context) error
	store    consentStore
}

func (s *StoreContractSuite) SetupTest() {
	s.Require().NoError(s.reset(context.Background()))
	s.store = s.newStore()
}

func (s *StoreContractSuite) TestRoundTripPreservesTimestamps() {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 9, 30, 0, 123456000, time.UTC)

	record, err := models.NewGrant("u1", models.TypeWellnessGuidance, "guidance", now, time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, record))

	got, err := s.store.Find(ctx, "u1", models.TypeWellnessGuidance)
	s.Require().NoError(err)
	s.Equal(models.StatusGranted, got.Status)
	s.Equal("guidance", got.Purpose)
	s.True(now.Equal(*got.GrantedAt))
	s.True(now.Add(time.Hour).Equal(*got.ExpiresAt))
	s.Nil(got.RevokedAt)
}

func (s *StoreContractSuite) TestSaveOverwrites() {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	first, _ := models.NewGrant("u1", models.TypeAIInference, "A", now, time.Hour)
	first.Revoke(now.Add(time.Minute))
	s.Require().NoError(s.store.Save(ctx, first))

	second, _ := models.NewGrant("u1", models.TypeAIInference, "B", now.Add(time.Hour), time.Hour)
	s.Require().NoError(s.store.Save(ctx, second))

	got, err := s.store.Find(ctx, "u1", models.TypeAIInference)
	s.Require().NoError(err)
	s.Equal("B", got.Purpose)
	s.Equal(models.StatusGranted, got.Status)
	s.Nil(got.RevokedAt)

	all, err := s.store.ListByUser(ctx, "u1")
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *StoreContractSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), "nobody", models.TypeWellnessGuidance)
	s.ErrorIs(err, sentinel.ErrNotFound)

	all, err := s.store.ListByUser(context.Background(), "nobody")
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *StoreContractSuite) TestHealth() {
	s.NoError(s.store.Health(context.Background()))
}

func TestPostgresStoreSuite(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	suite.Run(t, &StoreContractSuite{
		newStore: func() consentStore { return NewPostgres(pg.DB) },
		reset:    func(ctx context.Context) error { return pg.TruncateTables(ctx, "consents") },
	})
}

func TestRedisStoreSuite(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	suite.Run(t, &StoreContractSuite{
		newStore: func() consentStore { return NewRedis(rc.Client) },
		reset:    rc.FlushAll,
	})
}
