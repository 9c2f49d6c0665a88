package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"sofie/internal/consent/models"
	"sofie/pkg/platform/sentinel"
)

const (
	consentKeyPrefix      = "consent:"
	userConsentsKeyPrefix = "user_consents:"
)

// consentJSON is the Redis value layout. Timestamps are Unix nanoseconds.
type consentJSON struct {
	UserID    string `json:"user_id"`
	Type      string `json:"consent_type"`
	Status    string `json:"status"`
	Purpose   string `json:"purpose,omitempty"`
	GrantedAt *int64 `json:"granted_at,omitempty"`
	ExpiresAt *int64 `json:"expires_at,omitempty"`
	RevokedAt *int64 `json:"revoked_at,omitempty"`
}

func consentToJSON(r *models.Record) *consentJSON {
	return &consentJSON{
		UserID:    r.UserID,
		Type:      string(r.Type),
		Status:    string(r.Status),
		Purpose:   r.Purpose,
		GrantedAt: toUnixNano(r.GrantedAt),
		ExpiresAt: toUnixNano(r.ExpiresAt),
		RevokedAt: toUnixNano(r.RevokedAt),
	}
}

func consentFromJSON(j *consentJSON) *models.Record {
	return &models.Record{
		UserID:    j.UserID,
		Type:      models.ConsentType(j.Type),
		Status:    models.Status(j.Status),
		Purpose:   j.Purpose,
		GrantedAt: fromUnixNano(j.GrantedAt),
		ExpiresAt: fromUnixNano(j.ExpiresAt),
		RevokedAt: fromUnixNano(j.RevokedAt),
	}
}

func toUnixNano(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ns := t.UnixNano()
	return &ns
}

func fromUnixNano(ns *int64) *time.Time {
	if ns == nil {
		return nil
	}
	t := time.Unix(0, *ns).UTC()
	return &t
}

// RedisStore persists consent records in Redis so several server instances
// share one ledger. Keys carry no TTL: expiry is a status, not an eviction.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed consent store.
func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func consentKey(userID string, consentType models.ConsentType) string {
	return consentKeyPrefix + userID + ":" + string(consentType)
}

func userConsentsKey(userID string) string {
	return userConsentsKeyPrefix + userID
}

func (s *RedisStore) Save(ctx context.Context, consent *models.Record) error {
	if consent == nil {
		return fmt.Errorf("consent record is required")
	}
	data, err := json.Marshal(consentToJSON(consent))
	if err != nil {
		return fmt.Errorf("marshal consent: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, consentKey(consent.UserID, consent.Type), data, 0)
	pipe.SAdd(ctx, userConsentsKey(consent.UserID), string(consent.Type))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, userID string, consentType models.ConsentType) (*models.Record, error) {
	data, err := s.client.Get(ctx, consentKey(userID, consentType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("consent not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find consent: %w", err)
	}
	var j consentJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal consent: %w", err)
	}
	return consentFromJSON(&j), nil
}

func (s *RedisStore) ListByUser(ctx context.Context, userID string) ([]*models.Record, error) {
	types, err := s.client.SMembers(ctx, userConsentsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list consent types by user: %w", err)
	}
	if len(types) == 0 {
		return []*models.Record{}, nil
	}
	sort.Strings(types)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(types))
	for i, t := range types {
		cmds[i] = pipe.Get(ctx, consentKey(userID, models.ConsentType(t)))
	}
	// individual misses surface per command below
	_, _ = pipe.Exec(ctx)

	records := make([]*models.Record, 0, len(types))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list consents: %w", err)
		}
		var j consentJSON
		if err := json.Unmarshal(data, &j); err != nil {
			return nil, fmt.Errorf("unmarshal consent: %w", err)
		}
		records = append(records, consentFromJSON(&j))
	}
	return records, nil
}

// Health pings Redis.
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
