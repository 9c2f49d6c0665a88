package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

var errNoBrokers = errors.New("kafka brokers not configured")

// HealthChecker asks the cluster behind the ritual and consent audit topics
// for broker metadata. It keeps its own client so a stalled producer does
// not mask a reachable cluster.
type HealthChecker struct {
	client *kgo.Client
	admin  *kadm.Client
}

// NewHealthChecker builds a checker for a comma separated broker list.
func NewHealthChecker(brokers string) (*HealthChecker, error) {
	var seeds []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			seeds = append(seeds, b)
		}
	}
	if len(seeds) == 0 {
		return nil, errNoBrokers
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.DialTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka health client: %w", err)
	}
	return &HealthChecker{client: client, admin: kadm.NewClient(client)}, nil
}

// Check fails unless at least one broker answers a metadata request.
func (h *HealthChecker) Check(ctx context.Context) error {
	md, err := h.admin.BrokerMetadata(ctx)
	if err != nil {
		return fmt.Errorf("kafka metadata: %w", err)
	}
	if len(md.Brokers) == 0 {
		return errors.New("kafka metadata listed no brokers")
	}
	return nil
}

func (h *HealthChecker) Close() error {
	h.client.Close()
	return nil
}
