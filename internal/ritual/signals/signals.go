// Package signals derives the lunar, solar, geomagnetic and HRV inputs
// used by ritual rules.
package signals

import (
	"context"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"sofie/internal/ritual/models"
)

const (
	// SynodicMonth is the mean lunar cycle length in days.
	SynodicMonth = 29.53

	// QuietKp is the planetary K-index assumed when no live source is wired.
	QuietKp = 2.5

	// FallbackHRV is used when the ledger has no readings in the window (ms RMSSD).
	FallbackHRV = 25.0

	// HRVWindow is how far back the HRV average looks.
	HRVWindow = 7 * 24 * time.Hour
)

// lunarEpoch is a reference new moon.
var lunarEpoch = time.Date(2000, 1, 6, 0, 0, 0, 0, time.UTC)

// LunarPhase buckets whole days since the reference new moon.
func LunarPhase(t time.Time) string {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := math.Floor(day.Sub(lunarEpoch).Hours() / 24)
	age := math.Mod(days, SynodicMonth)
	if age < 0 {
		age += SynodicMonth
	}
	switch {
	case age < 3.5:
		return models.PhaseNew
	case age < 10.5:
		return models.PhaseWaxing
	case age < 17.5:
		return models.PhaseFull
	case age < 24.5:
		return models.PhaseWaning
	default:
		return models.PhaseNew
	}
}

// SolarSeason maps the month to a northern-hemisphere season.
func SolarSeason(t time.Time) string {
	switch t.UTC().Month() {
	case time.December, time.January, time.February:
		return models.SeasonWinter
	case time.March, time.April, time.May:
		return models.SeasonSpring
	case time.June, time.July, time.August:
		return models.SeasonSummer
	default:
		return models.SeasonAutumn
	}
}

// PredictHRV estimates RMSSD from daily light, dietary nitrate and forest exposure.
func PredictHRV(luxMinutes, nitrateMg, forestMinutes float64) float64 {
	return math.Max(15, 25+0.12*luxMinutes+0.08*nitrateMg+0.15*forestMinutes)
}

// KpProvider reports the current planetary K-index.
type KpProvider interface {
	Kp(ctx context.Context) (float64, error)
}

// StaticKp always reports the same value.
type StaticKp float64

func (s StaticKp) Kp(context.Context) (float64, error) {
	return float64(s), nil
}

// HRVSource averages HRV readings recorded since a point in time.
// ok is false when there are no readings.
type HRVSource interface {
	AverageHRV(ctx context.Context, since time.Time) (avg float64, ok bool, err error)
}

// Collector gathers a Signals snapshot.
type Collector struct {
	kp     KpProvider
	hrv    HRVSource
	logger *slog.Logger
}

type Option func(*Collector)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithKpProvider replaces the static quiet K-index.
func WithKpProvider(p KpProvider) Option {
	return func(c *Collector) {
		if p != nil {
			c.kp = p
		}
	}
}

// NewCollector builds a collector. hrv may be nil, in which case the
// fallback HRV is always used.
func NewCollector(hrv HRVSource, opts ...Option) *Collector {
	c := &Collector{
		kp:     StaticKp(QuietKp),
		hrv:    hrv,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot computes the signals for now. Source failures degrade to the
// quiet K-index and fallback HRV instead of failing the snapshot.
func (c *Collector) Snapshot(ctx context.Context, now time.Time) models.Signals {
	sig := models.Signals{
		At:     now.UTC(),
		Phase:  LunarPhase(now),
		Season: SolarSeason(now),
		Day:    now.UTC().Day(),
		Kp:     QuietKp,
		HRV:    FallbackHRV,
	}

	var (
		kp     = QuietKp
		hrv    = FallbackHRV
		hrvHit bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.kp.Kp(gctx)
		if err != nil {
			c.logger.WarnContext(ctx, "kp provider failed, assuming quiet field", "error", err)
			return nil
		}
		kp = v
		return nil
	})
	if c.hrv != nil {
		g.Go(func() error {
			avg, ok, err := c.hrv.AverageHRV(gctx, now.Add(-HRVWindow))
			if err != nil {
				c.logger.WarnContext(ctx, "hrv average unavailable, using fallback", "error", err)
				return nil
			}
			if ok {
				hrv, hrvHit = avg, true
			}
			return nil
		})
	}
	_ = g.Wait()

	sig.Kp = kp
	sig.HRV = hrv
	sig.HRVFallback = !hrvHit
	return sig
}
