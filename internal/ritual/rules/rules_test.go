package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofie/internal/ritual/models"
)

func signals(phase, season string, day int, kp, hrv float64) models.Signals {
	return models.Signals{
		At:     time.Date(2025, 3, day, 12, 0, 0, 0, time.UTC),
		Phase:  phase,
		Season: season,
		Day:    day,
		Kp:     kp,
		HRV:    hrv,
	}
}

func rituals(triggers []models.Trigger) []string {
	out := make([]string, 0, len(triggers))
	for _, t := range triggers {
		out = append(out, t.Ritual)
	}
	return out
}

func TestDefaultRules(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)
	require.Equal(t, 7, set.Len())

	tests := []struct {
		name string
		sig  models.Signals
		want []string
	}{
		{
			name: "quiet waning day fires nothing",
			sig:  signals(models.PhaseWaning, models.SeasonSummer, 15, 2.5, 25),
			want: []string{},
		},
		{
			name: "new moon",
			sig:  signals(models.PhaseNew, models.SeasonSummer, 15, 2.5, 25),
			want: []string{"new_moon_intention_write"},
		},
		{
			name: "full moon",
			sig:  signals(models.PhaseFull, models.SeasonWinter, 20, 2.5, 25),
			want: []string{"full_moon_gratitude_release"},
		},
		{
			name: "spring gate inside first week",
			sig:  signals(models.PhaseWaning, models.SeasonSpring, 7, 2.5, 25),
			want: []string{"spring_equinox_fast"},
		},
		{
			name: "spring gate closed after day seven",
			sig:  signals(models.PhaseWaning, models.SeasonSpring, 8, 2.5, 25),
			want: []string{},
		},
		{
			name: "autumn gate",
			sig:  signals(models.PhaseWaning, models.SeasonAutumn, 1, 2.5, 25),
			want: []string{"autumn_equinox_reflection"},
		},
		{
			name: "geomagnetic storm is strictly above five",
			sig:  signals(models.PhaseWaning, models.SeasonSummer, 15, 5.0, 25),
			want: []string{},
		},
		{
			name: "geomagnetic storm",
			sig:  signals(models.PhaseWaning, models.SeasonSummer, 15, 6.3, 25),
			want: []string{"geomag_storm_breath_01hz"},
		},
		{
			name: "low hrv",
			sig:  signals(models.PhaseWaning, models.SeasonSummer, 15, 2.5, 18),
			want: []string{"hrv_rescue_01hz_breath"},
		},
		{
			name: "high hrv needs waxing moon",
			sig:  signals(models.PhaseFull, models.SeasonSummer, 15, 2.5, 45),
			want: []string{"full_moon_gratitude_release"},
		},
		{
			name: "rules are not mutually exclusive",
			sig:  signals(models.PhaseWaxing, models.SeasonSpring, 3, 7, 45),
			want: []string{"spring_equinox_fast", "geomag_storm_breath_01hz", "peak_hrv_creation_ritual"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triggers, err := set.Evaluate(tt.sig)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rituals(triggers))
		})
	}
}

func TestTriggerCarriesReason(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	triggers, err := set.Evaluate(signals(models.PhaseNew, models.SeasonSummer, 15, 2.5, 25))
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, models.Trigger{Ritual: "new_moon_intention_write", Reason: "Lunar new phase"}, triggers[0])
}

func TestCompileRejectsBadRules(t *testing.T) {
	tests := []struct {
		name string
		defs []Rule
	}{
		{"missing id", []Rule{{When: "true"}}},
		{"missing condition", []Rule{{ID: "a"}}},
		{"duplicate id", []Rule{{ID: "a", When: "true"}, {ID: "a", When: "false"}}},
		{"syntax error", []Rule{{ID: "a", When: "phase =="}}},
		{"unknown variable", []Rule{{ID: "a", When: "mood == 'calm'"}}},
		{"non-bool result", []Rule{{ID: "a", When: "kp + 1.0"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.defs)
			assert.Error(t, err)
		})
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - id: calm_evening
    reason: Quiet field
    when: kp < 3.0 && hrv >= 25.0
`), 0o600))

	set, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, []Rule{{ID: "calm_evening", Reason: "Quiet field", When: "kp < 3.0 && hrv >= 25.0"}}, set.Rules())

	triggers, err := set.Evaluate(signals(models.PhaseNew, models.SeasonSummer, 15, 2.5, 25))
	require.NoError(t, err)
	assert.Equal(t, []string{"calm_evening"}, rituals(triggers))
}

func TestLoadFile(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		set, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, 7, set.Len())
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules: [:"), 0o600))
		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}
