// Package prompt composes language-model prompts from evidence, context and
// conversation history.
package prompt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	evmodels "sofie/internal/evidence/models"
	"sofie/internal/guidance/models"
)

// DefaultPersona is the system instruction placed at the top of every prompt.
const DefaultPersona = "You are SOFIE, an evidence-based AI wellness companion. " +
	"Base every suggestion on the evidence listed below and cite the PMID when you give a step. " +
	"Reply in a warm, concise, first-person style."

// NoEvidenceLine stands in for citations when no hit carries one.
const NoEvidenceLine = "• No peer-reviewed data – general wellness advice"

// DefaultMaxHistory is how many prior turns are kept.
const DefaultMaxHistory = 10

// AssistantRole is the speaker label the model completes.
const AssistantRole = "SOFIE"

// Builder assembles prompts. The zero value is not usable; use New.
type Builder struct {
	persona    string
	maxHistory int
	whispers   bool
}

type Option func(*Builder)

// WithPersona replaces DefaultPersona.
func WithPersona(p string) Option {
	return func(b *Builder) {
		if strings.TrimSpace(p) != "" {
			b.persona = p
		}
	}
}

// WithMaxHistory bounds the number of history turns included.
// Zero drops history entirely; negative values keep the default.
func WithMaxHistory(n int) Option {
	return func(b *Builder) {
		if n >= 0 {
			b.maxHistory = n
		}
	}
}

// WithWhispers toggles the keyword whisper line under the evidence block.
func WithWhispers(enabled bool) Option {
	return func(b *Builder) {
		b.whispers = enabled
	}
}

func New(opts ...Option) *Builder {
	b := &Builder{persona: DefaultPersona, maxHistory: DefaultMaxHistory, whispers: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the full prompt: persona, evidence block, optional context
// block, the most recent history turns, then the query and the assistant cue.
func (b *Builder) Build(query string, hits []evmodels.Hit, history []models.Turn, wctx *models.WellnessContext) string {
	var sb strings.Builder
	sb.WriteString(b.persona)
	sb.WriteString("\n\nEvidence:\n")
	sb.WriteString(b.EvidenceBlock(query, hits))
	sb.WriteString("\n")

	if block := ContextBlock(wctx); block != "" {
		sb.WriteString("\nUser Context:\n")
		sb.WriteString(block)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	for _, turn := range b.recent(history) {
		fmt.Fprintf(&sb, "%s: %s\n", roleLabel(turn.Role), strings.TrimSpace(turn.Content))
	}
	fmt.Fprintf(&sb, "User: %s\n%s:", strings.TrimSpace(query), AssistantRole)
	return sb.String()
}

// EvidenceBlock renders one line per hit. When no hit carries a citation
// the label lines are replaced by NoEvidenceLine.
func (b *Builder) EvidenceBlock(query string, hits []evmodels.Hit) string {
	lines := make([]string, 0, len(hits)+2)
	cited := false
	for _, h := range hits {
		line := "- " + h.Record.DisplayName()
		if id := h.Record.FirstStudyID(); id != "" {
			line += "  PMID:" + id
			cited = true
		}
		lines = append(lines, line)
	}
	if !cited {
		lines = []string{NoEvidenceLine}
	}
	if b.whispers {
		if w := Whisper(query); w != "" {
			lines = append(lines, w)
		}
	}
	return strings.Join(lines, "\n")
}

// ContextBlock renders the wellness context, or "" when there is nothing to say.
func ContextBlock(c *models.WellnessContext) string {
	if c.IsEmpty() {
		return ""
	}
	var parts []string
	if m := strings.TrimSpace(c.Mood); m != "" {
		parts = append(parts, "Current mood: "+m)
	}
	if c.EnergyLevel != nil {
		parts = append(parts, fmt.Sprintf("Energy level: %d/10", *c.EnergyLevel))
	}
	if c.StressLevel != nil {
		parts = append(parts, fmt.Sprintf("Stress level: %d/10", *c.StressLevel))
	}
	if c.SleepQuality != nil {
		parts = append(parts, fmt.Sprintf("Sleep quality: %d/10", *c.SleepQuality))
	}
	if len(c.Goals) > 0 {
		parts = append(parts, "Goals: "+strings.Join(c.Goals, ", "))
	}
	return strings.Join(parts, "\n")
}

func (b *Builder) recent(history []models.Turn) []models.Turn {
	if b.maxHistory == 0 {
		return nil
	}
	if len(history) > b.maxHistory {
		return history[len(history)-b.maxHistory:]
	}
	return history
}

// roleLabel capitalizes the first letter and lowercases the rest.
func roleLabel(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		return "User"
	}
	r, size := utf8.DecodeRuneInString(role)
	return string(unicode.ToUpper(r)) + strings.ToLower(role[size:])
}
