// Package rules compiles and evaluates ritual trigger rules.
//
// Each rule carries a CEL condition over the signal variables phase,
// season, day, kp and hrv. Rules are independent: every rule whose
// condition holds produces a trigger, in declaration order.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"sofie/internal/ritual/models"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Rule is one trigger definition as written in YAML.
type Rule struct {
	ID     string `yaml:"id"`
	Reason string `yaml:"reason"`
	When   string `yaml:"when"`
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

type compiled struct {
	rule Rule
	prg  cel.Program
}

// Set is an ordered, compiled rule list. It is immutable and safe for
// concurrent use.
type Set struct {
	rules []compiled
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("phase", cel.StringType),
		cel.Variable("season", cel.StringType),
		cel.Variable("day", cel.IntType),
		cel.Variable("kp", cel.DoubleType),
		cel.Variable("hrv", cel.DoubleType),
	)
}

// Default returns the built-in rule set.
func Default() (*Set, error) {
	return Parse(defaultRules)
}

// LoadFile reads a YAML rule file. An empty path returns Default.
func LoadFile(path string) (*Set, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied rules file
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return set, nil
}

// Parse compiles YAML rule definitions. Any rule that is incomplete,
// duplicated, fails to compile or does not yield a bool rejects the set.
func Parse(data []byte) (*Set, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return Compile(f.Rules)
}

// Compile builds a Set from rule definitions.
func Compile(defs []Rule) (*Set, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	seen := make(map[string]struct{}, len(defs))
	set := &Set{rules: make([]compiled, 0, len(defs))}
	for i, r := range defs {
		r.ID = strings.TrimSpace(r.ID)
		r.When = strings.TrimSpace(r.When)
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: id is required", i)
		}
		if r.When == "" {
			return nil, fmt.Errorf("rule %s: when is required", r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("rule %s: duplicate id", r.ID)
		}
		seen[r.ID] = struct{}{}

		ast, issues := env.Compile(r.When)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: compile: %w", r.ID, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: condition must be bool, got %s", r.ID, ast.OutputType())
		}
		prg, err := env.Program(ast, cel.CostLimit(10000))
		if err != nil {
			return nil, fmt.Errorf("rule %s: program: %w", r.ID, err)
		}
		set.rules = append(set.rules, compiled{rule: r, prg: prg})
	}
	return set, nil
}

// Rules returns the definitions in evaluation order.
func (s *Set) Rules() []Rule {
	out := make([]Rule, 0, len(s.rules))
	for _, c := range s.rules {
		out = append(out, c.rule)
	}
	return out
}

// Len returns the number of rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Evaluate returns a trigger for every rule whose condition holds.
// A rule that errors at evaluation time is reported and skipped; the
// remaining rules still run.
func (s *Set) Evaluate(sig models.Signals) ([]models.Trigger, error) {
	vars := sig.Vars()
	triggers := make([]models.Trigger, 0)
	var errs []error
	for _, c := range s.rules {
		out, _, err := c.prg.Eval(vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: eval: %w", c.rule.ID, err))
			continue
		}
		fired, ok := out.Value().(bool)
		if !ok {
			errs = append(errs, fmt.Errorf("rule %s: result not bool", c.rule.ID))
			continue
		}
		if fired {
			triggers = append(triggers, models.Trigger{Ritual: c.rule.ID, Reason: c.rule.Reason})
		}
	}
	return triggers, errors.Join(errs...)
}
