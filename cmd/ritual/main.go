// sofie-ritual runs the ritual scheduler once from the command line and
// maintains the somatic ledger it reads from.
//
//	sofie-ritual run     [--ledger path] [--rules path] [--output path] [--dry-run] [--kp value]
//	sofie-ritual record  [--ledger path] [--hrv ms | --lux min --nitrate mg --forest min] [--mood n] [--dream text]
//	sofie-ritual curve   [--ledger path]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"sofie/internal/platform/logger"
	"sofie/internal/ritual/ledger"
	"sofie/internal/ritual/rules"
	"sofie/internal/ritual/scheduler"
	"sofie/internal/ritual/signals"
	"sofie/internal/ritual/sink"
)

const (
	defaultLedger = "library/somatic_ledger.db"
	defaultOutput = "ritual_trigger.json"
)

var errUsage = errors.New("usage: sofie-ritual <run|record|curve> [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries command output, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logger.ParseLevel(os.Getenv("LOG_LEVEL")),
	}))
	if err := run(ctx, os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, log *slog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "run":
		return runOnce(ctx, args[1:], stdout, log)
	case "record":
		return record(ctx, args[1:], stdout)
	case "curve":
		return curve(ctx, args[1:], stdout)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func runOnce(ctx context.Context, args []string, stdout io.Writer, log *slog.Logger) error {
	var (
		ledgerPath string
		rulesPath  string
		outputPath string
		dryRun     bool
		kp         float64
	)
	flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flagSet.StringVar(&ledgerPath, "ledger", envOr("LEDGER_PATH", defaultLedger), "somatic ledger database")
	flagSet.StringVar(&rulesPath, "rules", os.Getenv("RITUAL_RULES_FILE"), "YAML rule file (default: built-in rules)")
	flagSet.StringVar(&outputPath, "output", envOr("RITUAL_OUTPUT", defaultOutput), "trigger file to write")
	flagSet.BoolVar(&dryRun, "dry-run", false, "evaluate and print without writing any sink")
	flagSet.Float64Var(&kp, "kp", signals.QuietKp, "planetary Kp index to evaluate against")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	somatic, err := ledger.Open(ctx, ledgerPath)
	if err != nil {
		return err
	}
	defer somatic.Close()

	set, err := rules.LoadFile(rulesPath)
	if err != nil {
		return err
	}

	collector := signals.NewCollector(somatic,
		signals.WithLogger(log),
		signals.WithKpProvider(signals.StaticKp(kp)),
	)
	var out sink.Sink
	if !dryRun {
		out = sink.NewMulti(func(name string, err error) {
			log.WarnContext(ctx, "ritual sink failed", "sink", name, "error", err)
		}, sink.NewFile(outputPath), sink.NewLedger(somatic))
	}

	sched, err := scheduler.New(collector, set, out, scheduler.WithLogger(log))
	if err != nil {
		return err
	}
	eval, err := sched.RunOnce(ctx)
	if eval != nil {
		if encErr := writeJSON(stdout, eval); encErr != nil {
			return encErr
		}
	}
	return err
}

func record(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		ledgerPath string
		hrv        float64
		lux        float64
		nitrate    float64
		forest     float64
		mood       float64
		dream      string
	)
	flagSet := pflag.NewFlagSet("record", pflag.ContinueOnError)
	flagSet.StringVar(&ledgerPath, "ledger", envOr("LEDGER_PATH", defaultLedger), "somatic ledger database")
	flagSet.Float64Var(&hrv, "hrv", 0, "measured HRV RMSSD in ms (predicted from exposure when omitted)")
	flagSet.Float64Var(&lux, "lux", 0, "minutes of daylight")
	flagSet.Float64Var(&nitrate, "nitrate", 0, "dietary nitrate in mg")
	flagSet.Float64Var(&forest, "forest", 0, "minutes spent in forest")
	flagSet.Float64Var(&mood, "mood", 0, "mood on a 1-10 scale")
	flagSet.StringVar(&dream, "dream", "", "dream symbol")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	now := time.Now().UTC()
	entry := ledger.Entry{
		TS:          now,
		DreamSymbol: dream,
		LunarPhase:  signals.LunarPhase(now),
	}
	if !flagSet.Changed("hrv") {
		hrv = signals.PredictHRV(lux, nitrate, forest)
	}
	entry.HRV = &hrv
	if flagSet.Changed("lux") {
		entry.LuxMinutes = &lux
	}
	if flagSet.Changed("nitrate") {
		entry.NitrateMg = &nitrate
	}
	if flagSet.Changed("forest") {
		entry.ForestMin = &forest
	}
	if flagSet.Changed("mood") {
		entry.Mood = &mood
	}

	somatic, err := ledger.Open(ctx, ledgerPath)
	if err != nil {
		return err
	}
	defer somatic.Close()

	if err := somatic.Record(ctx, entry); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "recorded hrv=%.1f phase=%s\n", hrv, entry.LunarPhase)
	return err
}

func curve(ctx context.Context, args []string, stdout io.Writer) error {
	var ledgerPath string
	flagSet := pflag.NewFlagSet("curve", pflag.ContinueOnError)
	flagSet.StringVar(&ledgerPath, "ledger", envOr("LEDGER_PATH", defaultLedger), "somatic ledger database")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	somatic, err := ledger.Open(ctx, ledgerPath)
	if err != nil {
		return err
	}
	defer somatic.Close()

	days, err := somatic.PeaceCurve(ctx)
	if err != nil {
		return err
	}
	return writeJSON(stdout, days)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
