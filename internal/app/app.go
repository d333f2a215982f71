// Package app wires the replaytool subcommands: inspect dumps a replay
// file, verify twin-simulates it, golden writes a checksum fixture.
package app

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"

	"popblast/replay/internal/game"
	"popblast/replay/internal/golden"
	"popblast/replay/internal/replay"
	"popblast/replay/internal/session"
	"popblast/replay/internal/telemetry"
	"popblast/replay/logging"
	loggingsinks "popblast/replay/logging/sinks"
)

// Config carries the injectable dependencies for Run.
type Config struct {
	Logger telemetry.Logger
}

// Run dispatches one subcommand. Usage:
//
//	replaytool inspect <file.pbrp>
//	replaytool verify <file.pbrp>
//	replaytool golden -interval 60 -out fixture.json <file.pbrp>
func Run(ctx context.Context, cfg Config, args []string) error {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: replaytool <inspect|verify|golden> [flags] <file.pbrp>")
	}

	logConfig := logging.DefaultConfig()
	sinks := []logging.NamedSink{
		{Name: "console", Sink: loggingsinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if path := os.Getenv("REPLAY_EVENT_LOG"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("open event log %s: %w", path, err)
		}
		defer file.Close()
		sinks = append(sinks, logging.NamedSink{
			Name: "json",
			Sink: loggingsinks.NewJSON(file, logConfig.JSON.FlushInterval),
		})
	}
	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, sinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	switch args[0] {
	case "inspect":
		return runInspect(logger, args[1:])
	case "verify":
		return runVerify(logger, router, args[1:])
	case "golden":
		return runGolden(logger, args[1:])
	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func engineFactory(rulesetID string, seed uint64) session.Engine {
	cfg := game.DefaultConfig()
	if rulesetID != "" {
		cfg.RulesetID = rulesetID
	}
	return game.NewState(cfg, seed)
}

func loadReplayArg(fs *flag.FlagSet, args []string) (*replay.Replay, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one replay file, got %d", fs.NArg())
	}
	return replay.Load(fs.Arg(0))
}

func runInspect(logger telemetry.Logger, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	rec, err := loadReplayArg(fs, args)
	if err != nil {
		return err
	}
	h := rec.Header
	logger.Printf("version=%d flags=%#02x seed=%d level=%q ruleset=%q", h.Version, h.Flags, h.Seed, h.LevelID, h.RulesetID)
	logger.Printf("events=%d checkpoints=%d duration=%d score=%d outcome=%s",
		rec.EventCount(), rec.CheckpointCount(), h.DurationFrames, h.FinalScore, h.Outcome)
	for i, cp := range rec.Checkpoints() {
		logger.Printf("checkpoint %3d: frame=%6d events=%5d state=%08x board=%08x score=%d shots=%d",
			i, cp.Frame, cp.EventIndex, cp.StateChecksum, cp.BoardChecksum, cp.Score, cp.ShotsFired)
	}
	return nil
}

func runVerify(logger telemetry.Logger, router *logging.Router, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	rec, err := loadReplayArg(fs, args)
	if err != nil {
		return err
	}
	metrics := logging.NewMetrics()
	cfg := session.DefaultConfig(session.ModeVerification)
	cfg.RulesetID = rec.Header.RulesetID
	cfg.Publisher = router
	cfg.Metrics = telemetry.WrapMetrics(metrics)
	info, err := session.TwinSimulate(rec, engineFactory, cfg)
	if err != nil {
		return err
	}
	if info.Detected {
		return fmt.Errorf("desync at frame %d component %s: expected %08x actual %08x",
			info.Frame, info.Component, info.Expected, info.Actual)
	}
	counters := metrics.Snapshot()
	keys := make([]string, 0, len(counters))
	for key := range counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		logger.Printf("metric %s=%d", key, counters[key])
	}
	logger.Printf("verified: %d events, %d checkpoints, no desync", rec.EventCount(), rec.CheckpointCount())
	return nil
}

func runGolden(logger telemetry.Logger, args []string) error {
	fs := flag.NewFlagSet("golden", flag.ContinueOnError)
	interval := fs.Uint("interval", 60, "frames between checksum samples")
	outPath := fs.String("out", "golden.json", "output fixture path")
	maxSamples := fs.Uint("max", 256, "maximum number of samples")
	rec, err := loadReplayArg(fs, args)
	if err != nil {
		return err
	}
	if env := os.Getenv("REPLAY_GOLDEN_INTERVAL"); env != "" {
		if value, err := strconv.ParseUint(env, 10, 32); err == nil && value > 0 {
			*interval = uint(value)
		} else {
			logger.Printf("invalid REPLAY_GOLDEN_INTERVAL=%q", env)
		}
	}

	out := make([]uint32, *maxSamples)
	written, err := session.CreateGoldenChecksums(rec, engineFactory, uint32(*interval), out)
	if err != nil {
		return err
	}
	doc := golden.FromSamples(rec.Header.Seed, rec.Header.LevelID, rec.Header.RulesetID, uint32(*interval), out[:written])
	if err := doc.WriteFile(*outPath); err != nil {
		return err
	}
	logger.Printf("wrote %d golden checksums to %s", written, *outPath)
	return nil
}
