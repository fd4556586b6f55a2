package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
	"github.com/dmitrymomot/behaviortrace/pkg/environment"
	"github.com/dmitrymomot/behaviortrace/pkg/logger"
	"github.com/dmitrymomot/behaviortrace/pkg/tracker"
)

var replayFlags struct {
	endpoint     string
	speed        float64
	drainTimeout time.Duration
	verbose      bool
}

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml>",
	Short: "Drive a tracker through a scripted session against a running API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		sc, err := LoadScenario(f)
		if err != nil {
			return err
		}

		env := environment.Production
		if replayFlags.verbose {
			env = environment.Development
		}
		log := logger.New(logger.WithEnvironment(env, "behaviortrace-replay"), logger.WithOutput(cmd.ErrOrStderr()))

		res, err := replay(cmd.Context(), sc, replayOptions{
			endpoint:     replayFlags.endpoint,
			clock:        scaledClock{Clock: clock.Real(), speed: replayFlags.speed},
			log:          log,
			drainTimeout: replayFlags.drainTimeout,
		})
		if err != nil {
			return err
		}
		cmd.Printf("replayed %d steps in session %s\n", res.Steps, res.SessionID)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayFlags.endpoint, "endpoint", "http://localhost:8080/api/collect-behavior", "collect endpoint URL")
	replayCmd.Flags().Float64Var(&replayFlags.speed, "speed", 1, "playback speed multiplier for step waits")
	replayCmd.Flags().DurationVar(&replayFlags.drainTimeout, "drain-timeout", 5*time.Second, "how long to wait for queued batches on exit")
	replayCmd.Flags().BoolVarP(&replayFlags.verbose, "verbose", "v", false, "log every flush")
	rootCmd.AddCommand(replayCmd)
}

type replayOptions struct {
	endpoint     string
	clock        clock.Clock
	log          *slog.Logger
	drainTimeout time.Duration
}

type replayResult struct {
	SessionID string
	Steps     int
}

// replay runs sc through a tracker posting to opts.endpoint, unloads the
// page and waits for the beacon queue to drain.
func replay(ctx context.Context, sc Scenario, opts replayOptions) (replayResult, error) {
	log := logger.OrNoop(opts.log)
	if opts.clock == nil {
		opts.clock = clock.Real()
	}

	beacon := tracker.NewHTTPBeacon(opts.endpoint, tracker.WithBeaconLogger(log))
	tx, err := tracker.NewTransmitter(beacon, tracker.NewKeepAliveSender(opts.endpoint, nil), log)
	if err != nil {
		return replayResult{}, err
	}

	cfg := tracker.DefaultConfig()
	if sc.BatchInterval > 0 {
		cfg.BatchInterval = sc.BatchInterval
	}
	t, err := tracker.New(tx,
		tracker.WithClock(opts.clock),
		tracker.WithLogger(log),
		tracker.WithConfig(cfg),
		tracker.WithFingerprintSource(sc.source()),
		tracker.WithPage(sc.Page.URL, sc.Page.Title, sc.Page.Referrer),
	)
	if err != nil {
		return replayResult{}, err
	}

	res := replayResult{SessionID: t.Session().ID}
	t.Start()
	for _, st := range sc.Steps {
		if ctx.Err() != nil {
			break
		}
		opts.clock.Sleep(st.Wait)
		st.apply(t)
		res.Steps++
	}
	t.Unload()

	drain := opts.drainTimeout
	if drain <= 0 {
		drain = 5 * time.Second
	}
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drain)
	defer cancel()
	if err := beacon.Close(drainCtx); err != nil {
		log.Warn("beacon queue not drained", logger.Error(err))
	}
	return res, ctx.Err()
}

// scaledClock divides sleeps by speed.
type scaledClock struct {
	clock.Clock
	speed float64
}

func (c scaledClock) Sleep(d time.Duration) {
	if c.speed > 0 && c.speed != 1 {
		d = time.Duration(float64(d) / c.speed)
	}
	c.Clock.Sleep(d)
}
