package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/latch"
)

func runCmd() *cobra.Command {
	var flags latch.Config

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the refresher and accept edit commands on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	defaults := latch.DefaultConfig()
	cmd.Flags().DurationVar(&flags.Interval, "interval", defaults.Interval, "time between background samples")
	cmd.Flags().IntVar(&flags.Seed, "seed", defaults.Seed, "initial value")
	cmd.Flags().IntVar(&flags.Min, "min", defaults.Min, "lower bound of random samples (inclusive)")
	cmd.Flags().IntVar(&flags.Max, "max", defaults.Max, "upper bound of random samples (exclusive)")
	cmd.Flags().StringVar(&flags.SampleFile, "sample-file", "", "read samples from this file instead of generating them")
	cmd.Flags().StringVar(&flags.Source.Kind, "source", "", "read samples from a remote key: redis, nats, etcd, consul or zookeeper")
	cmd.Flags().StringVar(&flags.Source.Address, "source-address", "", "remote source server address")
	cmd.Flags().StringVar(&flags.Source.Key, "source-key", "", "remote source key or node path")
	cmd.Flags().StringVar(&flags.Source.Bucket, "source-bucket", "", "JetStream KV bucket (nats only)")
	return cmd
}

// resolveConfig loads the config file, if any, then applies flags the user
// set explicitly.
func resolveConfig(cmd *cobra.Command, flags latch.Config) (latch.Config, error) {
	cfg := latch.DefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return latch.Config{}, fmt.Errorf("read config: %w", err)
		}
		cfg, err = latch.LoadConfig(data, latch.CodecFor(configPath))
		if err != nil {
			return latch.Config{}, fmt.Errorf("load config %s: %w", configPath, err)
		}
	}

	set := cmd.Flags().Changed
	if set("interval") {
		cfg.Interval = flags.Interval
	}
	if set("seed") {
		cfg.Seed = flags.Seed
	}
	if set("min") {
		cfg.Min = flags.Min
	}
	if set("max") {
		cfg.Max = flags.Max
	}
	if set("sample-file") {
		cfg.SampleFile = flags.SampleFile
	}
	if set("source") {
		cfg.Source.Kind = flags.Source.Kind
	}
	if set("source-address") {
		cfg.Source.Address = flags.Source.Address
	}
	if set("source-key") {
		cfg.Source.Key = flags.Source.Key
	}
	if set("source-bucket") {
		cfg.Source.Bucket = flags.Source.Bucket
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg latch.Config, in io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &syncWriter{w: w}
	hookSignals(out)
	defer capitan.Shutdown()

	session, refresher, err := cfg.Build(ctx)
	if err != nil {
		return err
	}
	if cfg.Source.Remote() {
		watcher, closeSource, err := openSource(ctx, cfg.Source)
		if err != nil {
			return err
		}
		defer closeSource()

		sampler, err := latch.NewWatchSampler(ctx, watcher)
		if err != nil {
			return fmt.Errorf("watch %s source: %w", cfg.Source.Kind, err)
		}
		refresher.Sampler(sampler)
	}
	session.Subscribe(func(e latch.Event) {
		out.printf("%s\n", e)
	})

	if err := refresher.Start(ctx); err != nil {
		return err
	}

	c := newConsole(session, out)
	lines := scanLines(ctx, in)

	for {
		select {
		case <-ctx.Done():
			<-refresher.Done()
			return nil
		case line, ok := <-lines:
			if !ok || c.handle(line) {
				cancel()
				<-refresher.Done()
				return nil
			}
		}
	}
}

// hookSignals prints audit lines for the lifecycle signals.
func hookSignals(out *syncWriter) {
	capitan.Hook(latch.EditCommitted, func(_ context.Context, e *capitan.Event) {
		v, _ := latch.KeyValue.From(e)
		out.printf("[COMMIT] value=%d\n", v)
	})
	capitan.Hook(latch.EditCancelled, func(_ context.Context, e *capitan.Event) {
		v, _ := latch.KeyValue.From(e)
		out.printf("[CANCEL] value=%d\n", v)
	})
	capitan.Hook(latch.RefreshDropped, func(_ context.Context, e *capitan.Event) {
		v, _ := latch.KeyValue.From(e)
		out.printf("[DROPPED] sample=%d (editing)\n", v)
	})
	capitan.Hook(latch.RefreshSampleFailed, func(_ context.Context, e *capitan.Event) {
		msg, _ := latch.KeyError.From(e)
		out.printf("[SAMPLE FAILED] %s\n", msg)
	})
	capitan.Hook(latch.ObserverPanicked, func(_ context.Context, e *capitan.Event) {
		msg, _ := latch.KeyError.From(e)
		out.printf("[OBSERVER] %s\n", msg)
	})
}
