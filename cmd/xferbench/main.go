package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/xferbench/internal/cliconfig"
	"github.com/bft-labs/xferbench/internal/receiver"
	"github.com/bft-labs/xferbench/internal/runner"
	"github.com/bft-labs/xferbench/internal/store"
	"github.com/bft-labs/xferbench/internal/strategy"
	"github.com/bft-labs/xferbench/pkg/log"
)

const longHelp = `xferbench benchmarks moving a fixed dataset between two services over
three interchangeable transports: sequential requests, bounded
concurrent requests, and one persistent bidirectional stream.

Start a receiver, seed a dataset, then drive runs against it:

  xferbench serve
  xferbench seed --seed-count 10000
  xferbench run --strategy sync
  xferbench run --strategy async
  xferbench run --strategy stream

Each run prints success/failure counts and elapsed time so the
strategies can be compared on the same dataset.`

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "xferbench",
		Short:         "Compare transfer strategies for moving a dataset between services",
		Long:          longHelp,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to TOML config file (default ~/.xferbench/config.toml)")
	pf.StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "receiver base URL")
	pf.StringVar(&cfg.SourceDB, "source-db", cfg.SourceDB, "path to the source SQLite database")
	pf.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")

	// loadConfig applies file and environment configuration beneath any
	// explicitly set flags, then validates.
	loadConfig := func(cmd *cobra.Command) (string, error) {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return "", fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return "", err
			}
		}

		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return "", err
		}
		if err := cfg.Validate(); err != nil {
			return "", err
		}
		return cfgFile, nil
	}

	newLogger := func() log.Logger {
		if cfg.Debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		return log.NewZerologAdapter()
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Drive one benchmark run against the receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			logger := newLogger()

			st, err := store.OpenSQLite(cfg.SourceDB, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			sess, err := runner.NewSession(cfg.Strategy, strategy.Config{
				ServiceURL:       cfg.ServiceURL,
				RequestTimeout:   cfg.RequestTimeout,
				SubBatchSize:     cfg.SubBatchSize,
				Lanes:            cfg.Lanes,
				ChunkWaitCeiling: cfg.ChunkWaitCeiling,
			}, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sum, runErr := sess.Run(ctx, st, cfg.ChunkSize)
			fmt.Printf("run %s strategy=%s success=%d failure=%d elapsed=%s\n",
				sum.RunID, sum.Strategy, sum.SuccessCount, sum.FailureCount, sum.Elapsed)
			return runErr
		},
	}
	rf := runCmd.Flags()
	rf.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "transfer strategy: sync, async or stream")
	rf.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "records per chunk")
	rf.IntVar(&cfg.SubBatchSize, "sub-batch-size", cfg.SubBatchSize, "inner partition size for the async strategy")
	rf.IntVar(&cfg.Lanes, "lanes", cfg.Lanes, "ceiling on concurrently in-flight requests")
	rf.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "per-request timeout")
	rf.DurationVar(&cfg.ChunkWaitCeiling, "chunk-wait-ceiling", cfg.ChunkWaitCeiling, "wait ceiling for one chunk's outcomes (async)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the receiver service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger()

			var st store.Store
			if cfg.ReceiverDB != "" {
				st, err = store.OpenSQLite(cfg.ReceiverDB, logger)
				if err != nil {
					return err
				}
			} else {
				st = store.NewMemory()
			}
			defer st.Close()

			sink := receiver.NewSink(st, cfg.RejectProbability, cfg.RejectSeed, logger)
			srv := receiver.NewServer(cfg.ListenAddr, sink, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				watcher := receiver.NewConfigWatcher(cfgFile, sink, logger)
				go func() {
					if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
						logger.Warn("config watcher stopped", log.Err(err))
					}
				}()
			}

			go func() {
				<-ctx.Done()
				shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutCtx)
			}()

			return srv.ListenAndServe()
		},
	}
	sf := serveCmd.Flags()
	sf.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "receiver listen address")
	sf.StringVar(&cfg.ReceiverDB, "receiver-db", cfg.ReceiverDB, "path to the receiver SQLite database (in-memory when empty)")
	sf.Float64Var(&cfg.RejectProbability, "reject-probability", cfg.RejectProbability, "fraction of records the sink rejects")
	sf.Int64Var(&cfg.RejectSeed, "reject-seed", cfg.RejectSeed, "seed for the rejection draw (0 = from the clock)")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the source store with synthetic records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			logger := newLogger()

			st, err := store.OpenSQLite(cfg.SourceDB, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := st.Truncate(ctx); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			if err := store.Seed(ctx, st, cfg.SeedCount, rng); err != nil {
				return err
			}
			logger.Info("dataset seeded",
				log.String("path", cfg.SourceDB),
				log.Int("records", cfg.SeedCount))
			return nil
		},
	}
	seedCmd.Flags().IntVar(&cfg.SeedCount, "seed-count", cfg.SeedCount, "number of records to generate")

	root.AddCommand(runCmd, serveCmd, seedCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
