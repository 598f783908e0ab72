package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"eremos-run/internal/admin"
	"eremos-run/internal/config"
	"eremos-run/internal/detection"
	"eremos-run/internal/encounter"
	"eremos-run/internal/extraction"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/journal"
	"eremos-run/internal/journey"
	"eremos-run/internal/logging"
	"eremos-run/internal/loot"
	"eremos-run/internal/rng"
	"eremos-run/internal/run"
	"eremos-run/internal/salvage"
	"eremos-run/internal/tui"
)

var (
	runConfigPath  string
	runSchemaPath  string
	runSeed        int64
	runTier        int
	runHeadless    bool
	runJSON        bool
	runLogFile     string
	runArchivePath string
	runAdminAddr   string
	runDeploysPath string
	runVerbose     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an expedition on a generated map",
	Long:  "run generates a hex map from the seed, opens the admin API, and drives the journey loop until extraction, loss, or interrupt.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(runConfigPath, runSchemaPath)
		if err != nil {
			return err
		}
		if runTier > 0 {
			cfg.Tier = runTier
		}
		seed := runSeed
		if seed == 0 {
			seed = cfg.Seed
		}
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		log := logging.New(runVerbose)
		runID := uuid.NewString()
		log = logging.ForRun(log, runID)

		m := hexmap.Generate(cfg.Tier, cfg.MapRadius, seed)
		store := run.NewStore(run.NewState(runID, cfg, m, seed))

		var archive *run.Archive
		if runArchivePath != "" {
			archive, err = run.OpenArchive(runArchivePath)
			if err != nil {
				return err
			}
			defer archive.Close()
		}

		writer, cleanup, err := newWriters(runJSON, runLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		rand := rng.New(seed)
		det := detection.NewManager(cfg, store, rand, log)
		enc := encounter.NewController(cfg, rand, log)
		sal := salvage.NewController(cfg, rand, log)
		ext := extraction.NewController(cfg, store, archive, rand, log)
		gen := loot.NewGenerator(cfg.TierModFor(cfg.Tier).LootQuality, rand)

		sink := journal.NewMultiWriter(writer)
		orc := journey.New(cfg, store, det, enc, sal, ext, gen, sink, log)

		var ui *tui.TUI
		if !runHeadless && !runJSON {
			ui = tui.New(store, orc, det, ext)
			sink.Add(ui)
		}

		srv := admin.NewServer(store, orc, det, ext, log)
		if runDeploysPath != "" {
			tpls, err := encounter.LoadTemplates(runDeploysPath)
			if err != nil {
				return err
			}
			srv.SetDeployTemplates(tpls)
		}
		go func() {
			log.Info("admin API listening", "addr", runAdminAddr)
			if err := srv.Start(runAdminAddr); err != nil {
				log.Error("admin server failed", "err", err)
				os.Exit(1)
			}
		}()

		_ = sink.Write(journal.EventRow{
			RunID: runID, Tier: cfg.Tier, Type: journal.EventRunStarted,
			Detail: "expedition started", Timestamp: time.Now().UTC(),
		})
		log.Info("run started", "tier", cfg.Tier, "seed", seed, "radius", cfg.MapRadius)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		orc.Abandon()
		det.Reset()
		if ui != nil {
			ui.Close()
		}
		log.Info("run stopped")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "config/run.yaml", "Path to run configuration YAML")
	runCmd.Flags().StringVar(&runSchemaPath, "schema", "schemas/run.cue", "Path to CUE schema file")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Run seed (0 uses config, then wall clock)")
	runCmd.Flags().IntVar(&runTier, "tier", 0, "Map tier override")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Disable the TUI, drive the run via the admin API")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Emit JSON lines instead of the TUI")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "Path to export the journey journal (JSONL)")
	runCmd.Flags().StringVar(&runArchivePath, "archive", "", "Path to the sqlite run archive")
	runCmd.Flags().StringVar(&runAdminAddr, "admin", ":8080", "Admin API listen address")
	runCmd.Flags().StringVar(&runDeploysPath, "deploys", "", "Path to saved deploy templates YAML")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Enable debug logging")
}
