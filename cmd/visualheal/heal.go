package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/capture"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/config"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/fixapply"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/healing"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/knowledge"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/llm"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/observability"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/report"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/uimap"
)

var healCommand = &cobra.Command{
	Use:   "heal",
	Short: "Detect visual regressions and apply verified fixes",
	Long: `Renders every configured surface, compares it against its baseline screenshot, localizes differences to source lines, and tries ranked fix candidates until one verifies or all are exhausted.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runHealCmd,
}

var (
	healConfigPath         string
	healSurfaces           []string
	healSourceRoot         string
	healBaselineSourceRoot string
	healBaselineDir        string
	healWorkDir            string
	healReportPath         string
	healKnowledgePath      string
	healDatabaseURL        string
	healDiffThreshold      float64
	healPassThreshold      float64
	healRequireImprovement bool
	healMaxAttempts        int
	healWorkers            int
	healModifiedWindow     string
	healAPIKey             string
	healKeepBackups        bool
	healVerbose            bool
)

func init() {
	// Config file flag (processed first)
	healCommand.Flags().StringVar(&healConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	healCommand.Flags().StringArrayVarP(&healSurfaces, "surface", "s", nil, "Surface to watch as name=url (repeatable)")
	healCommand.Flags().StringVar(&healSourceRoot, "source-root", "", "Root of the UI source tree fixes are applied to")
	healCommand.Flags().StringVar(&healBaselineSourceRoot, "baseline-source-root", "", "Known-good source snapshot enabling heuristic revert candidates")
	healCommand.Flags().StringVar(&healBaselineDir, "baseline-dir", "", "Directory holding one <name>.png baseline per surface")
	healCommand.Flags().StringVar(&healWorkDir, "work-dir", "", "Directory for run artifacts (screenshots, diffs, backups)")
	healCommand.Flags().StringVar(&healReportPath, "report", "", "Path for the JSON run report")
	healCommand.Flags().StringVar(&healKnowledgePath, "knowledge", "", "Path of the append-only knowledge base file")
	healCommand.Flags().Float64Var(&healDiffThreshold, "diff-threshold", 0, "Diff percent above which a surface counts as regressed")
	healCommand.Flags().Float64Var(&healPassThreshold, "pass-threshold", 0, "Diff percent at or below which a fix verifies")
	healCommand.Flags().BoolVar(&healRequireImprovement, "require-improvement", false, "Require a fix to strictly lower the diff percent (worsening fixes are always rejected)")
	healCommand.Flags().IntVar(&healMaxAttempts, "max-attempts", 0, "Candidate trials per issue (0 tries every candidate)")
	healCommand.Flags().IntVar(&healWorkers, "workers", 0, "Surfaces healed in parallel (0 or 1 is serial)")
	healCommand.Flags().StringVar(&healModifiedWindow, "modified-window", "", "Duration like 24h; recently changed source files score higher")
	healCommand.Flags().BoolVar(&healKeepBackups, "keep-backups", false, "Retain backups of committed fixes")
	healCommand.Flags().BoolVarP(&healVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	healCommand.Flags().StringVar(&healAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for a shared knowledge base
	healCommand.Flags().StringVar(&healDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(healCommand)
}

func runHealCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := mergedHealConfig(cmd)
	if err != nil {
		return err
	}

	runReport, err := executeRun(ctx, cfg, true)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintRunSummary(runReport)
	if failedSurfaces(runReport) > 0 {
		return fmt.Errorf("%d surface(s) still regressed", failedSurfaces(runReport))
	}
	return nil
}

// mergedHealConfig layers config file, CLI flags, defaults, and env vars.
func mergedHealConfig(cmd *cobra.Command) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if healConfigPath != "" {
		loadedCfg, err := config.LoadConfig(healConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loadedCfg
		if healVerbose {
			fmt.Printf("Loaded config from: %s\n", healConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	if cmd.Flags().Changed("surface") {
		surfaces, err := parseSurfaceFlags(healSurfaces)
		if err != nil {
			return cfg, err
		}
		cfg.Surfaces = surfaces
	}
	if cmd.Flags().Changed("source-root") {
		cfg.SourceRoot = healSourceRoot
	}
	if cmd.Flags().Changed("baseline-source-root") {
		cfg.BaselineSourceRoot = healBaselineSourceRoot
	}
	if cmd.Flags().Changed("baseline-dir") {
		cfg.BaselineDir = healBaselineDir
	}
	if cmd.Flags().Changed("work-dir") {
		cfg.WorkDir = healWorkDir
	}
	if cmd.Flags().Changed("report") {
		cfg.ReportPath = healReportPath
	}
	if cmd.Flags().Changed("knowledge") {
		cfg.KnowledgePath = healKnowledgePath
	}
	if cmd.Flags().Changed("diff-threshold") {
		cfg.DiffThreshold = healDiffThreshold
	}
	if cmd.Flags().Changed("pass-threshold") {
		cfg.PassThreshold = healPassThreshold
	}
	if cmd.Flags().Changed("require-improvement") {
		cfg.RequireImprovement = healRequireImprovement
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttemptsPerIssue = healMaxAttempts
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = healWorkers
	}
	if cmd.Flags().Changed("modified-window") {
		cfg.ModifiedWindow = healModifiedWindow
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = healAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = healDatabaseURL
	}
	if cmd.Flags().Changed("keep-backups") {
		cfg.KeepBackups = healKeepBackups
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = healVerbose
	}

	// Step 3: Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.Config{
		BaselineDir:   "baselines",
		WorkDir:       "work",
		ReportPath:    "work/report.json",
		KnowledgePath: "work/knowledge.jsonl",
		DiffThreshold: 0.1,
		PassThreshold: 0.5,
	})
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	// Step 4: Validate required fields
	if len(cfg.Surfaces) == 0 {
		return cfg, fmt.Errorf("at least one surface must be provided (via --surface or config)")
	}
	if cfg.SourceRoot == "" {
		return cfg, fmt.Errorf("--source-root must be provided (via flag or config)")
	}
	return cfg, cfg.Validate()
}

// executeRun wires the real capabilities and runs the controller.
func executeRun(ctx context.Context, cfg config.Config, fixEnabled bool) (*types.RunReport, error) {
	surfaces := make([]capture.Surface, 0, len(cfg.Surfaces))
	for _, s := range cfg.Surfaces {
		surfaces = append(surfaces, capture.Surface{Name: s.Name, URL: s.URL})
	}

	var client llm.Client
	if fixEnabled && cfg.APIKey != "" {
		var err error
		client, err = llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create generation client: %w", err)
		}
		defer func() { _ = client.Close() }()
	} else if fixEnabled && cfg.Verbose {
		fmt.Println("No API key configured; relying on heuristic candidates only")
	}

	var store knowledge.Store
	if fixEnabled {
		var err error
		store, err = openKnowledgeStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
	}

	renderer := capture.NewBrowserRenderer()
	renderer.Verbose = cfg.Verbose
	elements := uimap.NewBrowserSource()
	elements.Verbose = cfg.Verbose

	controller := &healing.Controller{
		Options: healing.Options{
			Surfaces:           surfaces,
			BaselineDir:        cfg.BaselineDir,
			WorkDir:            cfg.WorkDir,
			SourceRoot:         cfg.SourceRoot,
			BaselineSourceRoot: cfg.BaselineSourceRoot,
			DiffThreshold:      cfg.DiffThreshold,
			Acceptance: fixapply.AcceptanceRule{
				PassThreshold:      cfg.PassThreshold,
				RequireImprovement: cfg.RequireImprovement,
			},
			MaxAttemptsPerIssue: cfg.MaxAttemptsPerIssue,
			FixEnabled:          fixEnabled,
			Workers:             cfg.Workers,
			ModifiedWindow:      cfg.ModifiedWindowDuration(),
			Verbose:             cfg.Verbose,
		},
		Renderer:  renderer,
		Differ:    capture.NewPixelDiffer(),
		Elements:  elements,
		Client:    client,
		Knowledge: store,
		Sink:      &report.JSONFileSink{Path: cfg.ReportPath},
	}

	return controller.Run(ctx)
}

// openKnowledgeStore prefers a shared PostgreSQL store when configured.
func openKnowledgeStore(ctx context.Context, cfg config.Config) (knowledge.Store, error) {
	if cfg.DatabaseURL != "" {
		store, err := knowledge.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open knowledge base: %w", err)
		}
		return store, nil
	}
	store, err := knowledge.OpenFileStore(cfg.KnowledgePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return store, nil
}

// parseSurfaceFlags parses repeated name=url flags.
func parseSurfaceFlags(flags []string) ([]config.SurfaceConfig, error) {
	surfaces := make([]config.SurfaceConfig, 0, len(flags))
	for _, flag := range flags {
		name, url, ok := strings.Cut(flag, "=")
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("invalid --surface %q: expected name=url", flag)
		}
		surfaces = append(surfaces, config.SurfaceConfig{Name: name, URL: url})
	}
	return surfaces, nil
}

// failedSurfaces counts surfaces that finished the run still regressed.
func failedSurfaces(runReport *types.RunReport) int {
	count := 0
	for _, surface := range runReport.Surfaces {
		switch surface.Outcome {
		case types.SurfaceFixesFailed, types.SurfaceFixesPartial, types.SurfaceIssueAborted:
			count++
		}
	}
	return count
}
