package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/capability"
	"github.com/merchpilot/merchpilot/internal/config"
	"github.com/merchpilot/merchpilot/internal/creative"
	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/gate"
	"github.com/merchpilot/merchpilot/internal/memory"
	"github.com/merchpilot/merchpilot/internal/notify"
	"github.com/merchpilot/merchpilot/internal/observer"
	"github.com/merchpilot/merchpilot/internal/pipeline"
	"github.com/merchpilot/merchpilot/internal/research"
	"github.com/merchpilot/merchpilot/internal/scheduler"
	"github.com/merchpilot/merchpilot/internal/strategy"
	"github.com/merchpilot/merchpilot/tui"
	"github.com/merchpilot/merchpilot/web/api"
)

const version = "0.3.0"

var (
	runDryRun    bool
	statusLimit  int
	servePort    int
	scheduleOnce bool
	watchURL     string
)

func init() {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run now",
		RunE:  runRun,
	}
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "stop after candidate generation, no image calls or gates")
	rootCmd.AddCommand(runCmd)

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured cron cadence",
		RunE:  runSchedule,
	}
	scheduleCmd.Flags().BoolVar(&scheduleOnce, "once", false, "execute one run immediately before entering the loop")
	rootCmd.AddCommand(scheduleCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the status API server",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent run summaries",
		RunE:  runStatus,
	}
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of runs to show")
	rootCmd.AddCommand(statusCmd)

	keywordsCmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage the negative keyword set",
	}
	keywordsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List negative keywords",
		RunE:  runKeywordsList,
	})
	keywordsCmd.AddCommand(&cobra.Command{
		Use:   "add KEYWORD...",
		Short: "Add negative keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runKeywordsAdd,
	})
	rootCmd.AddCommand(keywordsCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live pipeline events from a running server",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&watchURL, "url", "", "websocket URL (defaults to the configured server)")
	rootCmd.AddCommand(watchCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI dashboard",
		RunE:  runTUI,
	}
	rootCmd.AddCommand(tuiCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("merchpilot " + version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

// app bundles the wired pipeline for one command invocation
type app struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	store  *memory.Store
	brands *gate.BrandList
	runner *pipeline.Runner
}

func (a *app) Close() {
	a.store.Close()
	a.log.Sync()
}

// buildApp wires the full pipeline from configuration. Extra sinks
// (observer, API server) are fanned in alongside the default.
func buildApp(extraSinks ...pipeline.EventSink) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.General.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	store, err := memory.New(cfg.General.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening memory store: %w", err)
	}

	brands := gate.DefaultBrandList()
	if cfg.General.BrandListPath != "" {
		brands, err = gate.LoadBrandList(cfg.General.BrandListPath)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("loading brand list: %w", err)
		}
	}

	providers := capability.StubProviders(cfg.General.ArtifactDir)

	var sink pipeline.EventSink = pipeline.NoopSink{}
	if len(extraSinks) > 0 {
		sink = pipeline.NewMultiSink(extraSinks...)
	}

	p := cfg.Pipeline
	ip := gate.NewIPGate(brands, providers.Trademarks, p.GateTimeout, log)
	compliance := gate.NewComplianceGate(providers.Compliance, p.GateTimeout, p.RiskCeiling, p.MinContrastRatio, log)
	quality := gate.NewQualityGate(providers.Quality, p.GateTimeout, p.QualityThreshold, log)
	images := pipeline.NewImageAdapter(providers.Images, p.ImageMaxRetries, p.ImageRetryBackoff, p.ImageTimeout, log)

	pricing := strategy.PricingTable{Base: map[domain.ProductType]float64{
		domain.ProductStandardTee: cfg.Pricing.StandardTee,
		domain.ProductPremiumTee:  cfg.Pricing.PremiumTee,
		domain.ProductHoodie:      cfg.Pricing.Hoodie,
	}}
	strat := strategy.New(pricing, providers.Listings, providers.Artifacts, store, p.GateTimeout, log)

	processor := pipeline.NewProcessor(ip, compliance, quality, images, strat, store, sink, p.BatchSize, log)
	res := research.New(providers.Research, store, log, p.ResearchTimeout, p.MaxNiches)
	cre := creative.New(store, log, p.ConceptsPerNiche, p.VariantsPerConcept, p.MinContrastRatio)
	runner := pipeline.NewRunner(store, res, cre, processor, cfg.Targets(), sink, log)

	return &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		brands: brands,
		runner: runner,
	}, nil
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	if cfg.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(true))
	}
	if len(notifiers) == 0 {
		return notify.NoopNotifier{}
	}
	return notify.NewMultiNotifier(notifiers...)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.runner.DryRun = runDryRun

	sum, err := a.runner.Execute(cmd.Context())
	if err != nil {
		return err
	}

	if runDryRun {
		fmt.Printf("Dry run: %d niches retained, %d candidates generated\n",
			sum.NichesRetained, sum.CandidatesGenerated)
		return nil
	}

	fmt.Printf("Run %s: %d approved of %d generated (ip %d, compliance %d, quality %d)\n",
		sum.ExecutionID, sum.Approved, sum.CandidatesGenerated,
		sum.IPFlagged, sum.ComplianceFlagged, sum.QualityRejected)
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	obs := observer.New(2 * time.Hour)
	a, err := buildApp(obs)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.Schedule.Enabled {
		return fmt.Errorf("scheduling disabled in config (schedule.enabled = false)")
	}

	sched, err := scheduler.New(a.cfg.Schedule.Cron, a.log)
	if err != nil {
		return err
	}

	notifier := buildNotifier(a.cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Reload the brand list when the file changes on disk.
	if path := a.cfg.General.BrandListPath; path != "" {
		watcher, err := observer.NewBrandWatcher(path, func(p string) {
			if err := a.brands.Reload(p); err != nil {
				a.log.Warnw("brand list reload failed", "path", p, "error", err)
				return
			}
			a.log.Infow("brand list reloaded", "path", p, "brands", len(a.brands.Brands()))
		})
		if err != nil {
			a.log.Warnw("brand list watch unavailable", "error", err)
		} else {
			watcher.Start(ctx)
			defer watcher.Stop()
		}
	}

	execute := func(ctx context.Context) error {
		sum, err := a.runner.Execute(ctx)
		if err != nil {
			return err
		}
		if nerr := notifier.Send(notify.FromSummary(sum)); nerr != nil {
			a.log.Warnw("notification failed", "error", nerr)
		}
		return nil
	}

	if scheduleOnce {
		if err := execute(ctx); err != nil {
			a.log.Errorw("initial run failed", "error", err)
		}
	}

	fmt.Printf("Scheduler running (cron %q, next %s). Ctrl-C to stop.\n",
		a.cfg.Schedule.Cron, sched.NextRun().Format(time.RFC822))

	sched.Start(ctx, execute)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	obs := observer.New(2 * time.Hour)

	// The server is wired as an event sink before the runner exists, so
	// build it in two steps.
	var server *api.Server
	serverSink := pipeline.EventSinkFunc(func(e pipeline.Event) {
		if server != nil {
			server.Emit(e)
		}
	})

	a, err := buildApp(obs, serverSink)
	if err != nil {
		return err
	}
	defer a.Close()

	port := servePort
	if port == 0 {
		port = a.cfg.Web.Port
	}
	addr := fmt.Sprintf("%s:%d", a.cfg.Web.Host, port)

	trigger := func(ctx context.Context) (*domain.RunSummary, error) {
		return a.runner.Execute(ctx)
	}
	server = api.NewServer(a.store, obs, trigger, addr, a.log)

	fmt.Printf("Status API at http://%s\n", addr)
	return server.Start()
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := memory.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	sums, err := store.RecentSummaries(statusLimit)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXECUTION\tSTARTED\tGENERATED\tAPPROVED\tFLAGGED\tINFRA")
	for _, s := range sums {
		flagged := s.IPFlagged + s.ComplianceFlagged + s.QualityRejected
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
			s.ExecutionID, s.StartedAt.Format("2006-01-02 15:04"),
			s.CandidatesGenerated, s.Approved, flagged, s.InfraFailures)
	}
	return w.Flush()
}

func runKeywordsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := memory.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	set, err := store.DeriveNegativeKeywords()
	if err != nil {
		return err
	}
	keywords := make([]string, 0, len(set))
	for kw := range set {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	for _, kw := range keywords {
		fmt.Println(kw)
	}
	return nil
}

func runKeywordsAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := memory.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.AddNegativeKeywords("cli", args); err != nil {
		return err
	}
	fmt.Printf("Added %d keyword(s)\n", len(args))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	url := watchURL
	if url == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		url = fmt.Sprintf("ws://%s:%d/api/ws", cfg.Web.Host, cfg.Web.Port)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", url, err)
	}
	defer conn.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", url)
	for {
		var event pipeline.Event
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		line := fmt.Sprintf("%s  %-15s run=%s", event.Timestamp.Format("15:04:05"), event.Type, event.ExecutionID)
		if event.CandidateID != "" {
			line += " candidate=" + event.CandidateID
		}
		if event.Status != "" {
			line += " status=" + event.Status
		}
		if event.Detail != "" {
			line += " " + event.Detail
		}
		fmt.Println(line)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	refresh := func() ([]*domain.RunSummary, []string, error) {
		sums, err := a.store.RecentSummaries(50)
		if err != nil {
			return nil, nil, err
		}
		set, err := a.store.DeriveNegativeKeywords()
		if err != nil {
			return sums, nil, err
		}
		keywords := make([]string, 0, len(set))
		for kw := range set {
			keywords = append(keywords, kw)
		}
		sort.Strings(keywords)
		return sums, keywords, nil
	}

	sums, keywords, err := refresh()
	if err != nil {
		return fmt.Errorf("loading store: %w", err)
	}

	model := tui.NewModel(tui.ModelConfig{
		Summaries: sums,
		Keywords:  keywords,
		Refresh:   refresh,
		Run:       a.runner.Execute,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
