package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/urfave/cli/v3"

	"fairprice/classifier"
	"fairprice/models"
	"fairprice/server"
	"fairprice/services"
	"fairprice/stats"
	"fairprice/storage"
	"fairprice/utils"
)

var (
	serveCmd = &cli.Command{
		Name:  "serve",
		Usage: "Serve the scoring API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "Listen port (env PORT)"},
			&cli.BoolFlag{Name: "access-log", Usage: "Log every request", Value: true},
		},
		Action: cmdServe,
	}

	scoreCmd = &cli.Command{
		Name:  "score",
		Usage: "Score one listing and print the report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "state", Required: true},
			&cli.StringFlag{Name: "locality", Required: true},
			&cli.StringFlag{Name: "category", Value: "For Rent", Usage: "For Rent or For Sale"},
			&cli.StringFlag{Name: "type", Value: "Apartment", Usage: "House or Apartment"},
			&cli.StringFlag{Name: "sub-type", Value: "Missing", Usage: "e.g. Bungalow, Flat & Apartment"},
			&cli.IntFlag{Name: "bedrooms"},
			&cli.IntFlag{Name: "bathrooms"},
			&cli.IntFlag{Name: "toilets"},
			&cli.IntFlag{Name: "parking"},
			&cli.BoolFlag{Name: "furnished"},
			&cli.BoolFlag{Name: "serviced"},
			&cli.BoolFlag{Name: "shared"},
			&cli.StringFlag{Name: "price", Required: true, Usage: `Listed price, e.g. "KES 50,000"`},
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
		},
		Action: cmdScore,
	}

	scoreBatchCmd = &cli.Command{
		Name:  "score-batch",
		Usage: "Score every listing in a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Required: true, Usage: "CSV with state, locality, listed_price and optional attribute columns"},
			&cli.StringFlag{Name: "out", Value: "./output/scores.csv"},
			&cli.IntFlag{Name: "workers", Usage: "Concurrent scoring calls (env BATCH_WORKERS)"},
		},
		Action: cmdScoreBatch,
	}

	statesCmd = &cli.Command{
		Name:   "states",
		Usage:  "List the states listings can be scored in",
		Action: cmdStates,
	}

	localitiesCmd = &cli.Command{
		Name:  "localities",
		Usage: "List the localities observed under a state",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "state", Required: true},
		},
		Action: cmdLocalities,
	}

	buildStatsCmd = &cli.Command{
		Name:  "build-stats",
		Usage: "Compute locality statistics from a CSV of cleaned listings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "csv", Required: true, Usage: "Input CSV with state, locality, price, bedrooms, bathrooms"},
			&cli.StringFlag{Name: "out", Usage: "Output YAML file (defaults to the stats path)"},
			&cli.BoolFlag{Name: "postgres", Usage: "Also write the statistics to PostgreSQL"},
		},
		Action: cmdBuildStats,
	}

	pushStatsCmd = &cli.Command{
		Name:  "push-stats",
		Usage: "Load a statistics file into PostgreSQL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Statistics file (defaults to the stats path)"},
		},
		Action: cmdPushStats,
	}

	exportStatsCmd = &cli.Command{
		Name:  "export-stats",
		Usage: "Export locality statistics as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "./output/locality_stats.csv"},
		},
		Action: cmdExportStats,
	}
)

func cmdServe(ctx context.Context, cmd *cli.Command) error {
	port := cfg.Port
	if cmd.IsSet("port") {
		port = cmd.String("port")
	}

	loader, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	app := server.New(loader, logger, cmd.Bool("access-log"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serveUntil(app, ":"+port, quit)
}

// serveUntil listens on addr until a value arrives on quit, then shuts the
// app down. A listen failure is returned at once.
func serveUntil(app *fiber.App, addr string, quit <-chan os.Signal) error {
	listenErr := make(chan error, 1)
	go func() {
		logger.Info("[serve] Listening on %s", addr)
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("serve: listen on %s: %w", addr, err)
		}
		return nil
	case <-quit:
	}

	logger.Info("[serve] Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("serve: forced shutdown: %w", err)
	}
	return nil
}

func cmdScore(ctx context.Context, cmd *cli.Command) error {
	form := models.RawListingForm{
		State:        cmd.String("state"),
		Locality:     cmd.String("locality"),
		Category:     cmd.String("category"),
		PropertyType: cmd.String("type"),
		SubType:      cmd.String("sub-type"),
		Bedrooms:     int(cmd.Int("bedrooms")),
		Bathrooms:    int(cmd.Int("bathrooms")),
		Toilets:      int(cmd.Int("toilets")),
		Parking:      int(cmd.Int("parking")),
		Furnished:    cmd.Bool("furnished"),
		Serviced:     cmd.Bool("serviced"),
		Shared:       cmd.Bool("shared"),
		ListedPrice:  cmd.String("price"),
	}

	report := services.NewReportService(os.Stdout, logger)

	in, err := services.NewCleaner(logger).ParseListing(form)
	if err != nil {
		report.PrintFailure(err)
		return err
	}

	loader, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	rt, _ := loader.Load(ctx)

	result, err := rt.Engine.Score(ctx, in)
	if err != nil {
		report.PrintFailure(err)
		return err
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	report.Print(result)
	return nil
}

func cmdScoreBatch(ctx context.Context, cmd *cli.Command) error {
	records, err := storage.ReadListingForms(cmd.String("in"))
	if err != nil {
		return err
	}

	loader, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	rt, _ := loader.Load(ctx)

	workers := cfg.BatchWorkers
	if cmd.IsSet("workers") {
		workers = int(cmd.Int("workers"))
	}
	results := services.NewBatchScorer(rt.Engine, workers, cfg.BatchRateLimitMs, logger).Run(ctx, records)

	out := cmd.String("out")
	w, err := storage.NewResultWriter(out)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := w.Write(r.Form, r.Result, r.Err); err != nil {
			_ = w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	logger.Info("[score-batch] %d results written to %s", len(results), out)
	return nil
}

func cmdStates(ctx context.Context, _ *cli.Command) error {
	store, err := loadStore(ctx)
	if err != nil {
		return err
	}
	for _, st := range store.States() {
		fmt.Println(st)
	}
	return nil
}

func cmdLocalities(ctx context.Context, cmd *cli.Command) error {
	store, err := loadStore(ctx)
	if err != nil {
		return err
	}
	state := cmd.String("state")
	if !store.ValidState(state) {
		return fmt.Errorf("localities: %q: %w", state, models.ErrUnknownState)
	}
	for _, loc := range store.LocalitiesForState(state) {
		fmt.Println(loc)
	}
	return nil
}

func cmdBuildStats(ctx context.Context, cmd *cli.Command) error {
	b, err := storage.NewBuilder(logger)
	if err != nil {
		return err
	}
	defer b.Close()

	snap, err := b.Build(ctx, cmd.String("csv"))
	if err != nil {
		return err
	}
	if _, err := stats.New(snap); err != nil {
		return fmt.Errorf("build-stats: built snapshot is invalid: %w", err)
	}

	out := cfg.StatsPath
	if cmd.IsSet("out") {
		out = cmd.String("out")
	}
	if err := storage.WriteSnapshotFile(out, snap); err != nil {
		return err
	}
	logger.Info("[build-stats] Statistics written to %s", out)

	if cmd.Bool("postgres") {
		return writePostgres(ctx, snap)
	}
	return nil
}

func cmdPushStats(ctx context.Context, cmd *cli.Command) error {
	path := cfg.StatsPath
	if cmd.IsSet("from") {
		path = cmd.String("from")
	}
	snap, err := storage.NewFileSource(path).Load(ctx)
	if err != nil {
		return err
	}
	if _, err := stats.New(snap); err != nil {
		return fmt.Errorf("push-stats: %s is invalid: %w", path, err)
	}
	return writePostgres(ctx, snap)
}

func cmdExportStats(ctx context.Context, cmd *cli.Command) error {
	store, err := loadStore(ctx)
	if err != nil {
		return err
	}

	out := cmd.String("out")
	w, err := storage.NewCSVWriter(out)
	if err != nil {
		return err
	}
	if err := w.WriteRows(storage.RowsFromStore(store)); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("csv: close: %w", err)
	}
	logger.Info("[export-stats] %d localities written to %s", store.Len(), out)
	return nil
}

func writePostgres(ctx context.Context, snap *models.StatisticsSnapshot) error {
	ps, err := storage.NewPostgresStore(ctx, cfg.DSN(), connectRetry())
	if err != nil {
		return err
	}
	defer ps.Close()

	if err := ps.Write(ctx, snap); err != nil {
		return err
	}
	logger.Info("[push-stats] %d localities stored in PostgreSQL", len(snap.Localities))
	return nil
}

func connectRetry() *utils.RetryConfig {
	return &utils.RetryConfig{
		MaxAttempts: cfg.ConnectRetries,
		BaseDelay:   time.Second,
		Logger:      logger,
	}
}

// openStatistics returns the configured statistics source and a function
// releasing whatever it holds open.
func openStatistics(ctx context.Context) (storage.StatisticsSource, func(), error) {
	switch cfg.StatsSource {
	case "postgres":
		ps, err := storage.NewPostgresStore(ctx, cfg.DSN(), connectRetry())
		if err != nil {
			return nil, nil, &models.InitError{Source: "statistics", Err: err}
		}
		return ps, func() { _ = ps.Close() }, nil
	default:
		return storage.NewFileSource(cfg.StatsPath), func() {}, nil
	}
}

func openClassifier(ctx context.Context) (classifier.Classifier, error) {
	switch cfg.Classifier {
	case "remote":
		r := classifier.NewRemote(cfg.ModelServiceURL, cfg.ModelTimeout())
		if err := connectRetry().Do(ctx, "model server health", func() error { return r.Health(ctx) }); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return classifier.LoadLinear(cfg.ModelPath)
	}
}

// loadRuntime builds the runtime once up front so that a bad statistics or
// classifier source stops the process before it serves anything.
func loadRuntime(ctx context.Context) (*services.Loader, error) {
	src, release, err := openStatistics(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	loader := newLoader(services.Sources{Statistics: src, Classifier: openClassifier})
	if _, err := loader.Load(ctx); err != nil {
		return nil, err
	}
	return loader, nil
}

// loadStore reads only the statistics, for commands that never classify.
func loadStore(ctx context.Context) (*stats.Store, error) {
	src, release, err := openStatistics(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := src.Load(ctx)
	if err != nil {
		return nil, &models.InitError{Source: "statistics", Err: err}
	}
	store, err := stats.New(snap)
	if err != nil {
		return nil, &models.InitError{Source: "statistics", Err: err}
	}
	logger.Debug("[stats] %s", strings.Join(store.States(), ", "))
	return store, nil
}
