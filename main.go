package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"fairprice/config"
	"fairprice/models"
	"fairprice/services"
	"fairprice/utils"
)

var (
	name    = "fairprice"
	version = "v0.0.1-default"
	commit  = ""

	cfg    *config.Config
	logger = utils.NewLogger()

	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Minimum log level: debug, info, warn or error (env LOG_LEVEL)",
	}
	statsSourceFlag = &cli.StringFlag{
		Name:  "stats-source",
		Usage: "Where locality statistics come from: file or postgres (env STATS_SOURCE)",
	}
	statsPathFlag = &cli.StringFlag{
		Name:  "stats-path",
		Usage: "Statistics YAML/JSON file when --stats-source=file (env STATS_PATH)",
	}
	classifierFlag = &cli.StringFlag{
		Name:  "classifier",
		Usage: "Classifier backend: linear or remote (env CLASSIFIER)",
	}
	modelPathFlag = &cli.StringFlag{
		Name:  "model-path",
		Usage: "Linear model file when --classifier=linear (env MODEL_PATH)",
	}
	modelURLFlag = &cli.StringFlag{
		Name:  "model-url",
		Usage: "Model server base URL when --classifier=remote (env MODEL_SERVICE_URL)",
	}
	modeFlag = &cli.StringFlag{
		Name:  "mode",
		Usage: "Scoring mode: statistics or placeholder (env SCORING_MODE)",
	}
)

func main() {
	app := &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s - (commit: %s)", version, commit),
		Usage:   "Classify real-estate listings as underpriced, fairly priced or overpriced",
		Flags: []cli.Flag{
			logLevelFlag,
			statsSourceFlag,
			statsPathFlag,
			classifierFlag,
			modelPathFlag,
			modelURLFlag,
			modeFlag,
		},
		Commands: []*cli.Command{
			serveCmd,
			scoreCmd,
			scoreBatchCmd,
			statesCmd,
			localitiesCmd,
			buildStatsCmd,
			pushStatsCmd,
			exportStatsCmd,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg = config.Load()
			applyOverrides(cmd, cfg)
			logger.SetLevel(utils.ParseLevel(cfg.LogLevel))
			return ctx, cfg.Validate()
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Error("%v", err)
		os.Exit(exitCode(err))
	}
}

// applyOverrides lets explicitly set flags win over the environment.
func applyOverrides(cmd *cli.Command, c *config.Config) {
	overrides := []struct {
		flag *cli.StringFlag
		dst  *string
	}{
		{logLevelFlag, &c.LogLevel},
		{statsSourceFlag, &c.StatsSource},
		{statsPathFlag, &c.StatsPath},
		{classifierFlag, &c.Classifier},
		{modelPathFlag, &c.ModelPath},
		{modelURLFlag, &c.ModelServiceURL},
		{modeFlag, &c.ScoringMode},
	}
	for _, o := range overrides {
		if cmd.IsSet(o.flag.Name) {
			*o.dst = cmd.String(o.flag.Name)
		}
	}
}

// exitCode separates refusals the user can act on from system failures.
func exitCode(err error) int {
	switch models.ErrorKind(err) {
	case "invalid_listing", "locality_not_found":
		return 2
	case "init_error":
		return 3
	default:
		return 1
	}
}

func newLoader(src services.Sources) *services.Loader {
	src.Mode = models.Mode(cfg.ScoringMode)
	src.Logger = logger
	return services.NewLoader(src)
}
