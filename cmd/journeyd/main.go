/*
main.go - Application entry point

PURPOSE:
  journeyd serves the mentorship journey API and offers offline commands
  for computing a journey and loading demo scenarios.

COMMANDS:
  serve                 HTTP server with scheduled unlock sweeps
  compute <user-id>     Print the journey and achievements as JSON
  scenarios list        List demo scenarios
  scenarios load <id>   Load a demo scenario into the database

GLOBAL FLAGS:
  --config   YAML configuration file
  --port     HTTP server port (overrides config)
  --db       SQLite database path (overrides config)
             Use ":memory:" for an in-memory database

ENVIRONMENT:
  See config/config.go. LOG_FORMAT=human switches to console logging.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration precedence
*/
package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/warp/journey-engine/api"
	"github.com/warp/journey-engine/config"
	"github.com/warp/journey-engine/factory"
	"github.com/warp/journey-engine/journey"
	"github.com/warp/journey-engine/store/sqlite"
)

type rootOptions struct {
	configPath string
	port       int
	dbPath     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("journeyd failed")
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "journeyd",
		Short:         "Mentorship journey analytics server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().IntVar(&opts.port, "port", 0, "HTTP server port")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path")

	root.AddCommand(
		newServeCmd(opts),
		newComputeCmd(opts),
		newScenariosCmd(opts),
	)
	return root
}

// load resolves configuration, applies flag overrides and configures logging.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = o.port
	}
	if cmd.Flags().Changed("db") {
		cfg.Database.Path = o.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

// setupLogging configures the global zerolog logger.
func setupLogging(lc config.LogConfig) {
	output := io.Writer(os.Stdout)
	if strings.EqualFold(lc.Format, "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(output).With().Timestamp().Logger()
}

// openStore creates the database directory when needed and opens SQLite.
func openStore(path string) (*sqlite.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, err
		}
	}
	return sqlite.New(path)
}

// newHandler wires the API handler from configuration.
func newHandler(cfg *config.Config, store *sqlite.Store, clock journey.Clock) (*api.Handler, error) {
	catalogue, err := factory.LoadCatalogue(cfg.Achievements.CataloguePath)
	if err != nil {
		return nil, err
	}
	logger := log.Logger
	return api.NewHandler(store, store, api.Options{
		Clock:           clock,
		Catalogue:       catalogue,
		DefaultDuration: cfg.Program.DurationMonths,
		Logger:          &logger,
	}), nil
}
