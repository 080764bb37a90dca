package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tessera-cms/fluid"
	"github.com/tessera-cms/fluid/config"
	"github.com/tessera-cms/fluid/internal/logging"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	configFile string
	v          *viper.Viper
	config     *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	var a = &app{v: viper.New()}
	config.Init(a.v)

	var rootCmd = &cobra.Command{
		Use:   "fluidc",
		Short: "Compile and render fluid views",
		Long: `fluidc compiles the views of a site and renders them outside of a server.

Settings are read, from lowest to highest priority, from the configuration
file (--config or FLUID_CONFIG_FILE), FLUID_<SECTION>_<SETTING> environment
variables and command-line flags.

Examples:
  fluidc compile --location ./views
  fluidc render pages/home --data home.yaml --lang fr
  fluidc watch --config fluid.yaml
  fluidc extract --location ./views > messages.pot`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	var flags = rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (can also use FLUID_CONFIG_FILE env var)")
	flags.String("location", "", "directory of the site's views")
	flags.String("scope", "process", "compiled view sharing: process or tenant")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	a.bind(rootCmd, "templates.location", "location")
	a.bind(rootCmd, "cache.scope", "scope")
	a.bind(rootCmd, "log.level", "log-level")
	a.bind(rootCmd, "log.format", "log-format")

	rootCmd.AddCommand(
		newCompileCmd(a),
		newRenderCmd(a),
		newWatchCmd(a),
		newExtractCmd(a),
	)
	return rootCmd
}

// bind makes the named persistent or local flag of cmd override key.
func (a *app) bind(cmd *cobra.Command, key, flag string) {
	var f = cmd.Flags().Lookup(flag)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(flag)
	}
	if err := a.v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// setup reads the configuration and sets up logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var file = a.configFile
	if file == "" {
		file = os.Getenv(config.EnvPrefix + "_CONFIG_FILE")
	}
	if err := config.ReadFile(a.v, file); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.config = cfg

	level, _ := logging.ParseLevel(cfg.Log.Level)
	format, _ := logging.ParseFormat(cfg.Log.Format)
	a.logger = logging.NewLogger(logging.Config{
		Level:     level,
		Format:    format,
		Output:    cmd.ErrOrStderr(),
		Component: "fluidc",
	})
	return nil
}

func (a *app) engine() (*fluid.Engine, error) {
	var e, err = fluid.New(a.config, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return e, nil
}
