// Package cmd provides the command-line interface for viewkit with
// configuration gathered from several sources.
//
// Configuration System:
//
//	Settings are resolved with the following precedence:
//	1. Command-line flags (--config, --engine, --source, --log-level)
//	2. VIEWKIT_CONFIG_FILE environment variable: custom config file path
//	3. Individual environment variables (VIEWKIT_TEMPLATES_ENGINE, etc.)
//	4. Configuration file (.viewkit.yml)
//
// Environment Variables:
//
//	VIEWKIT_CONFIG_FILE: Path to a custom configuration file
//	VIEWKIT_TEMPLATES_ENGINE: Pin the template engine
//	VIEWKIT_TEMPLATES_SOURCES: Comma separated template directories
//	VIEWKIT_LOGGING_LEVEL: Log level
//	And every other key following the VIEWKIT_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/viewkit/internal/app"
	"github.com/conneroisu/viewkit/internal/config"
	"github.com/conneroisu/viewkit/internal/logging"
)

// NewRootCommand builds the viewkit command tree.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "viewkit",
		Short: "Render named templates through pluggable template engines",
		Long: `viewkit resolves logical template names to files, picks an available
template engine and renders views with layouts and partial aliases.

Key Features:
  • Ordered template directories where the first match wins
  • Prefix, suffix and partial alias name resolution
  • Mustache, pongo2, html/template and HCL engines
  • Layouts through a temporary "content" alias
  • Watch mode that re-renders on change

Quick Start:
  viewkit render page --model '{"title":"Hello"}'
  viewkit resolve header --alias header=partials/header
  viewkit list
  viewkit providers`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .viewkit.yml, can also use VIEWKIT_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("engine", "", "template engine (auto, mustache, pongo2, html, hcl)")
	flags.StringSlice("source", nil, "template directory, repeatable; the first match wins")

	rootCmd.AddCommand(
		newRenderCmd(),
		newResolveCmd(),
		newListCmd(),
		newProvidersCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// initConfig points viper at the configuration file and environment.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. VIEWKIT_CONFIG_FILE environment variable
//  3. .viewkit.yml in the current directory
//
// A missing default file is not an error; an explicitly named one is.
func initConfig(cmd *cobra.Command, cfgFile string) error {
	explicit := true
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("VIEWKIT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".viewkit")
	}

	viper.SetEnvPrefix("VIEWKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindings := map[string]string{
		"logging.level":     "log-level",
		"templates.engine":  "engine",
		"templates.sources": "source",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && !explicit {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	return nil
}

// newLogger builds the logger described by cfg, writing to w.
func newLogger(cfg *config.Config, w io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Logging.Format,
		Output:    w,
		Component: "viewkit",
	}), nil
}

// loadApp loads the configuration and wires the application.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	return app.New(commandContext(cmd), cfg, app.WithLogger(logger))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
