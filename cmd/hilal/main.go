package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/hilal/internal/app"
	"github.com/chrissnell/hilal/internal/constants"
	"github.com/chrissnell/hilal/internal/log"
	"github.com/chrissnell/hilal/pkg/config"
	"github.com/chrissnell/hilal/pkg/hilal"
	"github.com/chrissnell/hilal/pkg/responseformat"
	"github.com/spf13/cobra"
)

type cli struct {
	cfgFile    string
	cfgBackend string
	debug      bool
	format     string

	app    *app.App
	engine *hilal.Engine
}

func main() {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           constants.AppName,
		Short:         "Lunar crescent visibility, Hijri calendar and prayer times",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.app != nil {
				c.app.Close()
			}
			log.Sync()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "Path to configuration source:\n  YAML: hilal.yaml\n  env: optional .env file layered under HILAL_* variables")
	pf.StringVar(&c.cfgBackend, "config-backend", "yaml", "Configuration backend type: 'yaml' or 'env'")
	pf.BoolVar(&c.debug, "debug", false, "Turn on debugging output")
	pf.StringVar(&c.format, "format", responseformat.JSON, "Output format: 'json' or 'msgpack'")

	rootCmd.AddCommand(
		c.visibilityCmd(),
		c.ephemerisCmd(),
		c.zonesCmd(),
		c.prayerCmd(),
		c.qiblaCmd(),
		c.hijriCmd(),
		c.gregorianCmd(),
		c.monthCmd(),
		c.validateCmd(),
		c.moonCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version and exit",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s %s\n", constants.AppName, constants.Version)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		log.Errorw("command failed", "error", err)
		log.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *cli) setup() error {
	if err := log.Init(c.debug); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	provider, err := configProvider(c.cfgFile, c.cfgBackend)
	if err != nil {
		return err
	}

	c.app, err = app.New(provider, c.format, log.GetSugaredLogger())
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	c.engine = c.app.Engine()
	log.Debugw("engine ready", "backend", c.cfgBackend, "config", c.cfgFile, "format", c.format)
	return nil
}

func configProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	switch cfgBackend {
	case "yaml":
		if cfgFile == "" {
			return config.NewYAMLProvider(""), nil
		}
		filename, _ := filepath.Abs(cfgFile)
		return config.NewYAMLProvider(filename), nil
	case "env":
		return config.NewEnvProvider(cfgFile), nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'env'", cfgBackend)
	}
}

func (c *cli) run(job app.Job) error {
	return c.app.Run(context.Background(), job)
}
