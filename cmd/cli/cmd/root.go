// Package cmd provides the CLI commands for esim-pricing.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"esim-pricing/internal/config"
	"esim-pricing/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

type rootOptions struct {
	cfgFile string
	verbose bool
	noColor bool
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "esim-pricing",
		Short: "Quote eSIM plans with discounts and currency conversion",
		Long: `esim-pricing resolves which eSIM plans are shown, collapses duplicate
carrier variants, applies global and per-plan discounts, and converts the
final price into the display currency.

Examples:
  esim-pricing quote --plans plans.yaml --discounts discounts.yaml --currency EUR
  esim-pricing quote --plans plans.yaml --days 10 --format json
  esim-pricing discount check discounts.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./esim-pricing.toml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable styled output")

	root.AddCommand(newQuoteCmd())
	root.AddCommand(newDiscountCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// Execute runs the CLI
func Execute() error {
	defer logging.Sync()
	return NewRootCmd().Execute()
}

func (o *rootOptions) init() error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
		cfg.Output.Verbose = true
	}
	if o.noColor {
		cfg.Output.NoColor = true
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	return nil
}

// newVersionCmd prints version information
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "esim-pricing version %s\n", Version)
		},
	}
}

// newConfigCmd manages configuration
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Get().TOML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return configCmd
}
