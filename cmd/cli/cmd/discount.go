// Package cmd - discount commands
package cmd

import (
	"github.com/spf13/cobra"

	"esim-pricing/adapters/catalogfile"
	"esim-pricing/core/datasize"
	"esim-pricing/core/determinism"
	"esim-pricing/core/ui"
	"esim-pricing/internal/config"
)

func newDiscountCmd() *cobra.Command {
	discountCmd := &cobra.Command{
		Use:   "discount",
		Short: "Inspect discount configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	discountCmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a discount file and print its fingerprint",
		Long: `Validate every percentage in a discount file. Values must be within
[0,100]; blank values are dropped. Global keys are normalized to GB buckets
("5.0" becomes "5"). The printed hash changes whenever any entry changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := ui.NewWriter(cmd.OutOrStdout(), config.Get().Output.NoColor)

			cfg, err := catalogfile.LoadDiscounts(args[0])
			if err != nil {
				w.Error("%s", err)
				return err
			}

			w.Success("%d discount entries valid", cfg.Len())
			table := w.NewTable("TIER", "KEY", "PERCENT")
			for _, k := range determinism.SortedKeys(cfg.Global) {
				label := k + " GB"
				if k == datasize.UnlimitedBucket {
					label = k
				}
				table.AddRow("global", label, cfg.Global[k].String()+"%")
			}
			for _, k := range determinism.SortedKeys(cfg.Individual) {
				table.AddRow("individual", k, cfg.Individual[k].String()+"%")
			}
			if table.Len() > 0 {
				table.Render()
			}
			w.Info("hash %s", cfg.Hash().Hex())
			return nil
		},
	})
	return discountCmd
}
