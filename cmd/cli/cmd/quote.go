// Package cmd - quote command
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"esim-pricing/adapters/catalogfile"
	"esim-pricing/core/discount"
	"esim-pricing/core/engine"
	"esim-pricing/core/output"
	"esim-pricing/core/types"
	"esim-pricing/internal/config"
	perrors "esim-pricing/internal/errors"
	"esim-pricing/internal/logging"
)

type quoteOptions struct {
	plansFile     string
	discountsFile string
	ratesFile     string
	currency      string
	days          int
	format        string
	sort          string
	desc          bool
}

func newQuoteCmd() *cobra.Command {
	opts := &quoteOptions{}
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Resolve visible plans and their final prices",
		Long: `Load a plan catalog, apply the discount configuration and print one quote
per visible plan after duplicate carrier variants are collapsed.

Daily-unlimited plans are priced per day for --days days; every other plan
is priced for its full duration. A currency without a rate falls back to
1:1 and is marked with "*".`,
		Args: cobra.NoArgs,
		RunE: opts.run,
	}

	cmd.Flags().StringVarP(&opts.plansFile, "plans", "p", "", "plan catalog file (YAML or JSON)")
	cmd.Flags().StringVarP(&opts.discountsFile, "discounts", "d", "", "discount configuration file")
	cmd.Flags().StringVarP(&opts.ratesFile, "rates", "r", "", "exchange rate file (units per USD)")
	cmd.Flags().StringVarP(&opts.currency, "currency", "c", "", "display currency (default from config)")
	cmd.Flags().IntVar(&opts.days, "days", 0, "days for daily-unlimited plans (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format (cli, json)")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "sort by price, size or duration")
	cmd.Flags().BoolVar(&opts.desc, "desc", false, "sort descending")
	_ = cmd.MarkFlagRequired("plans")
	return cmd
}

func (o *quoteOptions) run(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	log := logging.Named("quote")

	if o.days < 0 {
		return perrors.Input("--days must not be negative")
	}
	sortField, err := engine.ParseSortField(o.sort)
	if err != nil {
		return perrors.Wrap(perrors.TypeInput, "invalid --sort", err)
	}
	format := output.Format(cfg.Output.DefaultFormat)
	if o.format != "" {
		format = output.Format(o.format)
	}
	formatter, err := output.DefaultRegistry(cfg.Output.NoColor, cfg.Output.Verbose).Get(format)
	if err != nil {
		return perrors.Wrap(perrors.TypeInput, "invalid --format", err)
	}

	plans, err := catalogfile.LoadPlans(o.plansFile)
	if err != nil {
		return err
	}
	discounts := discount.Empty()
	if o.discountsFile != "" {
		if discounts, err = catalogfile.LoadDiscounts(o.discountsFile); err != nil {
			return err
		}
	}
	var rates types.RateTable
	if o.ratesFile != "" {
		if rates, err = catalogfile.LoadRates(o.ratesFile); err != nil {
			return err
		}
	}
	log.Debug("inputs loaded",
		zap.Int("plans", len(plans)),
		zap.Int("discounts", discounts.Len()),
		zap.Int("rates", len(rates)),
	)

	eng := engine.NewEngine(cfg.EngineConfig(), engine.WithLogger(logging.Named("engine")))
	result := eng.Resolve(engine.Request{
		Plans:        plans,
		Discounts:    discounts,
		Rates:        rates,
		Currency:     types.Currency(o.currency),
		SelectedDays: o.days,
	})
	if o.sort != "" {
		result.Quotes = engine.SortQuotes(result.Quotes, sortField, o.desc)
	}
	return formatter.Render(cmd.OutOrStdout(), result)
}
