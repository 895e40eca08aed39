package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ZenithCore/internal/di"
	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	internalrepo "ZenithCore/internal/repository"
	"ZenithCore/internal/usecase"
	"ZenithCore/pkg/metrics"
)

func analyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		symbol   string
		asset    string
		rng      string
		tf       string
		strategy string
		source   string
		n        int
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print regime, factors and pulse signals for a symbol",
		Long: `Runs the full market analysis once and prints it as JSON.

--source history analyses daily provider history and needs no database.
--source store reads candles of --tf from ClickHouse.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			var store domrepo.CandleSource
			switch source {
			case "history":
				store = newHistorySource(e.history, models.AssetType(asset), models.HistoryRange(rng))
				tf = string(domrepo.TF1d)
			case "store":
				ch, cleanup, err := di.ProvideClickHouseClient(e.cfg, e.log)
				if err != nil {
					return err
				}
				e.closers = append(e.closers, cleanup)
				store = di.ProvideCandleStore(ch, e.log)
			default:
				return fmt.Errorf("unknown source %q, want history or store", source)
			}

			uc := usecase.NewAnalysisUseCase(store, internalrepo.NopEventPublisher{}, metrics.Nop{}, e.log,
				usecase.WithAnalysisTimeout(e.cfg.Analysis.Timeout))
			res, err := uc.Analyze(cmd.Context(), usecase.AnalysisParams{
				Symbol:    strings.ToUpper(symbol),
				N:         n,
				Timeframe: domrepo.NormalizeTimeframe(tf),
				Strategy:  models.StrategyKind(strategy),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&symbol, "symbol", "s", "", "symbol to analyse")
	f.StringVar(&asset, "asset", string(models.AssetStock), "asset type: stock or forex")
	f.StringVar(&rng, "range", string(models.Range1Y), "history range: 1M 3M 6M 1Y 5Y")
	f.StringVar(&tf, "tf", string(domrepo.TF1d), "store timeframe: 1m 5m 1h 1d")
	f.StringVar(&strategy, "strategy", string(models.StrategyCombined), "pulse strategy: heuristic formula combined")
	f.StringVar(&source, "source", "history", "candle source: history or store")
	f.IntVarP(&n, "n", "n", 300, "number of candles")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}
