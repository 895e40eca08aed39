package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ZenithCore/internal/di"
	"ZenithCore/internal/domain/models"
)

func backfillCmd(opts *rootOptions) *cobra.Command {
	var (
		asset string
		rng   string
	)
	cmd := &cobra.Command{
		Use:   "backfill SYMBOL...",
		Short: "Store daily provider history in ClickHouse",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			ch, cleanup, err := di.ProvideClickHouseClient(e.cfg, e.log)
			if err != nil {
				return err
			}
			e.closers = append(e.closers, cleanup)
			uc := di.ProvideCandlesUseCase(di.ProvideCandleStore(ch, e.log), e.history, e.log)

			var failed []string
			for _, s := range args {
				symbol := strings.ToUpper(s)
				n, err := uc.Backfill(cmd.Context(), symbol, models.AssetType(asset), models.HistoryRange(rng))
				if err != nil {
					failed = append(failed, symbol)
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", symbol, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d candles\n", symbol, n)
			}
			if len(failed) > 0 {
				return fmt.Errorf("backfill failed for %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&asset, "asset", string(models.AssetStock), "asset type: stock or forex")
	cmd.Flags().StringVar(&rng, "range", string(models.Range5Y), "history range: 1M 3M 6M 1Y 5Y")
	return cmd
}
