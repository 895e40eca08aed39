package main

import (
	"strings"

	"github.com/spf13/cobra"

	"ZenithCore/internal/di"
	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/services/zenith"
)

type scoreOutput struct {
	models.ZenithScoreResult
	Interpretation models.ScoreInterpretation `json:"interpretation"`
}

func scoreCmd(opts *rootOptions) *cobra.Command {
	var (
		symbol string
		asset  string
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the zenith score of a symbol",
		Long:  "Fetches five years of daily history and prints the zenith score. --save upserts it into Postgres.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			a := models.AssetType(asset)
			if !a.Valid() {
				a = models.AssetStock
			}

			calcOpts := []zenith.Option{zenith.WithLogger(e.log)}
			var calc *zenith.Calculator
			if save {
				pg, cleanup, err := di.ProvidePostgresClient(e.cfg, e.log)
				if err != nil {
					return err
				}
				e.closers = append(e.closers, cleanup)
				calc, err = zenith.NewCalculator(strings.ToUpper(symbol), a, e.cfg.Zenith.Score,
					e.history, di.ProvideScoreRepository(pg, e.cfg), calcOpts...)
				if err != nil {
					return err
				}
			} else {
				calc, err = zenith.NewCalculator(strings.ToUpper(symbol), a, e.cfg.Zenith.Score,
					e.history, nil, calcOpts...)
				if err != nil {
					return err
				}
			}

			res, err := calc.CalculateFinalScore(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, scoreOutput{ZenithScoreResult: res, Interpretation: zenith.Interpret(res.Score)})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&symbol, "symbol", "s", "", "symbol to score")
	f.StringVar(&asset, "asset", string(models.AssetStock), "asset type: stock or forex")
	f.BoolVar(&save, "save", false, "persist the score")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}
