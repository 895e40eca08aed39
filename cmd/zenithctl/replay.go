package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/usecase"
	"ZenithCore/pkg/metrics"
)

func replayCmd(opts *rootOptions) *cobra.Command {
	var (
		symbol string
		asset  string
		rng    string
		speed  int
		from   int
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay daily history candle by candle",
		Long:  "Plays history at one candle per second times --speed and prints every candle reached. Ctrl-C stops it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			candles := make(chan models.ReplayTick, 64)
			last := -1
			onTick := func(t models.ReplayTick) {
				if t.Index == last {
					return
				}
				last = t.Index
				select {
				case candles <- t:
				default:
				}
			}

			uc := usecase.NewReplayUseCase(e.history, metrics.Nop{}, e.log)
			session, err := uc.Open(cmd.Context(), strings.ToUpper(symbol), models.AssetType(asset), models.HistoryRange(rng), onTick)
			if err != nil {
				return err
			}
			defer session.Close()

			for _, c := range []models.ReplayCommand{
				{Action: "speed", Speed: speed},
				{Action: "seek", Index: from},
				{Action: "play"},
			} {
				if _, err := session.Apply(c); err != nil {
					return fmt.Errorf("replay %s: %w", c.Action, err)
				}
			}

			out := cmd.OutOrStdout()
			poll := time.NewTicker(250 * time.Millisecond)
			defer poll.Stop()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case t := <-candles:
					c := t.Candle
					fmt.Fprintf(out, "%4d/%d  %s  o=%.4f h=%.4f l=%.4f c=%.4f v=%.0f\n",
						t.Index+1, t.Status.Total, t.Status.DisplayTime, c.Open, c.High, c.Low, c.Close, c.Volume)
				case <-poll.C:
					if !session.Status().IsPlaying {
						st := session.Status()
						fmt.Fprintf(out, "replay finished at %d/%d, last price %.4f\n",
							st.CurrentIndex+1, st.Total, session.CurrentPrice())
						return nil
					}
				}
			}
		},
	}
	f := cmd.Flags()
	f.StringVarP(&symbol, "symbol", "s", "", "symbol to replay")
	f.StringVar(&asset, "asset", string(models.AssetStock), "asset type: stock or forex")
	f.StringVar(&rng, "range", string(models.Range3M), "history range: 1M 3M 6M 1Y 5Y")
	f.IntVar(&speed, "speed", 4, "playback speed: 1 2 or 4")
	f.IntVar(&from, "from", 0, "start at this candle index")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}
