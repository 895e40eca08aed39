package pulse

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/testutil"
)

var fixedNow = time.UnixMilli(1_750_000_000_000)

func clock() time.Time { return fixedNow }

func bar(i int, o, h, l, c, v float64) models.Candle {
	return models.Candle{Time: testutil.BaseTime + int64(i)*testutil.Day, Open: o, High: h, Low: l, Close: c, Volume: v}
}

func withLatest(candles []models.Candle, mutate func(*models.Candle)) []models.Candle {
	mutate(&candles[len(candles)-1])
	return candles
}

func TestVolumeAnomaly(t *testing.T) {
	surge := NewWindow(withLatest(testutil.Flat(30, 100, 100), func(c *models.Candle) { c.Volume = 500 }))
	s := VolumeAnomaly(surge)
	require.NotNil(t, s)
	assert.Equal(t, models.CategoryStrength, s.Category)
	assert.Equal(t, "Volume surge +317%", s.Message)
	assert.Equal(t, models.ConfidenceHigh, s.Confidence)
	assert.Equal(t, 1800, s.TTL)

	mild := NewWindow(withLatest(testutil.Flat(30, 100, 100), func(c *models.Candle) { c.Volume = 300 }))
	s = VolumeAnomaly(mild)
	require.NotNil(t, s)
	assert.Equal(t, models.ConfidenceLow, s.Confidence)
	assert.Equal(t, "Volume surge +173%", s.Message)

	quiet := NewWindow(withLatest(testutil.Flat(30, 100, 100), func(c *models.Candle) { c.Volume = 10 }))
	s = VolumeAnomaly(quiet)
	require.NotNil(t, s)
	assert.Equal(t, models.CategoryNeutral, s.Category)
	assert.Equal(t, "Low participation (10% of avg)", s.Message)
	assert.Equal(t, 3600, s.TTL)

	assert.Nil(t, VolumeAnomaly(NewWindow(testutil.Flat(30, 100, 100))))
	assert.Nil(t, VolumeAnomaly(NewWindow(testutil.Flat(30, 100, 0))))
	assert.Nil(t, VolumeAnomaly(NewWindow(testutil.Flat(19, 100, 100))))
}

func TestRangeState(t *testing.T) {
	s := RangeState(NewWindow(testutil.Flat(60, 100, 100)))
	require.NotNil(t, s)
	assert.Equal(t, "Tight range for 24h (1.0%)", s.Message)
	assert.Equal(t, models.ConfidenceHigh, s.Confidence)
	assert.Equal(t, 7200, s.TTL)

	assert.Nil(t, RangeState(NewWindow(testutil.Linear(60, 100, 1, 100))))
	assert.Nil(t, RangeState(NewWindow(testutil.Flat(49, 100, 100))))
}

func TestWickRejection(t *testing.T) {
	upper := withLatest(testutil.Linear(10, 100, 1, 100), func(c *models.Candle) {
		*c = bar(9, 100, 103, 99.9, 100.5, 100)
	})
	s := WickRejection(NewWindow(upper))
	require.NotNil(t, s)
	assert.Equal(t, models.CategoryWeakness, s.Category)
	assert.Equal(t, "Rejection at $103", s.Message)
	assert.Equal(t, models.ConfidenceMedium, s.Confidence)

	lower := withLatest(testutil.Linear(10, 100, 1, 100), func(c *models.Candle) {
		*c = bar(9, 100, 100.6, 96.25, 100.5, 100)
	})
	s = WickRejection(NewWindow(lower))
	require.NotNil(t, s)
	assert.Equal(t, models.CategoryStrength, s.Category)
	assert.Equal(t, "Bounce off $96.25", s.Message)
	assert.Equal(t, models.ConfidenceHigh, s.Confidence)

	solid := withLatest(testutil.Linear(10, 100, 1, 100), func(c *models.Candle) {
		*c = bar(9, 100, 105.2, 99.9, 105, 100)
	})
	assert.Nil(t, WickRejection(NewWindow(solid)))
	assert.Nil(t, WickRejection(NewWindow(upper[:4])))
}

func spreadSeries(n int, spread func(i int) float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		s := spread(i)
		out[i] = bar(i, 100, 100+s, 100-s, 100, 100)
	}
	return out
}

func TestVolatilityShift(t *testing.T) {
	calming := spreadSeries(30, func(i int) float64 {
		if i >= 16 {
			return 0.2
		}
		return 1
	})
	s := VolatilityShift(NewWindow(calming))
	require.NotNil(t, s)
	assert.Equal(t, models.CategoryNeutral, s.Category)
	assert.Equal(t, "Volatility compression (80% decline)", s.Message)
	assert.Equal(t, models.ConfidenceHigh, s.Confidence)
	assert.Equal(t, 7200, s.TTL)

	waking := spreadSeries(30, func(i int) float64 {
		if i >= 16 {
			return 1
		}
		return 0.2
	})
	s = VolatilityShift(NewWindow(waking))
	require.NotNil(t, s)
	assert.Equal(t, models.CategoryMeta, s.Category)
	assert.Equal(t, "Volatility expanding (+400%)", s.Message)
	assert.Equal(t, 3600, s.TTL)

	assert.Nil(t, VolatilityShift(NewWindow(testutil.Flat(30, 100, 100))))
	assert.Nil(t, VolatilityShift(NewWindow(calming[:29])))
	assert.Nil(t, VolatilityShift(NewWindow(spreadSeries(30, func(int) float64 { return 0 }))))
}

func TestLevelTest(t *testing.T) {
	w := NewWindow(testutil.Flat(25, 100, 100))

	s := LevelTest(w, 100)
	require.NotNil(t, s)
	assert.Equal(t, "Testing support (20x touch)", s.Message)
	assert.Equal(t, models.ConfidenceHigh, s.Confidence)
	assert.Equal(t, models.CategoryStructure, s.Category)

	s = LevelTest(w, 101)
	require.NotNil(t, s)
	assert.Equal(t, "Testing resistance (20x touch)", s.Message)

	assert.Nil(t, LevelTest(w, 150))
	assert.Nil(t, LevelTest(NewWindow(testutil.Flat(19, 100, 100)), 100))
}

func TestLevelTestCountsCloses(t *testing.T) {
	candles := testutil.Linear(20, 50, 5, 100)
	// three closes sit on the level while their wicks stay outside tolerance
	for _, i := range []int{5, 10, 15} {
		candles[i] = bar(i, 95, 203, 90, 200, 100)
	}
	s := LevelTest(NewWindow(candles), 200)
	require.NotNil(t, s)
	assert.Equal(t, "Testing resistance (3x touch)", s.Message)
	assert.Equal(t, models.ConfidenceMedium, s.Confidence)
}

func TestTrendStructureIsChronological(t *testing.T) {
	s := TrendStructure(NewWindow(testutil.Linear(12, 100, 1, 100)))
	require.NotNil(t, s)
	assert.Equal(t, "Higher lows forming", s.Message)
	assert.Equal(t, models.CategoryStrength, s.Category)

	s = TrendStructure(NewWindow(testutil.Linear(12, 100, -1, 100)))
	require.NotNil(t, s)
	assert.Equal(t, "Lower highs compressing", s.Message)
	assert.Equal(t, models.CategoryWeakness, s.Category)

	assert.Nil(t, TrendStructure(NewWindow(testutil.Flat(12, 100, 100))))
	assert.Nil(t, TrendStructure(NewWindow(testutil.Linear(9, 100, 1, 100))))
}

func TestHeuristicStampsSignals(t *testing.T) {
	candles := withLatest(testutil.Linear(30, 100, 1, 100), func(c *models.Candle) { c.Volume = 500 })
	h := NewHeuristic(clock)
	assert.Equal(t, models.StrategyHeuristic, h.Kind())

	signals := h.Detect(candles)
	require.NotEmpty(t, signals)
	var surge *models.PulseSignal
	for i := range signals {
		assert.Equal(t, fixedNow.UnixMilli(), signals[i].Timestamp)
		assert.Equal(t, models.StrategyHeuristic, signals[i].Strategy)
		if strings.HasPrefix(signals[i].ID, "strength-volume-surge-") {
			surge = &signals[i]
		}
	}
	require.NotNil(t, surge)
	parts := strings.Split(surge.ID, "-")
	require.Len(t, parts, 5)
	assert.Equal(t, "1750000000000", parts[3])
	assert.Len(t, parts[4], 9)

	assert.Empty(t, h.Detect(nil))
}

func TestHeuristicUsesCallerLevels(t *testing.T) {
	candles := testutil.Flat(25, 100, 100)
	signals := NewHeuristic(clock, 100).Detect(candles)

	var levels []string
	for _, s := range signals {
		if s.Category == models.CategoryStructure {
			levels = append(levels, s.Message)
		}
	}
	assert.Equal(t, []string{"Testing support (20x touch)"}, levels)
}

func compressedSeries() []models.Candle {
	out := make([]models.Candle, 60)
	for i := range out {
		if i < 40 {
			out[i] = bar(i, 100, 110, 90, 100, 100)
		} else {
			out[i] = bar(i, 100, 101, 99, 100, 100)
		}
	}
	return out
}

func ids(signals []models.PulseSignal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.ID
	}
	return out
}

func TestFormulaCompressionAndMaturity(t *testing.T) {
	candles := compressedSeries()
	latest := candles[len(candles)-1].Time
	f := NewFormula(func([]models.Candle) models.RegimeType { return models.RegimeRange })

	signals := f.Detect(candles)
	require.Len(t, signals, 3, ids(signals))

	byPrefix := map[string]models.PulseSignal{}
	for _, s := range signals {
		assert.Equal(t, latest*1000, s.Timestamp)
		assert.Equal(t, models.StrategyFormula, s.Strategy)
		require.NotNil(t, s.Debug)
		byPrefix[strings.TrimSuffix(s.ID, "-"+itoa(latest))] = s
	}

	comp := byPrefix["vol-comp"]
	assert.Equal(t, "VOL_COMPRESSION - Range tightening detected (-90%)", comp.Message)
	assert.Equal(t, models.ConfidenceHigh, comp.Confidence)
	assert.Equal(t, 300, comp.TTL)
	assert.InDelta(t, 0.1, comp.Debug.Values["ratio"], 1e-9)
	assert.Equal(t, 0.6, comp.Debug.Threshold)

	mat := byPrefix["range-mat"]
	assert.Equal(t, "RANGE_MATURITY - Price contained for 30/30 candles", mat.Message)
	assert.Equal(t, models.CategoryMeta, mat.Category)

	lock := byPrefix["regime-range"]
	assert.Equal(t, "REGIME_LOCK - Market remains in RANGE state", lock.Message)
	assert.Equal(t, models.ConfidenceHigh, lock.Confidence)
	assert.Equal(t, 600, lock.TTL)
}

func TestFormulaFalseBreakLiquidityAndVolume(t *testing.T) {
	candles := make([]models.Candle, 60)
	for i := range candles {
		candles[i] = bar(i, 100, 101, 99, 100, 100)
	}
	candles[59] = bar(59, 100, 103, 99.5, 100.5, 300)

	signals := NewFormula(func([]models.Candle) models.RegimeType { return models.RegimeChaos }).Detect(candles)

	msgs := map[string]models.PulseSignal{}
	for _, s := range signals {
		msgs[s.Message] = s
	}
	fb, ok := msgs["FALSE_BREAK - Upside breakout rejected at 101.00"]
	require.True(t, ok, ids(signals))
	assert.Equal(t, models.CategoryWeakness, fb.Category)
	assert.Equal(t, 120, fb.TTL)

	liq, ok := msgs["LIQUIDITY_ZONE - Activity clustering near range high"]
	require.True(t, ok, ids(signals))
	assert.Equal(t, models.ConfidenceLow, liq.Confidence)

	spike, ok := msgs["VOLUME_SPIKE - Participation surge (2.7x avg)"]
	require.True(t, ok, ids(signals))
	assert.Equal(t, 180, spike.TTL)

	_, ok = msgs["REGIME_LOCK - Market remains in CHAOS state"]
	assert.True(t, ok)
}

func TestFormulaFalseBreakDown(t *testing.T) {
	candles := make([]models.Candle, 60)
	for i := range candles {
		candles[i] = bar(i, 100, 101, 99, 100, 100)
	}
	candles[59] = bar(59, 100, 100.2, 97, 99.2, 100)

	signals := NewFormula(nil).Detect(candles)
	var found bool
	for _, s := range signals {
		if strings.HasPrefix(s.ID, "false-break-down-") {
			found = true
			assert.Equal(t, models.CategoryStrength, s.Category)
			assert.Equal(t, "FALSE_BREAK - Breakdown attempt absorbed at range low", s.Message)
		}
	}
	assert.True(t, found, ids(signals))
}

func TestFormulaNeedsFiftyCandles(t *testing.T) {
	assert.Empty(t, NewFormula(nil).Detect(testutil.Flat(49, 100, 100)))
	// short series still get a regime echo from the default classifier
	signals := NewFormula(nil).Detect(testutil.Linear(50, 100, 1, 100))
	require.NotEmpty(t, signals)
	assert.Contains(t, ids(signals), "regime-chaos-"+itoa(testutil.BaseTime+49*testutil.Day))
}

func TestCombinedSortsNewestFirst(t *testing.T) {
	d, err := New(models.StrategyCombined, Options{Now: clock})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyCombined, d.Kind())

	signals := d.Detect(testutil.Linear(60, 100, 1, 100))
	require.NotEmpty(t, signals)

	kinds := map[models.StrategyKind]bool{}
	for i, s := range signals {
		kinds[s.Strategy] = true
		if i > 0 {
			assert.GreaterOrEqual(t, signals[i-1].Timestamp, s.Timestamp)
		}
	}
	assert.True(t, kinds[models.StrategyHeuristic])
	assert.True(t, kinds[models.StrategyFormula])
	assert.Equal(t, models.StrategyHeuristic, signals[0].Strategy)
}

func TestNewStrategies(t *testing.T) {
	h, err := New(models.StrategyHeuristic, Options{})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyHeuristic, h.Kind())

	f, err := New(models.StrategyFormula, Options{})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyFormula, f.Kind())

	_, err = New("astrology", Options{})
	assert.Error(t, err)
}

func TestExpiry(t *testing.T) {
	t0 := int64(1_700_000_000_000)
	s := models.PulseSignal{ID: "a", Timestamp: t0, TTL: 120}

	assert.False(t, IsExpired(s, time.UnixMilli(t0+119_000)))
	assert.False(t, IsExpired(s, time.UnixMilli(t0+120_000)))
	assert.True(t, IsExpired(s, time.UnixMilli(t0+121_000)))
	assert.Equal(t, time.UnixMilli(t0+120_000), s.ExpiresAt())

	long := models.PulseSignal{ID: "b", Timestamp: t0, TTL: 600}
	active := FilterActive([]models.PulseSignal{s, long}, time.UnixMilli(t0+121_000))
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].ID)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestHeuristicDefaultLevelsIncludeVWAP(t *testing.T) {
	h := NewHeuristic(clock)

	levels := h.levelsFor(NewWindow(testutil.Flat(25, 100, 100)))
	require.Len(t, levels, 3)
	assert.InDelta(t, 100.5, levels[0], 1e-9)
	assert.InDelta(t, 99.5, levels[1], 1e-9)
	assert.InDelta(t, 100.0, levels[2], 1e-9)

	assert.Nil(t, h.levelsFor(NewWindow(testutil.Flat(10, 100, 100))))
}
