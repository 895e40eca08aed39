// Package history fetches daily OHLCV history once per symbol and range.
//
// Providers never fail: every upstream problem is logged and reported as an
// empty series so callers fall back to neutral analytics.
package history

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/domain/repository"
	xhttp "ZenithCore/pkg/http"
	"ZenithCore/pkg/logger"
)

const (
	SourceAlphaVantage = "alphavantage"

	stockFunction  = "TIME_SERIES_DAILY_ADJUSTED"
	forexFunction  = "FX_DAILY"
	stockSeriesKey = "Time Series (Daily)"
	forexSeriesKey = "Time Series FX (Daily)"
	dateLayout     = "2006-01-02"
)

// Config holds Alpha Vantage client settings.
type Config struct {
	BaseURL           string        `yaml:"base_url" default:"https://www.alphavantage.co/query"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout" default:"15s"`
	RequestsPerMinute float64       `yaml:"requests_per_minute" default:"5"`
	RetryInitial      time.Duration `yaml:"retry_initial" default:"1s"`
	RetryMaxElapsed   time.Duration `yaml:"retry_max_elapsed" default:"30s"`
	CacheTTL          time.Duration `yaml:"cache_ttl" default:"6h"`
}

// AlphaVantageClient implements repository.HistoryProvider over the
// Alpha Vantage query API.
type AlphaVantageClient struct {
	client  *xhttp.Client
	baseURL string
	apiKey  string
	log     *logger.Logger
	metrics repository.Metrics
}

func NewAlphaVantageClient(cfg Config, client *xhttp.Client, log *logger.Logger, metrics repository.Metrics) *AlphaVantageClient {
	if log == nil {
		log = logger.Nop()
	}
	return &AlphaVantageClient{
		client:  client,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		log:     log.With("history"),
		metrics: metrics,
	}
}

// FetchHistory returns up to r.Limit() daily candles, oldest first.
// Anything other than forex goes through the equity endpoint.
func (c *AlphaVantageClient) FetchHistory(ctx context.Context, symbol string, asset models.AssetType, r models.HistoryRange) []models.Candle {
	if c.apiKey == "" {
		c.log.Error("alpha vantage api key not configured", logger.String("symbol", symbol))
		c.record("error")
		return []models.Candle{}
	}

	params := map[string][]string{
		"outputsize": {outputSize(r)},
		"apikey":     {c.apiKey},
	}
	seriesKey := stockSeriesKey
	if asset == models.AssetForex {
		from, to := SplitPair(symbol)
		params["function"] = []string{forexFunction}
		params["from_symbol"] = []string{from}
		params["to_symbol"] = []string{to}
		seriesKey = forexSeriesKey
	} else {
		params["function"] = []string{stockFunction}
		params["symbol"] = []string{symbol}
	}

	var body map[string]json.RawMessage
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL,
		QueryParams: params,
	}, &body)
	if err != nil {
		c.log.Error("alpha vantage request failed",
			logger.String("symbol", symbol),
			logger.String("range", string(r)),
			logger.Error(err),
		)
		c.record("error")
		return []models.Candle{}
	}

	if msg := providerMessage(body); msg != "" {
		c.log.Warn("alpha vantage limit or error",
			logger.String("symbol", symbol),
			logger.String("message", msg),
		)
		c.record("limited")
		return []models.Candle{}
	}

	raw, ok := body[seriesKey]
	if !ok {
		c.log.Warn("no time series data", logger.String("symbol", symbol), logger.String("key", seriesKey))
		c.record("empty")
		return []models.Candle{}
	}

	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		c.log.Error("decode time series", logger.String("symbol", symbol), logger.Error(err))
		c.record("error")
		return []models.Candle{}
	}

	candles := ParseSeries(series, asset == models.AssetForex)
	candles = Limit(candles, r.Limit())
	c.log.Info("history loaded",
		logger.String("symbol", symbol),
		logger.String("asset", string(asset)),
		logger.String("range", string(r)),
		logger.Int("candles", len(candles)),
	)
	c.record("ok")
	return candles
}

func (c *AlphaVantageClient) record(result string) {
	if c.metrics != nil {
		c.metrics.RecordHistoryFetch(SourceAlphaVantage, result)
	}
}

// ParseSeries converts a date-keyed series into candles sorted ascending.
// Rows with unparseable dates or prices are skipped. Forex rows carry no
// volume.
func ParseSeries(series map[string]map[string]string, forex bool) []models.Candle {
	out := make([]models.Candle, 0, len(series))
	for date, v := range series {
		ts, err := time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			continue
		}
		o, err1 := strconv.ParseFloat(v["1. open"], 64)
		h, err2 := strconv.ParseFloat(v["2. high"], 64)
		l, err3 := strconv.ParseFloat(v["3. low"], 64)
		cl, err4 := strconv.ParseFloat(v["4. close"], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		var vol float64
		if !forex {
			vol = parseVolume(v)
		}
		out = append(out, models.Candle{Time: ts.Unix(), Open: o, High: h, Low: l, Close: cl, Volume: vol})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func parseVolume(v map[string]string) float64 {
	raw := v["6. volume"]
	if raw == "" {
		raw = v["5. volume"]
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return float64(n)
}

// Limit keeps the newest n candles of an ascending series.
func Limit(candles []models.Candle, n int) []models.Candle {
	if n <= 0 || len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}

// SplitPair turns EUR/USD or EURUSD into its two currencies. A bare base
// currency is quoted in USD.
func SplitPair(pair string) (string, string) {
	p := strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
	if len(p) <= 3 {
		return p, "USD"
	}
	to := p[3:]
	if len(to) > 3 {
		to = to[:3]
	}
	return p[:3], to
}

func outputSize(r models.HistoryRange) string {
	if r == models.Range1M {
		return "compact"
	}
	return "full"
}

func providerMessage(body map[string]json.RawMessage) string {
	for _, key := range []string{"Note", "Information", "Error Message"} {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil || msg == "" {
			msg = string(raw)
		}
		return msg
	}
	return ""
}
