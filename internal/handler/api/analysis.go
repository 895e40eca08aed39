package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	svcmetrics "ZenithCore/internal/service/metrics"
	"ZenithCore/internal/usecase"
	xhttp "ZenithCore/pkg/http"
	xlogger "ZenithCore/pkg/logger"
)

// AnalysisHandler serves candles and the analytic slices computed over them.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	analysis *usecase.AnalysisUseCase
	candles  *usecase.CandlesUseCase
}

func NewAnalysisHandler(logger *xlogger.Logger, analysis *usecase.AnalysisUseCase, candles *usecase.CandlesUseCase) *AnalysisHandler {
	svcmetrics.Register()
	return &AnalysisHandler{logger: logger.With("analysis_handler"), analysis: analysis, candles: candles}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/candles", tracked("candles", h.Candles))
	g.GET("/analysis", tracked("analysis", h.Analysis))
	g.GET("/regime", tracked("regime", h.Regime))
	g.GET("/factors", tracked("factors", h.Factors))
	g.GET("/pulse", tracked("pulse", h.Pulse))
}

// tracked records endpoint latency and counts responses of 500 and above.
func tracked(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		done := svcmetrics.Track(endpoint)
		err := next(c)
		if err == nil && c.Response().Status >= http.StatusInternalServerError {
			err = errors.New(http.StatusText(c.Response().Status))
		}
		done(err)
		return err
	}
}

func (h *AnalysisHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)
	tf := domrepo.NormalizeTimeframe(req.TF)

	var (
		res *usecase.GetCandlesResult
		err error
	)
	if req.From > 0 && req.To > 0 {
		res, err = h.candles.Range(c.Request().Context(), usecase.GetCandlesParams{
			Symbol:    symbol,
			From:      time.Unix(req.From, 0),
			To:        time.Unix(req.To, 0),
			Timeframe: tf,
			Limit:     req.N,
		})
	} else {
		res, err = h.candles.Latest(c.Request().Context(), symbol, req.N, tf)
	}
	if err != nil {
		return h.fail(c, "candles", symbol, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)

	res, err := h.analysis.Analyze(c.Request().Context(), usecase.AnalysisParams{
		Symbol:    symbol,
		N:         req.N,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Strategy:  models.StrategyKind(req.Strategy),
	})
	if err != nil {
		return h.fail(c, "analysis", symbol, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Regime(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)

	res, err := h.analysis.Regime(c.Request().Context(), symbol, req.N, domrepo.NormalizeTimeframe(req.TF))
	if err != nil {
		return h.fail(c, "regime", symbol, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Factors(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)

	res, err := h.analysis.Factors(c.Request().Context(), symbol, req.N, domrepo.NormalizeTimeframe(req.TF))
	if err != nil {
		return h.fail(c, "factors", symbol, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Pulse(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)

	res, err := h.analysis.Pulse(c.Request().Context(), symbol, req.N,
		domrepo.NormalizeTimeframe(req.TF), models.StrategyKind(req.Strategy))
	if err != nil {
		return h.fail(c, "pulse", symbol, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// fail logs server-side failures and writes err as an AppError.
func (h *AnalysisHandler) fail(c echo.Context, endpoint, symbol string, err error) error {
	appErr := toAppError(err, symbol)
	if appErr.Status >= 500 {
		h.logger.Error(endpoint+" usecase error", xlogger.String("symbol", symbol), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
