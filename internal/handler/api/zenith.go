package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/service/ratelimit"
	"ZenithCore/internal/services/zenith"
	"ZenithCore/internal/usecase"
	xhttp "ZenithCore/pkg/http"
	xlogger "ZenithCore/pkg/logger"
)

// ZenithHandler serves stored scores and forced recomputes.
type ZenithHandler struct {
	logger  *xlogger.Logger
	uc      *usecase.ZenithScoreUseCase
	limiter *ratelimit.Limiter
}

type zenithResponse struct {
	models.ZenithScoreResult
	Interpretation models.ScoreInterpretation `json:"interpretation"`
	Cached         bool                       `json:"cached"`
}

func newZenithResponse(res models.ZenithScoreResult, cached bool) zenithResponse {
	return zenithResponse{ZenithScoreResult: res, Interpretation: zenith.Interpret(res.Score), Cached: cached}
}

func NewZenithHandler(logger *xlogger.Logger, uc *usecase.ZenithScoreUseCase, limiter *ratelimit.Limiter) *ZenithHandler {
	return &ZenithHandler{logger: logger.With("zenith_handler"), uc: uc, limiter: limiter}
}

func (h *ZenithHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/zenith")
	g.GET("/:symbol", tracked("zenith", h.Get))
	g.POST("/:symbol/recompute", tracked("zenith_recompute", h.Recompute), h.limiter.Middleware())
}

func (h *ZenithHandler) Get(c echo.Context) error {
	req := &models.ZenithRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)

	res, cached, err := h.uc.Get(c.Request().Context(), symbol, models.AssetType(req.AssetType))
	if err != nil {
		return h.fail(c, symbol, err)
	}
	if cached {
		c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	}
	return xhttp.SuccessResponse(c, newZenithResponse(res, cached))
}

func (h *ZenithHandler) Recompute(c echo.Context) error {
	req := &models.ZenithRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)

	res, err := h.uc.Recompute(c.Request().Context(), symbol, models.AssetType(req.AssetType))
	if err != nil {
		return h.fail(c, symbol, err)
	}
	h.logger.Info("zenith recomputed on request",
		xlogger.String("symbol", symbol),
		xlogger.String("remote", c.RealIP()),
		xlogger.Float64("score", res.Score),
	)
	return xhttp.SuccessResponse(c, newZenithResponse(res, false))
}

func (h *ZenithHandler) fail(c echo.Context, symbol string, err error) error {
	appErr := toAppError(err, symbol)
	if appErr.Status >= 500 {
		h.logger.Error("zenith usecase error", xlogger.String("symbol", symbol), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
