package api

import (
	"context"
	"errors"

	"ZenithCore/internal/usecase"
	xhttp "ZenithCore/pkg/http"
)

// toAppError maps use case errors onto HTTP errors.
func toAppError(err error, symbol string) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrNoCandles):
		return xhttp.NotFoundErrorf("no candles stored for %s", symbol).WithParam("symbol", symbol)
	case errors.Is(err, usecase.ErrNoHistory):
		return xhttp.NotFoundErrorf("no history available for %s", symbol).WithParam("symbol", symbol)
	case errors.Is(err, usecase.ErrRecomputeInProgress):
		return xhttp.ConflictError("recompute already in progress").WithParam("symbol", symbol)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.InternalError("analysis timed out").WithError(err)
	default:
		return xhttp.InternalErrorf("request for %s failed", symbol).WithError(err)
	}
}
