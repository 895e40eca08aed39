package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"ZenithCore/pkg/logger"
)

// RequestLogging logs HTTP requests.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("uri", req.RequestURI),
				logger.String("remote", c.RealIP()),
				logger.Int("status", res.Status),
				logger.Duration("latency_ms", time.Since(start)),
			}
			if err != nil {
				l.Warn("http request", append(fields, logger.Error(err))...)
				return nil
			}
			l.Info("http request", fields...)
			return nil
		}
	}
}
