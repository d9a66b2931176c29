package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/users/pkg/httpcontext"
)

// Middleware wraps a fasthttp handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// Chain applies mws so that the first one is the outermost.
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// AccessLog assigns the request id and logs every request once it is served.
func AccessLog(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			started := time.Now()
			requestID := httpcontext.EnsureRequestID(ctx)

			next(ctx)

			status := ctx.Response.StatusCode()
			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(started)),
			}
			if status >= fasthttp.StatusInternalServerError {
				logger.Warn("request served", fields...)
				return
			}
			logger.Info("request served", fields...)
		}
	}
}

// Recover turns a handler panic into a 500 response.
func Recover(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panicked",
						zap.Any("panic", rec),
						zap.ByteString("path", ctx.Path()),
						zap.Stack("stack"),
					)
					ctx.ResetBody()
					ctx.SetContentType("application/json")
					ctx.SetStatusCode(fasthttp.StatusInternalServerError)
					ctx.SetBodyString(`{"status":"error","code":"INTERNAL","error":"internal error"}`)
				}
			}()
			next(ctx)
		}
	}
}
