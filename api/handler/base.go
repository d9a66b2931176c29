package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/users/api/transport"
	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondNoContent(ctx *fasthttp.RequestCtx) {
	ctx.ResetBody()
	ctx.SetStatusCode(http.StatusNoContent)
}

// respondError writes the envelope for err. Field validation failures carry
// their field -> messages map as the error payload; other domain details go
// to meta.
func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", httpcontext.EnsureRequestID(ctx)),
			zap.ByteString("path", ctx.Path()),
			zap.Error(err),
		)
		h.respondJSON(ctx, status, transport.NewError(code, "internal error", nil))
		return
	}

	var (
		payload interface{} = err.Error()
		meta    interface{}
		dErr    *domain.Error
	)
	if errors.As(err, &dErr) && len(dErr.Details) > 0 {
		if dErr.Code == domain.ErrCodeValidation {
			payload = dErr.Details
		} else {
			meta = dErr.Details
		}
	}
	h.respondJSON(ctx, status, transport.NewError(code, payload, meta))
}

func mapError(err error) (int, string) {
	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
	switch dErr.Code {
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, string(dErr.Code)
	case domain.ErrCodeInvalid,
		domain.ErrCodeValidation,
		domain.ErrCodeAgeNotValid,
		domain.ErrCodeBadRange,
		domain.ErrCodePatch:
		return http.StatusBadRequest, string(dErr.Code)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

func pathID(ctx *fasthttp.RequestCtx) (int64, error) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeInvalid, "invalid user id "+strconv.Quote(raw), err)
	}
	return id, nil
}

// formValue looks key up in the urlencoded body first, then in the query string.
func formValue(ctx *fasthttp.RequestCtx, key string) (string, bool) {
	if args := ctx.PostArgs(); args.Has(key) {
		return string(args.Peek(key)), true
	}
	if args := ctx.QueryArgs(); args.Has(key) {
		return string(args.Peek(key)), true
	}
	return "", false
}

func optionalForm(ctx *fasthttp.RequestCtx, key string) *string {
	if v, ok := formValue(ctx, key); ok {
		return &v
	}
	return nil
}
