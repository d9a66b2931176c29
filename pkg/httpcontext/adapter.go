package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/users/pkg/logger"
)

// HeaderRequestID carries the request identifier in both directions.
const HeaderRequestID = "X-Request-ID"

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

const userValueRequestID = "request_id"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	base    context.Context
	timeout time.Duration
}

// NewAdapter derives request contexts from base with the given timeout.
func NewAdapter(base context.Context, timeout time.Duration) *Adapter {
	if base == nil {
		base = context.Background()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{base: base, timeout: timeout}
}

// Attach creates a context with timeout derived from the adapter and enriches it with request metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(a.base, a.timeout)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, EnsureRequestID(ctx))

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	return stdCtx, cancel
}

// EnsureRequestID returns the id of the request, taking it from the
// X-Request-ID header or generating one, and echoes it on the response.
func EnsureRequestID(ctx *fasthttp.RequestCtx) string {
	if id, ok := ctx.UserValue(userValueRequestID).(string); ok && id != "" {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue(userValueRequestID, id)
	ctx.Response.Header.Set(HeaderRequestID, id)
	return id
}
