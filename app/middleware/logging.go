package middleware

import (
	"strconv"
	"time"

	"github.com/beego/beego/v2/server/web"
	beecontext "github.com/beego/beego/v2/server/web/context"
	"go.uber.org/zap"
)

const startedAtKey = "request_started_at"

// RequestStart marks the request start time; pair it with RequestLog in the
// FinishRouter position.
func RequestStart() web.FilterFunc {
	return func(ctx *beecontext.Context) {
		ctx.Input.SetData(startedAtKey, time.Now())
	}
}

func RequestLog(logger *zap.Logger) web.FilterFunc {
	return func(ctx *beecontext.Context) {
		fields := []zap.Field{
			zap.String("method", ctx.Input.Method()),
			zap.String("path", ctx.Input.URL()),
			zap.Int("status", ctx.ResponseWriter.Status),
			zap.String("ip", clientIP(ctx)),
		}
		if started, ok := ctx.Input.GetData(startedAtKey).(time.Time); ok {
			fields = append(fields, zap.Duration("took", time.Since(started)))
		}
		if id, ok := UserID(ctx); ok {
			fields = append(fields, zap.Uint("user_id", id))
		}
		logger.Info("request", fields...)
	}
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
