package middleware

import (
	"net/http"

	"github.com/beego/beego/v2/server/web"
	beecontext "github.com/beego/beego/v2/server/web/context"
	"github.com/plotcraft/backend-go/internal/auth"
	"go.uber.org/zap"
)

// UserIDKey is the request data key holding the authenticated user id.
const UserIDKey = "user_id"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's id under UserIDKey.
func AuthRequired(validator TokenValidator, logger *zap.Logger) web.FilterFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx *beecontext.Context) {
		if ctx.Input.Method() == http.MethodOptions {
			return
		}
		token, err := auth.ExtractTokenFromHeader(ctx.Input.Header("Authorization"))
		if err != nil {
			writeError(ctx, http.StatusUnauthorized, "Authentication required")
			return
		}
		claims, err := validator.ValidateToken(token)
		if err != nil {
			logger.Warn("JWT validation failed",
				zap.String("path", ctx.Input.URL()),
				zap.Error(err))
			writeError(ctx, http.StatusUnauthorized, "Authentication required")
			return
		}
		ctx.Input.SetData(UserIDKey, claims.UserID)
	}
}

// UserID returns the id stored by AuthRequired.
func UserID(ctx *beecontext.Context) (uint, bool) {
	id, ok := ctx.Input.GetData(UserIDKey).(uint)
	return id, ok && id != 0
}

func writeError(ctx *beecontext.Context, status int, message string) {
	ctx.Output.SetStatus(status)
	_ = ctx.Output.JSON(map[string]string{"error": message}, false, false)
}
