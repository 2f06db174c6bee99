package controllers

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/beego/beego/v2/server/web"
	"github.com/plotcraft/backend-go/app/middleware"
	apperrors "github.com/plotcraft/backend-go/internal/errors"
	"github.com/plotcraft/backend-go/internal/logger"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	_ = c.ServeJSON()
}

// JSONError writes {"error": message}.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]string{"error": message})
}

// Fail renders err. AppErrors keep their status and message; anything else
// is logged and reported as a generic 500.
func (c *BaseController) Fail(err error) {
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Ctx.Input.URL()),
				zap.String("code", string(appErr.Code)),
				zap.Error(err))
		}
		c.JSONError(appErr.HTTPCode, appErr.Message)
		return
	}
	logger.Error("request failed", zap.String("path", c.Ctx.Input.URL()), zap.Error(err))
	c.JSONError(http.StatusInternalServerError, "Internal server error")
}

// MethodNotAllowed is mapped to "*" on routes that accept a single verb.
func (c *BaseController) MethodNotAllowed() {
	c.JSONError(http.StatusMethodNotAllowed, "Method not allowed")
}

// userID returns the caller set by the auth filter.
func (c *BaseController) userID() (uint, bool) {
	return middleware.UserID(c.Ctx)
}

// body returns the request body, reading it when beego did not copy it.
func (c *BaseController) body() ([]byte, error) {
	if len(c.Ctx.Input.RequestBody) > 0 {
		return c.Ctx.Input.RequestBody, nil
	}
	if c.Ctx.Request.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(c.Ctx.Request.Body, maxBodyBytes))
}
