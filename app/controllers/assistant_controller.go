package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Assistant is the use-case surface the controller needs.
type Assistant interface {
	Chat(ctx context.Context, userID uint, message, novelID string) (string, error)
	GenerateSceneDraft(ctx context.Context, userID, sceneID uint) (string, error)
}

var validate = validator.New()

// FlexibleID accepts a JSON string, number or null.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("novel_id must be a string, number or null")
	}
	*f = FlexibleID(n.String())
	return nil
}

type ChatRequest struct {
	Message string     `json:"message" validate:"required,max=4000"`
	NovelID FlexibleID `json:"novel_id"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type DraftResponse struct {
	Draft string `json:"draft"`
}

// AssistantController serves the editor chat and scene drafting endpoints.
type AssistantController struct {
	BaseController
	Assistant Assistant
}

// Chat handles POST /api/chat/general.
func (c *AssistantController) Chat() {
	userID, ok := c.userID()
	if !ok {
		c.JSONError(http.StatusUnauthorized, "Authentication required")
		return
	}

	raw, err := c.body()
	if err != nil {
		c.JSONError(http.StatusBadRequest, "Invalid request body")
		return
	}
	var req ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "Invalid request body")
		return
	}
	check := req
	check.Message = strings.TrimSpace(req.Message)
	if err := validate.Struct(check); err != nil {
		c.JSONError(http.StatusBadRequest, "message is required and must be at most 4000 characters")
		return
	}

	reply, err := c.Assistant.Chat(c.Ctx.Request.Context(), userID, req.Message, string(req.NovelID))
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

// GenerateSceneDraft handles POST /api/generate-scene/:scene_id.
func (c *AssistantController) GenerateSceneDraft() {
	userID, ok := c.userID()
	if !ok {
		c.JSONError(http.StatusUnauthorized, "Authentication required")
		return
	}

	sceneID, err := strconv.ParseUint(c.Ctx.Input.Param(":scene_id"), 10, 64)
	if err != nil || sceneID == 0 {
		c.JSONError(http.StatusNotFound, "Scene not found")
		return
	}

	draft, err := c.Assistant.GenerateSceneDraft(c.Ctx.Request.Context(), userID, uint(sceneID))
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, DraftResponse{Draft: draft})
}
