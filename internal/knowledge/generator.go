package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/plotcraft/backend-go/internal/errors"
	"go.uber.org/zap"
)

// Task selects the persona strings used for unavailable and failure replies.
type Task string

const (
	TaskChat       Task = "chat"
	TaskSceneDraft Task = "scene_draft"
)

// Completer is a text generation provider.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// GenerationClient wraps a Completer so generation never returns an error.
//
// With no Completer it returns the locale's documented sentinel
// (ChatUnavailableTH / DraftUnavailableTH for Thai). Provider failures become
// an apology string that embeds the error text.
type GenerationClient struct {
	completer Completer
	locale    *Locale
	timeout   time.Duration
	logger    *zap.Logger
}

func NewGenerationClient(completer Completer, locale *Locale, timeout time.Duration, logger *zap.Logger) *GenerationClient {
	if locale == nil {
		locale = LocaleThai
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationClient{
		completer: completer,
		locale:    locale,
		timeout:   timeout,
		logger:    logger,
	}
}

// Configured reports whether a provider is available.
func (g *GenerationClient) Configured() bool {
	return g != nil && g.completer != nil
}

// Unavailable returns the sentinel for task.
func (g *GenerationClient) Unavailable(task Task) string {
	if task == TaskSceneDraft {
		return g.locale.DraftUnavailable
	}
	return g.locale.ChatUnavailable
}

func (g *GenerationClient) failure(task Task, err error) string {
	if task == TaskSceneDraft {
		return fmt.Sprintf(g.locale.DraftFailure, err)
	}
	return fmt.Sprintf(g.locale.ChatFailure, err)
}

// Generate returns the raw model output for prompt.
func (g *GenerationClient) Generate(ctx context.Context, task Task, prompt string) string {
	if !g.Configured() {
		recordGeneration(task, "unconfigured")
		return g.Unavailable(task)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	out, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		g.logger.Error("generation failed",
			zap.String("code", string(apperrors.ErrCodeGenerationFailed)),
			zap.String("task", string(task)),
			zap.String("provider", g.completer.Name()),
			zap.Error(err))
		recordGeneration(task, "error")
		return g.failure(task, err)
	}

	recordGeneration(task, "ok")
	g.logger.Debug("generation finished",
		zap.String("task", string(task)),
		zap.String("provider", g.completer.Name()),
		zap.Int("prompt_chars", len([]rune(prompt))),
		zap.Duration("took", time.Since(started)))
	return out
}

func joinParts(parts []string) string {
	return strings.Join(parts, "\n")
}
