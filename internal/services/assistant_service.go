package services

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	apperrors "github.com/plotcraft/backend-go/internal/errors"
	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/models"
	"github.com/plotcraft/backend-go/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContextRetriever finds owner-scoped context for a question.
type ContextRetriever interface {
	Retrieve(ctx context.Context, q knowledge.RetrievalQuery) knowledge.RetrievalResult
}

// PromptBuilder turns context and entities into model prompts.
type PromptBuilder interface {
	ComposeChatPrompt(query, context string) string
	ComposeSceneDraftPrompt(s *models.Scene) string
}

// TextGenerator produces user-facing text for a prompt. It never fails; errors
// are rendered into the returned text.
type TextGenerator interface {
	Generate(ctx context.Context, task knowledge.Task, prompt string) string
}

// AssistantService implements the editor chat and scene drafting use cases.
type AssistantService struct {
	retriever ContextRetriever
	composer  PromptBuilder
	generator TextGenerator
	scenes    repository.SceneRepository
	logger    *zap.Logger
}

func NewAssistantService(retriever ContextRetriever, composer PromptBuilder, generator TextGenerator, scenes repository.SceneRepository, logger *zap.Logger) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{
		retriever: retriever,
		composer:  composer,
		generator: generator,
		scenes:    scenes,
		logger:    logger.Named("assistant"),
	}
}

// Chat answers a free-form question using only documents owned by userID,
// optionally narrowed to one novel. An empty novelID searches all of the
// user's novels.
func (s *AssistantService) Chat(ctx context.Context, userID uint, message, novelID string) (string, error) {
	query := strings.TrimSpace(message)
	if query == "" {
		return "", apperrors.NewValidationError("message is required")
	}

	result := s.retriever.Retrieve(ctx, knowledge.RetrievalQuery{
		Text:    query,
		OwnerID: ownerScope(userID),
		NovelID: strings.TrimSpace(novelID),
	})
	s.logger.Debug("chat context retrieved",
		zap.Uint("user_id", userID),
		zap.String("novel_id", novelID),
		zap.Int("matches", len(result.Matches)))

	prompt := s.composer.ComposeChatPrompt(message, result.Context())
	return s.generator.Generate(ctx, knowledge.TaskChat, prompt), nil
}

// GenerateSceneDraft drafts prose for a scene the caller authored. A scene
// that does not exist and a scene owned by someone else both yield NotFound.
func (s *AssistantService) GenerateSceneDraft(ctx context.Context, userID, sceneID uint) (string, error) {
	if s.scenes == nil {
		return "", apperrors.NewSystemError(apperrors.ErrCodeNotConfigured, "scene storage is not configured")
	}
	scene, err := s.scenes.GetOwnedByID(ctx, sceneID, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NewNotFoundError("Scene")
		}
		s.logger.Error("failed to load scene", zap.Uint("scene_id", sceneID), zap.Error(err))
		return "", apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to load scene").WithCause(err)
	}

	prompt := s.composer.ComposeSceneDraftPrompt(scene)
	return s.generator.Generate(ctx, knowledge.TaskSceneDraft, prompt), nil
}

func ownerScope(userID uint) string {
	if userID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(userID), 10)
}
