package services

import (
	"context"
	"errors"
	"testing"

	"github.com/plotcraft/backend-go/internal/kafka"
	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func newTestWorker() (*IndexWorker, *MockCharacterRepository, *MockChapterRepository, *MockSceneRepository, *MockEntityIndexer) {
	characters := new(MockCharacterRepository)
	chapters := new(MockChapterRepository)
	scenes := new(MockSceneRepository)
	indexer := new(MockEntityIndexer)
	return NewIndexWorker(characters, chapters, scenes, indexer, nil), characters, chapters, scenes, indexer
}

func TestIndexWorker_Upserts(t *testing.T) {
	w, characters, chapters, scenes, indexer := newTestWorker()
	ctx := context.Background()

	character := &models.Character{CharacterID: 1, Name: "Aria"}
	chapter := &models.Chapter{ChapterID: 2}
	scene := &models.Scene{SceneID: 3}
	characters.On("GetByID", mock.Anything, uint(1)).Return(character, nil)
	chapters.On("GetByID", mock.Anything, uint(2)).Return(chapter, nil)
	scenes.On("GetByID", mock.Anything, uint(3)).Return(scene, nil)
	indexer.On("IndexCharacter", mock.Anything, character).Return()
	indexer.On("IndexChapter", mock.Anything, chapter).Return()
	indexer.On("IndexScene", mock.Anything, scene).Return()

	assert.NoError(t, w.Handle(ctx, kafka.IndexEvent{Action: kafka.ActionUpsert, Type: knowledge.DocumentTypeCharacter, SourceID: 1}))
	assert.NoError(t, w.Handle(ctx, kafka.IndexEvent{Action: kafka.ActionUpsert, Type: knowledge.DocumentTypeContent, SourceID: 2}))
	assert.NoError(t, w.Handle(ctx, kafka.IndexEvent{Action: kafka.ActionUpsert, Type: knowledge.DocumentTypeScene, SourceID: 3}))

	indexer.AssertExpectations(t)
}

func TestIndexWorker_Delete(t *testing.T) {
	w, characters, _, _, indexer := newTestWorker()
	indexer.On("Remove", mock.Anything, knowledge.DocumentTypeScene, uint(8)).Return()

	err := w.Handle(context.Background(), kafka.IndexEvent{Action: kafka.ActionDelete, Type: knowledge.DocumentTypeScene, SourceID: 8})

	assert.NoError(t, err)
	indexer.AssertExpectations(t)
	characters.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestIndexWorker_MissingRowIsRemoved(t *testing.T) {
	w, characters, _, _, indexer := newTestWorker()
	characters.On("GetByID", mock.Anything, uint(5)).Return(nil, gorm.ErrRecordNotFound)
	indexer.On("Remove", mock.Anything, knowledge.DocumentTypeCharacter, uint(5)).Return()

	err := w.Handle(context.Background(), kafka.IndexEvent{Action: kafka.ActionUpsert, Type: knowledge.DocumentTypeCharacter, SourceID: 5})

	assert.NoError(t, err)
	indexer.AssertExpectations(t)
}

func TestIndexWorker_ReadErrorIsRetried(t *testing.T) {
	w, _, chapters, _, indexer := newTestWorker()
	chapters.On("GetByID", mock.Anything, uint(2)).Return(nil, errors.New("connection reset"))

	err := w.Handle(context.Background(), kafka.IndexEvent{Action: kafka.ActionUpsert, Type: knowledge.DocumentTypeContent, SourceID: 2})

	assert.ErrorContains(t, err, "load chap_2")
	indexer.AssertNotCalled(t, "IndexChapter", mock.Anything, mock.Anything)
}
