package di

import (
	"context"
	"errors"

	"github.com/plotcraft/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infrastructure is what the graph is built on. DB and Redis are opened by
// the caller and may be nil.
type Infrastructure struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Redis  redis.UniversalClient
}

// Container is the process-wide container set by InitContainer.
var Container *dig.Container

var errNotInitialized = errors.New("di: container not initialized")

// InitContainer builds a container for infra and installs it as Container.
func InitContainer(ctx context.Context, infra Infrastructure) (*dig.Container, error) {
	c := dig.New()
	if err := RegisterProviders(ctx, c, infra); err != nil {
		return nil, err
	}
	Container = c
	return c, nil
}

func GetContainer() *dig.Container {
	return Container
}

// Invoke runs fn against Container.
func Invoke(fn interface{}, opts ...dig.InvokeOption) error {
	if Container == nil {
		return errNotInitialized
	}
	return Container.Invoke(fn, opts...)
}
