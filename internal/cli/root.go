package cli

import (
	"context"
	"errors"

	"github.com/plotcraft/backend-go/app/bootstrap"
	"github.com/plotcraft/backend-go/internal/services"
	"github.com/spf13/cobra"
)

type assistant interface {
	Chat(ctx context.Context, userID uint, message, novelID string) (string, error)
	GenerateSceneDraft(ctx context.Context, userID, sceneID uint) (string, error)
}

type reindexer interface {
	Reindex(ctx context.Context) (services.ReindexStats, error)
}

type tokenIssuer interface {
	GenerateToken(userID uint, username string) (string, error)
}

// Services used by the commands. Tests replace them directly; otherwise they
// are built by bootstrap before the first command runs.
var (
	assistantService assistant
	reindexService   reindexer
	tokenService     tokenIssuer

	app *bootstrap.App

	skipDatabase bool
)

var errNoDatabase = errors.New("this command needs a database; drop --no-db")

var rootCmd = &cobra.Command{
	Use:           "plotcraftctl",
	Short:         "Operate the plotcraft writing assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if assistantService != nil {
			return nil
		}
		a, err := bootstrap.Init(cmd.Context(), bootstrap.Options{SkipDatabase: skipDatabase})
		if err != nil {
			return err
		}
		app = a
		assistantService = a.Assistant
		tokenService = a.JWT
		if a.Reindex != nil {
			reindexService = a.Reindex
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if app != nil {
			app.Shutdown()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&skipDatabase, "no-db", false, "run without postgres (chat only)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
