package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index from the database",
	Long: `Re-embeds every character, chapter and scene and upserts it into the
vector store. Existing entries are overwritten in place.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if reindexService == nil {
			return errNoDatabase
		}
		stats, err := reindexService.Reindex(cmd.Context())
		if err != nil {
			return fmt.Errorf("reindex failed: %w", err)
		}
		cmd.Printf("Indexed %d documents (characters: %d, chapters: %d, scenes: %d)\n",
			stats.Total(), stats.Characters, stats.Chapters, stats.Scenes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
