package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	draftUser  uint
	draftScene uint
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft prose for a scene",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		draft, err := assistantService.GenerateSceneDraft(cmd.Context(), draftUser, draftScene)
		if err != nil {
			return fmt.Errorf("draft failed: %w", err)
		}
		cmd.Println(draft)
		return nil
	},
}

func init() {
	draftCmd.Flags().UintVarP(&draftUser, "user", "u", 0, "id of the scene's author")
	draftCmd.Flags().UintVarP(&draftScene, "scene", "s", 0, "scene id")
	_ = draftCmd.MarkFlagRequired("user")
	_ = draftCmd.MarkFlagRequired("scene")
	rootCmd.AddCommand(draftCmd)
}
