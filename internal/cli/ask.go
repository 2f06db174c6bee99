package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askUser  uint
	askNovel string
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the editor assistant a question",
	Long: `Runs the chat flow for a user: retrieves that user's indexed material,
composes the editor prompt and prints the reply.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := assistantService.Chat(cmd.Context(), askUser, strings.Join(args, " "), askNovel)
		if err != nil {
			return fmt.Errorf("chat failed: %w", err)
		}
		cmd.Println(reply)
		return nil
	},
}

func init() {
	askCmd.Flags().UintVarP(&askUser, "user", "u", 0, "user id whose material is searched")
	askCmd.Flags().StringVar(&askNovel, "novel", "", "restrict retrieval to one novel")
	_ = askCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(askCmd)
}
