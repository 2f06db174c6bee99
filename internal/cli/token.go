package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	tokenUser     uint
	tokenUsername string
)

// tokenCmd issues bearer tokens for local testing of the HTTP API.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		token, err := tokenService.GenerateToken(tokenUser, tokenUsername)
		if err != nil {
			return fmt.Errorf("token failed: %w", err)
		}
		cmd.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().UintVarP(&tokenUser, "user", "u", 0, "user id")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "username claim")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
