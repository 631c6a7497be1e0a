package commands

import (
	"github.com/spf13/cobra"

	"github.com/tuongmengleang/firechat/internal/domain"
)

// history <peer>: re-read the cached conversation with <peer>.
func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <peer>",
		Short: "Show the locally cached conversation with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Resume(cmd.Context()); err != nil {
				return err
			}
			msgs, err := wire.Messages.History(cmd.Context(), domain.UserID(args[0]))
			if err != nil {
				return err
			}
			printMessages(cmd.OutOrStdout(), msgs)
			return nil
		},
	}
	return withPassphrase(cmd)
}
