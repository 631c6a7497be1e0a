package commands

import (
	"github.com/spf13/cobra"
)

// recv: fetch and decrypt queued messages.
func recvCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch and decrypt your queued messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Resume(cmd.Context()); err != nil {
				return err
			}
			// A failed ack still returns what was opened; those messages
			// are delivered again on the next recv.
			msgs, err := wire.Messages.Receive(cmd.Context(), limit)
			printMessages(cmd.OutOrStdout(), msgs)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum messages to fetch (0 for all)")
	return withPassphrase(cmd)
}
