package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tuongmengleang/firechat/internal/domain"
)

// send <peer> <message...>: encrypt and send a message to <peer>.
func sendCmd() *cobra.Command {
	var file domain.Content
	cmd := &cobra.Command{
		Use:   "send <peer> <message...>",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Resume(cmd.Context()); err != nil {
				return err
			}
			content := file
			content.Text = strings.Join(args[1:], " ")
			if content.Text == "" && !content.HasAttachment() {
				return fmt.Errorf("nothing to send")
			}

			msg, err := wire.Messages.Send(cmd.Context(), domain.UserID(args[0]), content)
			if err != nil {
				return err
			}
			fmt.Printf("sent to %s (%s)\n", msg.RecipientID, msg.ConversationID)
			return nil
		},
	}
	cmd.Flags().StringVar(&file.FileURL, "file-url", "", "URL of an uploaded attachment")
	cmd.Flags().StringVar(&file.FileName, "file-name", "", "attachment file name")
	cmd.Flags().StringVar(&file.FileType, "file-type", "", "attachment MIME type")
	cmd.Flags().Int64Var(&file.FileSize, "file-size", 0, "attachment size in bytes")
	return withPassphrase(cmd)
}
