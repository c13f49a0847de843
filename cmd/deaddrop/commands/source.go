package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"deaddrop/internal/domain"
	"deaddrop/internal/services/source"
)

func sourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Source operations; the identity is derived from --source-passphrase",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// cobra runs only the nearest PersistentPreRunE.
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return requireSourcePassphrase()
		},
	}
	cmd.AddCommand(sourceSubmitCmd(), sourceFetchCmd(), sourceReadCmd(), sourceIdentityCmd())
	return cmd
}

func sourceIdentityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Print the fingerprint of the passphrase-derived identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, fp, err := source.Identity(sourcePassphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Fingerprint: %s\n", fp)
			return nil
		},
	}
}

func sourceSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <text>",
		Short: "Send a message to every verified journalist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := wire.Source()
			if err != nil {
				return err
			}
			ids, err := s.Submit(cmd.Context(), sourcePassphrase, domain.Message{Text: args[0]})
			if err != nil {
				return err
			}
			fmt.Printf("submitted to %d journalists\n", len(ids))
			return nil
		},
	}
}

func sourceFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "List the ids of replies addressed to this source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := wire.Source()
			if err != nil {
				return err
			}
			ids, err := s.FetchReplyIDs(cmd.Context(), sourcePassphrase)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func sourceReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <message-id>",
		Short: "Open a reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := wire.Source()
			if err != nil {
				return err
			}
			msg, err := s.ReadReply(cmd.Context(), sourcePassphrase, domain.MessageID(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("[%s] %s\n", time.Unix(msg.Timestamp, 0).UTC().Format(time.RFC3339), msg.Text)
			return nil
		},
	}
}
