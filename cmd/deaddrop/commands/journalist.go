package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"deaddrop/internal/domain"
	"deaddrop/internal/services/journalist"
)

func journalistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journalist",
		Short: "Journalist operations",
	}
	cmd.AddCommand(
		journalistRegisterCmd(),
		journalistPublishCmd(),
		journalistFetchCmd(),
		journalistReadCmd(),
		journalistReplyCmd(),
		journalistDeleteCmd(),
	)
	return cmd
}

// journalistService checks the passphrase and builds the service.
func journalistService() (*journalist.Service, error) {
	if err := requirePassphrase(); err != nil {
		return nil, err
	}
	return wire.Journalist()
}

func journalistRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <index>",
		Short: "Register a journalist with the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			js, err := journalistService()
			if err != nil {
				return err
			}
			uid, err := js.Register(cmd.Context(), i)
			if err != nil {
				return err
			}
			fmt.Printf("journalist %d registered: %s\n", i, uid)
			return nil
		},
	}
}

func journalistPublishCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "publish <index>",
		Short: "Generate and upload signed one-time keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				count = cfg.Client.OneTimeKeys
			}
			js, err := journalistService()
			if err != nil {
				return err
			}
			res, err := js.PublishEphemeralKeys(cmd.Context(), i, count)
			if err != nil {
				return err
			}
			fmt.Printf("published %d keys (%d rejected)\n", res.Accepted, res.Rejected)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "c", 0, "number of keys (default Client.OneTimeKeys)")
	return cmd
}

func journalistFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <index>",
		Short: "List the ids of messages addressed to a journalist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			js, err := journalistService()
			if err != nil {
				return err
			}
			ids, err := js.FetchMessageIDs(cmd.Context(), i)
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

func journalistReadCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "read <index> <message-id>",
		Short: "Open a message; the one-time key that opens it is destroyed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			js, err := journalistService()
			if err != nil {
				return err
			}
			msg, err := js.ReadMessage(cmd.Context(), i, domain.MessageID(args[1]))
			if err != nil {
				return err
			}
			fmt.Println(msg.Text)
			if out == "" {
				return nil
			}
			// The message cannot be opened again, so keep it for reply.
			b, err := json.MarshalIndent(msg, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(out, b, 0o600)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "save the opened message as JSON for a later reply")
	return cmd
}

func journalistReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <index> <message.json> <text>",
		Short: "Reply to the source of a message saved by read --out",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			b, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			var to domain.Message
			if err := json.Unmarshal(b, &to); err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			js, err := journalistService()
			if err != nil {
				return err
			}
			id, err := js.Reply(cmd.Context(), i, to, args[2])
			if err != nil {
				return err
			}
			fmt.Printf("reply deposited: %s\n", id)
			return nil
		},
	}
}

func journalistDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <message-id>",
		Short: "Delete a message from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			js, err := journalistService()
			if err != nil {
				return err
			}
			return js.DeleteMessage(cmd.Context(), domain.MessageID(args[0]))
		},
	}
}
