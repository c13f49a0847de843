package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"deaddrop/internal/crypto"
	"deaddrop/internal/pki"
)

func pkiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pki",
		Short: "Provision and check the certificate chain",
	}
	cmd.AddCommand(pkiGenerateCmd(), pkiVerifyCmd())
	return cmd
}

func pkiGenerateCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate root, intermediate and journalist keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("journalists") {
				n = cfg.Client.Journalists
			}
			root, err := pki.GenerateRoot(wire.Keys)
			if err != nil {
				return err
			}
			chain, err := pki.BuildChain(wire.Keys, root, n)
			if err != nil {
				return err
			}
			logger.Noticef("provisioned %d journalists in %s", n, wire.Keys.Dir())
			rootText, err := chain.Anchor.Root.MarshalText()
			if err != nil {
				return err
			}
			fmt.Printf("Root key:    %s\n", rootText)
			fmt.Printf("Fingerprint: %s\n", crypto.Fingerprint(chain.Anchor.Root[:]))
			for _, j := range chain.Journalists {
				fmt.Printf("journalist %d: %s\n", j.Index, crypto.Fingerprint(j.Signing.Public[:]))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "journalists", "n", 0, "number of journalists (default Client.Journalists)")
	return cmd
}

func pkiVerifyCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Reload the chain and verify every certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("journalists") {
				n = cfg.Client.Journalists
			}
			chain, err := pki.LoadAndVerifyChain(wire.Keys, n)
			if err != nil {
				return err
			}
			fmt.Printf("chain OK: root %s, %d journalists\n",
				crypto.Fingerprint(chain.Anchor.Root[:]), len(chain.Journalists))
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "journalists", "n", 0, "number of journalists (default Client.Journalists)")
	return cmd
}
