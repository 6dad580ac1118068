package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/client"
)

func newRegisterCmd() *cobra.Command {
	var (
		server string
		reg    account.Registration
		role   string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create a client or proprietaire account and store its token.

A verification link is emailed to the address; the account can be used right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg.Role = account.Role(role)
			return runRegister(server, reg)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password (at least 8 characters)")
	cmd.Flags().StringVar(&reg.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&role, "role", string(account.RoleClient), "client or proprietaire")
	for _, f := range []string{"email", "password", "name"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func runRegister(serverFlag string, reg account.Registration) error {
	c := client.New(serverOr(serverFlag), "")
	sess, err := c.Register(reg)
	if err != nil {
		return fmt.Errorf("registering: %w", err)
	}

	if err := storeSession(serverFlag, sess.Token, sess.Account.Email); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(sess.Account)
	}
	fmt.Printf("✓ Account created for %s (%s).\n", sess.Account.Email, sess.Account.Role)
	fmt.Println("Check your inbox to confirm your email address.")
	return nil
}

// serverOr returns flag when set, else the configured server URL.
func serverOr(flag string) string {
	if flag != "" {
		return flag
	}
	return getServerURL()
}
