package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/betna-immo/betna/internal/client"
)

func newLoginCmd() *cobra.Command {
	var server, email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store a bearer token",
		Long:  "Authenticates with email and password and stores the returned token in ~/.config/betna/config.yaml.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(server, email, password, os.Stdin)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted if empty)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted if empty)")

	return cmd
}

func runLogin(serverFlag, email, password string, in io.Reader) error {
	reader := bufio.NewReader(in)
	var err error
	if email == "" {
		if email, err = prompt(reader, "Email: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = prompt(reader, "Password: "); err != nil {
			return err
		}
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	// A stale stored token would be rejected, so log in anonymously.
	c := client.New(serverOr(serverFlag), "")
	sess, err := c.Login(email, password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	if err := storeSession(serverFlag, sess.Token, sess.Account.Email); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(sess.Account)
	}
	fmt.Printf("✓ Logged in as %s (%s).\n", sess.Account.Email, sess.Account.Role)
	return nil
}

// prompt prints label and reads one trimmed line.
func prompt(r *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
