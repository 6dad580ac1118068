package cli

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <plan>",
		Short: "Start a subscription payment",
		Long:  "Creates a Stripe Checkout session for the plan and prints the payment URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := newAPIClient().Checkout(args[0])
			if err != nil {
				return fmt.Errorf("starting checkout: %w", err)
			}
			if isJSON() {
				return printJSON(map[string]string{"url": url})
			}
			fmt.Println("Complete your payment at:")
			fmt.Println(url)
			if err := openBrowser(url); err != nil {
				fmt.Printf("(could not open browser: %v)\n", err)
			}
			return nil
		},
	}
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
