package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkerrigan/roomrelay/internal/protocol"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account directory operations",
	}

	cmd.AddCommand(newSignupCmd())
	cmd.AddCommand(newSigninCmd())

	return cmd
}

func newSignupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup <username> <password>",
		Short: "Create a new account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return loginExchange(protocol.Signup{Username: args[0], Password: args[1]})
		},
	}
}

func newSigninCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signin <username> <password>",
		Short: "Sign in to an existing account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return loginExchange(protocol.Signin{Username: args[0], Password: args[1]})
		},
	}
}

// loginExchange sends one credentials frame and waits for the login
// response. Signup and signin share the response shape.
func loginExchange(msg protocol.Message) error {
	client, err := Dial(cfg.Server, cfg.Timeout)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Send(msg); err != nil {
		return err
	}

	reply, err := client.Recv()
	if err != nil {
		return err
	}

	resp, ok := reply.(protocol.LoginResponse)
	if !ok {
		return fmt.Errorf("unexpected reply signifier %d", reply.Signifier())
	}

	out := NewOutput(cfg.Output)
	out.Print(LoginResult{Approved: resp.Approved, Text: resp.Text})
	if !resp.Approved {
		return fmt.Errorf("%s", resp.Text)
	}
	return nil
}
