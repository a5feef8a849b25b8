package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-client/internal/api"
	"github.com/stemsi/exstem-client/internal/auth"
	"golang.org/x/term"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with NISN and password",
		RunE:  runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("NISN: ")
	nisn, _ := reader.ReadString('\n')
	nisn = strings.TrimSpace(nisn)
	if nisn == "" {
		return fmt.Errorf("NISN is required")
	}

	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	resp, err := a.client.Login(cmd.Context(), nisn, string(pwBytes))
	if err != nil {
		if ae, ok := api.AsAPIError(err); ok && ae.Code == api.ErrSessionActive {
			return fmt.Errorf("already signed in on another device: %s", ae.Message)
		}
		return err
	}

	if err := a.local.SaveToken(resp.Token); err != nil {
		a.log.Warn().Err(err).Msg("Token not persisted, you will need to log in again next run")
	}

	fmt.Printf("Signed in as %s (class %d)\n", resp.Student.Name, resp.Student.ClassID)
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.local.ClearToken(); err != nil {
				return fmt.Errorf("clear token: %w", err)
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

// requireSession ensures a usable student token is installed on the client.
func (a *app) requireSession() error {
	token := a.client.Token()
	if token == "" {
		return fmt.Errorf("not signed in, run `exstem-client login` first")
	}
	claims, err := auth.Inspect(token)
	if err != nil || !claims.Usable() {
		return fmt.Errorf("session expired, run `exstem-client login` again")
	}
	return nil
}
