package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	authadapter "github.com/bnema/amplify-rest-cli/internal/adapters/auth"
)

var errEmptyPassword = errors.New("empty password")

func newLoginCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the profile's user pool",
	}

	cmd.AddCommand(newLoginPasswordCmd(app), newLoginBrowserCmd(app))

	return cmd
}

func newLoginPasswordCmd(app *app) *cobra.Command {
	var username string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Sign in with username and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), !passwordStdin)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			if err := app.service.SignIn(cmd.Context(), app.profile, username, password); err != nil {
				return err
			}

			profile, err := app.service.ResolveProfile(cmd.Context(), app.profile)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed in to profile %s as %s\n", profile.Name, profile.Username)
			return err
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "User name, email or phone number")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin without prompting")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newLoginBrowserCmd(app *app) *cobra.Command {
	var listenAddr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "browser",
		Short: "Sign in through the hosted UI with authorization code and PKCE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			profile, err := app.service.ResolveProfile(ctx, app.profile)
			if err != nil {
				return err
			}
			cognito, err := app.service.CognitoConfig(ctx, profile)
			if err != nil {
				return err
			}

			ui, err := authadapter.HostedUIFromConfig(cognito)
			if err != nil {
				return fmt.Errorf("profile %s: %w", profile.Name, err)
			}
			redirectURI, err := authadapter.SelectRedirectURI(cognito.OAuth.RedirectSignIn)
			if err != nil {
				return fmt.Errorf("profile %s: %w", profile.Name, err)
			}

			login := authadapter.BrowserLogin{
				UI:          ui,
				RedirectURI: redirectURI,
				ListenAddr:  listenAddr,
				HTTPClient:  app.browserLogin.HTTPClient,
				Timeout:     timeout,
				OpenURL: func(authURL string) error {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to sign in to profile %s:\n%s\n", profile.Name, authURL)
					return err
				},
			}

			tokens, err := login.Run(ctx)
			if err != nil {
				return err
			}

			if err := app.service.SaveSession(ctx, profile.Name, "", tokens.WithCalculatedExpiry(app.now())); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed in to profile %s\n", profile.Name)
			return err
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Callback listen address (defaults to $"+envListen+" or the redirect uri host)")
	cmd.PreRun = func(_ *cobra.Command, _ []string) {
		if listenAddr == "" {
			listenAddr = app.browserLogin.ListenAddr
		}
		if timeout <= 0 {
			timeout = app.browserLogin.Timeout
		}
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for the browser callback (default 5m)")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the profile's session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := app.service.ResolveProfile(cmd.Context(), app.profile)
			if err != nil {
				return err
			}
			if err := app.service.SignOut(cmd.Context(), profile.Name); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed out of profile %s\n", profile.Name)
			return err
		},
	}
}

// readPassword prompts on prompt when asked to and reads one password line from in.
// Terminal input is read with echo disabled.
func readPassword(in io.Reader, prompt io.Writer, interactive bool) (string, error) {
	if !interactive {
		return readLine(in)
	}

	_, _ = fmt.Fprint(prompt, "Password: ")
	file, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return readLine(in)
	}

	raw, err := term.ReadPassword(int(file.Fd()))
	_, _ = fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errEmptyPassword
	}
	return string(raw), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errEmptyPassword
	}
	return line, nil
}
