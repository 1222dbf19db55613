package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/amplify-rest-cli/internal/application"
)

func newHeadersCmd(app *app) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "headers",
		Short: "Print the headers the next REST call would carry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := app.service.ResolveProfile(cmd.Context(), app.profile)
			if err != nil {
				return err
			}

			headers, err := application.NewHeaderProvider(app.sessions.ForProfile(profile.Name)).Headers(cmd.Context())
			if err != nil {
				return err
			}
			if !reveal {
				for key, value := range headers {
					headers[key] = redact(value)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(headers)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print header values in full")

	return cmd
}

func redact(value string) string {
	if len(value) <= 12 {
		return value
	}
	return fmt.Sprintf("%s...(%d chars)", value[:8], len(value))
}
