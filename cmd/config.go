package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

type configJSON struct {
	Profile      string                 `json:"profile"`
	ProfilesFile string                 `json:"profilesFile"`
	SecretsDir   string                 `json:"secretsDir"`
	API          domain.APIDescriptor   `json:"api"`
	APIs         []string               `json:"apis"`
	Resources    domain.ResourcesConfig `json:"resources"`
}

func newConfigCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resource configuration REST calls are made with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, profile, err := app.configure(cmd.Context())
			if err != nil {
				return fmt.Errorf("configure profile: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(configJSON{
				Profile:      string(profile.Name),
				ProfilesFile: app.repo.Path(),
				SecretsDir:   app.secretsDir,
				API:          config.API,
				APIs:         config.APINames(),
				Resources:    config.Resources,
			})
		},
	})

	return cmd
}
