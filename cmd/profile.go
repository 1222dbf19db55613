package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/bnema/amplify-rest-cli/internal/adapters/outputs"
	"github.com/bnema/amplify-rest-cli/internal/domain"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage deployment profiles",
	}

	cmd.AddCommand(
		newProfileAddCmd(app),
		newProfileListCmd(app),
		newProfileUseCmd(app),
		newProfileRemoveCmd(app),
	)

	return cmd
}

func newProfileAddCmd(app *app) *cobra.Command {
	var outputsPath string
	var use bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an amplify_outputs.json under a profile name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := domain.ProfileName(args[0])
			if err := app.service.AddProfile(cmd.Context(), domain.Profile{Name: name, OutputsPath: outputsPath}); err != nil {
				return err
			}
			if use {
				if err := app.service.UseProfile(cmd.Context(), name); err != nil {
					return err
				}
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Added profile %s\n", name)
			return err
		},
	}

	cmd.Flags().StringVar(&outputsPath, "outputs", outputs.FileName, "Path to the deployment's amplify_outputs.json")
	cmd.Flags().BoolVar(&use, "use", false, "Make the new profile the current one")

	return cmd
}

func newProfileListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := app.service.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No profiles configured.")
				return err
			}

			current, err := app.repo.Current(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "\tNAME\tUSER\tOUTPUTS")
			for _, profile := range profiles {
				marker := lo.Ternary(profile.Name == current, "*", "")
				user := lo.Ternary(profile.SecretRef != "", lo.CoalesceOrEmpty(profile.Username, "(signed in)"), "-")
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, profile.Name, user, profile.OutputsPath)
			}
			return w.Flush()
		},
	}
}

func newProfileUseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := domain.ProfileName(args[0])
			if err := app.service.UseProfile(cmd.Context(), name); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Current profile: %s\n", name)
			return err
		},
	}
}

func newProfileRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a profile and its stored session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := domain.ProfileName(args[0])
			if err := app.service.RemoveProfile(cmd.Context(), name); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %s\n", name)
			return err
		},
	}
}
