package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "amprest",
		Short:         "Call Amplify REST APIs with the signed-in user's identity token",
		Long:          "amprest reads an Amplify deployment's amplify_outputs.json, signs in against its Cognito user pool and sends REST requests carrying the identity token in the Authorization header.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			wired, err := wireApp(opts)
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			app.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "Profile to use (defaults to the current profile)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newProfileCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newHeadersCmd(app),
		newConfigCmd(app),
		newCallCmd(app),
	)

	return rootCmd
}
