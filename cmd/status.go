package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/amplify-rest-cli/internal/adapters/render/status"
	"github.com/bnema/amplify-rest-cli/internal/application"
)

type statusJSON struct {
	Profile     string         `json:"profile"`
	Current     bool           `json:"current"`
	OutputsPath string         `json:"outputsPath"`
	API         *statusAPIJSON `json:"api,omitempty"`
	Session     *sessionJSON   `json:"session,omitempty"`
	Problems    []string       `json:"problems,omitempty"`
}

type statusAPIJSON struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	BaseURL string `json:"url"`
}

type sessionJSON struct {
	Identity        string     `json:"identity,omitempty"`
	HasIDToken      bool       `json:"hasIdToken"`
	HasRefreshToken bool       `json:"hasRefreshToken"`
	SignedInAt      *time.Time `json:"signedInAt,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show profiles, their API and session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := loadStatuses(cmd, app)
			if err != nil {
				return err
			}
			return writeStatusesOutput(cmd, app, statuses, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output status as JSON")

	return cmd
}

func loadStatuses(cmd *cobra.Command, app *app) ([]application.Status, error) {
	if app.profile == "" {
		return app.service.GetStatusAll(cmd.Context())
	}

	status, err := app.service.GetStatus(cmd.Context(), app.profile)
	if err != nil {
		return nil, err
	}

	return []application.Status{status}, nil
}

func writeStatusesOutput(cmd *cobra.Command, app *app, statuses []application.Status, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(lo.Map(statuses, func(status application.Status, _ int) statusJSON {
			return toStatusJSON(status)
		}))
	}

	rendered := app.statusRenderer(statuses, statusadapter.RenderOptions{Now: app.now()})
	_, err := fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func toStatusJSON(status application.Status) statusJSON {
	out := statusJSON{
		Profile:     string(status.Profile.Name),
		Current:     status.Current,
		OutputsPath: status.Profile.OutputsPath,
		Problems:    status.Problems,
	}
	if status.API != nil {
		out.API = &statusAPIJSON{Name: status.API.Name, Region: status.API.Region, BaseURL: status.API.BaseURL}
	}
	if status.Session != nil {
		out.Session = &sessionJSON{
			Identity:        lo.CoalesceOrEmpty(status.Session.Identity, status.Profile.Username),
			HasIDToken:      status.Session.HasIDToken,
			HasRefreshToken: status.Session.HasRefreshToken,
			SignedInAt:      timePtr(status.Profile.SignedInAt),
			ExpiresAt:       timePtr(status.Session.ExpiresAt),
		}
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
