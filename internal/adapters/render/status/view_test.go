package status

import (
	"testing"
	"time"

	"github.com/bnema/amplify-rest-cli/internal/application"
	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderSignedInProfile(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output := Render([]application.Status{
		{
			Profile: domain.Profile{Name: "dev", OutputsPath: "/work/amplify_outputs.json"},
			Current: true,
			API:     &domain.APIDescriptor{Name: "allergenApi", Region: "eu-west-1", BaseURL: "https://api.example.test/dev"},
			Session: &application.StatusSession{
				Identity:        "ada@example.com",
				HasIDToken:      true,
				HasRefreshToken: true,
				IssuedAt:        now.Add(-30 * time.Minute),
				ExpiresAt:       now.Add(30 * time.Minute),
			},
		},
	}, RenderOptions{Now: now})

	assert.Contains(t, output, "profiles: 1")
	assert.Contains(t, output, "dev")
	assert.Contains(t, output, "(current)")
	assert.Contains(t, output, "allergenApi https://api.example.test/dev (eu-west-1)")
	assert.Contains(t, output, "ada@example.com")
	assert.Contains(t, output, "[============------------]")
	assert.Contains(t, output, "expires in 30 minutes (11:30)")
	assert.Contains(t, output, "(refreshable)")
	assert.NotContains(t, output, "!")
}

func TestRenderMultipleProfiles(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output := Render([]application.Status{
		{
			Profile: domain.Profile{Name: "dev", OutputsPath: "dev.json", Username: "ada"},
			Session: &application.StatusSession{
				HasIDToken: true,
				ExpiresAt:  now.Add(-5 * time.Minute),
			},
		},
		{
			Profile:  domain.Profile{Name: "prod", OutputsPath: "prod.json"},
			Current:  true,
			Problems: []string{"invalid amplify outputs: read prod.json"},
		},
	}, RenderOptions{Now: now})

	assert.Contains(t, output, "profiles: 2")
	assert.Contains(t, output, "session: ada")
	assert.Contains(t, output, "[------------------------]")
	assert.Contains(t, output, "expired 5 minutes ago")
	assert.Contains(t, output, "(no refresh token)")
	assert.Contains(t, output, "session: signed out")
	assert.Contains(t, output, "api: n/a")
	assert.Contains(t, output, "! invalid amplify outputs: read prod.json")
}

func TestRenderWarnsWhenIdentityTokenMissing(t *testing.T) {
	output := Render([]application.Status{
		{
			Profile: domain.Profile{Name: "dev", OutputsPath: "dev.json"},
			Session: &application.StatusSession{Identity: "ada"},
		},
	}, RenderOptions{})

	assert.Contains(t, output, "empty Authorization header")
	assert.Contains(t, output, "expiry unknown, no refresh token")
}

func TestRenderEmptyStatuses(t *testing.T) {
	output := Render(nil, RenderOptions{})

	assert.Contains(t, output, "profiles: 0")
	assert.Contains(t, output, "No profiles configured")
}

func TestRemainingPercent(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		issuedAt time.Time
		expires  time.Time
		now      time.Time
		want     float64
	}{
		{name: "halfway", issuedAt: now.Add(-time.Hour), expires: now.Add(time.Hour), now: now, want: 50},
		{name: "expired", issuedAt: now.Add(-2 * time.Hour), expires: now.Add(-time.Hour), now: now, want: 0},
		{name: "unknown issue time", expires: now.Add(time.Minute), now: now, want: 100},
		{name: "no clock", issuedAt: now, expires: now.Add(time.Hour), want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, remainingPercent(tt.issuedAt, tt.expires, tt.now), 0.001)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "under a minute", formatDuration(20*time.Second))
	assert.Equal(t, "1 minute", formatDuration(40*time.Second+20*time.Second))
	assert.Equal(t, "2 hours", formatDuration(90*time.Minute))
	assert.Equal(t, "3 days", formatDuration(50*time.Hour))
}

func TestClockTimeIncludesDateForOtherDays(t *testing.T) {
	now := time.Date(2026, 2, 14, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, "23:30", clockTime(now.Add(30*time.Minute), now))
	assert.Equal(t, "01:00 on 15 Feb", clockTime(now.Add(2*time.Hour), now))
}
