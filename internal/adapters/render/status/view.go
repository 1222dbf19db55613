package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/amplify-rest-cli/internal/application"
	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const lifetimeBarWidth = 24

type RenderOptions struct {
	Now time.Time
}

// Render lays out one section per profile: its API, session and token lifetime.
func Render(statuses []application.Status, opts RenderOptions) string {
	return renderView(statuses, opts, newStyles())
}

func renderView(statuses []application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Amplify REST Profiles"),
		s.header.Render(fmt.Sprintf("profiles: %d", len(statuses))),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No profiles configured. Run `amprest profile add`."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, status := range statuses {
		lines = append(lines, s.section.Render(renderProfile(status, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProfile(status application.Status, opts RenderOptions, s styles) string {
	title := s.profile.Render(string(status.Profile.Name))
	if status.Current {
		title = lipgloss.JoinHorizontal(lipgloss.Top, title, " ", s.current.Render("(current)"))
	}

	parts := []string{
		title,
		field("outputs", status.Profile.OutputsPath, s),
		field("api", apiLabel(status.API), s),
	}
	parts = append(parts, sessionLines(status, opts, s)...)
	for _, problem := range status.Problems {
		parts = append(parts, s.warning.Render("! "+problem))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func field(label, value string, s styles) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(label+":"), " ", s.detail.Render(value))
}

func apiLabel(api *domain.APIDescriptor) string {
	if api == nil {
		return "n/a"
	}
	return fmt.Sprintf("%s %s (%s)", api.Name, api.BaseURL, api.Region)
}

func sessionLines(status application.Status, opts RenderOptions, s styles) []string {
	if !status.SignedIn() {
		return []string{field("session", "signed out", s)}
	}

	session := status.Session
	identity := session.Identity
	if identity == "" {
		identity = status.Profile.Username
	}
	if identity == "" {
		identity = "unknown user"
	}

	lines := []string{field("session", identity, s)}
	if !session.HasIDToken {
		lines = append(lines, s.warning.Render("! no identity token; requests go out with an empty Authorization header"))
	}

	lines = append(lines, lifetimeLine(session, opts.Now, s))
	return lines
}

func lifetimeLine(session *application.StatusSession, now time.Time, s styles) string {
	refresh := "no refresh token"
	if session.HasRefreshToken {
		refresh = "refreshable"
	}

	if session.ExpiresAt.IsZero() {
		return field("token", "expiry unknown, "+refresh, s)
	}

	remaining := remainingPercent(session.IssuedAt, session.ExpiresAt, now)
	bar := renderProgressBar(remaining, lifetimeBarWidth, s)
	percentStyle := lipgloss.NewStyle().Foreground(interpolateColor(remaining, 0, 100))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("token:"),
		" ",
		bar,
		" ",
		percentStyle.Render(formatExpiry(session.ExpiresAt, now)),
		" ",
		s.header.Render("("+refresh+")"),
	)
}

// remainingPercent is the share of the token lifetime still ahead of now. Without an
// issue time a live token counts as full.
func remainingPercent(issuedAt, expiresAt, now time.Time) float64 {
	if now.IsZero() {
		return 100
	}
	if !expiresAt.After(now) {
		return 0
	}
	if issuedAt.IsZero() || !expiresAt.After(issuedAt) {
		return 100
	}

	total := expiresAt.Sub(issuedAt).Seconds()
	left := expiresAt.Sub(now).Seconds()
	return clampPercent(left / total * 100)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatExpiry(expiresAt, now time.Time) string {
	if now.IsZero() {
		return "expires " + expiresAt.Format(time.RFC3339)
	}
	if !expiresAt.After(now) {
		return "expired " + formatDuration(now.Sub(expiresAt)) + " ago"
	}
	return fmt.Sprintf("expires in %s (%s)", formatDuration(expiresAt.Sub(now)), clockTime(expiresAt, now))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "under a minute"
	case d < time.Hour:
		return plural(int(math.Ceil(d.Minutes())), "minute")
	case d < 24*time.Hour:
		return plural(int(math.Ceil(d.Hours())), "hour")
	default:
		return plural(int(math.Ceil(d.Hours()/24)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func clockTime(t, now time.Time) string {
	t = t.In(now.Location())
	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := t.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return t.Format("15:04")
	}
	return t.Format("15:04 on 02 Jan")
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// greyscale ramp: 240 faded, 255 bright
	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
