package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type ProfileName string

type Profile struct {
	Name        ProfileName
	OutputsPath string
	Username    string
	// SecretRef points to a secret-store entry, typically in "amplify://profile/name" form.
	SecretRef  string
	SignedInAt time.Time
}

var profileNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func (p Profile) Validate() error {
	if strings.TrimSpace(string(p.Name)) == "" {
		return fmt.Errorf("name is required")
	}
	if !profileNamePattern.MatchString(string(p.Name)) {
		return fmt.Errorf("invalid profile name %q", p.Name)
	}
	if strings.TrimSpace(p.OutputsPath) == "" {
		return fmt.Errorf("outputs path is required")
	}

	return nil
}

const SecretRefScheme = "amplify://"

func (p Profile) SessionSecretKey() string {
	return fmt.Sprintf("%s%s/session_tokens", SecretRefScheme, p.Name)
}

// SplitSecretRef splits an "amplify://<profile>/<name>" reference. Both segments must be
// valid profile-style names so the result is safe to use as a path.
func SplitSecretRef(ref string) (profile string, name string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(ref), SecretRefScheme)
	if !ok {
		return "", "", fmt.Errorf("secret reference %q: missing %s scheme", ref, SecretRefScheme)
	}

	profile, name, ok = strings.Cut(rest, "/")
	if !ok || !profileNamePattern.MatchString(profile) || !profileNamePattern.MatchString(name) {
		return "", "", fmt.Errorf("invalid secret reference %q", ref)
	}

	return profile, name, nil
}
