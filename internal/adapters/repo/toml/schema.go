package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Current  string          `toml:"current,omitempty"`
	Profiles []profileSchema `toml:"profiles"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profiles schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type profileSchema struct {
	Name        string        `toml:"name"`
	OutputsPath string        `toml:"outputs_path"`
	Session     sessionSchema `toml:"session,omitempty"`
}

type sessionSchema struct {
	Username   string `toml:"username,omitempty"`
	SecretRef  string `toml:"secret_ref,omitempty"`
	SignedInAt string `toml:"signed_in_at,omitempty"`
}
