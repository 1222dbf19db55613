package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/bnema/amplify-rest-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName         = "config"
	configType         = "toml"
	ProfilesPathKey    = "profiles.path"
	ConfigDir          = ".amprest"
	profilesFileMode   = 0o600
	profilesDirMode    = 0o700
	profilesConfigFile = "profiles.toml"
	tempFilePattern    = ".profiles-*.toml.tmp"
)

type Repository struct {
	profilesPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ProfileRepository = (*Repository)(nil)

// NewRepository resolves the profiles file from ~/.amprest/config.toml, falling back to
// ~/.amprest/profiles.toml.
func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, ConfigDir, profilesConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, ConfigDir))
	cfg.SetDefault(ProfilesPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	profilesPath := cfg.GetString(ProfilesPathKey)
	if profilesPath == "" {
		return nil, errors.New("profiles path is empty")
	}
	profilesPath, err = normalizeProfilesPath(profilesPath)
	if err != nil {
		return nil, err
	}

	return &Repository{profilesPath: profilesPath, mu: lockForPath(profilesPath)}, nil
}

func (r *Repository) Path() string {
	return r.profilesPath
}

func (r *Repository) Save(ctx context.Context, profile domain.Profile) error {
	return r.update(ctx, func(file *fileSchema) error {
		encoded := toSchema(profile)
		for i := range file.Profiles {
			if file.Profiles[i].Name == encoded.Name {
				file.Profiles[i] = encoded
				return nil
			}
		}
		file.Profiles = append(file.Profiles, encoded)
		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, name domain.ProfileName) error {
	return r.update(ctx, func(file *fileSchema) error {
		for i := range file.Profiles {
			if file.Profiles[i].Name == string(name) {
				file.Profiles = append(file.Profiles[:i], file.Profiles[i+1:]...)
				if file.Current == string(name) {
					file.Current = ""
				}
				return nil
			}
		}
		return domain.ErrProfileNotFound
	})
}

func (r *Repository) GetByName(ctx context.Context, name domain.ProfileName) (domain.Profile, error) {
	file, err := r.read(ctx)
	if err != nil {
		return domain.Profile{}, err
	}

	for _, entry := range file.Profiles {
		if entry.Name == string(name) {
			return fromSchema(entry), nil
		}
	}

	return domain.Profile{}, domain.ErrProfileNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.Profile, error) {
	file, err := r.read(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(file.Profiles))
	for _, entry := range file.Profiles {
		profiles = append(profiles, fromSchema(entry))
	}

	return profiles, nil
}

func (r *Repository) Current(ctx context.Context) (domain.ProfileName, error) {
	file, err := r.read(ctx)
	if err != nil {
		return "", err
	}

	return domain.ProfileName(file.Current), nil
}

// SetCurrent marks name as the current profile. An empty name clears the selection.
func (r *Repository) SetCurrent(ctx context.Context, name domain.ProfileName) error {
	return r.update(ctx, func(file *fileSchema) error {
		if name == "" {
			file.Current = ""
			return nil
		}
		for _, entry := range file.Profiles {
			if entry.Name == string(name) {
				file.Current = entry.Name
				return nil
			}
		}
		return domain.ErrProfileNotFound
	})
}

func (r *Repository) read(ctx context.Context) (fileSchema, error) {
	if err := ctx.Err(); err != nil {
		return fileSchema{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readSchema()
}

func (r *Repository) update(ctx context.Context, mutate func(file *fileSchema) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	if err := mutate(&file); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.profilesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read profiles file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode profiles file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeProfilesPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve profiles path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.profilesPath), profilesDirMode); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode profiles file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.profilesPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp profiles file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp profiles file: %w", err)
	}

	if err := tempFile.Chmod(profilesFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp profiles file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp profiles file: %w", err)
	}

	if err := os.Rename(tempName, r.profilesPath); err != nil {
		return fmt.Errorf("replace profiles file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.profilesPath, profilesFileMode); err != nil {
		return fmt.Errorf("chmod profiles file: %w", err)
	}

	return nil
}

func toSchema(profile domain.Profile) profileSchema {
	return profileSchema{
		Name:        string(profile.Name),
		OutputsPath: profile.OutputsPath,
		Session: sessionSchema{
			Username:   profile.Username,
			SecretRef:  profile.SecretRef,
			SignedInAt: formatTime(profile.SignedInAt),
		},
	}
}

func fromSchema(profile profileSchema) domain.Profile {
	return domain.Profile{
		Name:        domain.ProfileName(profile.Name),
		OutputsPath: profile.OutputsPath,
		Username:    profile.Session.Username,
		SecretRef:   profile.Session.SecretRef,
		SignedInAt:  parseTime(profile.Session.SignedInAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
