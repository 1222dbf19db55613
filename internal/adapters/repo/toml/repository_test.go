package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, profilesPath string) *Repository {
	t.Helper()
	config := viper.New()
	config.Set(ProfilesPathKey, profilesPath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	signedInAt := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)
	first := domain.Profile{
		Name:        "dev",
		OutputsPath: "/work/dev/amplify_outputs.json",
		Username:    "alice@example.test",
		SecretRef:   "amplify://dev/session_tokens",
		SignedInAt:  signedInAt,
	}
	second := domain.Profile{
		Name:        "prod",
		OutputsPath: "/work/prod/amplify_outputs.json",
	}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	got, err := repo.GetByName(context.Background(), first.Name)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Profile{first, second}, profiles)

	first.SecretRef = ""
	first.SignedInAt = time.Time{}
	require.NoError(t, repo.Save(context.Background(), first))

	got, err = repo.GetByName(context.Background(), first.Name)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestRepositoryCurrentProfile(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))
	ctx := context.Background()

	current, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, current)

	require.ErrorIs(t, repo.SetCurrent(ctx, "dev"), domain.ErrProfileNotFound)

	require.NoError(t, repo.Save(ctx, domain.Profile{Name: "dev", OutputsPath: "/x"}))
	require.NoError(t, repo.SetCurrent(ctx, "dev"))

	current, err = repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileName("dev"), current)

	require.NoError(t, repo.SetCurrent(ctx, ""))
	current, err = repo.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, current)
}

func TestRepositoryDeleteClearsCurrent(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.Profile{Name: "dev", OutputsPath: "/x"}))
	require.NoError(t, repo.Save(ctx, domain.Profile{Name: "prod", OutputsPath: "/y"}))
	require.NoError(t, repo.SetCurrent(ctx, "dev"))

	require.NoError(t, repo.Delete(ctx, "dev"))
	require.ErrorIs(t, repo.Delete(ctx, "dev"), domain.ErrProfileNotFound)

	current, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, current)

	profiles, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, domain.ProfileName("prod"), profiles[0].Name)
}

func TestRepositoryReadsHandWrittenFile(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(profilesPath, []byte(strings.Join([]string{
		"version = 1",
		"current = \"dev\"",
		"",
		"[[profiles]]",
		"name = \"dev\"",
		"outputs_path = \"/work/amplify_outputs.json\"",
		"",
		"[profiles.session]",
		"username = \"alice\"",
		"secret_ref = \"amplify://dev/session_tokens\"",
		"signed_in_at = \"not-a-time\"",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, profilesPath)

	profile, err := repo.GetByName(context.Background(), "dev")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "amplify://dev/session_tokens", profile.SecretRef)
	assert.True(t, profile.SignedInAt.IsZero())

	current, err := repo.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileName("dev"), current)
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewRepository(viper.New())
	require.NoError(t, err)

	err = repo.Save(context.Background(), domain.Profile{Name: "dev", OutputsPath: "/x"})
	require.NoError(t, err)

	profilesPath := filepath.Join(homeDir, ".amprest", "profiles.toml")
	assert.Equal(t, profilesPath, repo.Path())
	info, err := os.Stat(profilesPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryHonoursConfigFile(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	customPath := filepath.Join(homeDir, "elsewhere", "profiles.toml")
	require.NoError(t, os.MkdirAll(filepath.Join(homeDir, ".amprest"), 0o700))
	require.NoError(t, os.WriteFile(
		filepath.Join(homeDir, ".amprest", "config.toml"),
		[]byte("[profiles]\npath = \""+customPath+"\"\n"),
		0o600,
	))

	repo, err := NewRepository(viper.New())
	require.NoError(t, err)
	assert.Equal(t, customPath, repo.Path())
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "profiles.toml"))

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)

	_, err = repo.GetByName(context.Background(), "dev")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestRepositoryListMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(profilesPath, []byte("profiles = ["), 0o600))

	repo := newTestRepository(t, profilesPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode profiles file")
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.Profile{Name: "dev", OutputsPath: "/x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesPreserveBothProfiles(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	repoA := newTestRepository(t, profilesPath)
	repoB := newTestRepository(t, profilesPath)

	const perRepoWrites = 100
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repoA.Save(context.Background(), domain.Profile{Name: domain.ProfileName("a-" + strconv.Itoa(i)), OutputsPath: "/a"})
		}
	}()

	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repoB.Save(context.Background(), domain.Profile{Name: domain.ProfileName("b-" + strconv.Itoa(i)), OutputsPath: "/b"})
		}
	}()

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	profiles, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, profiles, perRepoWrites*2)
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	repo := newTestRepository(t, profilesPath)

	require.NoError(t, repo.Save(context.Background(), domain.Profile{Name: "dev", OutputsPath: "/x"}))

	data, err := os.ReadFile(profilesPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(profilesPath, []byte(strings.Join([]string{
		"version = 999",
		"",
		"profiles = []",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, profilesPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported profiles schema version")
}
