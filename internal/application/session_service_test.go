package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/bnema/amplify-rest-cli/internal/ports"
	"github.com/bnema/amplify-rest-cli/internal/ports/mocks"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var sessionNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type sessionFixture struct {
	profiles *mocks.MockProfileRepository
	store    *mocks.MockSecretStore
	outputs  *mocks.MockOutputsSource
	identity *mocks.MockIdentityProvider
	service  *SessionService
}

func newSessionFixture(t *testing.T) sessionFixture {
	t.Helper()
	f := sessionFixture{
		profiles: mocks.NewMockProfileRepository(t),
		store:    mocks.NewMockSecretStore(t),
		outputs:  mocks.NewMockOutputsSource(t),
		identity: mocks.NewMockIdentityProvider(t),
	}
	f.service = NewSessionService(f.profiles, f.store, f.outputs, identityFactory(f.identity), fixedClock(sessionNow), logr.Discard())
	return f
}

func signedInProfile() domain.Profile {
	return domain.Profile{
		Name:        "dev",
		OutputsPath: "/work/amplify_outputs.json",
		Username:    "alice@example.test",
		SecretRef:   "amplify://dev/session_tokens",
	}
}

func TestSessionServiceRequiresCurrentProfile(t *testing.T) {
	f := newSessionFixture(t)
	f.profiles.EXPECT().Current(mockAnyContext()).Return(domain.ProfileName(""), nil)

	_, err := f.service.FetchSession(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoCurrentProfile)
}

func TestSessionServiceReturnsTokenlessSessionWhenSignedOut(t *testing.T) {
	f := newSessionFixture(t)
	profile := signedInProfile()
	profile.SecretRef = ""
	f.profiles.EXPECT().Current(mockAnyContext()).Return(domain.ProfileName("dev"), nil)
	f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(profile, nil)

	session, err := f.service.FetchSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Session{Profile: "dev"}, session)
	assert.False(t, session.SignedIn())
}

func TestSessionServiceReturnsStoredTokensWithoutRefresh(t *testing.T) {
	f := newSessionFixture(t)
	tokens := domain.Tokens{
		AccessToken:  "access",
		IDToken:      "id",
		RefreshToken: "refresh",
		ExpiresAt:    sessionNow.Add(time.Hour).Unix(),
	}
	f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(signedInProfile(), nil)
	f.store.EXPECT().Get(mockAnyContext(), "amplify://dev/session_tokens").Return(mustEncodeTokens(t, tokens), nil)

	session, err := f.service.ForProfile("dev").FetchSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session.Tokens)
	assert.Equal(t, tokens, *session.Tokens)
}

func TestSessionServiceRefreshesExpiringTokens(t *testing.T) {
	f := newSessionFixture(t)
	stale := domain.Tokens{
		AccessToken:  "old-access",
		IDToken:      "old-id",
		RefreshToken: "refresh",
		ExpiresAt:    sessionNow.Add(30 * time.Second).Unix(),
	}
	want := domain.Tokens{
		AccessToken:  "new-access",
		IDToken:      "new-id",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		ExpiresAt:    sessionNow.Add(time.Hour).Unix(),
	}

	f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(signedInProfile(), nil)
	f.store.EXPECT().Get(mockAnyContext(), "amplify://dev/session_tokens").Return(mustEncodeTokens(t, stale), nil)
	f.outputs.EXPECT().Load(mockAnyContext(), "/work/amplify_outputs.json").Return(testOutputs(), nil)
	f.identity.EXPECT().Refresh(mockAnyContext(), "refresh").Return(domain.Tokens{
		AccessToken: "new-access",
		IDToken:     "new-id",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
	}, nil)
	f.store.EXPECT().Put(mockAnyContext(), "amplify://dev/session_tokens", mustEncodeTokens(t, want)).Return(nil)

	session, err := f.service.ForProfile("dev").FetchSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session.Tokens)
	assert.Equal(t, want, *session.Tokens)

	token, ok := session.IdentityToken()
	assert.True(t, ok)
	assert.Equal(t, "new-id", token)
}

func TestSessionServiceClearsSessionWhenRefreshRejected(t *testing.T) {
	f := newSessionFixture(t)
	stale := domain.Tokens{AccessToken: "a", IDToken: "i", RefreshToken: "revoked", ExpiresAt: sessionNow.Add(-time.Minute).Unix()}
	cleared := signedInProfile()
	cleared.SecretRef = ""

	f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(signedInProfile(), nil)
	f.store.EXPECT().Get(mockAnyContext(), "amplify://dev/session_tokens").Return(mustEncodeTokens(t, stale), nil)
	f.outputs.EXPECT().Load(mockAnyContext(), "/work/amplify_outputs.json").Return(testOutputs(), nil)
	f.identity.EXPECT().Refresh(mockAnyContext(), "revoked").Return(domain.Tokens{}, fmt.Errorf("initiate auth: %w", domain.ErrRefreshRejected))
	f.profiles.EXPECT().Save(mockAnyContext(), cleared).Return(nil)
	f.store.EXPECT().Delete(mockAnyContext(), "amplify://dev/session_tokens").Return(nil)

	core, logs := observer.New(zapcore.WarnLevel)
	service := NewSessionService(f.profiles, f.store, f.outputs, identityFactory(f.identity), fixedClock(sessionNow), zapr.NewLogger(zap.New(core)))

	session, err := service.ForProfile("dev").FetchSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session.Tokens)

	entries := logs.FilterMessageSnippet("refresh token rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.EqualValues(t, "dev", entries[0].ContextMap()["profile"])
}

func TestSessionServiceExpiredWithoutRefreshTokenIsSignedOut(t *testing.T) {
	f := newSessionFixture(t)
	stale := domain.Tokens{AccessToken: "a", IDToken: "i", ExpiresAt: sessionNow.Add(-time.Minute).Unix()}

	f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(signedInProfile(), nil)
	f.store.EXPECT().Get(mockAnyContext(), "amplify://dev/session_tokens").Return(mustEncodeTokens(t, stale), nil)

	session, err := f.service.ForProfile("dev").FetchSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session.Tokens)
}

func TestSessionServicePropagatesErrors(t *testing.T) {
	storeErr := errors.New("store unavailable")
	networkErr := errors.New("connection reset")

	tests := []struct {
		name  string
		setup func(f sessionFixture)
		want  error
	}{
		{
			name: "profile lookup",
			setup: func(f sessionFixture) {
				f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(domain.Profile{}, domain.ErrProfileNotFound)
			},
			want: domain.ErrProfileNotFound,
		},
		{
			name: "secret store",
			setup: func(f sessionFixture) {
				f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(signedInProfile(), nil)
				f.store.EXPECT().Get(mockAnyContext(), "amplify://dev/session_tokens").Return("", storeErr)
			},
			want: storeErr,
		},
		{
			name: "refresh transport",
			setup: func(f sessionFixture) {
				stale := domain.Tokens{AccessToken: "a", RefreshToken: "r", ExpiresAt: sessionNow.Unix()}
				f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(signedInProfile(), nil)
				f.store.EXPECT().Get(mockAnyContext(), "amplify://dev/session_tokens").Return(`{"access_token":"a","refresh_token":"r","expires_at":`+fmt.Sprint(stale.ExpiresAt)+`}`, nil)
				f.outputs.EXPECT().Load(mockAnyContext(), "/work/amplify_outputs.json").Return(testOutputs(), nil)
				f.identity.EXPECT().Refresh(mockAnyContext(), "r").Return(domain.Tokens{}, networkErr)
			},
			want: networkErr,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newSessionFixture(t)
			tc.setup(f)

			_, err := f.service.ForProfile("dev").FetchSession(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSessionServiceRejectsCorruptSecret(t *testing.T) {
	f := newSessionFixture(t)
	f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(signedInProfile(), nil)
	f.store.EXPECT().Get(mockAnyContext(), "amplify://dev/session_tokens").Return("not-json", nil)

	_, err := f.service.ForProfile("dev").FetchSession(context.Background())
	assert.Error(t, err)
}

func TestSessionServiceFeedsHeaderProvider(t *testing.T) {
	f := newSessionFixture(t)
	tokens := domain.Tokens{AccessToken: "a", IDToken: "id-token", ExpiresAt: sessionNow.Add(time.Hour).Unix()}
	f.profiles.EXPECT().Current(mockAnyContext()).Return(domain.ProfileName("dev"), nil)
	f.profiles.EXPECT().GetByName(mockAnyContext(), domain.ProfileName("dev")).Return(signedInProfile(), nil)
	f.store.EXPECT().Get(mockAnyContext(), mock.AnythingOfType("string")).Return(mustEncodeTokens(t, tokens), nil)

	var provider ports.SessionProvider = f.service
	headers, err := NewHeaderProvider(provider).Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "id-token"}, headers)
}
