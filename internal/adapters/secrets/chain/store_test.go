package chain

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	filestore "github.com/bnema/amplify-rest-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/amplify-rest-cli/internal/adapters/secrets/pass"
	"github.com/bnema/amplify-rest-cli/internal/domain"
	portmocks "github.com/bnema/amplify-rest-cli/internal/ports/mocks"
)

const sessionKey = "amplify://dev/session_tokens"

func newMockChain(t *testing.T) (*Store, *portmocks.MockSecretStore, *portmocks.MockSecretStore) {
	t.Helper()
	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback, logr.Discard())
	require.NoError(t, err)
	return store, primary, fallback
}

func TestNewStoreRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore(nil, portmocks.NewMockSecretStore(t), logr.Discard())
	assert.Error(t, err)
	_, err = NewStore(portmocks.NewMockSecretStore(t), nil, logr.Discard())
	assert.Error(t, err)
}

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newMockChain(t)
	primary.EXPECT().Get(mock.Anything, sessionKey).Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), sessionKey)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newMockChain(t)
	primary.EXPECT().Get(mock.Anything, sessionKey).Return("", passstore.ErrUnavailable).Once()
	fallback.EXPECT().Get(mock.Anything, sessionKey).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), sessionKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReportsNotFoundFromBothBackends(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newMockChain(t)
	primary.EXPECT().Get(mock.Anything, sessionKey).Return("", domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, sessionKey).Return("", errors.New("file failed")).Once()

	_, err := store.Get(context.Background(), sessionKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "file failed")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newMockChain(t)
	primary.EXPECT().Put(mock.Anything, sessionKey, "secret").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, sessionKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), sessionKey, "secret"))
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newMockChain(t)
	primary.EXPECT().Put(mock.Anything, sessionKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), sessionKey, "secret"))
}

func TestStoreDeleteClearsBothBackends(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newMockChain(t)
	primary.EXPECT().Delete(mock.Anything, sessionKey).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, sessionKey).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), sessionKey))
}

func TestStoreDeleteToleratesMissingPass(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newMockChain(t)
	primary.EXPECT().Delete(mock.Anything, sessionKey).Return(passstore.ErrUnavailable).Once()
	fallback.EXPECT().Delete(mock.Anything, sessionKey).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), sessionKey))
}

func TestStoreDeleteReportsPrimaryFailure(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newMockChain(t)
	primaryErr := errors.New("gpg agent locked")
	primary.EXPECT().Delete(mock.Anything, sessionKey).Return(primaryErr).Once()
	fallback.EXPECT().Delete(mock.Anything, sessionKey).Return(nil).Once()

	err := store.Delete(context.Background(), sessionKey)
	assert.ErrorIs(t, err, primaryErr)
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	store, primary, _ := newMockChain(t)
	primary.EXPECT().Get(mock.Anything, sessionKey).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), sessionKey)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStoreWithFileFallbackRoundTrip(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	primary.EXPECT().Put(mock.Anything, sessionKey, "tokens").Return(passstore.ErrUnavailable)
	primary.EXPECT().Get(mock.Anything, sessionKey).Return("", passstore.ErrUnavailable)

	store, err := NewStore(primary, filestore.NewStore(filepath.Join(t.TempDir(), "secrets")), logr.Discard())
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), sessionKey, "tokens"))
	value, err := store.Get(context.Background(), sessionKey)
	require.NoError(t, err)
	assert.Equal(t, "tokens", value)
}
