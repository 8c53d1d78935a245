package registry

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vportnov/balancetrack/internal/domain"
)

type fakeSession struct {
	key string
}

func (f *fakeSession) AllPrices(ctx context.Context) (map[string]float64, error) {
	return nil, nil
}

func (f *fakeSession) AccountBalances(ctx context.Context) (map[string]domain.RawBalance, error) {
	return nil, nil
}

type fakeUsers struct {
	users []domain.User
	err   error
}

func (f *fakeUsers) ActiveUsers() ([]domain.User, error) {
	return f.users, f.err
}

func fakeFactory(ctx context.Context, apiKey, apiSecret string) (Session, error) {
	return &fakeSession{key: apiKey}, nil
}

func TestInitializeOpensGlobalAndUserSessions(t *testing.T) {
	users := &fakeUsers{users: []domain.User{
		{ID: "u1", APIKey: "k1", APISecret: "s1", Active: true},
		{ID: "u2", APIKey: "k2", APISecret: "s2", Active: true},
	}}

	reg := New(users, fakeFactory, "gk", "gs", zap.NewNop())
	require.NoError(t, reg.Initialize(context.Background()))

	global, ok := reg.Global().(*fakeSession)
	require.True(t, ok)
	assert.Equal(t, "gk", global.key)

	session, err := reg.Session("u1")
	require.NoError(t, err)
	assert.Equal(t, "k1", session.(*fakeSession).key)

	assert.Len(t, reg.ActiveUsers(), 2)
}

func TestSessionUnknownUser(t *testing.T) {
	reg := New(&fakeUsers{}, fakeFactory, "gk", "gs", zap.NewNop())
	require.NoError(t, reg.Initialize(context.Background()))

	_, err := reg.Session("ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotInitialized))

	_, err = reg.Session("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotInitialized))
}

func TestInitializeFailsWhenUserStoreFails(t *testing.T) {
	reg := New(&fakeUsers{err: errors.New("file missing")}, fakeFactory, "gk", "gs", zap.NewNop())
	require.Error(t, reg.Initialize(context.Background()))
}

func TestInitializeRetriesHandshake(t *testing.T) {
	attempts := 0
	flaky := func(ctx context.Context, apiKey, apiSecret string) (Session, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("clock drift")
		}
		return &fakeSession{key: apiKey}, nil
	}

	reg := New(&fakeUsers{}, flaky, "gk", "gs", zap.NewNop())
	require.NoError(t, reg.Initialize(context.Background()))
	assert.Equal(t, 2, attempts)
}
