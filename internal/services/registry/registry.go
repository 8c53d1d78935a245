package registry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vportnov/balancetrack/internal/domain"
	"github.com/vportnov/balancetrack/pkg/retrier"
)

// ErrNotInitialized is returned when a session is requested for a user
// that was never registered: inactive at startup, or activated after it.
var ErrNotInitialized = errors.New("user session not initialized")

// Session is an established exchange handle. The global session carries
// market-data credentials only; per-user sessions are authenticated.
type Session interface {
	AllPrices(ctx context.Context) (map[string]float64, error)
	AccountBalances(ctx context.Context) (map[string]domain.RawBalance, error)
}

// SessionFactory opens one session, including the server-time handshake.
type SessionFactory func(ctx context.Context, apiKey, apiSecret string) (Session, error)

// UserSource lists the account holders to register at startup.
type UserSource interface {
	ActiveUsers() ([]domain.User, error)
}

// Registry owns one exchange session per active user plus the global
// market-data session. It is populated once by Initialize and read-only
// afterwards; users activated later stay invisible until restart.
type Registry struct {
	users     UserSource
	factory   SessionFactory
	apiKey    string
	apiSecret string
	logger    *zap.Logger

	global   Session
	sessions map[string]Session
	active   []domain.User
}

// New creates an uninitialized registry. apiKey/apiSecret are the global
// market-data credentials.
func New(users UserSource, factory SessionFactory, apiKey, apiSecret string, logger *zap.Logger) *Registry {
	return &Registry{
		users:     users,
		factory:   factory,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		logger:    logger,
		sessions:  make(map[string]Session),
	}
}

// Initialize loads all active users and opens the global session plus one
// authenticated session per user. Each session open is retried with
// backoff; a session that cannot be established fails startup.
func (r *Registry) Initialize(ctx context.Context) error {
	users, err := r.users.ActiveUsers()
	if err != nil {
		return errors.Wrap(err, "load active users")
	}

	handshake := retrier.New(3, time.Second, 10*time.Second)

	err = handshake.Do(ctx, func(ctx context.Context) error {
		session, err := r.factory(ctx, r.apiKey, r.apiSecret)
		if err != nil {
			return err
		}
		r.global = session
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "open global session")
	}

	for _, user := range users {
		u := user
		err = handshake.Do(ctx, func(ctx context.Context) error {
			session, err := r.factory(ctx, u.APIKey, u.APISecret)
			if err != nil {
				return err
			}
			r.sessions[u.ID] = session
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "open session for user %s", u.ID)
		}
		r.logger.Info("exchange session ready", zap.String("user", u.ID))
	}

	r.active = users
	return nil
}

// Session returns the authenticated session of a registered user.
func (r *Registry) Session(userID string) (Session, error) {
	if userID == "" {
		return nil, errors.Wrap(ErrNotInitialized, "empty user id")
	}
	session, ok := r.sessions[userID]
	if !ok {
		return nil, errors.Wrapf(ErrNotInitialized, "user %s", userID)
	}
	return session, nil
}

// Global returns the market-data session.
func (r *Registry) Global() Session {
	return r.global
}

// ActiveUsers returns the users registered at startup.
func (r *Registry) ActiveUsers() []domain.User {
	return r.active
}
