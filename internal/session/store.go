// Package session owns the current credential and identity. It is the only
// component allowed to write the credential; the request gateway reads it
// through the CredentialSource interface on every call, and the navigation
// guard projects IsAuthenticated from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/docvault/docvault-go/internal/api"
	"github.com/docvault/docvault-go/internal/credfile"
)

// ErrBadCredentials is returned by Login when the service rejects the
// username/password pair. Recoverable; the user retries.
var ErrBadCredentials = errors.New("session: invalid username or password")

// ErrNotLoggedIn is returned by operations that need a session when none exists.
var ErrNotLoggedIn = errors.New("session: not logged in")

// AuthAPI is the slice of the gateway the store calls. Satisfied by
// *api.Client; narrowed to an interface so tests stub it without HTTP.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (string, *api.User, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.User, error)
	Me(ctx context.Context) (*api.User, error)
}

// Store holds the session state: the bearer credential and the identity it
// belongs to. All access goes through the mutex because the gateway reads
// the credential concurrently with login/logout writes.
type Store struct {
	mu         sync.RWMutex
	credential string
	identity   *api.User

	credPath string
	authAPI  AuthAPI
	logger   *slog.Logger
}

// NewStore creates a session store and resumes any persisted credential from
// credPath. The slot is read exactly once, here; later changes to the file
// by other processes are not observed. A corrupt slot is an error; a missing
// slot is simply the logged-out state.
func NewStore(credPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	token, meta, err := credfile.Load(credPath)
	if err != nil {
		return nil, fmt.Errorf("session: resuming credential: %w", err)
	}

	s := &Store{
		credential: token,
		credPath:   credPath,
		logger:     logger,
	}

	if token != "" {
		logger.Info("resumed persisted session",
			slog.String("path", credPath),
			slog.String("username", meta["username"]),
		)
	}

	return s, nil
}

// Bind attaches the gateway to the store. The store and the gateway depend
// on each other (the gateway reads the credential, the store issues auth
// calls), so the composition root constructs both and then binds:
//
//	store, _ := session.NewStore(path, logger)
//	client := api.NewClient(url, nil, store, logger)
//	client.OnUnauthorized(store.ForceLogout)
//	store.Bind(client)
func (s *Store) Bind(a AuthAPI) {
	s.authAPI = a
}

// Credential implements api.CredentialSource. Empty means logged out.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.credential
}

// Identity returns the cached identity, or nil when logged out or not yet
// fetched this process.
func (s *Store) Identity() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return nil
	}

	u := *s.identity

	return &u
}

// IsAuthenticated reports whether a credential is held. It is a pure
// projection of the credential; never independently settable.
func (s *Store) IsAuthenticated() bool {
	return s.Credential() != ""
}

// Login authenticates with the service and, on success, atomically installs
// the new credential and identity and persists the credential. Bad
// credentials surface as ErrBadCredentials with no change to any existing
// session state.
func (s *Store) Login(ctx context.Context, username, password string) (*api.User, error) {
	token, user, err := s.authAPI.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %w", ErrBadCredentials, err)
		}

		return nil, err
	}

	// Persist before installing so a failed write leaves the store fully
	// logged out rather than holding a credential that won't survive restart.
	meta := map[string]string{
		"username": user.Username,
		"email":    user.Email,
	}
	if err := credfile.Save(s.credPath, token, meta); err != nil {
		return nil, fmt.Errorf("session: persisting credential: %w", err)
	}

	s.mu.Lock()
	s.credential = token
	s.identity = user
	s.mu.Unlock()

	s.logger.Info("login successful",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Register creates a new account. Local session state is untouched; the
// new user still has to log in.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) (*api.User, error) {
	return s.authAPI.Register(ctx, req)
}

// Whoami re-fetches the identity for the held credential. Any failure,
// not just 401, logs the session out before re-raising, so the store never
// holds an identity inconsistent with an unusable credential.
func (s *Store) Whoami(ctx context.Context) (*api.User, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}

	user, err := s.authAPI.Me(ctx)
	if err != nil {
		s.logger.Warn("identity fetch failed, logging out", slog.String("error", err.Error()))

		if logoutErr := s.Logout(); logoutErr != nil {
			s.logger.Warn("logout after failed whoami", slog.String("error", logoutErr.Error()))
		}

		return nil, err
	}

	s.mu.Lock()
	s.identity = user
	s.mu.Unlock()

	return user, nil
}

// Logout clears the credential and identity and removes the persisted slot.
// Idempotent and purely local; no network call. The in-memory state is
// cleared even when removing the slot fails.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.credential = ""
	s.identity = nil
	s.mu.Unlock()

	if err := credfile.Remove(s.credPath); err != nil {
		return err
	}

	s.logger.Info("logged out")

	return nil
}

// ForceLogout is the gateway's unauthorized hook: the service rejected the
// credential mid-session. It never fails; a slot-removal error is logged
// and swallowed because by the time this runs the credential is already
// useless. The hook completes before the gateway returns its error, so no
// caller observes a stale logged-in state.
func (s *Store) ForceLogout() {
	s.logger.Warn("credential rejected by service, forcing logout")

	if err := s.Logout(); err != nil {
		s.logger.Warn("removing persisted credential", slog.String("error", err.Error()))
	}
}
