package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/events"
)

// AuthAPI is the slice of the auth endpoints the store drives.
type AuthAPI interface {
	Login(ctx context.Context, dto LoginDTO) (TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (UserProfile, error)
	UpdateProfile(ctx context.Context, dto UpdateProfileDTO) (UserProfile, error)
}

// Store owns the session and writes every change through to Storage.
type Store struct {
	storage Storage
	api     AuthAPI
	bus     events.Publisher
	logger  *slog.Logger

	mu    sync.RWMutex
	state Session
}

func NewStore(storage Storage, api AuthAPI, bus events.Publisher, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		api:     api,
		bus:     bus,
		logger:  logger,
		state:   Session{IsInitialized: true},
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	if s.state.User != nil {
		u := *s.state.User
		out.User = &u
	}
	return out
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

// Hydrate loads the persisted session. With both tokens present the session
// is authenticated but not yet initialized. A storage failure leaves the
// store logged out and is returned for the caller to report.
func (s *Store) Hydrate(ctx context.Context) (Session, error) {
	token, refresh, user, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("failed to read stored session", "error", err)
		s.set(Session{IsInitialized: true})
		return s.Snapshot(), storageError(err)
	}

	if token == "" || refresh == "" {
		s.set(Session{IsInitialized: true})
		return s.Snapshot(), nil
	}

	s.set(Session{
		AccessToken:          token,
		RefreshToken:         refresh,
		User:                 user,
		IsAuthenticated:      true,
		IsInitialized:        false,
		AccessTokenExpiresAt: tokenExpiry(token),
	})
	return s.Snapshot(), nil
}

func (s *Store) load(ctx context.Context) (string, string, *UserProfile, error) {
	token, _, err := s.storage.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", "", nil, err
	}
	refresh, _, err := s.storage.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", "", nil, err
	}
	rawUser, found, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		return "", "", nil, err
	}

	var user *UserProfile
	if found && rawUser != "" {
		var u UserProfile
		if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
			s.logger.Warn("ignoring unreadable stored user", "error", err)
		} else {
			user = &u
		}
	}
	return token, refresh, user, nil
}

// Initialize confirms a hydrated session with the backend. Only an
// authentication failure clears the tokens; any other failure keeps them and
// the session stays authenticated on the strength of the local tokens.
func (s *Store) Initialize(ctx context.Context) (Session, error) {
	if s.AccessToken() == "" {
		s.update(func(st *Session) {
			st.IsAuthenticated = false
			st.IsInitialized = true
		})
		return s.Snapshot(), nil
	}

	profile, err := s.api.CurrentUser(ctx)
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeUnauthorized) {
			s.logger.Info("stored session rejected by backend", "error", err)
			if clearErr := s.clear(ctx); clearErr != nil {
				s.logger.Error("failed to clear stored session", "error", clearErr)
			}
		} else {
			s.logger.Warn("could not verify stored session", "error", err)
			s.update(func(st *Session) {
				st.IsAuthenticated = st.AccessToken != "" && st.RefreshToken != ""
				st.IsInitialized = true
			})
		}
		return s.Snapshot(), err
	}

	s.update(func(st *Session) {
		st.User = &profile
		st.IsAuthenticated = st.AccessToken != "" && st.RefreshToken != ""
		st.IsInitialized = true
	})
	if err := s.persistUser(ctx, &profile); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// Login exchanges credentials for tokens and persists the session.
func (s *Store) Login(ctx context.Context, dto LoginDTO) (Session, error) {
	if err := dto.Validate(); err != nil {
		return s.Snapshot(), err
	}

	resp, err := s.api.Login(ctx, dto)
	if err != nil {
		s.update(func(st *Session) {
			st.IsAuthenticated = false
			st.IsInitialized = true
		})
		if internal.IsType(err, internal.ErrorTypeUnauthorized) {
			return s.Snapshot(), internal.ErrInvalidCredentials.WithCause(err)
		}
		return s.Snapshot(), err
	}

	token := resp.BearerToken()
	if token == "" {
		s.update(func(st *Session) {
			st.IsAuthenticated = false
			st.IsInitialized = true
		})
		return s.Snapshot(), internal.ErrNoTokenReceived
	}

	user := resp.Profile(dto.Username)

	if err := s.storage.Set(ctx, KeyAccessToken, token); err != nil {
		return s.Snapshot(), storageError(err)
	}
	if resp.RefreshToken != "" {
		if err := s.storage.Set(ctx, KeyRefreshToken, resp.RefreshToken); err != nil {
			return s.Snapshot(), storageError(err)
		}
	}
	if err := s.persistUser(ctx, user); err != nil {
		return s.Snapshot(), err
	}

	s.set(Session{
		AccessToken:          token,
		RefreshToken:         resp.RefreshToken,
		User:                 user,
		IsAuthenticated:      resp.RefreshToken != "",
		IsInitialized:        true,
		AccessTokenExpiresAt: tokenExpiry(token),
	})

	s.logger.Info("logged in", "username", user.Username)
	s.publish(ctx, events.NewSessionEvent(events.EventTypeSessionStarted, user.Username, ""))
	return s.Snapshot(), nil
}

// Logout tells the backend best-effort and always clears local state.
func (s *Store) Logout(ctx context.Context) error {
	username := s.username()

	if s.AccessToken() != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Debug("logout notification failed", "error", err)
		}
	}

	if err := s.clear(ctx); err != nil {
		return err
	}

	s.publish(ctx, events.NewSessionEvent(events.EventTypeSessionEnded, username, "logout"))
	return nil
}

// Refresh trades the refresh token for a new access token. Any failure ends
// the session.
func (s *Store) Refresh(ctx context.Context) (string, error) {
	s.mu.RLock()
	refresh := s.state.RefreshToken
	s.mu.RUnlock()

	if refresh == "" {
		stored, _, err := s.storage.Get(ctx, KeyRefreshToken)
		if err != nil {
			s.logger.Warn("failed to read stored refresh token", "error", err)
		}
		refresh = stored
	}

	if refresh == "" {
		s.clearQuietly(ctx)
		return "", internal.ErrRefreshTokenMissing
	}

	resp, err := s.api.Refresh(ctx, refresh)
	if err != nil {
		s.clearQuietly(ctx)
		return "", internal.ErrRefreshFailed.WithCause(err)
	}

	token := resp.BearerToken()
	if token == "" {
		s.clearQuietly(ctx)
		return "", internal.ErrRefreshFailed.WithCause(internal.ErrNoTokenReceived)
	}

	if err := s.storage.Set(ctx, KeyAccessToken, token); err != nil {
		s.clearQuietly(ctx)
		return "", internal.ErrRefreshFailed.WithCause(err)
	}
	if resp.RefreshToken != "" {
		if err := s.storage.Set(ctx, KeyRefreshToken, resp.RefreshToken); err != nil {
			s.clearQuietly(ctx)
			return "", internal.ErrRefreshFailed.WithCause(err)
		}
	}
	if resp.User != nil {
		if err := s.persistUser(ctx, resp.User); err != nil {
			s.logger.Warn("failed to persist refreshed user", "error", err)
		}
	}

	s.update(func(st *Session) {
		st.AccessToken = token
		st.AccessTokenExpiresAt = tokenExpiry(token)
		if resp.RefreshToken != "" {
			st.RefreshToken = resp.RefreshToken
		} else if st.RefreshToken == "" {
			st.RefreshToken = refresh
		}
		if resp.User != nil {
			u := *resp.User
			st.User = &u
		}
		st.IsAuthenticated = true
	})

	s.publish(ctx, events.NewSessionEvent(events.EventTypeSessionRefreshed, s.username(), ""))
	return token, nil
}

// Expire clears the session after an unrecoverable authentication failure and
// announces it so the user can be sent back to the login screen.
func (s *Store) Expire(ctx context.Context, cause error) {
	username := s.username()
	s.clearQuietly(ctx)

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	s.logger.Info("session expired", "username", username, "reason", reason)
	s.publish(ctx, events.NewSessionEvent(events.EventTypeSessionExpired, username, reason))
}

// UpdateProfile saves profile changes and replaces the cached profile.
func (s *Store) UpdateProfile(ctx context.Context, dto UpdateProfileDTO) (*UserProfile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.api.UpdateProfile(ctx, dto)
	if err != nil {
		return nil, err
	}

	if err := s.persistUser(ctx, &profile); err != nil {
		return nil, err
	}
	s.update(func(st *Session) {
		st.User = &profile
	})

	out := profile
	return &out, nil
}

func (s *Store) persistUser(ctx context.Context, user *UserProfile) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return internal.NewInternalError("failed to encode user profile", err)
	}
	if err := s.storage.Set(ctx, KeyUser, string(raw)); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Store) clear(ctx context.Context) error {
	s.set(Session{IsInitialized: true})
	if err := s.storage.Delete(ctx, allKeys...); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Store) clearQuietly(ctx context.Context) {
	if err := s.clear(ctx); err != nil {
		s.logger.Error("failed to clear stored session", "error", err)
	}
}

func (s *Store) set(st Session) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Store) update(fn func(st *Session)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
}

func (s *Store) username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return ""
	}
	return s.state.User.Username
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("session event handler failed", "event_type", event.EventType(), "error", err)
	}
}

func storageError(err error) *internal.AppError {
	return &internal.AppError{
		Type:    internal.ErrorTypeInternal,
		Code:    internal.ErrCodeStorageFailure,
		Message: "session storage failed",
		Cause:   err,
	}
}
