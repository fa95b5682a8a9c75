// Package auth holds the session: at most one user record, kept in memory
// and mirrored to durable storage under a single key.
//
// Authentication is simulated. Credentials go through a CredentialVerifier;
// the shipped SimulatedVerifier accepts anything non-empty.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fitdex/fitdex/pkg/bootstrap"
	"github.com/fitdex/fitdex/pkg/fault"
	"github.com/fitdex/fitdex/pkg/notify"
	"github.com/fitdex/fitdex/pkg/serial"
	"github.com/fitdex/fitdex/pkg/storage"
	"github.com/fitdex/fitdex/pkg/telemetry"
)

// Key is the storage key holding the JSON user record.
const Key = "@user_data"

const storeName = "auth"

// EventKind names a session change.
type EventKind string

const (
	EventHydrated       EventKind = "hydrated"
	EventSignedIn       EventKind = "signed_in"
	EventSignedUp       EventKind = "signed_up"
	EventSignedOut      EventKind = "signed_out"
	EventProfileUpdated EventKind = "profile_updated"
	EventFailed         EventKind = "failed"
)

// Event is published after each committed change, and after a failed operation.
type Event struct {
	Kind  EventKind
	State State
	// User is a copy of the record after the event, nil when signed out.
	User *User
	// Err is set for EventFailed.
	Err error
}

// Store is the session store. All methods are safe for concurrent use.
type Store struct {
	storage  storage.Store
	verifier CredentialVerifier
	validate *validator.Validate
	queue    *serial.Queue
	hub      *notify.Hub[Event]
	logger   zerolog.Logger
	tel      *telemetry.Telemetry

	mu      sync.RWMutex
	user    *User
	state   State
	loading bool
	err     error
	status  bootstrap.Status
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The store logs under component=auth.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger.With().Str("component", storeName).Logger()
	}
}

// WithTelemetry enables metrics and tracing for store operations.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(s *Store) { s.tel = tel }
}

// WithVerifier replaces the SimulatedVerifier.
func WithVerifier(v CredentialVerifier) Option {
	return func(s *Store) { s.verifier = v }
}

// New creates a store in StateUnknown with loading set. Call Hydrate to
// restore a saved session.
func New(kv storage.Store, opts ...Option) *Store {
	s := &Store{
		storage:  kv,
		verifier: SimulatedVerifier{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		hub:      notify.NewHub[Event](),
		logger:   zerolog.Nop(),
		state:    StateUnknown,
		loading:  true,
		status:   bootstrap.StatusPending,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = serial.New(serial.WithDepthFunc(func(depth int) {
		s.tel.MetricsOrNil().SetQueueDepth(storeName, depth)
	}))
	return s
}

// Name identifies the store to the initializer.
func (s *Store) Name() string { return storeName }

// Hydrate restores the saved session. A missing, unreadable or malformed
// record leaves the store signed out; the failure is logged and reflected
// in the returned status, never returned as an error.
func (s *Store) Hydrate(ctx context.Context) bootstrap.Status {
	status := bootstrap.StatusReadFailed

	_ = s.tel.TrackOperation(ctx, storeName, "hydrate", func(ctx context.Context) (string, error) {
		err := s.queue.Do(ctx, func(ctx context.Context) error {
			s.mu.Lock()
			s.loading = true
			s.mu.Unlock()

			user, st := s.load(ctx)
			status = st

			event := s.commit(user, func() { s.status = st })
			event.Kind = EventHydrated
			s.hub.Publish(event)
			return nil
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("Hydration abandoned")
			s.mu.Lock()
			if s.state == StateUnknown {
				s.state = StateSignedOut
			}
			s.loading = false
			s.status = status
			s.mu.Unlock()
		}
		return telemetry.OutcomeOK, nil
	})

	s.tel.MetricsOrNil().RecordHydration(storeName, status.String())
	return status
}

func (s *Store) load(ctx context.Context) (*User, bootstrap.Status) {
	raw, found, err := s.storage.Get(ctx, Key)
	if err != nil {
		s.logger.Error().Err(fault.NewStorageReadError("auth.hydrate", Key, err)).
			Msg("Failed to load user, starting signed out")
		return nil, bootstrap.StatusReadFailed
	}
	if !found {
		return nil, bootstrap.StatusEmpty
	}

	var user *User
	if err := json.Unmarshal(raw, &user); err != nil {
		s.logger.Error().Err(err).Str("key", Key).Msg("Saved user is malformed, starting signed out")
		return nil, bootstrap.StatusMalformed
	}
	if user == nil {
		return nil, bootstrap.StatusEmpty
	}
	s.logger.Debug().Str("user_id", user.ID).Msg("User loaded")
	return user, bootstrap.StatusLoaded
}

// commit installs user (nil for signed out), clears loading, and returns
// the resulting event payload. extra runs under the state lock.
func (s *Store) commit(user *User, extra func()) Event {
	s.mu.Lock()
	s.user = user
	s.loading = false
	if user != nil {
		s.state = StateSignedIn
	} else {
		s.state = StateSignedOut
	}
	if extra != nil {
		extra()
	}
	event := Event{State: s.state, User: s.userCopyLocked()}
	s.mu.Unlock()

	s.tel.MetricsOrNil().SetSignedIn(user != nil)
	return event
}

// SignIn verifies the credentials and starts a session. Empty email or
// password is rejected without touching storage.
func (s *Store) SignIn(ctx context.Context, email, password string) (User, error) {
	creds := Credentials{Email: strings.TrimSpace(email), Password: password}
	return s.establish(ctx, "sign_in", EventSignedIn, creds, func(ctx context.Context) (User, error) {
		return s.verifier.SignIn(ctx, creds)
	})
}

// SignUp registers a user and starts a session. There is no duplicate
// account detection.
func (s *Store) SignUp(ctx context.Context, name, email, password string) (User, error) {
	reg := Registration{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	return s.establish(ctx, "sign_up", EventSignedUp, reg, func(ctx context.Context) (User, error) {
		return s.verifier.SignUp(ctx, reg)
	})
}

func (s *Store) establish(ctx context.Context, operation string, kind EventKind, input any, verify func(context.Context) (User, error)) (User, error) {
	op := "auth." + operation
	if err := s.validateInput(op, input); err != nil {
		s.fail(err)
		return User{}, err
	}

	var result User
	err := s.tel.TrackOperation(ctx, storeName, operation, func(ctx context.Context) (string, error) {
		return telemetry.OutcomeOK, s.queue.Do(ctx, func(ctx context.Context) error {
			s.begin()

			user, err := verify(ctx)
			if err != nil {
				s.endLoading()
				return fault.NewAuthError(op, "credentials rejected", err).WithCode(fault.CodeVerify)
			}

			if err := s.persist(ctx, op, user); err != nil {
				s.endLoading()
				return fault.NewAuthError(op, "failed to save session", err).WithCode(fault.CodePersist)
			}

			event := s.commit(&user, nil)
			event.Kind = kind
			s.hub.Publish(event)

			result = user.clone()
			return nil
		})
	})
	if err != nil {
		s.fail(err)
		return User{}, err
	}

	s.logger.Info().Str("user_id", result.ID).Str("operation", operation).Msg("Session started")
	return result, nil
}

// SignOut removes the saved record, then clears the session. If removal
// fails the session is kept.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.tel.TrackOperation(ctx, storeName, "sign_out", func(ctx context.Context) (string, error) {
		return telemetry.OutcomeOK, s.queue.Do(ctx, func(ctx context.Context) error {
			s.begin()

			if err := s.storage.Remove(ctx, Key); err != nil {
				s.endLoading()
				return fault.NewAuthError("auth.sign_out", "failed to clear session",
					fault.NewStorageWriteError("auth.sign_out", Key, err)).WithCode(fault.CodePersist)
			}

			event := s.commit(nil, nil)
			event.Kind = EventSignedOut
			s.hub.Publish(event)
			return nil
		})
	})
	if err != nil {
		s.fail(err)
		return err
	}

	s.logger.Info().Msg("Signed out")
	return nil
}

// UpdateProfile merges update into the current record, persists it, then
// commits. It fails with a NOT_SIGNED_IN auth error, without writing,
// when nobody is signed in.
func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error) {
	const op = "auth.update_profile"

	var result User
	err := s.tel.TrackOperation(ctx, storeName, "update_profile", func(ctx context.Context) (string, error) {
		outcome := telemetry.OutcomeOK
		err := s.queue.Do(ctx, func(ctx context.Context) error {
			s.clearErr()

			s.mu.RLock()
			current := s.userCopyLocked()
			s.mu.RUnlock()

			if current == nil {
				return fault.NewAuthError(op, "not signed in", nil).WithCode(fault.CodeNotSignedIn)
			}
			if update.Empty() {
				outcome = telemetry.OutcomeNoop
				result = *current
				return nil
			}

			s.begin()
			merged := update.apply(*current)
			if err := s.persist(ctx, op, merged); err != nil {
				s.endLoading()
				return fault.NewAuthError(op, "failed to save profile", err).WithCode(fault.CodePersist)
			}

			event := s.commit(&merged, nil)
			event.Kind = EventProfileUpdated
			s.hub.Publish(event)

			result = merged.clone()
			return nil
		})
		return outcome, err
	})
	if err != nil {
		s.fail(err)
		return User{}, err
	}
	return result, nil
}

func (s *Store) persist(ctx context.Context, op string, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fault.NewStorageWriteError(op, Key, err)
	}
	if err := s.storage.Set(ctx, Key, raw); err != nil {
		return fault.NewStorageWriteError(op, Key, err)
	}
	return nil
}

func (s *Store) validateInput(op string, input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	msg := "invalid input"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		msg = strings.Join(fields, ", ") + " required"
	}

	return fault.NewAuthError(op, msg, fault.NewValidationError(op, msg, err)).WithCode(fault.CodeValidation)
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userCopyLocked()
}

func (s *Store) userCopyLocked() *User {
	if s.user == nil {
		return nil
	}
	u := s.user.clone()
	return &u
}

// State returns the session lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether a user record is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Loading reports whether hydration or a session change is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last failed operation, if any.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// ClearError forgets the last error.
func (s *Store) ClearError() {
	s.clearErr()
}

// Status returns the outcome of the last hydration.
func (s *Store) Status() bootstrap.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Subscribe registers fn for session notifications and returns a cancel
// function. fn runs while the store is still busy with the change, so it
// must not call Hydrate or any mutating operation.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	return s.hub.Subscribe(fn)
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()
}

func (s *Store) endLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) clearErr() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	s.err = err
	event := Event{Kind: EventFailed, State: s.state, User: s.userCopyLocked(), Err: err}
	s.mu.Unlock()

	s.logger.Error().Err(err).Msg("Auth operation failed")
	s.hub.Publish(event)
}
