package session

import (
	"context"
	"errors"
	"sync"

	"github.com/emplo-ai/emplo/internal/core/domain"
	"github.com/emplo-ai/emplo/internal/credstore"
	"github.com/emplo-ai/emplo/internal/identity"
	"github.com/emplo-ai/emplo/internal/telemetry/logger"
	"github.com/emplo-ai/emplo/internal/telemetry/metric"
)

// Operation names used in logs and metrics.
const (
	opInitialize    = "initialize"
	opSignUp        = "sign_up"
	opSignIn        = "sign_in"
	opSignOut       = "sign_out"
	opUpdateProfile = "update_profile"
)

// reasonCancelled is the error state reason when initialization is abandoned.
const reasonCancelled = "initialization cancelled"

// ErrSuperseded is returned by UpdateProfile when a newer operation started
// before its result arrived. The result was discarded.
var ErrSuperseded = errors.New("session: result superseded by a newer operation")

// IdentityClient is the identity service as seen by the Store.
type IdentityClient interface {
	ResolveIdentity(ctx context.Context, token string) (domain.Identity, error)
	Register(ctx context.Context, reg domain.Registration) (identity.Ack, error)
	Authenticate(ctx context.Context, creds domain.Credentials) (identity.Grant, error)
	UpdateIdentity(ctx context.Context, token string, patch domain.IdentityPatch) (domain.IdentityPatch, error)
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the toast sink. The default drops toasts.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Store) {
		s.metrics = r
	}
}

// WithKeepTokenOnTransportFailure keeps the token when initialization cannot
// reach the identity service. The Store settles in the error state instead
// of signing the user out; the token is tried again on the next start.
func WithKeepTokenOnTransportFailure(keep bool) Option {
	return func(s *Store) {
		s.keepTokenOnTransportFailure = keep
	}
}

// Store owns the session state.
//
// All methods are safe for concurrent use. Network calls run without the
// lock held; their results are applied under the lock only if no newer
// operation has started since.
type Store struct {
	creds    credstore.Store
	client   IdentityClient
	notifier Notifier
	logger   logger.Logger
	metrics  *metric.Registry

	keepTokenOnTransportFailure bool

	mu      sync.Mutex
	state   domain.SessionState
	settled domain.SessionState // last non-loading state
	gen     uint64
	subs    map[int]chan domain.SessionState
	nextSub int

	initStarted bool
	initDone    chan struct{}
}

// New creates a Store in the uninitialized state.
func New(creds credstore.Store, client IdentityClient, opts ...Option) *Store {
	s := &Store{
		creds:    creds,
		client:   client,
		notifier: nopNotifier{},
		logger:   logger.Discard(),
		state:    domain.Uninitialized(),
		settled:  domain.Uninitialized(),
		subs:     make(map[int]chan domain.SessionState),
		initDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// State returns the current state.
func (s *Store) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that receives the current state immediately
// and every later transition. A slow reader only ever sees the newest state.
// The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan domain.SessionState, func()) {
	ch := make(chan domain.SessionState, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
}

// CurrentPhase returns the phase name of the current state.
func (s *Store) CurrentPhase() string {
	return s.State().Phase.String()
}

// Phases lists every phase name.
func (s *Store) Phases() []string {
	return []string{
		domain.PhaseUninitialized.String(),
		domain.PhaseLoading.String(),
		domain.PhaseAuthenticated.String(),
		domain.PhaseAnonymous.String(),
		domain.PhaseError.String(),
	}
}

// ============================================================================
// Initialization
// ============================================================================

// Initialize resolves the persisted token, if any. Only the first call does
// any work; later calls return the current state.
//
// Resolution failures sign the user out and are logged, never notified.
// If ctx ends first the token is kept and the Store settles in the error
// state; the next start tries the token again.
func (s *Store) Initialize(ctx context.Context) domain.SessionState {
	s.mu.Lock()
	if s.initStarted {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.initStarted = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	defer close(s.initDone)

	token, err := s.creds.Token(ctx)
	if errors.Is(err, credstore.ErrNoToken) {
		s.commit(opInitialize, gen, func(domain.SessionState) domain.SessionState {
			return domain.Anonymous()
		})
		return s.State()
	}
	if err != nil {
		s.logger.Error("failed to read token", "error", err)
		s.commit(opInitialize, gen, func(domain.SessionState) domain.SessionState {
			return domain.Failed(domain.ErrCredentialStore.Message)
		})
		return s.State()
	}

	if !s.commit(opInitialize, gen, func(domain.SessionState) domain.SessionState {
		return domain.Loading()
	}) {
		return s.State()
	}

	id, err := s.client.ResolveIdentity(ctx, token)
	s.commit(opInitialize, gen, func(domain.SessionState) domain.SessionState {
		if err == nil {
			s.cacheIdentity(ctx, id)
			return domain.Authenticated(id)
		}
		if ctx.Err() != nil {
			s.logger.Info("initialization cancelled, keeping token", "error", err)
			return domain.Failed(reasonCancelled)
		}
		if s.keepTokenOnTransportFailure && errors.Is(err, domain.ErrTransportFailure) {
			s.logger.Warn("identity service unreachable, keeping token", "error", err)
			return domain.Failed(userMessage(err))
		}
		s.logger.Info("token did not resolve, signing out", "error", err)
		if cerr := s.creds.ClearToken(ctx); cerr != nil {
			s.logger.Error("failed to clear token", "error", cerr)
			return domain.Failed(domain.ErrCredentialStore.Message)
		}
		return domain.Anonymous()
	})
	return s.State()
}

// ============================================================================
// Mutating operations
// ============================================================================

// SignUp registers a new account. It never signs the caller in: on success
// it returns true and the caller is expected to switch to SignIn.
func (s *Store) SignUp(ctx context.Context, reg domain.Registration) bool {
	if err := s.awaitInit(ctx); err != nil {
		return false
	}

	if err := reg.Validate(); err != nil {
		s.notify(failureToast("Error", err))
		return false
	}

	gen := s.begin()
	_, err := s.client.Register(ctx, reg)
	if !s.commit(opSignUp, gen, func(prior domain.SessionState) domain.SessionState { return prior }) {
		return false
	}
	if err != nil {
		s.logger.Warn("sign up failed", "email", reg.Email, "error", err)
		s.notify(failureToast("Error", err))
		return false
	}
	s.logger.Info("account created", "email", reg.Email)
	s.notify(successToast("Account created", "You can now log in."))
	return true
}

// SignIn authenticates and persists the returned token. On failure the token
// and identity are left untouched and the previous state is restored.
func (s *Store) SignIn(ctx context.Context, creds domain.Credentials) bool {
	if err := s.awaitInit(ctx); err != nil {
		return false
	}

	if err := creds.Validate(); err != nil {
		s.notify(failureToast("Login failed", err))
		return false
	}

	gen := s.begin()
	grant, err := s.client.Authenticate(ctx, creds)
	if !s.commit(opSignIn, gen, func(prior domain.SessionState) domain.SessionState {
		if err != nil {
			return prior
		}
		if perr := s.creds.SetToken(ctx, grant.Token); perr != nil {
			err = domain.ErrCredentialStore.Wrap(perr)
			return prior
		}
		s.cacheIdentity(ctx, grant.Identity)
		return domain.Authenticated(grant.Identity)
	}) {
		return false
	}
	if err != nil {
		s.logger.Warn("sign in failed", "email", creds.Email, "error", err)
		s.notify(failureToast("Login failed", err))
		return false
	}
	s.logger.Info("signed in", "user_id", grant.Identity.ID)
	s.notify(successToast("Login successful", "Welcome back!"))
	return true
}

// SignOut drops the token and the identity. It never fails: a storage error
// is logged and the state still becomes anonymous.
func (s *Store) SignOut(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	if err := s.creds.ClearToken(ctx); err != nil {
		s.logger.Error("failed to clear token on sign out", "error", err)
	}
	s.setLocked(domain.Anonymous())
	s.mu.Unlock()

	s.logger.Info("signed out")
	s.notify(successToast("Logged out", "You have been logged out."))
}

// UpdateProfile sends patch to the identity service and merges the fields
// it returns into the current identity. Failures are notified and returned.
func (s *Store) UpdateProfile(ctx context.Context, patch domain.IdentityPatch) (domain.Identity, error) {
	if err := s.awaitInit(ctx); err != nil {
		return domain.Identity{}, err
	}

	token, err := s.creds.Token(ctx)
	switch {
	case errors.Is(err, credstore.ErrNoToken):
		err = domain.ErrUnauthenticated
	case err != nil:
		err = domain.ErrCredentialStore.Wrap(err)
	default:
		s.mu.Lock()
		authenticated := s.settled.IsAuthenticated()
		s.mu.Unlock()
		if !authenticated {
			err = domain.ErrUnauthenticated
		} else {
			err = patch.Validate()
		}
	}
	if err != nil {
		s.notify(failureToast("Error updating profile", err))
		return domain.Identity{}, err
	}

	gen := s.begin()
	returned, err := s.client.UpdateIdentity(ctx, token, patch)
	var updated domain.Identity
	if !s.commit(opUpdateProfile, gen, func(prior domain.SessionState) domain.SessionState {
		if err != nil {
			return prior
		}
		updated = returned.Apply(prior.Identity)
		s.cacheIdentity(ctx, updated)
		return domain.Authenticated(updated)
	}) {
		return domain.Identity{}, ErrSuperseded
	}
	if err != nil {
		s.logger.Warn("profile update failed", "fields", patch.Fields(), "error", err)
		s.notify(failureToast("Error updating profile", err))
		return domain.Identity{}, err
	}
	s.logger.Info("profile updated", "fields", returned.Fields())
	s.notify(successToast("Profile updated", "Your profile has been successfully updated."))
	return updated, nil
}

// ============================================================================
// Internals
// ============================================================================

// awaitInit blocks while an initialization is in flight so that a mutating
// call never races the resolution of the persisted token. It returns the
// context error if ctx ends first; the caller must then give up without
// touching the state, or it would supersede the initialization.
func (s *Store) awaitInit(ctx context.Context) error {
	s.mu.Lock()
	started := s.initStarted
	s.mu.Unlock()
	if !started {
		return nil
	}
	select {
	case <-s.initDone:
		return nil
	case <-ctx.Done():
		s.logger.Debug("gave up waiting for initialization", "error", ctx.Err())
		return ctx.Err()
	}
}

// begin starts a mutating call: it takes a new generation and enters the
// loading state.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.setLocked(domain.Loading())
	return s.gen
}

// commit applies the state returned by next if gen is still the newest
// generation. next runs under the lock and receives the last settled state.
func (s *Store) commit(op string, gen uint64, next func(prior domain.SessionState) domain.SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug("discarding stale result", "op", op, "generation", gen, "current", s.gen)
		s.metrics.ObserveStaleResult(op)
		return false
	}
	s.setLocked(next(s.settled))
	return true
}

// setLocked records a transition and publishes it. The caller holds s.mu.
func (s *Store) setLocked(next domain.SessionState) {
	prev := s.state
	s.state = next
	if next.Phase != domain.PhaseLoading {
		s.settled = next
	}
	s.metrics.ObserveTransition(prev.Phase.String(), next.Phase.String())
	s.logger.Debug("session transition", "from", prev.Phase.String(), "to", next.Phase.String())

	for _, ch := range s.subs {
		// Only senders hold s.mu, so after the drain the send cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

func (s *Store) cacheIdentity(ctx context.Context, id domain.Identity) {
	if err := s.creds.SetCachedIdentity(ctx, id); err != nil {
		s.logger.Warn("failed to cache identity", "error", err)
	}
}

func (s *Store) notify(t Toast) {
	s.notifier.Notify(t)
}

// userMessage extracts the text shown in a failure toast.
func userMessage(err error) string {
	var re *identity.RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		if de.Details != "" {
			return de.Details
		}
		return de.Message
	}
	return err.Error()
}
