package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	domainauth "github.com/medplus/medplus-client/internal/domain/auth"
	"github.com/medplus/medplus-client/internal/domain/model"
	apperrors "github.com/medplus/medplus-client/internal/errors"
	"github.com/medplus/medplus-client/internal/gateway"
	obserrors "github.com/medplus/medplus-client/internal/observability/errors"
	"github.com/medplus/medplus-client/internal/observability/notify"
	"github.com/medplus/medplus-client/internal/observability/statsd"
	"github.com/medplus/medplus-client/internal/ports"
)

// User-visible notices raised by the session lifecycle.
const (
	NoticeLoginSucceeded = "Login realizado com sucesso!"
	NoticeSessionEnded   = "Sessão encerrada."
	NoticeSessionExpired = "Sessão expirada. Faça login novamente."
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/registrar/paciente"
	noticeSource = "session"
)

var errNotInitialized = errors.New("session not initialized")

// TokenDecoder derives claims and identity from a raw credential.
type TokenDecoder interface {
	Decode(token string) (domainauth.Claims, domainauth.Identity, error)
}

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store    ports.TokenStore
	Decoder  TokenDecoder
	Gateway  gateway.Requester
	Verifier ports.SignatureVerifier // optional
	Notifier notify.Sink             // optional
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// SessionManager owns the session: it is the only writer of the token store
// and the only place an identity is created or destroyed.
type SessionManager struct {
	store    ports.TokenStore
	decoder  TokenDecoder
	gw       gateway.Requester
	verifier ports.SignatureVerifier
	notifier notify.Sink
	logger   *slog.Logger
	metrics  statsd.Sink

	// opMu serializes user-triggered transitions so they apply in issue order.
	opMu sync.Mutex

	mu         sync.RWMutex
	state      domainauth.State
	credential string
	identity   domainauth.Identity
	subs       map[int]func(domainauth.Identity)
	nextSub    int

	ready     chan struct{}
	readyOnce sync.Once
}

// NewSessionManager constructs a manager in the Initializing state.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Store == nil {
		return nil, errors.New("token store is required")
	}
	if opts.Decoder == nil {
		return nil, errors.New("decoder is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = (*statsd.Client)(nil)
	}
	return &SessionManager{
		store:    opts.Store,
		decoder:  opts.Decoder,
		gw:       opts.Gateway,
		verifier: opts.Verifier,
		notifier: opts.Notifier,
		logger:   logger.With("component", "session"),
		metrics:  metrics,
		state:    domainauth.StateInitializing,
		identity: domainauth.Anonymous(),
		subs:     map[int]func(domainauth.Identity){},
		ready:    make(chan struct{}),
	}, nil
}

// Init restores the session from the token store. A stored credential that
// fails validation is torn down here and never surfaces as an error; only
// storage failures are returned. Calling Init again is a no-op.
func (m *SessionManager) Init(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.State() != domainauth.StateInitializing {
		return nil
	}
	defer m.markReady()

	token, ok, err := m.store.Get(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "read stored credential", "error", err)
		m.setAnonymous()
		return fmt.Errorf("read stored credential: %w", err)
	}
	if !ok {
		m.logger.DebugContext(ctx, "no stored credential")
		m.setAnonymous()
		return nil
	}

	identity, err := m.validate(ctx, token)
	if err != nil {
		m.logger.WarnContext(ctx, "stored credential rejected", "error", err)
		clearErr := m.teardown(ctx, "startup_"+obserrors.Classify(err))
		m.notice(ctx, notify.LevelWarn, NoticeSessionExpired)
		return clearErr
	}

	m.setAuthenticated(token, identity)
	m.logger.InfoContext(ctx, "session restored", "subject", identity.SubjectEmail)
	return nil
}

// Login exchanges email and secret for a credential, stores it and becomes Authenticated.
// On any failure the current session is left as it was.
func (m *SessionManager) Login(ctx context.Context, email, secret string) (domainauth.Identity, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.State() == domainauth.StateInitializing {
		return domainauth.Anonymous(), errNotInitialized
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return domainauth.Anonymous(), apperrors.ValidationField("email", "email is required")
	}
	if secret == "" {
		return domainauth.Anonymous(), apperrors.ValidationField("senha", "password is required")
	}

	var out model.LoginResponse
	err := gateway.DoJSON(ctx, m.gw, gateway.Request{
		Method:    http.MethodPost,
		Path:      loginPath,
		Body:      model.LoginRequest{Email: email, Senha: secret},
		Anonymous: true,
	}, &out)
	if err != nil {
		m.countLogin(err)
		m.logger.InfoContext(ctx, "login failed", "subject", email, "error", err)
		return domainauth.Anonymous(), err
	}
	if out.Token == "" {
		err = apperrors.Internalf("login response carried no token")
		m.countLogin(err)
		return domainauth.Anonymous(), err
	}

	identity, err := m.validate(ctx, out.Token)
	if err != nil {
		m.countLogin(err)
		m.logger.WarnContext(ctx, "issued credential rejected", "subject", email, "error", err)
		return domainauth.Anonymous(), err
	}
	if err := m.store.Set(ctx, out.Token); err != nil {
		wrapped := apperrors.Wrap(err, apperrors.ErrCodeInternal, "store credential")
		m.countLogin(wrapped)
		return domainauth.Anonymous(), wrapped
	}

	m.setAuthenticated(out.Token, identity)
	m.countLogin(nil)
	m.logger.InfoContext(ctx, "login succeeded", "subject", identity.SubjectEmail, "user_id", identity.UserID)
	m.notice(ctx, notify.LevelSuccess, NoticeLoginSucceeded)
	return identity, nil
}

// RegisterPatient creates a patient account. It never changes the session.
func (m *SessionManager) RegisterPatient(ctx context.Context, reg model.PatientRegistration) (model.Patient, error) {
	reg = reg.Normalize()
	switch {
	case strings.TrimSpace(reg.Nome) == "":
		return model.Patient{}, apperrors.ValidationField("nome", "name is required")
	case strings.TrimSpace(reg.Email) == "":
		return model.Patient{}, apperrors.ValidationField("email", "email is required")
	case reg.Senha == "":
		return model.Patient{}, apperrors.ValidationField("senha", "password is required")
	case len(reg.CPF) != 11:
		return model.Patient{}, apperrors.ValidationField("cpf", "CPF must have 11 digits")
	}

	var patient model.Patient
	err := gateway.DoJSON(ctx, m.gw, gateway.Request{
		Method:    http.MethodPost,
		Path:      registerPath,
		Body:      reg,
		Anonymous: true,
	}, &patient)
	if err != nil {
		return model.Patient{}, err
	}
	m.logger.InfoContext(ctx, "patient registered", "subject", reg.Email)
	return patient, nil
}

// Logout clears the stored credential and resets the identity. It is idempotent;
// the "session ended" notice is raised only when a session existed.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	hadSession := m.credential != ""
	m.mu.RUnlock()

	err := m.teardown(ctx, "logout")
	if hadSession {
		m.logger.InfoContext(ctx, "session ended")
		m.notice(ctx, notify.LevelInfo, NoticeSessionEnded)
	}
	return err
}

// HandleError observes a failure from any API call. An auth rejection while
// Authenticated moves the session through Expiring to Anonymous and raises a
// single "session expired" notice. err is always returned unchanged.
//
// It takes the transition lock, so no transition may issue a non-anonymous
// gateway call while holding it.
func (m *SessionManager) HandleError(ctx context.Context, err error) error {
	return m.expire(ctx, err, func(string) bool { return true })
}

// HandleRejection is HandleError for a request that carried credential. The
// session is torn down only while credential is still the current one; a late
// rejection of a replaced credential leaves the new session alone.
func (m *SessionManager) HandleRejection(ctx context.Context, credential string, err error) error {
	return m.expire(ctx, err, func(current string) bool {
		return credential != "" && credential == current
	})
}

func (m *SessionManager) expire(ctx context.Context, err error, owns func(current string) bool) error {
	if !apperrors.IsAuth(err) {
		return err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.state != domainauth.StateAuthenticated {
		m.mu.Unlock()
		return err
	}
	if !owns(m.credential) {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "ignoring rejection of a replaced credential", "status", apperrors.GetStatus(err))
		return err
	}
	m.state = domainauth.StateExpiring
	m.mu.Unlock()

	m.logger.WarnContext(ctx, "credential rejected by API", "status", apperrors.GetStatus(err))
	if clearErr := m.teardown(ctx, "expired"); clearErr != nil {
		m.logger.ErrorContext(ctx, "teardown after expiry", "error", clearErr)
	}
	m.notice(ctx, notify.LevelWarn, NoticeSessionExpired)
	return err
}

// Snapshot returns the current session by value.
func (m *SessionManager) Snapshot() domainauth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domainauth.Session{
		State:      m.state,
		Credential: m.credential,
		Identity:   m.identity,
		Loading:    m.state == domainauth.StateInitializing,
	}
}

// Identity returns who is acting now.
func (m *SessionManager) Identity() domainauth.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity
}

// State returns the lifecycle state.
func (m *SessionManager) State() domainauth.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Credential returns the raw token of the current session, or "".
func (m *SessionManager) Credential() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential
}

// Authorized applies the route guard to the current identity.
func (m *SessionManager) Authorized(required domainauth.RoleSet) bool {
	return domainauth.IsAllowed(m.Identity(), required)
}

// Subscribe registers fn to receive every identity replacement. fn runs
// synchronously inside the transition and must not call the API.
func (m *SessionManager) Subscribe(fn func(domainauth.Identity)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// WaitReady blocks until Init has completed or ctx is done.
func (m *SessionManager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *SessionManager) validate(ctx context.Context, token string) (domainauth.Identity, error) {
	if m.verifier != nil {
		if err := m.verifier.Verify(ctx, token); err != nil {
			invalid := apperrors.InvalidToken("signature")
			invalid.Cause = err
			return domainauth.Anonymous(), invalid
		}
	}
	_, identity, err := m.decoder.Decode(token)
	if err != nil {
		return domainauth.Anonymous(), err
	}
	return identity, nil
}

// teardown clears the store and resets the identity. The identity is reset
// even when clearing fails.
func (m *SessionManager) teardown(ctx context.Context, reason string) error {
	clearErr := m.store.Clear(ctx)
	m.setAnonymous()
	m.metrics.Count("session.teardown", 1, map[string]string{"reason": reason})
	if clearErr != nil {
		return apperrors.Wrap(clearErr, apperrors.ErrCodeInternal, "clear stored credential")
	}
	return nil
}

func (m *SessionManager) setAnonymous() {
	m.replace(domainauth.StateAnonymous, "", domainauth.Anonymous())
}

func (m *SessionManager) setAuthenticated(token string, id domainauth.Identity) {
	m.replace(domainauth.StateAuthenticated, token, id)
}

func (m *SessionManager) replace(state domainauth.State, token string, id domainauth.Identity) {
	m.mu.Lock()
	m.state = state
	m.credential = token
	m.identity = id
	subs := make([]func(domainauth.Identity), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(id)
	}
}

func (m *SessionManager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

func (m *SessionManager) notice(ctx context.Context, level notify.Level, message string) {
	notify.Send(ctx, m.notifier, m.logger, level, noticeSource, message)
}

func (m *SessionManager) countLogin(err error) {
	outcome := "ok"
	if err != nil {
		outcome = obserrors.Classify(err)
	}
	m.metrics.Count("session.login", 1, map[string]string{"outcome": outcome})
}
