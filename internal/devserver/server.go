// Package devserver is a stub of the Information Module backend, covering
// the authentication, notification and notice endpoints the terminal
// client talks to. It exists for local development and tests.
package devserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/model"
)

// Account is a user known to the stub backend.
type Account struct {
	Password string

	// NeedsInitialPassword refuses logins until the password is set via
	// POST /auth/initial-password.
	NeedsInitialPassword bool

	User model.UserIdentity
}

// Server implements the backend endpoints.
type Server struct {
	sessions   SessionStore
	sessionTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time

	mu       sync.Mutex
	accounts map[string]*Account
	notices  []model.Notice
	unread   map[string]int
	calls    map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(s SessionStore) Option {
	return func(srv *Server) { srv.sessions = s }
}

// WithSessionTTL sets how long a session lives without heartbeats.
func WithSessionTTL(ttl time.Duration) Option {
	return func(srv *Server) { srv.sessionTTL = ttl }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(srv *Server) { srv.log = log }
}

// New creates a Server with no accounts or notices.
func New(opts ...Option) *Server {
	srv := &Server{
		sessions:   NewMemorySessionStore(),
		sessionTTL: 30 * time.Minute,
		log:        zerolog.Nop(),
		now:        time.Now,
		accounts:   make(map[string]*Account),
		unread:     make(map[string]int),
		calls:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// AddAccount registers an account under its login id.
func (s *Server) AddAccount(acc Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := acc
	s.accounts[acc.User.LoginID] = &a
}

// AddNotice publishes a notice. An empty ID is replaced by a fresh UUID.
func (s *Server) AddNotice(n model.Notice) model.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notices = append(s.notices, n)
	return n
}

// SetUnreadCount sets the unread personal notification count of a user.
func (s *Server) SetUnreadCount(loginID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread[loginID] = count
}

// Calls returns how many times the endpoint at path was hit.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// Handler returns the HTTP routes of the backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/initial-password", s.handleInitialPassword)
		r.Post("/check-session", s.handleCheckSession)
		r.Post("/logout", s.handleLogout)
		r.Post("/heartbeat", s.handleHeartbeat)
	})
	r.Get("/notifications/unread-count", s.handleUnreadCount)
	r.Get("/notices", s.handleNotices)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.calls[req.URL.Path]++
		s.mu.Unlock()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(rw, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		s.log.Info().
			Str("reqId", uuid.NewString()).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}

func (s *Server) handleLogin(rw http.ResponseWriter, req *http.Request) {
	var body api.LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(rw, http.StatusBadRequest, "BAD_REQUEST", "malformed body")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[body.LoginID]
	var accCopy Account
	if ok {
		accCopy = *acc
	}
	s.mu.Unlock()

	if ok && accCopy.NeedsInitialPassword {
		writeError(rw, http.StatusPreconditionRequired,
			api.CodeInitialPasswordRequired, "initial password must be set")
		return
	}
	if !ok || accCopy.Password != body.Password {
		writeError(rw, http.StatusUnauthorized,
			"INVALID_CREDENTIALS", "Invalid login ID or password.")
		return
	}

	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		LoginID:   body.LoginID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(req.Context(), sess); err != nil {
		s.log.Error().Err(err).Msg("saving session")
		writeError(rw, http.StatusInternalServerError, "INTERNAL", "could not create session")
		return
	}

	writeJSON(rw, http.StatusOK, api.LoginResponse{
		UserIdentity: accCopy.User,
		SessionID:    sess.ID,
		ExpiresAt:    sess.ExpiresAt,
	})
}

func (s *Server) handleInitialPassword(rw http.ResponseWriter, req *http.Request) {
	var body api.InitialPasswordRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.NewPassword == "" {
		writeError(rw, http.StatusBadRequest, "BAD_REQUEST", "a new password is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[body.LoginID]
	if !ok || !acc.NeedsInitialPassword {
		writeError(rw, http.StatusConflict, "NOT_ALLOWED", "password already set")
		return
	}
	acc.Password = body.NewPassword
	acc.NeedsInitialPassword = false
	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckSession(rw http.ResponseWriter, req *http.Request) {
	_, user, ok := s.authenticate(rw, req, false)
	if !ok {
		writeJSON(rw, http.StatusOK, api.CheckSessionResponse{Valid: false})
		return
	}
	writeJSON(rw, http.StatusOK, api.CheckSessionResponse{Valid: true, User: user})
}

func (s *Server) handleLogout(rw http.ResponseWriter, req *http.Request) {
	if id := bearerToken(req); id != "" {
		if err := s.sessions.Delete(req.Context(), id); err != nil {
			s.log.Warn().Err(err).Msg("deleting session")
		}
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHeartbeat(rw http.ResponseWriter, req *http.Request) {
	sess, _, ok := s.authenticate(rw, req, true)
	if !ok {
		return
	}

	sess.ExpiresAt = s.now().Add(s.sessionTTL)
	if err := s.sessions.Save(req.Context(), sess); err != nil {
		s.log.Error().Err(err).Msg("extending session")
		writeError(rw, http.StatusInternalServerError, "INTERNAL", "could not extend session")
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnreadCount(rw http.ResponseWriter, req *http.Request) {
	sess, _, ok := s.authenticate(rw, req, true)
	if !ok {
		return
	}

	s.mu.Lock()
	count := s.unread[sess.LoginID]
	s.mu.Unlock()

	writeJSON(rw, http.StatusOK, api.UnreadCountResponse{Count: count})
}

func (s *Server) handleNotices(rw http.ResponseWriter, req *http.Request) {
	if _, _, ok := s.authenticate(rw, req, true); !ok {
		return
	}

	q := req.URL.Query()
	activeOnly, _ := strconv.ParseBool(q.Get("isActive"))
	page := atoiDefault(q.Get("page"), 1)
	size := atoiDefault(q.Get("size"), 20)

	s.mu.Lock()
	var matched []model.Notice
	for _, n := range s.notices {
		if activeOnly && !n.IsActive {
			continue
		}
		matched = append(matched, n)
	}
	s.mu.Unlock()

	total := len(matched)
	from := (page - 1) * size
	if from > total {
		from = total
	}
	to := from + size
	if to > total {
		to = total
	}

	writeJSON(rw, http.StatusOK, api.NoticeListResponse{
		Items: matched[from:to],
		Total: total,
	})
}

// authenticate resolves the bearer session. When reject is true a missing
// or stale session is answered with 401.
func (s *Server) authenticate(
	rw http.ResponseWriter,
	req *http.Request,
	reject bool,
) (Session, *model.UserIdentity, bool) {
	fail := func() (Session, *model.UserIdentity, bool) {
		if reject {
			writeError(rw, http.StatusUnauthorized, "SESSION_INVALID", "session expired")
		}
		return Session{}, nil, false
	}

	id := bearerToken(req)
	if id == "" {
		return fail()
	}

	sess, ok, err := s.sessions.Get(req.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Msg("loading session")
		return fail()
	}
	if !ok {
		return fail()
	}

	s.mu.Lock()
	acc, ok := s.accounts[sess.LoginID]
	var user model.UserIdentity
	if ok {
		user = acc.User
	}
	s.mu.Unlock()
	if !ok {
		return fail()
	}

	return sess, &user, true
}

func bearerToken(req *http.Request) string {
	h := req.Header.Get("Authorization")
	token, found := strings.CutPrefix(h, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, message string) {
	writeJSON(rw, status, api.ErrorResponse{Code: code, Message: message})
}
