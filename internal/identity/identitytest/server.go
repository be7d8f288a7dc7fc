// Package identitytest runs an in-process identity service for tests.
//
// It speaks the same wire format as the real service: bcrypt-checked
// passwords, HS256 access tokens with the email as subject, FastAPI-style
// {"detail": "..."} errors. Tests can hold a request in flight or inject a
// failure for the next call to a path.
package identitytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Paths served by the fake.
const (
	PathMe      = "/me"
	PathProfile = "/profile"
	PathLogin   = "/login"
)

// User is an account known to the fake service.
type User struct {
	ID        string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

type account struct {
	User
	hash []byte
}

type claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

type failure struct {
	status int
	body   string
}

// Server is a fake identity service.
type Server struct {
	*httptest.Server

	secret   []byte
	tokenTTL time.Duration

	mu       sync.Mutex
	accounts map[string]*account // by email
	nextID   int
	holds    map[string]*Hold
	failures map[string]failure
	requests []*http.Request
	loginObj bool
}

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = d
	}
}

// WithUserObjectInLogin makes /login return "user" as an identity object
// instead of a display name.
func WithUserObjectInLogin() Option {
	return func(s *Server) {
		s.loginObj = true
	}
}

// NewServer starts a fake identity service. Close it when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("identitytest-secret"),
		tokenTTL: time.Hour,
		accounts: make(map[string]*account),
		holds:    make(map[string]*Hold),
		failures: make(map[string]failure),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathMe, s.handleMe)
	mux.HandleFunc("POST "+PathProfile, s.handleRegister)
	mux.HandleFunc("PUT "+PathProfile, s.handleUpdate)
	mux.HandleFunc("POST "+PathLogin, s.handleLogin)

	s.Server = httptest.NewServer(s.intercept(mux))
	return s
}

// AddUser registers an account directly and returns it with its ID set.
func (s *Server) AddUser(u User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(u)
}

func (s *Server) addLocked(u User) User {
	s.nextID++
	if u.ID == "" {
		u.ID = "u" + strconv.Itoa(s.nextID)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("identitytest: hash password: %v", err))
	}
	s.accounts[strings.ToLower(u.Email)] = &account{User: u, hash: hash}
	return u
}

// User returns the stored account for email.
func (s *Server) User(email string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return User{}, false
	}
	return a.User, true
}

// IssueToken returns a valid access token for email.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	a := s.accounts[strings.ToLower(email)]
	s.mu.Unlock()
	id := ""
	if a != nil {
		id = a.ID
	}
	tok, err := s.sign(email, id, s.tokenTTL)
	if err != nil {
		panic(fmt.Sprintf("identitytest: sign token: %v", err))
	}
	return tok
}

func (s *Server) sign(email, id string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		ID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// FailNext makes the next request to path answer with status and a
// {"detail": detail} body.
func (s *Server) FailNext(path string, status int, detail string) {
	body, _ := json.Marshal(map[string]string{"detail": detail})
	s.FailNextRaw(path, status, string(body))
}

// FailNextRaw makes the next request to path answer with status and body.
func (s *Server) FailNextRaw(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, body: body}
}

// Requests returns how many requests reached path.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.URL.Path == path {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request to path, or nil.
func (s *Server) LastRequest(path string) *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].URL.Path == path {
			return s.requests[i]
		}
	}
	return nil
}

// Hold keeps requests to one path waiting until released.
type Hold struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
	seen    sync.Once
}

// Arrived is closed once a request to the held path is waiting.
func (h *Hold) Arrived() <-chan struct{} { return h.arrived }

// Release lets held requests continue. It is safe to call more than once.
func (h *Hold) Release() { h.once.Do(func() { close(h.release) }) }

// Hold blocks requests to path until the returned Hold is released.
func (s *Server) Hold(path string) *Hold {
	h := &Hold{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[path] = h
	s.mu.Unlock()
	return h
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Clone(r.Context()))
		hold := s.holds[r.URL.Path]
		delete(s.holds, r.URL.Path)
		fail, failing := s.failures[r.URL.Path]
		delete(s.failures, r.URL.Path)
		s.mu.Unlock()

		if hold != nil {
			hold.seen.Do(func() { close(hold.arrived) })
			select {
			case <-hold.release:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			w.Write([]byte(fail.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		UserType string `json:"userType"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Password cannot be None")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[strings.ToLower(req.Email)]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "A profile with this email already exists.")
		return
	}
	first, last, _ := strings.Cut(req.Name, " ")
	u := s.addLocked(User{Email: req.Email, Password: req.Password, FirstName: first, LastName: last, Role: req.UserType})
	s.mu.Unlock()

	tok, _ := s.sign(u.Email, u.ID, s.tokenTTL)
	user := req.Name
	if user == "" {
		user = req.Email
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           u.ID,
		"user":         user,
		"email":        u.Email,
		"access_token": tok,
		"token_type":   "bearer",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	var a *account
	if found := s.accounts[strings.ToLower(req.Email)]; found != nil {
		cp := *found
		a = &cp
	}
	s.mu.Unlock()
	if a == nil || bcrypt.CompareHashAndPassword(a.hash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	tok, err := s.sign(a.Email, a.ID, s.tokenTTL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	var user any = strings.TrimSpace(a.FirstName + " " + a.LastName)
	if s.loginObj {
		user = profileBody(a.User)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           a.ID,
		"user":         user,
		"email":        a.Email,
		"access_token": tok,
		"token_type":   "bearer",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	a, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	u := a.User
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       u.ID,
		"name":     strings.TrimSpace(u.FirstName + " " + u.LastName),
		"email":    u.Email,
		"userType": u.Role,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	a, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req map[string]*string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	out := make(map[string]string)
	for k, v := range req {
		if v == nil {
			continue
		}
		switch k {
		case "email":
			delete(s.accounts, strings.ToLower(a.Email))
			a.Email = *v
			s.accounts[strings.ToLower(a.Email)] = a
		case "firstName":
			a.FirstName = *v
		case "lastName":
			a.LastName = *v
		case "role":
			a.Role = *v
		default:
			continue
		}
		out[k] = *v
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*account, bool) {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || c.Subject == "" {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return nil, false
	}

	s.mu.Lock()
	a := s.accounts[strings.ToLower(c.Subject)]
	s.mu.Unlock()
	if a == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	return a, true
}

func profileBody(u User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"role":      u.Role,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
