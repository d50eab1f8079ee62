// Package testutil provides a fake task/user backend for tests. It
// implements the REST contract of the real service: success envelopes,
// pagination metadata, bearer-token auth, and the dedicated
// status-change and change-password endpoints.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// Token is the bearer token the fake backend issues on login.
const Token = "test-token"

// Backend is an in-memory fake of the task/user service.
type Backend struct {
	mu sync.Mutex

	server *httptest.Server

	email    string
	password string
	authUser map[string]any

	tasks []map[string]any
	users []map[string]any

	nextID int

	// counts is keyed by "METHOD /route/template".
	counts map[string]int

	// failStatus is returned for the next failRemaining requests.
	failStatus    int
	failRemaining int

	logoutFails bool
}

// NewBackend starts a fake backend with a default login of
// a@b.com / x.
func NewBackend() *Backend {
	b := &Backend{
		email:    "a@b.com",
		password: "x",
		authUser: map[string]any{
			"id":    "user-1",
			"email": "a@b.com",
			"name":  "Test User",
			"role":  "admin",
		},
		nextID: 1,
		counts: make(map[string]int),
	}

	r := mux.NewRouter()
	r.Use(b.countRequests)

	r.HandleFunc("/auth/login", b.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", b.requireAuth(b.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", b.requireAuth(b.handleMe)).Methods(http.MethodGet)

	r.HandleFunc("/tasks", b.requireAuth(b.handleList(&b.tasks))).Methods(http.MethodGet)
	r.HandleFunc("/tasks", b.requireAuth(b.handleCreate(&b.tasks, "task"))).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}", b.requireAuth(b.handleGet(&b.tasks))).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", b.requireAuth(b.handleUpdate(&b.tasks))).Methods(http.MethodPut)
	r.HandleFunc("/tasks/{id}", b.requireAuth(b.handleDelete(&b.tasks))).Methods(http.MethodDelete)
	r.HandleFunc("/tasks/{id}/status-change", b.requireAuth(b.handleStatusChange)).Methods(http.MethodPatch)

	r.HandleFunc("/users", b.requireAuth(b.handleList(&b.users))).Methods(http.MethodGet)
	r.HandleFunc("/users", b.requireAuth(b.handleCreate(&b.users, "user"))).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}", b.requireAuth(b.handleGet(&b.users))).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", b.requireAuth(b.handleUpdate(&b.users))).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}", b.requireAuth(b.handleDelete(&b.users))).Methods(http.MethodDelete)
	r.HandleFunc("/users/{id}/change-password", b.requireAuth(b.handleChangePassword)).Methods(http.MethodPost)

	b.server = httptest.NewServer(r)
	return b
}

// URL returns the backend base URL.
func (b *Backend) URL() string { return b.server.URL }

// Close shuts the backend down.
func (b *Backend) Close() { b.server.Close() }

// SeedTasks replaces the task fixtures. Records are raw JSON objects so
// tests can seed alternate id keys like "_id".
func (b *Backend) SeedTasks(records ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = append([]map[string]any{}, records...)
}

// SeedUsers replaces the user fixtures.
func (b *Backend) SeedUsers(records ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append([]map[string]any{}, records...)
}

// Requests returns how many requests matched the given route, keyed
// like "GET /tasks".
func (b *Backend) Requests(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[route]
}

// FailNext makes the next n requests fail with the given status before
// any handler runs.
func (b *Backend) FailNext(status, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failStatus = status
	b.failRemaining = n
}

// SetLogoutFails makes POST /auth/logout return 500.
func (b *Backend) SetLogoutFails(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutFails = v
}

func (b *Backend) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		b.mu.Lock()
		b.counts[r.Method+" "+path]++
		inject := 0
		if b.failRemaining > 0 {
			inject = b.failStatus
			b.failRemaining--
		}
		b.mu.Unlock()

		if inject != 0 {
			writeError(w, inject, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next(w, r)
	}
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	// A login request must never carry a stale token.
	if r.Header.Get("Authorization") != "" {
		writeError(w, http.StatusBadRequest, "unexpected authorization header")
		return
	}

	b.mu.Lock()
	ok := creds.Email == b.email && creds.Password == b.password
	user := b.authUser
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeData(w, map[string]any{"token": Token, "user": user}, nil)
}

func (b *Backend) handleLogout(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	fails := b.logoutFails
	b.mu.Unlock()
	if fails {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeData(w, map[string]any{}, nil)
}

func (b *Backend) handleMe(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	user := b.authUser
	b.mu.Unlock()
	writeData(w, user, nil)
}

func (b *Backend) handleList(records *[]map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		matched := make([]map[string]any, 0, len(*records))
		search := strings.ToLower(r.URL.Query().Get("search"))
		for _, rec := range *records {
			if search == "" || recordMatches(rec, search) {
				matched = append(matched, rec)
			}
		}

		page := intParam(r, "page", 1)
		pageSize := intParam(r, "page_size", 10)
		total := len(matched)
		totalPages := (total + pageSize - 1) / pageSize

		start := (page - 1) * pageSize
		if start > total {
			start = total
		}
		end := start + pageSize
		if end > total {
			end = total
		}

		writeData(w, matched[start:end], map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total_items": total,
			"total_pages": totalPages,
		})
	}
}

func (b *Backend) handleCreate(records *[]map[string]any, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}

		b.mu.Lock()
		payload["id"] = fmt.Sprintf("%s-%d", kind, b.nextID)
		b.nextID++
		*records = append(*records, payload)
		b.mu.Unlock()

		writeData(w, payload, nil)
	}
}

func (b *Backend) handleGet(records *[]map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		rec, _ := findRecord(*records, mux.Vars(r)["id"])
		if rec == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeData(w, rec, nil)
	}
}

func (b *Backend) handleUpdate(records *[]map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		rec, _ := findRecord(*records, mux.Vars(r)["id"])
		if rec == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		for k, v := range payload {
			rec[k] = v
		}
		writeData(w, rec, nil)
	}
}

func (b *Backend) handleDelete(records *[]map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		_, idx := findRecord(*records, mux.Vars(r)["id"])
		if idx < 0 {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		*records = append((*records)[:idx], (*records)[idx+1:]...)
		writeData(w, map[string]any{}, nil)
	}
}

func (b *Backend) handleStatusChange(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, _ := findRecord(b.tasks, mux.Vars(r)["id"])
	if rec == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	rec["status"] = payload.Status
	writeData(w, rec, nil)
}

func (b *Backend) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new_password is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, _ := findRecord(b.users, mux.Vars(r)["id"])
	if rec == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeData(w, map[string]any{}, nil)
}

// findRecord looks a record up by canonical or alternate id.
func findRecord(records []map[string]any, id string) (map[string]any, int) {
	for i, rec := range records {
		if recordID(rec) == id {
			return rec, i
		}
	}
	return nil, -1
}

func recordID(rec map[string]any) string {
	if id, ok := rec["id"].(string); ok && id != "" {
		return id
	}
	if id, ok := rec["_id"].(string); ok {
		return id
	}
	return ""
}

func recordMatches(rec map[string]any, search string) bool {
	for _, key := range []string{"title", "name", "email"} {
		if v, ok := rec[key].(string); ok && strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

func intParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func writeData(w http.ResponseWriter, data any, metadata map[string]any) {
	body := map[string]any{"success": true, "data": data}
	if metadata != nil {
		body["metadata"] = metadata
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
