package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/internal/auth"
	"github.com/frahmantamala/admin-console/internal/core/events"
	"github.com/frahmantamala/admin-console/internal/session"
	"github.com/frahmantamala/admin-console/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// memoryStorage is the simplest session.Storage.
type memoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

var _ = Describe("Session over the API client", func() {
	var (
		ctx       context.Context
		mux       *http.ServeMux
		server    *httptest.Server
		storage   *memoryStorage
		store     *session.Store
		client    *apiclient.Client
		bus       *events.EventBus
		mu        sync.Mutex
		bearers   []string
		expiredAt int
	)

	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}

	BeforeEach(func() {
		ctx = context.Background()
		bearers = nil
		expiredAt = 0
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		storage = &memoryStorage{values: map[string]string{}}
		bus = events.NewEventBus(logger.Discard())
		bus.Subscribe(events.EventTypeSessionExpired, func(context.Context, events.Event) error {
			mu.Lock()
			expiredAt++
			mu.Unlock()
			return nil
		})

		client = apiclient.NewClient(apiclient.Config{BaseURL: server.URL + "/api", Timeout: 2 * time.Second}, logger.Discard())
		store = session.NewStore(storage, auth.NewService(client, logger.Discard()), bus, logger.Discard())
		client.SetTokenSource(store)
	})

	It("should persist the token from an enveloped login", func() {
		mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
				"accessToken":  "abc",
				"refreshToken": "r1",
				"user":         map[string]any{"id": 1, "username": "admin"},
			}})
		})

		s, err := store.Login(ctx, session.LoginDTO{Username: "admin", Password: "admin123"})

		Expect(err).NotTo(HaveOccurred())
		Expect(s.AccessToken).To(Equal("abc"))
		Expect(s.User.ID).To(Equal(int64(1)))
		Expect(storage.values[session.KeyAccessToken]).To(Equal("abc"))
	})

	It("should map a rejected login to invalid credentials without refreshing", func() {
		refreshCalls := 0
		mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Bad credentials"})
		})
		mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			refreshCalls++
		})

		_, err := store.Login(ctx, session.LoginDTO{Username: "admin", Password: "nope"})

		Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		Expect(refreshCalls).To(BeZero())
	})

	It("should refresh once and retry with the new token", func() {
		storage.values[session.KeyAccessToken] = "t1"
		storage.values[session.KeyRefreshToken] = "r1"
		_, err := store.Hydrate(ctx)
		Expect(err).NotTo(HaveOccurred())

		mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			bearers = append(bearers, r.Header.Get("Authorization"))
			mu.Unlock()
			if r.Header.Get("Authorization") != "Bearer t2" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{map[string]any{"id": 1, "username": "admin"}}})
		})
		mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			var body session.RefreshTokenDTO
			json.NewDecoder(r.Body).Decode(&body)
			if body.RefreshToken != "r1" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "bad refresh token"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"token": "t2"}})
		})

		users, err := apiclient.FetchData[[]session.UserProfile](ctx, client, &apiclient.Request{Method: http.MethodGet, Path: "/users"})

		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(1))
		Expect(bearers).To(Equal([]string{"Bearer t1", "Bearer t2"}))
		Expect(storage.values[session.KeyAccessToken]).To(Equal("t2"))
		Expect(store.Snapshot().IsAuthenticated).To(BeTrue())
	})

	It("should expire the session when the refresh token is rejected", func() {
		storage.values[session.KeyAccessToken] = "t1"
		storage.values[session.KeyRefreshToken] = "r1"
		store.Hydrate(ctx)

		mux.HandleFunc("/api/roles", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "expired"})
		})
		mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "refresh token expired"})
		})

		_, err := client.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: "/roles"})

		Expect(internal.IsType(err, internal.ErrorTypeUnauthorized)).To(BeTrue())
		Expect(store.Snapshot().IsAuthenticated).To(BeFalse())
		Expect(storage.values).To(BeEmpty())
		Expect(expiredAt).To(Equal(1))
	})
})
