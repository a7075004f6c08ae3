package apiclient_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAPIClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Client Suite")
}

// fakeTokens is a TokenSource whose refresh can be held open by a gate.
type fakeTokens struct {
	mu           sync.Mutex
	token        string
	next         string
	refreshErr   error
	gate         chan struct{}
	refreshCalls int32
	expired      []error
}

func (f *fakeTokens) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) Refresh(ctx context.Context) (string, error) {
	atomic.AddInt32(&f.refreshCalls, 1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		f.token = ""
		return "", f.refreshErr
	}
	f.token = f.next
	return f.token, nil
}

func (f *fakeTokens) Expire(ctx context.Context, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.expired = append(f.expired, cause)
}

func (f *fakeTokens) SetShouldFail(err error) {
	f.refreshErr = err
}

func (f *fakeTokens) expiredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.expired)
}

var _ = Describe("Client", func() {
	var (
		ctx     context.Context
		server  *httptest.Server
		handler http.HandlerFunc
		tokens  *fakeTokens
		metrics *apiclient.Metrics
		client  *apiclient.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		tokens = &fakeTokens{token: "t1", next: "t2"}
		metrics = apiclient.NewMetrics(prometheus.NewRegistry())
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		client = apiclient.NewClient(apiclient.Config{
			BaseURL: server.URL + "/api",
			Timeout: 2 * time.Second,
		}, logger.Discard(), apiclient.WithMetrics(metrics), apiclient.WithTokenSource(tokens))
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("request decoration", func() {
		It("should attach the bearer token and a request id", func() {
			var seen http.Header
			var path string
			handler = func(w http.ResponseWriter, r *http.Request) {
				seen = r.Header.Clone()
				path = r.URL.Path
				w.Write([]byte(`{"success":true,"data":[]}`))
			}

			_, err := client.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: "/users"})

			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("/api/users"))
			Expect(seen.Get("Authorization")).To(Equal("Bearer t1"))
			Expect(seen.Get(apiclient.HeaderRequestID)).To(HaveLen(26))
			Expect(testutil.ToFloat64(metrics.RequestCounter().WithLabelValues(http.MethodGet, "2xx"))).To(Equal(1.0))
		})

		It("should propagate a request id from the context", func() {
			var got string
			handler = func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(apiclient.HeaderRequestID)
			}

			_, err := client.Do(internal.ContextWithRequestID(ctx, "req-1"), &apiclient.Request{Path: "/menus"})

			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("req-1"))
		})

		It("should omit the token when asked to", func() {
			var auth string
			handler = func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
			}

			_, err := client.Do(ctx, &apiclient.Request{Path: "/auth/register", SkipAuth: true})

			Expect(err).NotTo(HaveOccurred())
			Expect(auth).To(BeEmpty())
		})

		It("should encode query parameters and JSON bodies", func() {
			var query, contentType string
			handler = func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.RawQuery
				contentType = r.Header.Get("Content-Type")
			}

			_, err := client.Do(ctx, &apiclient.Request{
				Method: http.MethodPost,
				Path:   "/logs/search",
				Query:  map[string][]string{"page": {"2"}},
				Body:   map[string]string{"level": "ERROR"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(query).To(Equal("page=2"))
			Expect(contentType).To(Equal("application/json"))
		})
	})

	Describe("token refresh", func() {
		It("should refresh once and retry with the new token", func() {
			var auths []string
			var mu sync.Mutex
			handler = func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				auths = append(auths, r.Header.Get("Authorization"))
				mu.Unlock()
				if r.Header.Get("Authorization") != "Bearer t2" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.Write([]byte(`{"data":{"id":1}}`))
			}

			resp, err := client.Do(ctx, &apiclient.Request{Path: "/users/1"})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(auths).To(Equal([]string{"Bearer t1", "Bearer t2"}))
			Expect(atomic.LoadInt32(&tokens.refreshCalls)).To(Equal(int32(1)))
			Expect(testutil.ToFloat64(metrics.RefreshCounter().WithLabelValues("success"))).To(Equal(1.0))
		})

		It("should share one refresh among concurrent rejected requests", func() {
			const n = 5
			var withOld, withNew int32
			handler = func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") == "Bearer t2" {
					atomic.AddInt32(&withNew, 1)
					w.Write([]byte(`{"data":"ok"}`))
					return
				}
				atomic.AddInt32(&withOld, 1)
				w.WriteHeader(http.StatusUnauthorized)
			}
			tokens.gate = make(chan struct{})

			var wg sync.WaitGroup
			errs := make([]error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					_, errs[i] = client.Do(ctx, &apiclient.Request{Path: fmt.Sprintf("/users/%d", i)})
				}(i)
			}

			Eventually(func() float64 {
				return testutil.ToFloat64(metrics.RefreshWaiters())
			}).Should(Equal(float64(n - 1)))
			close(tokens.gate)
			wg.Wait()

			for _, err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(atomic.LoadInt32(&tokens.refreshCalls)).To(Equal(int32(1)))
			Expect(atomic.LoadInt32(&withOld)).To(Equal(int32(n)))
			Expect(atomic.LoadInt32(&withNew)).To(Equal(int32(n)))
			Expect(testutil.ToFloat64(metrics.RefreshWaiters())).To(Equal(0.0))
		})

		It("should fail every queued request when the refresh fails", func() {
			const n = 3
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}
			tokens.gate = make(chan struct{})
			tokens.SetShouldFail(internal.ErrRefreshFailed)

			var wg sync.WaitGroup
			errs := make([]error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					_, errs[i] = client.Do(ctx, &apiclient.Request{Path: "/roles"})
				}(i)
			}

			Eventually(func() float64 {
				return testutil.ToFloat64(metrics.RefreshWaiters())
			}).Should(Equal(float64(n - 1)))
			close(tokens.gate)
			wg.Wait()

			for _, err := range errs {
				Expect(errors.Is(err, internal.ErrRefreshFailed)).To(BeTrue())
			}
			Expect(atomic.LoadInt32(&tokens.refreshCalls)).To(Equal(int32(1)))
			Expect(tokens.expiredCount()).To(Equal(1))
		})

		It("should not retry a second time when the new token is rejected too", func() {
			var hits int32
			handler = func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(http.StatusUnauthorized)
			}

			_, err := client.Do(ctx, &apiclient.Request{Path: "/menus"})

			Expect(errors.Is(err, internal.ErrSessionExpired)).To(BeTrue())
			Expect(internal.IsType(err, internal.ErrorTypeUnauthorized)).To(BeTrue())
			Expect(atomic.LoadInt32(&hits)).To(Equal(int32(2)))
			Expect(atomic.LoadInt32(&tokens.refreshCalls)).To(Equal(int32(1)))
			Expect(tokens.expiredCount()).To(Equal(1))
		})

		It("should reuse a token that was refreshed after the request went out", func() {
			var retried string
			handler = func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") == "Bearer t1" {
					// another caller finished a refresh while this request was in flight
					tokens.mu.Lock()
					tokens.token = "t3"
					tokens.mu.Unlock()
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				retried = r.Header.Get("Authorization")
			}

			_, err := client.Do(ctx, &apiclient.Request{Path: "/roles"})

			Expect(err).NotTo(HaveOccurred())
			Expect(retried).To(Equal("Bearer t3"))
			Expect(atomic.LoadInt32(&tokens.refreshCalls)).To(BeZero())
		})

		DescribeTable("should never refresh for the auth exchange endpoints",
			func(path string) {
				handler = func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"success":false,"message":"bad credentials"}`))
				}

				_, err := client.Do(ctx, &apiclient.Request{Method: http.MethodPost, Path: path})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeUnauthorized))
				Expect(appErr.Message).To(Equal("bad credentials"))
				Expect(atomic.LoadInt32(&tokens.refreshCalls)).To(BeZero())
			},
			Entry("login", "/auth/login"),
			Entry("refresh", "/auth/refresh"),
		)
	})

	Describe("error passthrough", func() {
		DescribeTable("should classify non-401 failures without refreshing",
			func(status int, body string, expected internal.ErrorType) {
				var hits int32
				handler = func(w http.ResponseWriter, r *http.Request) {
					atomic.AddInt32(&hits, 1)
					w.WriteHeader(status)
					w.Write([]byte(body))
				}

				_, err := client.Do(ctx, &apiclient.Request{Path: "/users"})

				Expect(internal.IsType(err, expected)).To(BeTrue())
				Expect(atomic.LoadInt32(&hits)).To(Equal(int32(1)))
				Expect(atomic.LoadInt32(&tokens.refreshCalls)).To(BeZero())
			},
			Entry("bad request", http.StatusBadRequest, `{"success":false,"message":"username taken"}`, internal.ErrorTypeValidation),
			Entry("unprocessable", http.StatusUnprocessableEntity, `{}`, internal.ErrorTypeValidation),
			Entry("forbidden", http.StatusForbidden, ``, internal.ErrorTypeForbidden),
			Entry("not found", http.StatusNotFound, `{"message":"no such user"}`, internal.ErrorTypeNotFound),
			Entry("conflict", http.StatusConflict, ``, internal.ErrorTypeConflict),
			Entry("server error", http.StatusInternalServerError, `oops`, internal.ErrorTypeServer),
		)

		It("should carry field errors from the backend", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"success":false,"message":"Validation failed","errors":[{"field":"email","message":"invalid email"}]}`))
			}

			_, err := client.Do(ctx, &apiclient.Request{Path: "/users"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.GetDetailedMessage()).To(Equal("invalid email"))
		})

		It("should report an unreachable backend as a network error", func() {
			server.Close()

			_, err := client.Do(ctx, &apiclient.Request{Path: "/users"})

			Expect(internal.IsType(err, internal.ErrorTypeNetwork)).To(BeTrue())
		})

		It("should time out slow responses", func() {
			release := make(chan struct{})
			handler = func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}
			slow := apiclient.NewClient(apiclient.Config{BaseURL: server.URL}, logger.Discard(),
				apiclient.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

			_, err := slow.Do(ctx, &apiclient.Request{Path: "/dashboard/stats"})
			close(release)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeNetwork))
			Expect(appErr.Code).To(Equal(internal.ErrCodeRequestTimeout))
		})
	})

	Describe("Fetch", func() {
		It("should decode wrapped payloads", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":true,"message":"ok","data":[{"id":1},{"id":2}]}`))
			}

			env, err := apiclient.Fetch[[]map[string]int](ctx, client, &apiclient.Request{Path: "/roles"})

			Expect(err).NotTo(HaveOccurred())
			Expect(env.Kind).To(Equal(apiclient.Wrapped))
			Expect(env.Data).To(HaveLen(2))
			Expect(env.Message).To(Equal("ok"))
		})
	})
})
