package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/scan-console/internal/clients"
	"github.com/pribylovaa/scan-console/internal/clients/interceptors"
	"github.com/pribylovaa/scan-console/internal/config"
	"github.com/pribylovaa/scan-console/internal/credentials"
	"github.com/pribylovaa/scan-console/internal/service"
	"github.com/pribylovaa/scan-console/internal/session"
	"github.com/pribylovaa/scan-console/internal/storage/memory"
	"github.com/pribylovaa/scan-console/internal/viewstate"
)

type stack struct {
	handler http.Handler
	creds   *credentials.Store
	bus     *session.Bus

	refreshes atomic.Int32
	seenAuth  atomic.Value
}

// newStack поднимает фейковый бэкенд и собирает роутер поверх настоящих клиентов.
// Бэкенд принимает только токен T2; обмен R1 -> T2.
func newStack(t *testing.T) *stack {
	t.Helper()

	s := &stack{bus: session.NewBus()}

	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			s.refreshes.Add(1)
			if interceptors.BearerToken(r) != "R1" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(`{"accessToken":"T2","refreshToken":"R2"}`))
			return
		case "/auth/login":
			_, _ = w.Write([]byte(`{"token":"T2","refreshToken":"R2"}`))
			return
		}

		s.seenAuth.Store(r.Header.Get("Authorization") + "|" + r.Header.Get("Cookie"))
		if interceptors.BearerToken(r) != "T2" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		switch r.URL.Path {
		case "/applications":
			_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"shop","platform":"android"}]}`))
		case "/applications/1/issues":
			_, _ = w.Write([]byte(`[{"id":"i1","severity":"critical"}]`))
		case "/scans":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"echo":` + string(body) + `,"q":"` + r.URL.RawQuery + `"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backendSrv.Close)

	cfg := config.Config{
		Backend:  config.BackendConfig{BaseURL: backendSrv.URL, UserAgent: "console-test"},
		Timeouts: config.TimeoutConfig{Service: 2 * time.Second, Refresh: 2 * time.Second},
		Session:  config.SessionConfig{ExpiredMessage: "expired"},
	}

	st := memory.New()
	s.creds = credentials.New(st)

	cl, err := clients.New(cfg, clients.Deps{Creds: s.creds, Events: s.bus})
	require.NoError(t, err)

	svc := service.New(service.Deps{
		Creds:        s.creds,
		Events:       s.bus,
		Auth:         cl.Auth,
		Applications: cl.Applications,
		Issues:       cl.Issues,
		Reports:      cl.Reports,
		Views:        viewstate.New(st, 1024),
	})

	target, err := url.Parse(backendSrv.URL)
	require.NoError(t, err)

	s.handler = NewRouter(svc, s.bus, Options{
		Timeout: 2 * time.Second,
		Creds:   s.creds,
		Backend: target,
		API:     cl.API,
		WS:      config.WebSocketConfig{OriginPatterns: []string{"*"}, WriteTimeout: time.Second},
	})

	return s
}

func (s *stack) do(method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, rd)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	t.Parallel()

	s := newStack(t)

	rec := s.do(http.MethodGet, "/session", "", map[string]string{interceptors.HeaderRequestID: "rid-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "rid-1", rec.Header().Get(interceptors.HeaderRequestID))

	rec = s.do(http.MethodGet, "/session", "", nil)
	require.Len(t, rec.Header().Get(interceptors.HeaderRequestID), 32)
}

func TestRouter_RequireSession(t *testing.T) {
	t.Parallel()

	s := newStack(t)

	for _, target := range []string{"/dashboard", "/api/applications"} {
		rec := s.do(http.MethodGet, target, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, target)
		require.Contains(t, rec.Body.String(), `"unauthenticated"`)
	}
	require.Zero(t, s.refreshes.Load())
}

func TestRouter_Dashboard_RefreshesOnce(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	require.NoError(t, s.creds.SetPair(context.Background(), "T1", "R1"))

	rec := s.do(http.MethodGet, "/dashboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Total      int            `json:"total"`
		BySeverity map[string]int `json:"by_severity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 1, out.Total)
	require.Equal(t, 1, out.BySeverity["critical"])

	require.EqualValues(t, 1, s.refreshes.Load())
	tok, _ := s.creds.Get(context.Background(), credentials.Refresh)
	require.Equal(t, "R2", tok)
}

func TestRouter_Proxy_ReplaysBodyAndStripsClientCredentials(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	require.NoError(t, s.creds.SetPair(context.Background(), "T1", "R1"))

	rec := s.do(http.MethodPost, "/api/scans?app=1", `{"app":1}`, map[string]string{
		"Authorization": "Bearer from-browser",
		"Cookie":        "sid=1",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.JSONEq(t, `{"echo":{"app":1},"q":"app=1"}`, rec.Body.String())

	require.Equal(t, "Bearer T2|", s.seenAuth.Load())
	require.EqualValues(t, 1, s.refreshes.Load())
}

func TestRouter_Proxy_RefreshFailed_SessionExpired(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	require.NoError(t, s.creds.SetPair(context.Background(), "T1", "bad"))

	var expired atomic.Int32
	s.bus.Subscribe(func(_ context.Context, e session.Event) {
		if e == session.EventSessionExpired {
			expired.Add(1)
		}
	})

	// Ведущий запрос получает исходный 403 бэкенда.
	rec := s.do(http.MethodGet, "/api/applications", "", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.EqualValues(t, 1, expired.Load())

	rec = s.do(http.MethodGet, "/session", "", nil)
	require.JSONEq(t, `{"authenticated":false,"notice":"expired"}`, rec.Body.String())

	// Без учётных данных дальше не пускает.
	rec = s.do(http.MethodGet, "/api/applications", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LoginThenProxy(t *testing.T) {
	t.Parallel()

	s := newStack(t)

	rec := s.do(http.MethodPost, "/session/login", `{"username":"alice","password":"secret"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/applications", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"shop"`)
	require.Zero(t, s.refreshes.Load())
}

func TestRouter_EventsOutsideTimeout(t *testing.T) {
	t.Parallel()

	s := newStack(t)

	// Обычный GET без Upgrade отклоняется самим websocket-хендлером, а не таймаутом.
	rec := s.do(http.MethodGet, "/session/events", "", nil)
	require.NotEqual(t, http.StatusGatewayTimeout, rec.Code)
	require.NotEqual(t, http.StatusOK, rec.Code)
}
