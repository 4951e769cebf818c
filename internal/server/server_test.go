package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/cache"
	"github.com/oggyb/pahilobhet/internal/config"
	"github.com/oggyb/pahilobhet/internal/db/dbtest"
	"github.com/oggyb/pahilobhet/internal/logger"
	"github.com/oggyb/pahilobhet/internal/server"
	"github.com/oggyb/pahilobhet/internal/service/account"
	"github.com/oggyb/pahilobhet/internal/service/conversation"
	"github.com/oggyb/pahilobhet/internal/service/event"
	"github.com/oggyb/pahilobhet/internal/service/matching"
	"github.com/oggyb/pahilobhet/internal/service/profile"
)

type testServer struct {
	*httptest.Server
	appCtx *app.AppContext
	redis  *miniredis.Miniredis
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.HTTP.RequestTimeout = 5 * time.Second
	cfg.Auth.RateLimit = rateLimit
	cfg.Matching.DiscoveryLimit = 10

	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })

	appCtx := app.New(cfg, dbtest.Open(t), rc, auth.NewTokenIssuer("test-secret", "test", time.Hour), logger.Discard())
	router := server.NewRouter(appCtx,
		account.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
		matching.NewRegistrar(appCtx),
		conversation.NewRegistrar(appCtx),
		event.NewRegistrar(appCtx),
	)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, appCtx: appCtx, redis: mr}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *testServer) signup(t *testing.T, name string) (string, uint64) {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name":     name,
		"email":    name + "@example.com",
		"password": "password123",
		"age":      26,
	})
	require.Equal(t, http.StatusCreated, code, body)
	user := body["user"].(map[string]any)
	return body["token"].(string), uint64(user["id"].(float64))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)

	code, body := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["status"])

	s.redis.Close()
	code, body = s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "degraded", body["status"])
	deps, ok := body["deps"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "down", deps["redis"], "error detail stays in the log")
	assert.Equal(t, "ok", deps["db"])
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, 0)

	for _, path := range []string{"/api/matching/profiles", "/api/profiles/me", "/api/conversations", "/api/events"} {
		code, body := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, false, body["success"])
	}

	code, _ := s.do(t, http.MethodGet, "/api/auth/validate", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSignupLoginValidate(t *testing.T) {
	s := newTestServer(t, 0)
	token, id := s.signup(t, "sunita")

	code, body := s.do(t, http.MethodGet, "/api/auth/validate", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(id), body["user"].(map[string]any)["id"])

	code, _ = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "again", "email": "SUNITA@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "sunita@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["token"])

	code, _ = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "sunita@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestProfilesOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)
	aTok, _ := s.signup(t, "ramesh")
	_, bID := s.signup(t, "sarita")

	code, body := s.do(t, http.MethodPut, "/api/profiles/me", aTok, map[string]any{"bio": "Trekking in Langtang", "location": "Lalitpur"})
	require.Equal(t, http.StatusOK, code, body)
	me := body["profile"].(map[string]any)
	assert.Equal(t, "Trekking in Langtang", me["bio"])
	assert.Equal(t, "ramesh@example.com", me["email"])

	code, _ = s.do(t, http.MethodPut, "/api/profiles/me", aTok, map[string]any{"height": 170})
	assert.Equal(t, http.StatusBadRequest, code, "unknown fields are rejected")

	code, body = s.do(t, http.MethodGet, fmt.Sprintf("/api/profiles/%d", bID), aTok, nil)
	require.Equal(t, http.StatusOK, code)
	other := body["profile"].(map[string]any)
	assert.Equal(t, "sarita", other["name"])
	assert.NotContains(t, other, "email", "public profiles hide the email")

	code, _ = s.do(t, http.MethodGet, "/api/profiles/999999", aTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	login := map[string]any{"email": "nobody@example.com", "password": "password123"}

	for i := 0; i < 2; i++ {
		code, _ := s.do(t, http.MethodPost, "/api/auth/login", "", login)
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	code, body := s.do(t, http.MethodPost, "/api/auth/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, false, body["success"])
}

func TestSwipeToConversation(t *testing.T) {
	s := newTestServer(t, 0)
	aTok, aID := s.signup(t, "anil")
	bTok, bID := s.signup(t, "binita")

	code, body := s.do(t, http.MethodGet, "/api/matching/profiles", aTok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["profiles"], 1)

	code, body = s.do(t, http.MethodPost, "/api/matching/like", aTok, map[string]any{"targetUserId": bID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Target user ID and action are required", body["message"])

	code, body = s.do(t, http.MethodPost, "/api/matching/like", aTok, map[string]any{"targetUserId": bID, "action": "wink"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodPost, "/api/matching/like", aTok, map[string]any{"targetUserId": bID, "action": "like"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Liked successfully", body["message"])
	assert.Equal(t, false, body["isMatch"])
	assert.NotContains(t, body, "matchId")

	code, body = s.do(t, http.MethodGet, "/api/matching/likes/count", bTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, body = s.do(t, http.MethodPost, "/api/matching/like", bTok, map[string]any{"targetUserId": aID, "action": "super_like"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Super liked successfully", body["message"])
	assert.Equal(t, true, body["isMatch"])
	matchID := uint64(body["matchId"].(float64))

	code, body = s.do(t, http.MethodGet, "/api/matching/matches", aTok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["matches"], 1)

	msgPath := fmt.Sprintf("/api/matches/%d/messages", matchID)
	code, _ = s.do(t, http.MethodPost, msgPath, aTok, map[string]any{"body": "namaste"})
	require.Equal(t, http.StatusCreated, code)

	code, body = s.do(t, http.MethodGet, msgPath, bTok, nil)
	require.Equal(t, http.StatusOK, code)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "namaste", msgs[0].(map[string]any)["body"])

	code, body = s.do(t, http.MethodGet, "/api/conversations", bTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["conversations"], 1)

	code, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/matching/matches/%d", matchID), bTok, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, msgPath, aTok, map[string]any{"body": "k bho?"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEventsOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)
	tok, _ := s.signup(t, "kamala")

	code, body := s.do(t, http.MethodPost, "/api/events", tok, map[string]any{
		"title":     "Dashain meetup",
		"location":  "Patan",
		"starts_at": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, code, body)
	id := uint64(body["event"].(map[string]any)["id"].(float64))

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/events/%d/rsvp", id), tok, map[string]any{"status": "going"})
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(t, http.MethodGet, fmt.Sprintf("/api/events/%d", id), tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["event"].(map[string]any)["attendee_count"])

	code, body = s.do(t, http.MethodGet, "/api/events/my-rsvps", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["rsvps"], 1)

	code, body = s.do(t, http.MethodGet, fmt.Sprintf("/api/events/%d/attendees", id), tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["attendees"], 1)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, 0)

	req, err := http.NewRequest(http.MethodOptions, s.URL+"/api/matching/like", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestGRPCHealth(t *testing.T) {
	s := newTestServer(t, 0)
	ctx := context.Background()

	lis := bufconn.Listen(1 << 20)
	grpcServer, hs := server.NewGRPCServer()
	server.UpdateHealth(ctx, s.appCtx, hs)
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	s.redis.Close()
	server.UpdateHealth(ctx, s.appCtx, hs)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
