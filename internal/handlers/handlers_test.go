package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"realtime-events/internal/config"
	"realtime-events/internal/events"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testStack builds the router on a fresh manager in no-IdP development
// mode, so identities come from unverified test tokens.
func testStack(t *testing.T) (*gin.Engine, *events.Manager) {
	t.Helper()
	cfg := &config.Config{
		SkipTokenVerification: true,
		AllowedOrigins:        []string{"*"},
		Port:                  "0",
		LogLevel:              "info",
	}
	manager := events.NewManager(zap.NewNop())
	go manager.Run()
	return NewRouter(cfg, zap.NewNop(), manager, "realtime-events", "test"), manager
}

func bearerFor(t *testing.T, id, name, email string) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"oid":   id,
		"name":  name,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealth(t *testing.T) {
	router, _ := testStack(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"service":"realtime-events"`)
}

func TestMe(t *testing.T) {
	router, _ := testStack(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", bearerFor(t, "u1", "Alice", "alice@example.com"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)
	assert.Contains(t, w.Body.String(), `"email":"alice@example.com"`)
}

func TestActiveUsersEmpty(t *testing.T) {
	router, _ := testStack(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", bearerFor(t, "u1", "Alice", "alice@example.com"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Users []events.ActiveUser `json:"users"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Users)
	assert.Zero(t, body.Count)
}

func TestSendMessageRecipientNotConnected(t *testing.T) {
	router, _ := testStack(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"to":"nobody","content":"hi"}`))
	req.Header.Set("Authorization", bearerFor(t, "u1", "Alice", "alice@example.com"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessageRejectsBadBody(t *testing.T) {
	router, _ := testStack(t)

	for _, body := range []string{`{}`, `{"to":"u2"}`, `{"content":"hi"}`, `not json`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
		req.Header.Set("Authorization", bearerFor(t, "u1", "Alice", "alice@example.com"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q should be rejected", body)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	router, _ := testStack(t)

	// Guest fallback only applies in skip mode; force strict auth here.
	cfg := &config.Config{TenantID: "t", ClientID: "c", AllowedOrigins: []string{"*"}}
	manager := events.NewManager(zap.NewNop())
	go manager.Run()
	strict := NewRouter(cfg, zap.NewNop(), manager, "realtime-events", "test")

	w := httptest.NewRecorder()
	strict.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Health stays reachable without credentials.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func readEvent(t *testing.T, conn *websocket.Conn) *events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev events.Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return &ev
}

func TestChatEndToEnd(t *testing.T) {
	router, manager := testStack(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	// Bob attaches over the websocket.
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	header := http.Header{"Authorization": []string{bearerFor(t, "u2", "Bob", "bob@example.com")}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	welcome := readEvent(t, conn)
	assert.Equal(t, events.EventTypeUserJoined, welcome.Type)
	assert.Equal(t, "u2", welcome.Payload["user_id"])
	readEvent(t, conn) // joined broadcast

	require.Eventually(t, func() bool {
		return len(manager.GetActiveUsers()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Alice messages Bob through the REST endpoint.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/messages",
		strings.NewReader(`{"to":"u2","content":"hi bob"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", bearerFor(t, "u1", "Alice", "alice@example.com"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Bob sees the chat frame, attributed to Alice's verified identity.
	chat := readEvent(t, conn)
	assert.Equal(t, events.EventTypeChat, chat.Type)
	assert.Equal(t, "u1", chat.Payload["from"])
	assert.Equal(t, "Alice", chat.Payload["name"])
	assert.Equal(t, "hi bob", chat.Payload["content"])
}
