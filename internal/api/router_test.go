package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/qrcs/qrcs/internal/app"
	iauth "github.com/qrcs/qrcs/internal/auth"
	"github.com/qrcs/qrcs/internal/database/testutil"
	"github.com/qrcs/qrcs/internal/notifications"
)

type apiEnv struct {
	router *gin.Engine
	t      *testing.T
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "router-test-secret",
		Issuer:         "qrcs-test",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Health.Enabled = true
	cfg.Monitoring.Prometheus.Enabled = true

	router, err := NewRouter(db, jwt, cfg, notifications.NewHub())
	require.NoError(t, err)

	return &apiEnv{router: router, t: t}
}

func (e *apiEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) decode(w *httptest.ResponseRecorder) map[string]any {
	e.t.Helper()

	var payload map[string]any
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

// register creates an account and returns its token.
func (e *apiEnv) register(username, role string) string {
	e.t.Helper()

	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret-password",
		"role":     role,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	data := e.decode(w)["data"].(map[string]any)
	return data["token"].(string)
}

func (e *apiEnv) firstCategoryID(token string) string {
	e.t.Helper()

	w := e.do(http.MethodGet, "/api/categories", token, nil)
	require.Equal(e.t, http.StatusOK, w.Code)
	categories := e.decode(w)["data"].([]any)
	require.NotEmpty(e.t, categories)
	return categories[0].(map[string]any)["id"].(string)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	env := newAPIEnv(t)

	token := env.register("alice", "reporter")

	// Protected route without a token is refused.
	w := env.do(http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := env.decode(w)["data"].(map[string]any)
	require.Equal(t, "alice", data["username"])

	// Login with the wrong password fails without leaking which part was wrong.
	w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "s3cret-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestIncidentLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t)

	reporterToken := env.register("alice", "reporter")
	adminToken := env.register("root", "admin")
	responderToken := env.register("bob", "responder")

	categoryID := env.firstCategoryID(reporterToken)

	// Reporter files an incident.
	w := env.do(http.MethodPost, "/api/incidents", reporterToken, gin.H{
		"title":       "Warehouse fire",
		"description": "Visible flames on the loading dock",
		"category_id": categoryID,
		"severity":    "high",
		"latitude":    40.7128,
		"longitude":   -74.0060,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	incident := env.decode(w)["data"].(map[string]any)
	incidentID := incident["id"].(string)
	require.Equal(t, "reported", incident["status"])

	// Admin sees it in the notification feed.
	w = env.do(http.MethodGet, "/api/notifications?unread=true", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, env.decode(w)["data"].([]any))

	// Find the responder's user id through the admin directory.
	w = env.do(http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var responderID string
	for _, item := range env.decode(w)["data"].([]any) {
		user := item.(map[string]any)
		if user["username"] == "bob" {
			responderID = user["id"].(string)
		}
	}
	require.NotEmpty(t, responderID)

	// Responder may not assign.
	assignPath := fmt.Sprintf("/api/incidents/%s/assignments", incidentID)
	w = env.do(http.MethodPost, assignPath, responderToken, gin.H{"responder_id": responderID})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Admin assigns; incident cascades to assigned.
	w = env.do(http.MethodPost, assignPath, adminToken, gin.H{"responder_id": responderID, "is_lead": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Assigning twice conflicts.
	w = env.do(http.MethodPost, assignPath, adminToken, gin.H{"responder_id": responderID})
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodGet, "/api/incidents/"+incidentID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "assigned", env.decode(w)["data"].(map[string]any)["status"])

	// Assigned responder works the incident.
	statusPath := fmt.Sprintf("/api/incidents/%s/status", incidentID)
	w = env.do(http.MethodPatch, statusPath, responderToken, gin.H{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)

	// Reporter cannot change status, even on their own incident.
	w = env.do(http.MethodPatch, statusPath, reporterToken, gin.H{"status": "resolved"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Responder records an action.
	w = env.do(http.MethodPost, fmt.Sprintf("/api/incidents/%s/responses", incidentID), responderToken, gin.H{
		"action":  "fire contained",
		"details": "two engines on site",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Resolve and close; closed is terminal.
	w = env.do(http.MethodPatch, statusPath, responderToken, gin.H{"status": "resolved"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.decode(w)["data"].(map[string]any)["resolved_at"])

	w = env.do(http.MethodPatch, statusPath, adminToken, gin.H{"status": "closed"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPatch, statusPath, adminToken, gin.H{"status": "in_progress"})
	require.Equal(t, http.StatusConflict, w.Code)

	// Nearby search sees the incident for the admin.
	w = env.do(http.MethodGet, "/api/incidents/nearby?lat=40.71&lng=-74.0&radius=10", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, env.decode(w)["data"].([]any))

	// Dashboard snapshot reflects the closed incident.
	w = env.do(http.MethodGet, "/api/dashboard/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := env.decode(w)["data"].(map[string]any)
	require.EqualValues(t, 1, stats["total_incidents"])
}

func TestVisibilityScopingOverHTTP(t *testing.T) {
	env := newAPIEnv(t)

	aliceToken := env.register("alice", "reporter")
	malloryToken := env.register("mallory", "reporter")
	categoryID := env.firstCategoryID(aliceToken)

	w := env.do(http.MethodPost, "/api/incidents", aliceToken, gin.H{
		"title":       "Blocked road",
		"description": "Tree down across both lanes",
		"category_id": categoryID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	incidentID := env.decode(w)["data"].(map[string]any)["id"].(string)

	// The other reporter cannot see it, in lists or directly.
	w = env.do(http.MethodGet, "/api/incidents", malloryToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, env.decode(w)["data"])

	w = env.do(http.MethodGet, "/api/incidents/"+incidentID, malloryToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationReadFlagOwnership(t *testing.T) {
	env := newAPIEnv(t)

	reporterToken := env.register("alice", "reporter")
	adminToken := env.register("root", "admin")
	categoryID := env.firstCategoryID(reporterToken)

	w := env.do(http.MethodPost, "/api/incidents", reporterToken, gin.H{
		"title":       "Power outage",
		"description": "Whole block dark",
		"category_id": categoryID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Admin got the fan-out notification.
	w = env.do(http.MethodGet, "/api/notifications", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := env.decode(w)["data"].([]any)
	require.NotEmpty(t, items)
	notificationID := items[0].(map[string]any)["id"].(string)

	// The reporter cannot mark the admin's notification.
	w = env.do(http.MethodPost, "/api/notifications/"+notificationID+"/read", reporterToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/notifications/"+notificationID+"/read", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/notifications/unread_count", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 0, env.decode(w)["data"].(map[string]any)["unread"])
}
