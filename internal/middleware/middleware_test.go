package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/elearning-api/internal/authz"
	"github.com/noah-isme/elearning-api/internal/models"
	appErrors "github.com/noah-isme/elearning-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	token  string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.token = token
	if s.claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type observedRequest struct {
	method string
	path   string
	status int
}

type stubObserver struct {
	requests []observedRequest
}

func (s *stubObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	s.requests = append(s.requests, observedRequest{method: method, path: path, status: status})
}

func newRouter(validator TokenValidator, action authz.Action) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(validator), RequireAction(action), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"user": claims.UserID})
	})
	return r
}

func perform(r http.Handler, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Type  string `json:"type"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ERROR", body.Type)
	return body.Error.Code
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	r := newRouter(&stubValidator{}, authz.ActionViewProfile)

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer bad"} {
		w := perform(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
	}
}

func TestJWTAndRequireAction(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}}

	w := perform(newRouter(validator, authz.ActionSubmitAnswers), "bearer tok-123")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-123", validator.token)

	w = perform(newRouter(validator, authz.ActionViewLessonResults), "Bearer tok-123")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestRequireActionWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAction(authz.ActionViewProfile), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &stubObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/lessons/:lessonId", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/lessons/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, observer.requests, 2)
	assert.Equal(t, observedRequest{method: http.MethodGet, path: "/lessons/:lessonId", status: http.StatusNoContent}, observer.requests[0])
	assert.Equal(t, "unmatched", observer.requests[1].path)
	assert.Equal(t, http.StatusNotFound, observer.requests[1].status)
}
