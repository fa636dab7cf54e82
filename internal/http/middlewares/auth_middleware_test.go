package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/contacthub/internal/auth"
	"github.com/geocoder89/contacthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(jwt middlewares.TokenVerifier) *gin.Engine {
	r := gin.New()

	mw := middlewares.NewAuthMiddleware(jwt)

	r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		userID, _ := middlewares.UserIDFromContext(c)
		email, _ := middlewares.EmailFromContext(c)
		token, _ := middlewares.TokenFromContext(c)

		c.JSON(http.StatusOK, gin.H{
			"userID": userID,
			"email":  email,
			"token":  token,
		})
	})

	return r
}

func TestRequireAuth(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)

	validToken, err := manager.GenerateToken("u-1", "a@x.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "no header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer not.a.jwt",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "token signed with another secret",
			header:     "Bearer " + mustToken(t, "other-secret"),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "valid token",
			header:     "Bearer " + validToken,
			wantStatus: http.StatusOK,
		},
	}

	r := protectedRouter(manager)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRequireAuthStashesIdentity(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)

	token, err := manager.GenerateToken("u-1", "a@x.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	r := protectedRouter(manager)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()

	for _, want := range []string{`"userID":"u-1"`, `"email":"a@x.com"`, `"token":"` + token + `"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
}

func mustToken(t *testing.T, secret string) string {
	t.Helper()

	token, err := auth.NewManager(secret, time.Hour).GenerateToken("u-1", "a@x.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	return token
}
