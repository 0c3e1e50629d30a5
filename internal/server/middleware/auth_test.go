package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"signage-control-plane/internal/session/domain"
	"signage-control-plane/internal/session/service"
)

type fakeAuthorizer struct {
	sess *domain.Session
	err  error
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, token string) (*domain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

func newTestRouter(auth Authorizer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireSession(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actorId": ActorID(c), "sessionId": SessionID(c)})
	})
	return r
}

func TestRequireSessionSetsIdentity(t *testing.T) {
	auth := &fakeAuthorizer{sess: &domain.Session{ID: "s1", ActorID: "a1", Active: true}}
	r := newTestRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"actorId":"a1"`) {
		t.Errorf("body missing actor id: %s", w.Body.String())
	}
}

func TestRequireSessionStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		err      error
		wantCode int
		wantErr  string
	}{
		{"missing header", "", nil, http.StatusUnauthorized, "InvalidToken"},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized, "InvalidToken"},
		{"unknown token", "Bearer tok", service.ErrInvalidToken, http.StatusUnauthorized, "InvalidToken"},
		{"revoked session", "Bearer tok", service.ErrSessionRevoked, http.StatusUnauthorized, "SessionRevoked"},
		{"store down", "Bearer tok", service.ErrStoreUnavailable, http.StatusServiceUnavailable, "Unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&fakeAuthorizer{err: tc.err})
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
			}
			if !strings.Contains(w.Body.String(), tc.wantErr) {
				t.Errorf("body = %s, want error %q", w.Body.String(), tc.wantErr)
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Bearer tok", "tok"},
		{"bearer tok", "tok"},
		{"BEARER tok", "tok"},
		{"Bearer  spaced ", "spaced"},
		{"Bearer", ""},
		{"Token tok", ""},
	}
	for _, tc := range cases {
		if got := ExtractBearer(tc.in); got != tc.want {
			t.Errorf("ExtractBearer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
