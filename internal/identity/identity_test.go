package identity

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActor_Privileges(t *testing.T) {
	admin := Actor{ID: 1, Role: RoleAdmin}
	teacher := Actor{ID: 2, Role: RoleTeacher}
	student := Actor{ID: 3, Role: RoleStudent}

	assert.True(t, admin.Privileged())
	assert.False(t, teacher.Privileged())
	assert.True(t, admin.Owns(99))
	assert.True(t, student.Owns(3))
	assert.False(t, student.Owns(4))
	assert.True(t, teacher.HasRole(RoleAdmin, RoleTeacher))
	assert.False(t, student.HasRole(RoleAdmin, RoleTeacher))
}

func TestHeaderResolver(t *testing.T) {
	testCases := []struct {
		name    string
		id      string
		role    string
		want    Actor
		wantErr bool
	}{
		{name: "student", id: "12", role: "student", want: Actor{ID: 12, Role: RoleStudent}},
		{name: "role is case-insensitive", id: "1", role: "Admin", want: Actor{ID: 1, Role: RoleAdmin}},
		{name: "missing id", role: "teacher", wantErr: true},
		{name: "unknown role", id: "5", role: "janitor", wantErr: true},
		{name: "negative id", id: "-5", role: "student", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderUserID, tc.id)
			req.Header.Set(HeaderUserRole, tc.role)

			got, err := HeaderResolver{}.Resolve(req)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := BearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "bearer abc123")
	token, ok := BearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)

	req.Header.Set("Authorization", "Basic abc123")
	_, ok = BearerToken(req)
	assert.False(t, ok)
}

func TestDecodeSession(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	live, err := jsoniter.ConfigFastest.Marshal(Session{UserID: 4, Role: RoleTeacher, ExpiresAt: now.Unix() + 60})
	require.NoError(t, err)
	expired, err := jsoniter.ConfigFastest.Marshal(Session{UserID: 4, Role: RoleTeacher, ExpiresAt: now.Unix() - 1})
	require.NoError(t, err)

	sess, err := decodeSession(live, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), sess.UserID)
	assert.Equal(t, RoleTeacher, sess.Role)

	_, err = decodeSession(expired, now)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = decodeSession([]byte("{not json"), now)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(HeaderResolver{}))
	r.GET("/me", func(c *gin.Context) {
		actor, ok := FromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, actor)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "8")
	req.Header.Set(HeaderUserRole, "teacher")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":8,"role":"teacher"}`, w.Body.String())
}

type failingResolver struct{ err error }

func (r failingResolver) Resolve(*http.Request) (Actor, error) { return Actor{}, r.err }

func TestMiddleware_ResolverErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	testCases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "no credentials",
			err:      ErrUnauthenticated,
			wantCode: http.StatusUnauthorized,
			wantBody: `{"code":401,"message":"未授权访问，请先登录","data":null}`,
		},
		{
			name:     "session gone",
			err:      fmt.Errorf("lookup: %w", ErrSessionNotFound),
			wantCode: http.StatusUnauthorized,
			wantBody: `{"code":401,"message":"未授权访问，请先登录","data":null}`,
		},
		{
			name:     "session backend down",
			err:      errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"code":500,"message":"服务器内部错误","data":null}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			r := gin.New()
			r.Use(Middleware(failingResolver{err: tc.err}))
			r.GET("/me", func(c *gin.Context) { reached = true })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
			assert.Equal(t, tc.wantCode, w.Code)
			assert.JSONEq(t, tc.wantBody, w.Body.String())
			assert.False(t, reached)
		})
	}
}
