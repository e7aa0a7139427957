package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"labequip-backend/internal/apperr"
	"labequip-backend/internal/identity"
	"labequip-backend/internal/model"
)

// envelope wraps every JSON response body.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, envelope{Code: http.StatusOK, Message: message, Data: data})
}

func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if kind == apperr.KindInternal {
		log.Printf("%s %s failed (request %s): %v", c.Request.Method, c.FullPath(), c.GetString("request_id"), err)
	}
	c.AbortWithStatusJSON(status, envelope{Code: status, Message: apperr.MessageOf(err), Data: nil})
}

func badRequest(c *gin.Context, message string) {
	respondError(c, apperr.InvalidArgument(message))
}

const msgBadBody = "参数错误：请求体格式无效"

// bindOptionalJSON decodes a body that may be left empty.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, msgBadBody)
		return false
	}
	return true
}

// actor returns the caller resolved by the identity middleware.
func actor(c *gin.Context) (identity.Actor, bool) {
	a, ok := identity.FromContext(c)
	if !ok {
		respondError(c, apperr.Unauthenticated("未授权访问，请先登录"))
	}
	return a, ok
}

// requireRoles rejects actors outside roles with 403.
func requireRoles(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		if !a.HasRole(roles...) {
			respondError(c, apperr.Forbidden("无权限访问该资源"))
			return
		}
		c.Next()
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "参数错误：ID无效")
		return 0, false
	}
	return id, true
}

// optionalInt64 parses an optional positive query parameter. ok is false when a value was present but invalid.
func optionalInt64(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, "参数错误："+name+"无效")
		return nil, false
	}
	return &v, true
}

func optionalInt(c *gin.Context, name string) (*int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "参数错误："+name+"无效")
		return nil, false
	}
	return &v, true
}

func optionalDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	d, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		badRequest(c, "参数错误："+name+"格式应为YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

// dateTimeLayouts are accepted for timestamps in request bodies. Values without
// a zone are taken as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	model.DateLayout,
}

// dateTime is a request timestamp that tolerates the common wire formats.
type dateTime struct {
	time.Time
}

func (d *dateTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			d.Time = t.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// ptr returns nil for an absent or zero timestamp.
func (d *dateTime) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
