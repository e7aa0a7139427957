package api

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"labequip-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription registers or replaces a push endpoint for the caller.
func (h *Handler) PutSubscription(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误：endpoint、p256dh、auth不能为空")
		return
	}

	sub := &model.PushSubscription{
		Endpoint:  req.Endpoint,
		P256DH:    req.P256DH,
		Auth:      req.Auth,
		UserID:    a.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.SaveSubscription(c.Request.Context(), sub); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "订阅成功", gin.H{"endpoint": sub.Endpoint})
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes one of the caller's push endpoints.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误：endpoint不能为空")
		return
	}
	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint, a.ID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "取消订阅成功", nil)
}

// rawQueryParam returns key's value without URL decoding. Push endpoints carry
// their own escaping and must be compared byte for byte.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription lists the caller's endpoints, or reports whether one given
// endpoint is registered to the caller.
func (h *Handler) GetSubscription(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	subs, err := h.store.SubscriptionsForUser(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	raw, filtered := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	endpoints := make([]string, 0, len(subs))
	for _, sub := range subs {
		if filtered && sub.Endpoint != raw && sub.Endpoint != unescaped(raw) {
			continue
		}
		endpoints = append(endpoints, sub.Endpoint)
	}
	respondOK(c, "获取成功", gin.H{"endpoints": endpoints, "subscribed": len(endpoints) > 0})
}

func unescaped(s string) string {
	u, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return u
}
