package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetVAPIDPublicKey returns the VAPID public key browsers need to subscribe.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, envelope{Code: http.StatusServiceUnavailable, Message: "推送服务未配置"})
		return
	}
	respondOK(c, "获取成功", gin.H{"publicKey": h.webpush.VAPIDPublicKey})
}
