package identity

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Middleware resolves the actor once per request and stores it in the gin context.
// Missing or dead credentials are a 401; a failing session backend is a 500.
func Middleware(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := resolver.Resolve(c.Request)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrSessionNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":    http.StatusUnauthorized,
					"message": "未授权访问，请先登录",
					"data":    nil,
				})
				return
			}
			log.Printf("identity: resolve failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "服务器内部错误",
				"data":    nil,
			})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// FromContext returns the actor stored by Middleware.
func FromContext(c *gin.Context) (Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	return actor, ok
}
