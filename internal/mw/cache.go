package mw

import (
	"bytes"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheKeyFunc derives the cache key of a GET request. Responses that depend on
// the caller must include the caller in the key.
type CacheKeyFunc func(c *gin.Context) string

// ResponseCache holds cached GET responses. Every Invalidate starts a new
// generation; a response computed during an older generation is never kept.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration
	gen   atomic.Uint64
}

// NewResponseCache creates a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Invalidate drops every cached response.
func (rc *ResponseCache) Invalidate() {
	rc.gen.Add(1)
	rc.store.Flush()
}

// put stores resp unless the cache was invalidated after gen was read. The
// generation is checked after the write so an Invalidate racing with it
// cannot leave the entry behind.
func (rc *ResponseCache) put(k string, gen uint64, resp cachedResponse) {
	if rc.gen.Load() != gen {
		return
	}
	rc.store.Set(k, resp, rc.ttl)
	if rc.gen.Load() != gen {
		rc.store.Delete(k)
	}
}

// Cache is a middleware for in-memory caching of successful GET responses.
func Cache(rc *ResponseCache, key CacheKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		k := key(c)
		if resp, found := rc.store.Get(k); found {
			cached := resp.(cachedResponse)
			for name, values := range cached.headers {
				if _, set := c.Writer.Header()[name]; !set {
					c.Writer.Header()[name] = values
				}
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			_, _ = c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		gen := rc.gen.Load()
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if blw.Status() >= 200 && blw.Status() < 300 {
			rc.put(k, gen, cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			})
		}
	}
}

// FlushOnWrite invalidates the cache after every successful non-GET request.
func FlushOnWrite(rc *ResponseCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rc.Invalidate()
		}
	}
}
