package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	elapsedKey      = "processing_time_ms"
)

// WithResponseMeta attaches a metadata map to the request that handlers can
// fill and pass to response.JSON. The map records when the request started.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Set(elapsedKey, time.Now())
		c.Next()
	}
}

// SetCacheHit records whether the payload was served from cache and stamps
// the elapsed processing time.
func SetCacheHit(c *gin.Context, hit bool) {
	meta := ensureMeta(c)
	meta[cacheHitKey] = hit
	if started, ok := c.Get(elapsedKey); ok {
		if at, ok := started.(time.Time); ok {
			meta[elapsedKey] = time.Since(at).Milliseconds()
		}
	}
}

// ExtractMeta returns the metadata map stored on the context, if any.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
