package mw

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-ledger-backend/internal/respcache"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

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

// Cache serves repeated GET requests from backend. Any successful non-GET
// request flushes the backend. A GET captures the cache generation before
// it runs, so a response built from rows read before a write is stored
// under the flushed generation and never served.
func Cache(backend respcache.Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if c.Request.Method != http.MethodGet {
			c.Next()
			if s := c.Writer.Status(); s >= 200 && s < 300 {
				backend.Flush(ctx)
			}
			return
		}

		gen, ok := backend.Generation(ctx)
		if !ok {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if cached, found := backend.Get(ctx, gen, key); found {
			for k, v := range cached.Header {
				c.Writer.Header()[k] = append([]string(nil), v...)
			}
			c.Writer.Header().Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(cached.Status)
			c.Writer.Write(cached.Body)
			c.Abort()
			return
		}

		c.Writer.Header().Set(CacheHeader, "MISS")
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			header := blw.Header().Clone()
			header.Del(CacheHeader)
			header.Del(RequestIDHeader)
			backend.Set(ctx, gen, key, respcache.Entry{
				Status: blw.Status(),
				Header: header,
				Body:   blw.body.Bytes(),
			})
		}
	}
}
