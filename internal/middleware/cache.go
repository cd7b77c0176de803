package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type cacheWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *cacheWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Cache serves repeated GET requests for the same URI from store. Only 2xx
// responses are kept. Flush the store when the underlying data changes.
func Cache(store *cache.Cache, ttl time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.RequestURI()
		if v, found := store.Get(key); found {
			cached := v.(cachedResponse)
			for k, vals := range cached.headers {
				w.Header()[k] = vals
			}
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(cached.status)
			_, _ = w.Write(cached.body)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		cw := &cacheWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)

		if cw.status >= 200 && cw.status < 300 {
			headers := w.Header().Clone()
			headers.Del("X-Cache")
			headers.Del(RequestIDHeader)
			store.Set(key, cachedResponse{status: cw.status, headers: headers, body: cw.body.Bytes()}, ttl)
		}
	})
}
