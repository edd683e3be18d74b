package server

import (
	"net/http"
	"strings"
)

// withCORS admits browser requests from the configured origins and answers
// their preflight requests.
func withCORS(allowed []string, next http.Handler) http.Handler {
	origins := make(map[string]bool, len(allowed))
	wildcard := false
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			wildcard = true
		}
		if o != "" {
			origins[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		ok := wildcard || origins[origin]
		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

		if ok {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		if !preflight {
			next.ServeHTTP(w, r)
			return
		}

		if !ok {
			http.Error(w, "Disallowed CORS origin", http.StatusBadRequest)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Methods", "DELETE, GET, HEAD, OPTIONS, PATCH, POST, PUT")
		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			h.Set("Access-Control-Allow-Headers", reqHeaders)
		}
		h.Set("Access-Control-Max-Age", "600")
		w.WriteHeader(http.StatusOK)
	})
}
