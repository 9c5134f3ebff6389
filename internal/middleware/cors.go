package middleware

import "net/http"

// CORS allows browser clients from the configured origins. A single "*"
// entry allows any origin, without credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allow := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			continue
		}
		allow[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				_, allowed := allow[origin]
				switch {
				case allowed:
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					setCORSHeaders(w)
				case allowAll:
					w.Header().Set("Access-Control-Allow-Origin", "*")
					setCORSHeaders(w)
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Locale")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
}
