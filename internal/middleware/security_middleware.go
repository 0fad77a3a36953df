package middleware

import "net/http"

// SecurityHeaders adds a standard set of security headers to every response.
//
// The API is called cross-origin by the mobile web build, so resources are
// marked cross-origin rather than same-origin; CORS decides who may read them.
//
//   - X-Content-Type-Options: nosniff
//   - Cache-Control / Pragma: facility status changes minute to minute, so
//     nothing is cached by browsers or proxies
//   - Cross-Origin-Resource-Policy: cross-origin
//   - Content-Security-Policy: default-src 'none'; JSON responses load nothing
//   - Referrer-Policy: no-referrer
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
