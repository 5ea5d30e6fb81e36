package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
)

// CSRFExemptPaths are the URIs excluded from CSRF verification.
// Payment gateways post their notifications without a browser session.
var CSRFExemptPaths = []string{
	"payment/ali_pay/notify",
	"payment/wechat_pay/notify",
	"payment/wechat_pay/refund_notify",
}

// CSRF protects state changing requests except those to the exempt paths
func CSRF(authKey []byte, secure bool, exempt []string) func(http.Handler) http.Handler {
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden - CSRF token invalid", http.StatusForbidden)
		})),
	)

	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[strings.Trim(p, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[strings.Trim(r.URL.Path, "/")] {
				r = csrf.UnsafeSkipCheck(r)
			}
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// CSRFToken returns the token a client must echo in the X-CSRF-Token header
func CSRFToken(r *http.Request) string {
	return csrf.Token(r)
}
