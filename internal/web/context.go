package web

import (
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/mimereg/internal/core"
)

// ActorHeader names the caller for audit attribution.
const ActorHeader = "X-Actor"

// withActor puts the audit actor into the request context: the X-Actor
// header when present, otherwise the configured default. Length is
// checked by the registry on mutation.
func (s *Server) withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" {
			actor = s.cfg.Audit.DefaultActor
		}
		ctx := core.ContextWithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorOf returns the audit actor set by withActor.
func actorOf(r *http.Request) string {
	return core.ActorFromContext(r.Context())
}

// clientIP returns the client address without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
