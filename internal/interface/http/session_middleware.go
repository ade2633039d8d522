package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/urban-heat-advisor/internal/domain/session"
	"github.com/yanqian/urban-heat-advisor/internal/infra/config"
)

const sessionHeader = "X-Session-Token"

// sessionMiddleware resolves the caller's anonymous session. A missing, expired or
// tampered token is replaced by a fresh one instead of failing the request.
func sessionMiddleware(svc session.Service, cfg config.SessionConfig, logger *slog.Logger) gin.HandlerFunc {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "heat_session"
	}
	return func(c *gin.Context) {
		if token := presentedToken(c, cookieName); token != "" {
			claims, err := svc.Validate(c.Request.Context(), token)
			if err == nil {
				setSessionID(c, claims.SessionID)
				c.Next()
				return
			}
			logger.Debug("session token rejected, issuing a new one", "error", err)
		}

		issued, err := svc.Issue(c.Request.Context())
		if err != nil {
			abortWithError(c, asHTTPError(err))
			return
		}
		maxAge := int(time.Until(issued.ExpiresAt).Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, issued.Value, maxAge, "/", "", cfg.Secure, true)
		c.Header(sessionHeader, issued.Value)
		setSessionID(c, issued.SessionID)
		c.Next()
	}
}

func presentedToken(c *gin.Context, cookieName string) string {
	if header := strings.TrimSpace(c.GetHeader(sessionHeader)); header != "" {
		return header
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie
}
