package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HandshakeCookie holds the signed embed handshake between /embed and /api/init
const HandshakeCookie = "embed_verified"

const embedVerifiedKey = "clipforge.embed_verified"

// DefaultRefererDomains are the CRM hosts allowed to frame the app
var DefaultRefererDomains = []string{
	"app.gohighlevel.com",
	"gohighlevel.com",
	"app.leadconnectorhq.com",
	"leadconnectorhq.com",
}

// RefererAllowed reports whether referer's host matches one of patterns.
// A "*.example.com" pattern matches example.com and any subdomain of it.
func RefererAllowed(referer string, patterns []string) bool {
	if referer == "" {
		return false
	}
	u, err := url.Parse(referer)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())

	for _, pattern := range patterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "*.") {
			if host == pattern[2:] || strings.HasSuffix(host, pattern[1:]) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

// EmbedHandshake sets the short-lived handshake cookie when the page is
// framed by an allowed CRM host
func EmbedHandshake(sign func() string, patterns []string, ttl time.Duration) gin.HandlerFunc {
	if len(patterns) == 0 {
		patterns = DefaultRefererDomains
	}
	maxAge := int(ttl / time.Second)

	return func(c *gin.Context) {
		if RefererAllowed(c.GetHeader("Referer"), patterns) {
			c.SetSameSite(http.SameSiteNoneMode)
			c.SetCookie(HandshakeCookie, sign(), maxAge, "/", "", true, true)
			c.Set(embedVerifiedKey, true)
		}
		c.Next()
	}
}

// EmbedVerified reports whether EmbedHandshake issued a cookie for this request
func EmbedVerified(c *gin.Context) bool {
	return c.GetBool(embedVerifiedKey)
}
