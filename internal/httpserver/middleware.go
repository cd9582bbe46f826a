package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"koperasi-storefront/internal/domain"
	"koperasi-storefront/internal/service/access"

	"github.com/gin-gonic/gin"
)

const (
	actorKey          = "actor"
	tokenKey          = "sessionToken"
	cartSessionHeader = "X-Cart-Session"

	loginRedirect  = "/auth"
	homeRedirect   = "/"
	deniedNotice   = "Akses ditolak. Anda bukan admin."
	loginNotice    = "Silakan login terlebih dahulu."
	genericFailure = "terjadi kesalahan, silakan coba lagi"
)

// requireLevel resolves the session on every request and stops the chain when
// the caller does not reach level.
func requireLevel(g guard, level access.Level, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		actor, err := g.Require(c.Request.Context(), token, level)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrAuthRequired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": loginNotice, "redirect": loginRedirect})
			return
		case errors.Is(err, domain.ErrPermissionDenied):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": deniedNotice, "redirect": homeRedirect})
			return
		default:
			logger.Printf("api: guard level=%s path=%s error=%v", level, c.FullPath(), err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": genericFailure})
			return
		}
		if actor != nil {
			c.Set(actorKey, actor)
			c.Set(tokenKey, token)
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func actorFrom(c *gin.Context) *domain.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*domain.Actor)
	return actor
}
