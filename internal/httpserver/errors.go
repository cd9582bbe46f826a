package httpserver

import (
	"errors"
	"net/http"

	"koperasi-storefront/internal/domain"
	accountsvc "koperasi-storefront/internal/service/account"
	"koperasi-storefront/internal/service/cartsession"
	"koperasi-storefront/internal/storage"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors to a status and a user-facing message. Causes
// of server-side failures are logged and kept out of the response.
func (h *handlers) writeError(c *gin.Context, err error) {
	var (
		verr *domain.ValidationError
		werr *domain.BackendWriteError
		derr *domain.DataIntegrityError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, domain.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": loginNotice, "redirect": loginRedirect})
	case errors.Is(err, accountsvc.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "email atau password salah"})
	case errors.Is(err, domain.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": deniedNotice, "redirect": homeRedirect})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, cartsession.ErrInvalidSession):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": cartSessionHeader})
	case errors.Is(err, storage.ErrNotImage), errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "image"})
	case errors.As(err, &werr):
		h.logger.Printf("api: %s path=%s error=%v", werr.Op, c.FullPath(), werr.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": werr.Notice()})
	case errors.As(err, &derr):
		h.logger.Printf("api: data integrity path=%s error=%v", c.FullPath(), derr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericFailure})
	default:
		h.logger.Printf("api: path=%s error=%v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericFailure})
	}
}
