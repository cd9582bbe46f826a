package httpserver

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"koperasi-storefront/internal/domain"
	catalogsvc "koperasi-storefront/internal/service/catalog"
	"koperasi-storefront/internal/storage"

	"github.com/gin-gonic/gin"
)

type productView struct {
	domain.Product
	CategoryLabel string `json:"categoryLabel"`
}

func toProductView(p domain.Product) productView {
	return productView{Product: p, CategoryLabel: p.Category.Label()}
}

func toProductViews(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	return out
}

func (h *handlers) menu(c *gin.Context) {
	groups, err := h.deps.Catalog.Menu(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": groups})
}

func (h *handlers) product(c *gin.Context) {
	p, err := h.deps.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(*p))
}

func (h *handlers) allProducts(c *gin.Context) {
	products, err := h.deps.Catalog.ListAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toProductViews(products), "total": len(products)})
}

// saveProduct accepts a multipart form with an optional "image" file.
// POST creates a product; PUT /:id updates it.
func (h *handlers) saveProduct(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.deps.MaxUploadBytes+1<<20)
	if err := c.Request.ParseMultipartForm(h.deps.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
			h.writeError(c, storage.ErrTooLarge)
			return
		}
		h.writeError(c, domain.Invalid("form", "unreadable form"))
		return
	}

	in := catalogsvc.ProductInput{
		ID:          c.Param("id"),
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
	}
	if raw := strings.TrimSpace(c.PostForm("price")); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(c, domain.Invalid("price", "must be a whole number"))
			return
		}
		in.Price = price
	}
	if raw := strings.TrimSpace(c.PostForm("isAvailable")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(c, domain.Invalid("isAvailable", "must be true or false"))
			return
		}
		in.IsAvailable = &v
	}

	var upload *catalogsvc.ImageUpload
	if fh, err := c.FormFile("image"); err == nil {
		if fh.Size > h.deps.MaxUploadBytes {
			h.writeError(c, storage.ErrTooLarge)
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.writeError(c, err)
			return
		}
		defer f.Close()
		upload = &catalogsvc.ImageUpload{Filename: fh.Filename, Body: f}
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		h.writeError(c, domain.Invalid("image", "unreadable upload"))
		return
	}

	p, err := h.deps.Catalog.Save(c.Request.Context(), in, upload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if in.ID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, toProductView(*p))
}

func (h *handlers) deleteProduct(c *gin.Context) {
	if err := h.deps.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) toggleAvailability(c *gin.Context) {
	p, err := h.deps.Catalog.ToggleAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(*p))
}

func (h *handlers) file(c *gin.Context) {
	ref := strings.TrimPrefix(c.Param("ref"), "/")
	f, err := h.deps.Files.Open(ref)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
