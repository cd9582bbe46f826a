package httpserver

import (
	"fmt"
	"net/http"

	"koperasi-storefront/internal/cart"
	"koperasi-storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

type cartView struct {
	Lines     []domain.CartLine `json:"lines"`
	Total     int64             `json:"total"`
	ItemCount int               `json:"itemCount"`
}

func toCartView(s *cart.Store) cartView {
	lines := s.Lines()
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return cartView{Lines: lines, Total: s.Total(), ItemCount: s.ItemCount()}
}

type addLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type changeLineRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

func (h *handlers) openCart(c *gin.Context) (*cart.Store, bool) {
	s, err := h.deps.Carts.Open(c.Request.Context(), c.GetHeader(cartSessionHeader), actorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return s, true
}

func (h *handlers) newCartSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"session": h.deps.Carts.Issue(), "header": cartSessionHeader})
}

func (h *handlers) getCart(c *gin.Context) {
	s, ok := h.openCart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCartView(s))
}

func (h *handlers) clearCart(c *gin.Context) {
	s, ok := h.openCart(c)
	if !ok {
		return
	}
	s.Clear(c.Request.Context())
	c.JSON(http.StatusOK, toCartView(s))
}

func (h *handlers) addCartLine(c *gin.Context) {
	var in addLineRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, domain.Invalid("productId", "is required"))
		return
	}
	s, ok := h.openCart(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p, err := h.deps.Catalog.Get(ctx, in.ProductID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !p.IsAvailable {
		h.writeError(c, domain.Invalid("productId", "product is not available"))
		return
	}
	s.Add(ctx, *p)
	c.JSON(http.StatusOK, toCartView(s))
}

func (h *handlers) changeCartLine(c *gin.Context) {
	var in changeLineRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, domain.Invalid("delta", "is required"))
		return
	}
	if d := *in.Delta; d > cart.MaxLineQuantity || d < -cart.MaxLineQuantity {
		h.writeError(c, domain.Invalid("delta", fmt.Sprintf("must be between -%d and %d", cart.MaxLineQuantity, cart.MaxLineQuantity)))
		return
	}
	s, ok := h.openCart(c)
	if !ok {
		return
	}
	s.SetQuantity(c.Request.Context(), c.Param("productId"), *in.Delta)
	c.JSON(http.StatusOK, toCartView(s))
}

func (h *handlers) removeCartLine(c *gin.Context) {
	s, ok := h.openCart(c)
	if !ok {
		return
	}
	s.Remove(c.Request.Context(), c.Param("productId"))
	c.JSON(http.StatusOK, toCartView(s))
}
