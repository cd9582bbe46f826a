package httpserver

import (
	"net/http"

	"koperasi-storefront/internal/domain"
	ordersvc "koperasi-storefront/internal/service/order"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type orderView struct {
	domain.Order
	StatusLabel string `json:"statusLabel"`
	PaymentNote string `json:"paymentNote"`
}

func toOrderView(o domain.Order) orderView {
	return orderView{Order: o, StatusLabel: o.Status.Label(), PaymentNote: "Bayar di tempat (tunai)"}
}

func toOrderViews(orders []domain.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderView(o))
	}
	return out
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlers) checkout(c *gin.Context) {
	var form ordersvc.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.writeError(c, domain.Invalid("form", "invalid request body"))
		return
	}
	s, ok := h.openCart(c)
	if !ok {
		return
	}
	o, err := h.deps.Orders.Submit(c.Request.Context(), actorFrom(c), s, form)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Location", "/orders/"+o.ID)
	c.JSON(http.StatusCreated, toOrderView(*o))
}

func (h *handlers) myOrders(c *gin.Context) {
	orders, err := h.deps.Orders.ListMine(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toOrderViews(orders), "total": len(orders)})
}

func (h *handlers) order(c *gin.Context) {
	ctx := c.Request.Context()
	actor := actorFrom(c)
	isAdmin, err := h.deps.Accounts.IsAdmin(ctx, actor.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	o, err := h.deps.Orders.Get(ctx, actor, c.Param("id"), isAdmin)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(*o))
}

func (h *handlers) allOrders(c *gin.Context) {
	orders, err := h.deps.Orders.ListAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toOrderViews(orders), "total": len(orders)})
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var in statusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, domain.Invalid("status", "is required"))
		return
	}
	o, err := h.deps.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(*o))
}

type dashboardView struct {
	Orders            []orderView                `json:"orders"`
	Products          []productView              `json:"products"`
	OrdersByStatus    map[domain.OrderStatus]int `json:"ordersByStatus"`
	CompletedRevenue  int64                      `json:"completedRevenue"`
	AvailableProducts int                        `json:"availableProducts"`
}

// dashboard loads orders and products concurrently.
func (h *handlers) dashboard(c *gin.Context) {
	var (
		orders   []domain.Order
		products []domain.Product
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		orders, err = h.deps.Orders.ListAll(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = h.deps.Catalog.ListAll(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeError(c, err)
		return
	}

	view := dashboardView{
		Orders:         toOrderViews(orders),
		Products:       toProductViews(products),
		OrdersByStatus: make(map[domain.OrderStatus]int, len(domain.Statuses)),
	}
	for _, s := range domain.Statuses {
		view.OrdersByStatus[s] = 0
	}
	for _, o := range orders {
		view.OrdersByStatus[o.Status]++
		if o.Status == domain.StatusCompleted {
			view.CompletedRevenue += o.TotalAmount
		}
	}
	for _, p := range products {
		if p.IsAvailable {
			view.AvailableProducts++
		}
	}
	c.JSON(http.StatusOK, view)
}
