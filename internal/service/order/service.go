package order

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"koperasi-storefront/internal/domain"
	"koperasi-storefront/internal/validate"
)

type orderRepo interface {
	CreateWithItems(ctx context.Context, o domain.Order, items []domain.OrderItem) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from *domain.OrderStatus, to domain.OrderStatus) (*domain.Order, error)
}

// Cart is the part of a cart.Store checkout needs.
type Cart interface {
	Lines() []domain.CartLine
	ClearSubmitted(ctx context.Context, submitted []domain.CartLine)
}

// CheckoutForm is what the student fills in at checkout.
type CheckoutForm struct {
	StudentName     string `json:"studentName" validate:"required,max=100"`
	StudentDorm     string `json:"studentDorm" validate:"dorm"`
	RoomNumber      string `json:"roomNumber" validate:"required,max=20"`
	Phone           string `json:"phone" validate:"min=10,max=20"`
	DeliveryMethod  string `json:"deliveryMethod" validate:"oneof=pickup delivery"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required_if=DeliveryMethod delivery,max=300"`
	DeliveryTime    string `json:"deliveryTime" validate:"max=50"`
	Notes           string `json:"notes" validate:"max=500"`
}

type Service struct {
	repo     orderRepo
	policy   domain.TransitionPolicy
	validate *validate.Validator
	logger   *log.Logger
}

// New builds the order service. A nil policy means free-form transitions.
func New(repo orderRepo, policy domain.TransitionPolicy, logger *log.Logger) *Service {
	if policy == nil {
		policy = domain.FreeFormPolicy{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, policy: policy, validate: validate.New(), logger: logger}
}

// Submit turns the cart into a pending order. The order and its items are
// written together; the cart is cleared only after that write succeeds.
func (s *Service) Submit(ctx context.Context, actor *domain.Actor, cart Cart, form CheckoutForm) (*domain.Order, error) {
	lines := cart.Lines()
	if len(lines) == 0 {
		return nil, domain.Invalid("cart", "empty cart")
	}
	if actor == nil {
		return nil, domain.ErrAuthRequired
	}
	form = trimForm(form)
	if err := s.validate.Struct(form); err != nil {
		return nil, err
	}
	method, _ := domain.ParseDeliveryMethod(form.DeliveryMethod)

	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Price:       l.Price,
			Quantity:    l.Quantity,
		})
	}
	o := domain.Order{
		UserID:         actor.ID,
		StudentName:    form.StudentName,
		StudentDorm:    form.StudentDorm,
		RoomNumber:     form.RoomNumber,
		Phone:          form.Phone,
		DeliveryMethod: method,
		DeliveryTime:   form.DeliveryTime,
		Status:         domain.StatusPending,
		TotalAmount:    domain.ItemsTotal(items),
		Notes:          form.Notes,
	}
	if method == domain.DeliveryDelivery {
		o.DeliveryAddress = form.DeliveryAddress
	}

	created, err := s.repo.CreateWithItems(ctx, o, items)
	if err != nil {
		s.logger.Printf("order: create account=%s items=%d error=%v", actor.ID, len(items), err)
		return nil, &domain.BackendWriteError{Op: "create order", Err: err}
	}
	cart.ClearSubmitted(ctx, lines)
	s.logger.Printf("order: created id=%s account=%s total=%d", created.ID, actor.ID, created.TotalAmount)
	return created, nil
}

// ListMine returns the actor's orders, newest first.
func (s *Service) ListMine(ctx context.Context, actor *domain.Actor) ([]domain.Order, error) {
	if actor == nil {
		return nil, domain.ErrAuthRequired
	}
	return s.repo.ListByAccount(ctx, actor.ID)
}

// Get returns the order with its items. Orders belonging to someone else are
// reported as not found unless isAdmin is set.
func (s *Service) Get(ctx context.Context, actor *domain.Actor, id string, isAdmin bool) (*domain.Order, error) {
	if actor == nil {
		return nil, domain.ErrAuthRequired
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.ID && !isAdmin {
		return nil, domain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// ListAll returns every order, newest first.
func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

// UpdateStatus moves an order to status, subject to the transition policy.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	to, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, domain.Invalid("status", err.Error())
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return current, nil
	}
	if err := s.policy.Allow(current.Status, to, current.DeliveryMethod); err != nil {
		return nil, err
	}

	var from *domain.OrderStatus
	if s.policy.Guarded() {
		from = &current.Status
	}
	updated, err := s.repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, &domain.BackendWriteError{Op: "update order status", Err: err}
	}
	s.logger.Printf("order: status id=%s from=%s to=%s", id, current.Status, to)
	return updated, nil
}

func trimForm(f CheckoutForm) CheckoutForm {
	f.StudentName = strings.TrimSpace(f.StudentName)
	f.StudentDorm = strings.TrimSpace(f.StudentDorm)
	f.RoomNumber = strings.TrimSpace(f.RoomNumber)
	f.Phone = strings.TrimSpace(f.Phone)
	f.DeliveryMethod = strings.TrimSpace(f.DeliveryMethod)
	f.DeliveryAddress = strings.TrimSpace(f.DeliveryAddress)
	f.DeliveryTime = strings.TrimSpace(f.DeliveryTime)
	f.Notes = strings.TrimSpace(f.Notes)
	return f
}
