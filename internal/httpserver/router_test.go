package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"koperasi-storefront/internal/cart"
	"koperasi-storefront/internal/domain"
	"koperasi-storefront/internal/service/access"
	accountsvc "koperasi-storefront/internal/service/account"
	"koperasi-storefront/internal/service/cartsession"
	catalogsvc "koperasi-storefront/internal/service/catalog"
	ordersvc "koperasi-storefront/internal/service/order"

	"github.com/gin-gonic/gin"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// stubAccounts resolves fixed tokens to actors.
type stubAccounts struct {
	actors map[string]*domain.Actor
	admins map[string]bool
}

func newStubAccounts() *stubAccounts {
	return &stubAccounts{
		actors: map[string]*domain.Actor{
			"student-token": {ID: "u1", Email: "siti@example.com", Name: "Siti"},
			"admin-token":   {ID: "a1", Email: "admin@example.com", Name: "Admin"},
		},
		admins: map[string]bool{"a1": true},
	}
}

func (s *stubAccounts) Signup(_ context.Context, in accountsvc.SignupInput) (*domain.Account, string, error) {
	if in.Email == "taken@example.com" {
		return nil, "", domain.ErrAlreadyExists
	}
	return &domain.Account{ID: "u9", Email: in.Email, FullName: in.FullName}, "new-token", nil
}

func (s *stubAccounts) Login(_ context.Context, email, _ string) (*domain.Account, string, error) {
	for token, a := range s.actors {
		if a.Email == email {
			return &domain.Account{ID: a.ID, Email: a.Email, FullName: a.Name}, token, nil
		}
	}
	return nil, "", accountsvc.ErrInvalidCredentials
}

func (s *stubAccounts) Logout(_ context.Context, token string) error {
	delete(s.actors, token)
	return nil
}

func (s *stubAccounts) LookupByToken(_ context.Context, token string) (*domain.Actor, error) {
	a, ok := s.actors[token]
	if !ok {
		return nil, domain.ErrAuthRequired
	}
	return a, nil
}

func (s *stubAccounts) IsAdmin(_ context.Context, accountID string) (bool, error) {
	return s.admins[accountID], nil
}

func (s *stubAccounts) SessionTTLSeconds() int { return 3600 }

type stubCatalog struct {
	products map[string]domain.Product
	listErr  error
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: map[string]domain.Product{
		"p1": {ID: "p1", Name: "Nasi Goreng", Price: 15000, Category: domain.CategoryHeavyMeal, IsAvailable: true},
		"p2": {ID: "p2", Name: "Es Jeruk", Price: 8000, Category: domain.CategoryBeverage, IsAvailable: true},
		"p3": {ID: "p3", Name: "Keripik", Price: 2000, Category: domain.CategoryLightSnack, IsAvailable: false},
	}}
}

func (s *stubCatalog) Menu(_ context.Context) ([]domain.CategoryGroup, error) {
	groups := make([]domain.CategoryGroup, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		g := domain.CategoryGroup{Category: cat, Label: cat.Label(), Products: []domain.Product{}}
		for _, p := range s.products {
			if p.Category == cat && p.IsAvailable {
				g.Products = append(g.Products, p)
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *stubCatalog) Get(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *stubCatalog) ListAll(_ context.Context) ([]domain.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Product
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubCatalog) Save(_ context.Context, in catalogsvc.ProductInput, _ *catalogsvc.ImageUpload) (*domain.Product, error) {
	if in.Name == "" {
		return nil, domain.Invalid("name", "is required")
	}
	p := domain.Product{ID: "p9", Name: in.Name, Price: in.Price, Category: domain.Category(in.Category), IsAvailable: true}
	if in.ID != "" {
		p.ID = in.ID
	}
	s.products[p.ID] = p
	return &p, nil
}

func (s *stubCatalog) Delete(_ context.Context, id string) error {
	if _, ok := s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *stubCatalog) ToggleAvailability(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.IsAvailable = !p.IsAvailable
	s.products[id] = p
	return &p, nil
}

// memoryOrders is an in-memory order repository for the real order service.
type memoryOrders struct {
	orders map[string]domain.Order
	items  map[string][]domain.OrderItem
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{orders: map[string]domain.Order{}, items: map[string][]domain.OrderItem{}}
}

func (r *memoryOrders) CreateWithItems(_ context.Context, o domain.Order, items []domain.OrderItem) (*domain.Order, error) {
	o.ID = fmt.Sprintf("o%d", len(r.orders)+1)
	o.CreatedAt = time.Now().UTC()
	r.orders[o.ID] = o
	r.items[o.ID] = items
	return &o, nil
}

func (r *memoryOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (r *memoryOrders) ListItems(_ context.Context, id string) ([]domain.OrderItem, error) {
	return r.items[id], nil
}

func (r *memoryOrders) ListByAccount(_ context.Context, accountID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == accountID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memoryOrders) ListAll(_ context.Context) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *memoryOrders) UpdateStatus(_ context.Context, id string, from *domain.OrderStatus, to domain.OrderStatus) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if from != nil && o.Status != *from {
		return nil, domain.ErrConflict
	}
	o.Status = to
	r.orders[id] = o
	return &o, nil
}

type testEnv struct {
	router  *gin.Engine
	catalog *stubCatalog
	orders  *memoryOrders
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	accounts := newStubAccounts()
	catalog := newStubCatalog()
	orders := newMemoryOrders()
	router, err := buildRouter(logDiscard(), nil, Deps{
		Accounts: accounts,
		Guard:    access.New(accounts, accounts),
		Catalog:  catalog,
		Orders:   ordersvc.New(orders, domain.FreeFormPolicy{}, nil),
		Carts:    cartsession.New(cart.NewMemorySlots(), nil),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testEnv{router: router, catalog: catalog, orders: orders}
}

func (e *testEnv) do(method, path, token, session, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if session != "" {
		req.Header.Set(cartSessionHeader, session)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %s: %v", rec.Body.String(), err)
	}
}

func TestBuildRouter_RequiresDeps(t *testing.T) {
	if _, err := buildRouter(logDiscard(), nil, Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/healthz", "", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = env.do(http.MethodGet, "/readyz", "", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", rec.Code)
	}
}

func TestAdminRoute_NonAdminDenied(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/admin/orders", "student-token", "", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["error"] != deniedNotice || body["redirect"] != "/" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAuthenticatedRoute_AnonymousRedirectedToLogin(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/orders", "/auth/me", "/admin/dashboard"} {
		rec := env.do(http.MethodGet, path, "", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
		var body map[string]string
		decode(t, rec, &body)
		if body["redirect"] != "/auth" {
			t.Fatalf("%s: unexpected body %+v", path, body)
		}
	}
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/auth/session", "", "", `{"email":"admin@example.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var sess sessionResponse
	decode(t, rec, &sess)
	if sess.Token != "admin-token" || !sess.IsAdmin {
		t.Fatalf("unexpected session %+v", sess)
	}

	rec = env.do(http.MethodPost, "/auth/session", "", "", `{"email":"nobody@example.com","password":"x"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/auth/me", "student-token", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"isAdmin":false`) {
		t.Fatalf("unexpected me response %d %s", rec.Code, rec.Body.String())
	}
}

func TestSignup_DuplicateIsConflict(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/auth/signup", "", "", `{"email":"taken@example.com","password":"secret1","fullName":"X","phone":"081234567890"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	rec = env.do(http.MethodPost, "/auth/signup", "", "", `{"email":"new@example.com","password":"secret1","fullName":"New","phone":"081234567890"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMenu_GroupsInOrder(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/menu", "", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Categories []domain.CategoryGroup `json:"categories"`
	}
	decode(t, rec, &body)
	if len(body.Categories) != 3 || body.Categories[0].Category != domain.CategoryHeavyMeal {
		t.Fatalf("unexpected menu %+v", body.Categories)
	}
	if len(body.Categories[1].Products) != 0 {
		t.Fatalf("unavailable snack should be hidden")
	}
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/cart/session", "", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var sess map[string]string
	decode(t, rec, &sess)
	session := sess["session"]

	for _, id := range []string{"p1", "p1", "p2"} {
		rec = env.do(http.MethodPost, "/cart/lines", "", session, `{"productId":"`+id+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("add %s: got %d body=%s", id, rec.Code, rec.Body.String())
		}
	}
	var view cartView
	decode(t, rec, &view)
	if view.Total != 38000 || view.ItemCount != 3 || len(view.Lines) != 2 {
		t.Fatalf("unexpected cart %+v", view)
	}

	form := `{"studentName":"Siti","studentDorm":"Aisyah","roomNumber":"12","phone":"081234567890","deliveryMethod":"pickup"}`
	rec = env.do(http.MethodPost, "/checkout", "", session, form)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous checkout: expected 401, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/checkout", "student-token", session, form)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created orderView
	decode(t, rec, &created)
	if created.TotalAmount != 38000 || created.Status != domain.StatusPending {
		t.Fatalf("unexpected order %+v", created)
	}
	if loc := rec.Header().Get("Location"); loc != "/orders/"+created.ID {
		t.Fatalf("unexpected location %q", loc)
	}
	if len(env.orders.items[created.ID]) != 2 {
		t.Fatalf("expected 2 items stored")
	}

	rec = env.do(http.MethodGet, "/cart", "", session, "")
	decode(t, rec, &view)
	if len(view.Lines) != 0 {
		t.Fatalf("expected cart cleared, got %+v", view)
	}

	rec = env.do(http.MethodGet, "/orders/"+created.ID, "student-token", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner detail: got %d", rec.Code)
	}
	var detail orderView
	decode(t, rec, &detail)
	if len(detail.Items) != 2 || detail.StatusLabel != "Pesanan Diterima" {
		t.Fatalf("unexpected detail %+v", detail)
	}
}

func TestCheckout_EmptyCartIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	form := `{"studentName":"Siti","studentDorm":"Aisyah","roomNumber":"12","phone":"081234567890","deliveryMethod":"pickup"}`
	rec := env.do(http.MethodPost, "/checkout", "student-token", "", form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(env.orders.orders) != 0 {
		t.Fatalf("expected no orders written")
	}
}

func TestCart_UnavailableProductRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/cart/lines", "student-token", "", `{"productId":"p3"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = env.do(http.MethodPost, "/cart/lines", "", "not-a-uuid", `{"productId":"p1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad session, got %d", rec.Code)
	}
}

func TestCart_ChangeQuantityRemovesAtZero(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/cart/lines", "student-token", "", `{"productId":"p1"}`)
	rec := env.do(http.MethodPatch, "/cart/lines/p1", "student-token", "", `{"delta":-1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view cartView
	decode(t, rec, &view)
	if len(view.Lines) != 0 || view.Total != 0 {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestCart_ChangeQuantityRejectsOversizedDelta(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/cart/lines", "student-token", "", `{"productId":"p1"}`)
	rec := env.do(http.MethodPatch, "/cart/lines/p1", "student-token", "", `{"delta":1000000}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = env.do(http.MethodGet, "/cart", "student-token", "", "")
	var view cartView
	decode(t, rec, &view)
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 1 {
		t.Fatalf("cart should be unchanged, got %+v", view)
	}
}

func TestAdminUpdateStatus_FreeForm(t *testing.T) {
	env := newTestEnv(t)
	env.orders.orders["o1"] = domain.Order{ID: "o1", UserID: "u1", Status: domain.StatusPending}

	rec := env.do(http.MethodPatch, "/admin/orders/o1/status", "admin-token", "", `{"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if env.orders.orders["o1"].Status != domain.StatusCompleted {
		t.Fatalf("status not persisted")
	}
	rec = env.do(http.MethodPatch, "/admin/orders/o1/status", "admin-token", "", `{"status":"lost"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestAdminDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.orders.orders["o1"] = domain.Order{ID: "o1", UserID: "u1", Status: domain.StatusCompleted, TotalAmount: 38000}
	env.orders.orders["o2"] = domain.Order{ID: "o2", UserID: "u1", Status: domain.StatusPending, TotalAmount: 5000}

	rec := env.do(http.MethodGet, "/admin/dashboard", "admin-token", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var view dashboardView
	decode(t, rec, &view)
	if view.CompletedRevenue != 38000 || view.OrdersByStatus[domain.StatusPending] != 1 || view.AvailableProducts != 2 {
		t.Fatalf("unexpected dashboard %+v", view)
	}

	env.catalog.listErr = errors.New("db down")
	rec = env.do(http.MethodGet, "/admin/dashboard", "admin-token", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAdminProducts_MultipartCreateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	body := "--b\r\nContent-Disposition: form-data; name=\"name\"\r\n\r\nTeh Tarik\r\n" +
		"--b\r\nContent-Disposition: form-data; name=\"price\"\r\n\r\n6000\r\n" +
		"--b\r\nContent-Disposition: form-data; name=\"category\"\r\n\r\nminuman\r\n--b--\r\n"
	req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if p := env.catalog.products["p9"]; p.Name != "Teh Tarik" || p.Price != 6000 {
		t.Fatalf("unexpected product %+v", p)
	}

	rec = env.do(http.MethodDelete, "/admin/products/p9", "admin-token", "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = env.do(http.MethodDelete, "/admin/products/p9", "admin-token", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
