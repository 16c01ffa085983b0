package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/quickeats/orders-backend/internal/catalog"
	"github.com/quickeats/orders-backend/internal/customer"
	"github.com/quickeats/orders-backend/internal/httpx"
	"github.com/quickeats/orders-backend/internal/mailer"
	"github.com/quickeats/orders-backend/internal/notify"
	ord "github.com/quickeats/orders-backend/internal/order"
	"github.com/quickeats/orders-backend/internal/payment"
)

const (
	testJWTSecret  = "test-jwt-secret"
	testHookSecret = "test-hook-secret"
)

//
// ---------- STUBS & FAKES ----------
//

type stubGateway struct {
	ref string
	err error
}

func (g *stubGateway) CreateIntent(ctx context.Context, amount, reference string) (string, error) {
	return g.ref, g.err
}

type testApp struct {
	router *gin.Engine
	repo   *ord.MemoryRepo
	store  *catalog.MemStore
	rec    *payment.Reconciler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := ord.NewMemoryRepo()
	store := catalog.NewMemStore()
	customers := customer.NewMemRepo()
	customers.Put(&customer.Customer{ID: "cust-1", Name: "Ana", Email: "ana@example.com"})

	registry := notify.NewRegistry()
	dispatcher := notify.NewDispatcher(registry)
	engine := ord.NewEngine(repo, store, dispatcher, mailer.Noop{}, customers)
	rec := payment.NewReconciler(repo, engine, &stubGateway{ref: "gw-ref-1"}, testHookSecret)

	r := gin.New()
	r.POST("/payments/webhook", webhookHandler(rec))
	r.GET("/ws", notify.ServeWS(registry, func(token string) (string, error) {
		claims, err := httpx.ParseToken(testJWTSecret, token)
		if err != nil {
			return "", err
		}
		if claims.Role == httpx.RoleStaff {
			return notify.StaffAudience, nil
		}
		return claims.Subject, nil
	}))
	auth := r.Group("/", httpx.Auth(testJWTSecret))
	auth.POST("/orders", createOrderHandler(engine))
	auth.GET("/orders/:code", getOrderHandler(repo))
	auth.GET("/orders/user/:user_id", listOrdersHandler(repo))
	auth.POST("/orders/:code/pay", payOrderHandler(repo, rec))
	auth.PATCH("/orders/:code/status", httpx.RequireRole(httpx.RoleStaff), transitionHandler(engine, repo))
	auth.PATCH("/orders/:code/cancel", cancelHandler(engine, repo))

	return &testApp{router: r, repo: repo, store: store, rec: rec}
}

func mintToken(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return tok
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func validCart() ord.CreateOrderRequest {
	return ord.CreateOrderRequest{
		Items:         []ord.CreateOrderItem{{EntryID: "A", Quantity: 2}},
		Address:       ord.Address{Street: "1 Main St", City: "Springfield", Phone: "555-0101"},
		PaymentMethod: "card",
	}
}

func (a *testApp) createOrder(t *testing.T) ord.Order {
	t.Helper()
	w := a.do(t, http.MethodPost, "/orders", mintToken(t, "cust-1", httpx.RoleCustomer), validCart())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	var o ord.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	return o
}

//
// ---------- TESTS ----------
//

func TestCreateOrder_HappyPath(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "100.00", Stock: 5, Available: true})

	o := app.createOrder(t)

	if o.Total != "200.00" {
		t.Fatalf("total=%s, want 200.00 (server-priced)", o.Total)
	}
	if o.Status != ord.StatusPlaced {
		t.Fatalf("status=%s, want placed", o.Status)
	}
	entry, _ := app.store.Get(context.Background(), "A")
	if entry.Stock != 3 {
		t.Fatalf("stock=%d, want 3", entry.Stock)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "10.00", Stock: 0, Available: true})

	w := app.do(t, http.MethodPost, "/orders", mintToken(t, "cust-1", httpx.RoleCustomer), validCart())
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s, want 409", w.Code, w.Body.String())
	}
	// No order record was created.
	orders, _ := app.repo.ListByCustomer(context.Background(), "cust-1", 10, 0)
	if len(orders) != 0 {
		t.Fatalf("orders=%d, want 0", len(orders))
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	req := validCart()
	req.Items = nil
	w := app.do(t, http.MethodPost, "/orders", mintToken(t, "cust-1", httpx.RoleCustomer), req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s, want 400", w.Code, w.Body.String())
	}
}

func TestCreateOrder_Unauthenticated(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	w := app.do(t, http.MethodPost, "/orders", "", validCart())
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", w.Code)
	}
}

func TestGetOrder_NotFoundAndForbidden(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "10.00", Stock: 5, Available: true})
	o := app.createOrder(t)

	w := app.do(t, http.MethodGet, "/orders/QE-0-dead", mintToken(t, "cust-1", httpx.RoleCustomer), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", w.Code)
	}

	// Another customer cannot read this order; staff can.
	w = app.do(t, http.MethodGet, "/orders/"+o.Code, mintToken(t, "cust-2", httpx.RoleCustomer), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want 403", w.Code)
	}
	w = app.do(t, http.MethodGet, "/orders/"+o.Code, mintToken(t, "staff-1", httpx.RoleStaff), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
}

func webhookBody(orderCode, orderRef, payRef, sig string) map[string]string {
	return map[string]string{
		"order_code":          orderCode,
		"gateway_order_ref":   orderRef,
		"gateway_payment_ref": payRef,
		"signature":           sig,
	}
}

func TestWebhook_ConfirmsAndIsIdempotent(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "10.00", Stock: 5, Available: true})
	o := app.createOrder(t)

	sig := payment.Sign(testHookSecret, "gw-1", "pay-1")
	for i := 0; i < 2; i++ {
		w := app.do(t, http.MethodPost, "/payments/webhook", "", webhookBody(o.Code, "gw-1", "pay-1", sig))
		if w.Code != http.StatusOK {
			t.Fatalf("attempt %d status=%d, want 200", i, w.Code)
		}
	}

	got, _ := app.repo.GetByCode(context.Background(), o.Code)
	if got.Status != ord.StatusConfirmed {
		t.Fatalf("status=%s, want confirmed", got.Status)
	}
	// Confirmed exactly once despite the replay.
	if len(got.History) != 2 {
		t.Fatalf("history=%d, want 2", len(got.History))
	}
}

func TestWebhook_BadSignatureStill200(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "10.00", Stock: 5, Available: true})
	o := app.createOrder(t)

	w := app.do(t, http.MethodPost, "/payments/webhook", "", webhookBody(o.Code, "gw-1", "pay-1", "forged"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200 (gateway retry suppression)", w.Code)
	}
	got, _ := app.repo.GetByCode(context.Background(), o.Code)
	if got.PaymentStatus != ord.PaymentFailed {
		t.Fatalf("payment_status=%s, want failed", got.PaymentStatus)
	}
	if got.Status != ord.StatusPlaced {
		t.Fatalf("status=%s, want placed untouched", got.Status)
	}
}

func TestTransition_StaffOnly(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "10.00", Stock: 5, Available: true})
	o := app.createOrder(t)

	body := ord.TransitionRequest{Status: ord.StatusPreparing}
	w := app.do(t, http.MethodPatch, "/orders/"+o.Code+"/status", mintToken(t, "cust-1", httpx.RoleCustomer), body)
	if w.Code != http.StatusForbidden {
		t.Fatalf("customer status=%d, want 403", w.Code)
	}

	// placed -> preparing skips confirmed: rejected, body carries the
	// durable status for resync.
	w = app.do(t, http.MethodPatch, "/orders/"+o.Code+"/status", mintToken(t, "staff-1", httpx.RoleStaff), body)
	if w.Code != http.StatusConflict {
		t.Fatalf("staff status=%d body=%s, want 409", w.Code, w.Body.String())
	}
	var resp struct {
		CurrentStatus ord.Status `json:"current_status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.CurrentStatus != ord.StatusPlaced {
		t.Fatalf("resync status=%q body=%s", resp.CurrentStatus, w.Body.String())
	}

	// Confirm via webhook, then staff advances normally.
	sig := payment.Sign(testHookSecret, "gw-1", "pay-1")
	app.do(t, http.MethodPost, "/payments/webhook", "", webhookBody(o.Code, "gw-1", "pay-1", sig))
	w = app.do(t, http.MethodPatch, "/orders/"+o.Code+"/status", mintToken(t, "staff-1", httpx.RoleStaff), body)
	if w.Code != http.StatusOK {
		t.Fatalf("staff advance status=%d body=%s, want 200", w.Code, w.Body.String())
	}
}

func TestCancel_SecondAttemptIsTerminal(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "10.00", Stock: 5, Available: true})
	o := app.createOrder(t)

	token := mintToken(t, "cust-1", httpx.RoleCustomer)
	w := app.do(t, http.MethodPatch, "/orders/"+o.Code+"/cancel", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status=%d body=%s, want 200", w.Code, w.Body.String())
	}
	// Reservation was released.
	entry, _ := app.store.Get(context.Background(), "A")
	if entry.Stock != 5 {
		t.Fatalf("stock=%d, want restored 5", entry.Stock)
	}

	w = app.do(t, http.MethodPatch, "/orders/"+o.Code+"/cancel", token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second cancel status=%d, want 409", w.Code)
	}
}

func TestPayOrder_GatewayDown(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "10.00", Stock: 5, Available: true})
	o := app.createOrder(t)

	app.rec.SetGateway(&stubGateway{err: payment.ErrGatewayUnavailable})
	token := mintToken(t, "cust-1", httpx.RoleCustomer)
	w := app.do(t, http.MethodPost, "/orders/"+o.Code+"/pay", token, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d, want 502", w.Code)
	}
	// Order stays placed with no handle; the customer can retry.
	got, _ := app.repo.GetByCode(context.Background(), o.Code)
	if got.Status != ord.StatusPlaced || got.GatewayOrderRef != "" {
		t.Fatalf("status=%s ref=%q, want placed/empty", got.Status, got.GatewayOrderRef)
	}

	app.rec.SetGateway(&stubGateway{ref: "gw-77"})
	w = app.do(t, http.MethodPost, "/orders/"+o.Code+"/pay", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("retry status=%d body=%s, want 200", w.Code, w.Body.String())
	}
}

func TestListOrders_OwnerScoped(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "10.00", Stock: 5, Available: true})
	app.createOrder(t)

	w := app.do(t, http.MethodGet, "/orders/user/cust-1", mintToken(t, "cust-1", httpx.RoleCustomer), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	var resp struct {
		Items []ord.Order `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items=%d, want 1", len(resp.Items))
	}

	w = app.do(t, http.MethodGet, "/orders/user/cust-1", mintToken(t, "cust-2", httpx.RoleCustomer), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want 403", w.Code)
	}
}

func TestWS_RejectsBadToken(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	w := app.do(t, http.MethodGet, "/ws?token=junk", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", w.Code)
	}
}

func TestFullLifecycleScenario(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.store.Put(&catalog.Entry{ID: "A", Name: "Pad Thai", Price: "100.00", Stock: 5, Available: true})

	o := app.createOrder(t)
	if o.Total != "200.00" {
		t.Fatalf("total=%s, want 200.00", o.Total)
	}

	sig := payment.Sign(testHookSecret, "gw-1", "pay-1")
	app.do(t, http.MethodPost, "/payments/webhook", "", webhookBody(o.Code, "gw-1", "pay-1", sig))

	staff := mintToken(t, "staff-1", httpx.RoleStaff)
	for _, s := range []ord.Status{ord.StatusPreparing, ord.StatusReady, ord.StatusOutForDelivery, ord.StatusDelivered} {
		w := app.do(t, http.MethodPatch, "/orders/"+o.Code+"/status", staff, ord.TransitionRequest{Status: s})
		if w.Code != http.StatusOK {
			t.Fatalf("advance to %s status=%d body=%s", s, w.Code, w.Body.String())
		}
	}

	got, _ := app.repo.GetByCode(context.Background(), o.Code)
	if len(got.History) != 6 {
		t.Fatalf("history=%d, want 6", len(got.History))
	}
	if got.DeliveredAt == nil {
		t.Fatal("delivered_at not set")
	}

	w := app.do(t, http.MethodPatch, "/orders/"+o.Code+"/status", staff, ord.TransitionRequest{Status: ord.StatusPreparing})
	if w.Code != http.StatusConflict {
		t.Fatalf("post-delivery transition status=%d, want 409", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("terminal")) {
		t.Fatalf("body=%s, want terminal-state error", w.Body.String())
	}
}
