package payment

import (
	"context"
	"crypto/hmac"
	"log"

	"github.com/quickeats/orders-backend/internal/order"
)

// Reconciler correlates gateway callbacks with locally issued expectations
// and is the only actor allowed to confirm an order.
type Reconciler struct {
	repo    order.Repository
	engine  *order.Engine
	gateway Gateway
	secret  string
}

func NewReconciler(repo order.Repository, engine *order.Engine, gateway Gateway, secret string) *Reconciler {
	return &Reconciler{repo: repo, engine: engine, gateway: gateway, secret: secret}
}

// SetGateway swaps the gateway client; tests use it to simulate outages.
func (r *Reconciler) SetGateway(g Gateway) { r.gateway = g }

// CreatePaymentIntent asks the gateway for a handle scoped to the order's
// total and stores it for callback correlation. Order status is untouched on
// any failure, so the customer can simply retry.
func (r *Reconciler) CreatePaymentIntent(ctx context.Context, o *order.Order) (string, error) {
	ref, err := r.gateway.CreateIntent(ctx, o.Total, o.Code)
	if err != nil {
		return "", err
	}
	if err := r.repo.SetPaymentRef(ctx, o.Code, ref); err != nil {
		return "", err
	}
	return ref, nil
}

// VerifyCallback recomputes the expected signature and, on match, confirms
// the order. A replay for an already-confirmed order is a successful no-op
// so gateway retry storms stay harmless.
func (r *Reconciler) VerifyCallback(ctx context.Context, orderCode, gatewayOrderRef, gatewayPaymentRef, signature string) error {
	o, err := r.repo.GetByCode(ctx, orderCode)
	if err != nil {
		return err
	}

	expected := Sign(r.secret, gatewayOrderRef, gatewayPaymentRef)
	refMatches := o.GatewayOrderRef == "" || o.GatewayOrderRef == gatewayOrderRef
	if !refMatches || !hmac.Equal([]byte(expected), []byte(signature)) {
		// Treated as fraudulent or corrupted. Logged distinctly; order
		// status is not touched.
		log.Printf("[payment] SIGNATURE MISMATCH order=%s gateway_order_ref=%s", orderCode, gatewayOrderRef)
		if err := r.repo.SetPaymentStatus(ctx, orderCode, order.PaymentFailed); err != nil {
			log.Printf("[payment] mark failed order=%s err=%v", orderCode, err)
		}
		return ErrSignatureMismatch
	}

	if o.Status.Reached(order.StatusConfirmed) {
		return nil
	}

	actor := order.Actor{Kind: order.ActorPaymentSystem, ID: "gateway"}
	if _, err := r.engine.Transition(ctx, orderCode, order.StatusConfirmed, actor, "payment confirmed"); err != nil {
		return err
	}
	return r.repo.SetPaymentStatus(ctx, orderCode, order.PaymentCompleted)
}
