package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quickeats/orders-backend/internal/catalog"
	"github.com/quickeats/orders-backend/internal/httpx"
	ord "github.com/quickeats/orders-backend/internal/order"
	"github.com/quickeats/orders-backend/internal/payment"
)

func actorFrom(c *gin.Context) ord.Actor {
	kind := ord.ActorCustomer
	if c.GetString("actor_role") == httpx.RoleStaff {
		kind = ord.ActorStaff
	}
	return ord.Actor{Kind: kind, ID: c.GetString("actor_id")}
}

// canSee restricts customer reads to their own orders; staff see everything.
func canSee(c *gin.Context, customerID string) bool {
	if c.GetString("actor_role") == httpx.RoleStaff {
		return true
	}
	return c.GetString("actor_id") == customerID
}

// createOrderHandler handles POST /orders.
// @Summary Create an order
// @Router /orders [post]
func createOrderHandler(engine *ord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := engine.CreateOrder(c.Request.Context(), c.GetString("actor_id"), req)
		if err != nil {
			switch {
			case errors.Is(err, ord.ErrValidation):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, catalog.ErrInsufficientStock):
				c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "create order failed"})
			}
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// getOrderHandler handles GET /orders/:code.
// @Summary Fetch one order
// @Router /orders/{code} [get]
func getOrderHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := repo.GetByCode(c.Request.Context(), c.Param("code"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if !canSee(c, o.CustomerID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// listOrdersHandler handles GET /orders/user/:user_id.
// @Summary List a customer's orders
// @Router /orders/user/{user_id} [get]
func listOrdersHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.Param("user_id")
		if !canSee(c, uid) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		limit := queryInt(c, "limit", 20)
		offset := queryInt(c, "offset", 0)
		out, err := repo.ListByCustomer(c.Request.Context(), uid, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		if out == nil {
			out = []ord.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"items": out, "limit": limit, "offset": offset})
	}
}

// payOrderHandler handles POST /orders/:code/pay.
// @Summary Create a payment intent
// @Router /orders/{code}/pay [post]
func payOrderHandler(repo ord.Repository, rec *payment.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := repo.GetByCode(c.Request.Context(), c.Param("code"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if !canSee(c, o.CustomerID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		if o.Status != ord.StatusPlaced {
			c.JSON(http.StatusConflict, gin.H{"error": "order is not awaiting payment", "current_status": o.Status})
			return
		}
		ref, err := rec.CreatePaymentIntent(c.Request.Context(), o)
		if err != nil {
			if errors.Is(err, payment.ErrGatewayUnavailable) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable, retry"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment intent failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"gateway_order_ref": ref})
	}
}

// transitionHandler handles PATCH /orders/:code/status (staff only).
// @Summary Advance order status
// @Router /orders/{code}/status [patch]
func transitionHandler(engine *ord.Engine, repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.TransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := engine.Transition(c.Request.Context(), c.Param("code"), req.Status, actorFrom(c), req.Note)
		if err != nil {
			writeTransitionError(c, repo, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// cancelHandler handles PATCH /orders/:code/cancel (owner or staff).
// @Summary Cancel an order
// @Router /orders/{code}/cancel [patch]
func cancelHandler(engine *ord.Engine, repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := engine.Cancel(c.Request.Context(), c.Param("code"), actorFrom(c))
		if err != nil {
			writeTransitionError(c, repo, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func writeTransitionError(c *gin.Context, repo ord.Repository, err error) {
	switch {
	case errors.Is(err, ord.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, ord.ErrTerminalState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "current_status": currentStatus(c, repo)})
	case errors.Is(err, ord.ErrInvalidTransition):
		// Include the durable status so the UI can resync.
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "current_status": currentStatus(c, repo)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transition failed"})
	}
}

func currentStatus(c *gin.Context, repo ord.Repository) ord.Status {
	if o, err := repo.GetByCode(c.Request.Context(), c.Param("code")); err == nil {
		return o.Status
	}
	return ""
}

type webhookRequest struct {
	OrderCode         string `json:"order_code"`
	GatewayOrderRef   string `json:"gateway_order_ref"`
	GatewayPaymentRef string `json:"gateway_payment_ref"`
	Signature         string `json:"signature"`
}

// webhookHandler handles POST /payments/webhook. It always answers 200 so
// the gateway stops retrying; the internal outcome only shows in logs and
// order state.
// @Summary Payment gateway callback
// @Router /payments/webhook [post]
func webhookHandler(rec *payment.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req webhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		if err := rec.VerifyCallback(c.Request.Context(), req.OrderCode, req.GatewayOrderRef, req.GatewayPaymentRef, req.Signature); err != nil {
			log.Printf("[payment] webhook order=%s err=%v", req.OrderCode, err)
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
