package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/gateway"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
)

type PaymentHandler struct {
	orderSvc *service.OrderService
}

func NewPaymentHandler(orderSvc *service.OrderService) *PaymentHandler {
	return &PaymentHandler{orderSvc: orderSvc}
}

type addressRequest struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

func (a addressRequest) toGateway() gateway.Address {
	return gateway.Address{
		Line1:      a.Address,
		City:       a.City,
		State:      a.State,
		Country:    a.Country,
		PostalCode: a.ZipCode,
	}
}

// CreateIntent runs checkout: the active cart becomes a payment intent plus a
// pending order.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req struct {
		Currency      string `json:"currency"`
		PaymentMethod string `json:"payment_method" binding:"required"`
		CustomerInfo  struct {
			FirstName string `json:"first_name" binding:"required"`
			LastName  string `json:"last_name" binding:"required"`
			Email     string `json:"email" binding:"required,email"`
			Phone     string `json:"phone"`
		} `json:"customer_info" binding:"required"`
		ShippingAddress addressRequest  `json:"shipping_address" binding:"required"`
		BillingAddress  *addressRequest `json:"billing_address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := service.CheckoutInput{
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Customer: gateway.CustomerInfo{
			FirstName: req.CustomerInfo.FirstName,
			LastName:  req.CustomerInfo.LastName,
			Email:     req.CustomerInfo.Email,
			Phone:     req.CustomerInfo.Phone,
		},
		Shipping:    req.ShippingAddress.toGateway(),
		BillingSame: req.BillingAddress == nil,
	}
	if req.BillingAddress != nil {
		in.Billing = req.BillingAddress.toGateway()
	}
	result, err := h.orderSvc.Checkout(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"client_secret":     result.ClientSecret,
		"payment_intent_id": result.Order.IntentID,
		"order_id":          result.Order.OrderID,
		"amount_cents":      result.Order.AmountCents,
		"currency":          result.Order.Currency,
	})
}

// Confirm re-checks the intent with the gateway for clients that do not want
// to wait for the webhook.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	order, err := h.orderSvc.Confirm(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":     order.OrderID,
		"status":       order.Status,
		"amount_cents": order.AmountCents,
		"currency":     order.Currency,
	})
}

func (h *PaymentHandler) ListMine(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	userID := middleware.GetUserID(c)
	orders, total, err := h.orderSvc.List(repository.OrderFilter{
		UserID: &userID,
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "pagination": newPagination(page, limit, total)})
}

func (h *PaymentHandler) Get(c *gin.Context) {
	order, err := h.orderSvc.GetForUser(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// RequestCancellation flags a settled order for admin review.
func (h *PaymentHandler) RequestCancellation(c *gin.Context) {
	var req struct {
		Reason         string `json:"reason"`
		AdditionalInfo string `json:"additional_info"`
	}
	_ = c.ShouldBindJSON(&req)
	order, err := h.orderSvc.RequestCancellation(c.Param("id"), middleware.GetUserID(c), req.Reason, req.AdditionalInfo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "cancellation request submitted, an admin will review it shortly",
		"order_id":     order.OrderID,
		"status":       order.Status,
		"requested_at": order.CancellationRequestedAt,
	})
}

// Cancel cancels a pending order outright; nothing has been charged yet.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	order, err := h.orderSvc.CancelPending(c.Param("id"), middleware.GetUserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "order cancelled",
		"order_id":     order.OrderID,
		"status":       order.Status,
		"processed_at": order.CancellationProcessedAt,
	})
}
