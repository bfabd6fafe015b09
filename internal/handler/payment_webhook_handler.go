package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/config"
	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/service"
)

type PaymentWebhookHandler struct {
	orderSvc  *service.OrderService
	auditRepo *repository.AuditLogRepository
	cfg       *config.Config
	log       *zap.Logger
}

func NewPaymentWebhookHandler(orderSvc *service.OrderService, auditRepo *repository.AuditLogRepository, cfg *config.Config, log *zap.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{orderSvc: orderSvc, auditRepo: auditRepo, cfg: cfg, log: log}
}

// Handle processes signed gateway callbacks. Verification fails closed: an
// unverifiable event never touches an order. The dev-only bypass must be
// switched on explicitly and shouts on every event it lets through.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sig := c.GetHeader("Gateway-Signature")
	if err := gateway.VerifySignature(body, sig, h.cfg.Payment.WebhookSecret, gateway.DefaultTolerance); err != nil {
		if h.cfg.Payment.AllowUnverifiedWebhooks && h.cfg.Server.Env != "production" {
			h.log.Warn("ACCEPTING UNVERIFIED WEBHOOK: development override is enabled",
				zap.String("ip", c.ClientIP()))
		} else {
			h.log.Warn("webhook signature rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
			respondError(c, err)
			return
		}
	}
	ev, err := gateway.ParseEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}
	if err := h.orderSvc.ApplyGatewayEvent(ev); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// No local order for this intent yet; acknowledge so the
			// provider stops retrying.
			c.JSON(http.StatusOK, gin.H{"received": true})
		case errors.Is(err, domain.ErrInvalidTransition),
			errors.Is(err, domain.ErrConcurrentModification):
			respondError(c, err)
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
		}
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		Action:     "gateway_event",
		Resource:   "order",
		ResourceID: ev.Data.Object.ID,
		Detail:     ev.Type,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"received": true})
}
