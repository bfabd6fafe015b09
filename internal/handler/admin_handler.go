package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/service"
)

type AdminHandler struct {
	orderSvc    *service.OrderService
	userRepo    *repository.UserRepository
	productRepo *repository.ProductRepository
	orderRepo   *repository.OrderRepository
	auditRepo   *repository.AuditLogRepository
}

func NewAdminHandler(orderSvc *service.OrderService, userRepo *repository.UserRepository, productRepo *repository.ProductRepository, orderRepo *repository.OrderRepository, auditRepo *repository.AuditLogRepository) *AdminHandler {
	return &AdminHandler{
		orderSvc:    orderSvc,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		auditRepo:   auditRepo,
	}
}

// Dashboard aggregates headline counts for the admin overview.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)

	totalUsers, err := h.userRepo.CountAll()
	if err != nil {
		respondError(c, err)
		return
	}
	newUsers, err := h.userRepo.CountCreatedSince(thirtyDaysAgo)
	if err != nil {
		respondError(c, err)
		return
	}
	activeProducts, err := h.productRepo.CountByStatus(domain.ProductStatusActive)
	if err != nil {
		respondError(c, err)
		return
	}
	newProducts, err := h.productRepo.CountCreatedSince(thirtyDaysAgo)
	if err != nil {
		respondError(c, err)
		return
	}
	newOrders, err := h.orderRepo.CountCreatedSince(thirtyDaysAgo)
	if err != nil {
		respondError(c, err)
		return
	}
	revenue, err := h.orderRepo.RevenueCents()
	if err != nil {
		respondError(c, err)
		return
	}

	byStatus := gin.H{}
	for _, status := range []string{
		domain.OrderStatusPending,
		domain.OrderStatusSucceeded,
		domain.OrderStatusFailed,
		domain.OrderStatusCanceled,
		domain.OrderStatusRefunded,
		domain.OrderStatusCancellationRequested,
	} {
		n, err := h.orderRepo.CountByStatus(status)
		if err != nil {
			respondError(c, err)
			return
		}
		byStatus[status] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"users":         gin.H{"total": totalUsers, "new_last_30_days": newUsers},
		"products":      gin.H{"active": activeProducts, "new_last_30_days": newProducts},
		"orders":        gin.H{"by_status": byStatus, "new_last_30_days": newOrders},
		"revenue_cents": revenue,
	})
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter := repository.OrderFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if v := c.Query("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := c.Query("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.EndDate = &t
		}
	}
	orders, total, err := h.orderSvc.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "pagination": newPagination(page, limit, total)})
}

// ListCancellationRequests returns the admin review queue, oldest request
// first.
func (h *AdminHandler) ListCancellationRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	orders, total, err := h.orderSvc.ListCancellationRequests(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "pagination": newPagination(page, limit, total)})
}

func (h *AdminHandler) ProcessCancellation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req struct {
		Action     string `json:"action" binding:"required,oneof=approve reject"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := middleware.GetUserID(c)
	order, err := h.orderSvc.ProcessCancellation(c.Request.Context(), uint(id), adminID, req.Action, req.AdminNotes)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, adminID, "cancellation_"+req.Action, order.OrderID, req.AdminNotes)
	c.JSON(http.StatusOK, gin.H{
		"order_id":     order.OrderID,
		"status":       order.Status,
		"action":       req.Action,
		"processed_at": order.CancellationProcessedAt,
	})
}

func (h *AdminHandler) Refund(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req struct {
		Amount float64 `json:"amount"` // omit or 0 for a full refund
		Reason string  `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := middleware.GetUserID(c)
	amountCents := int64(math.Round(req.Amount * 100))
	order, err := h.orderSvc.Refund(c.Request.Context(), uint(id), adminID, amountCents, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, adminID, "refund", order.OrderID, req.Reason)
	c.JSON(http.StatusOK, gin.H{
		"order_id":            order.OrderID,
		"status":              order.Status,
		"refund_amount_cents": order.RefundAmountCents,
	})
}

func (h *AdminHandler) DeleteOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	adminID := middleware.GetUserID(c)
	order, err := h.orderSvc.SoftDelete(uint(id), adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, adminID, "order_deleted", order.OrderID, "")
	c.JSON(http.StatusOK, gin.H{"message": "order deleted", "order_id": order.OrderID})
}

func (h *AdminHandler) audit(c *gin.Context, adminID uint, action, resourceID, detail string) {
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   "order",
		ResourceID: resourceID,
		Detail:     detail,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}
