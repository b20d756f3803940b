package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/homemates/homemates-server/internal/models"
	"github.com/homemates/homemates-server/internal/performance"
	"github.com/homemates/homemates-server/internal/service"
)

// Handler holds the HTTP handlers for all API endpoints
type Handler struct {
	svc service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers all API routes on the given router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	apiGroup := router.Group("/api")

	auth := apiGroup.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
	}

	authed := apiGroup.Group("")
	authed.Use(AuthMiddleware())
	{
		authed.POST("/groups", h.CreateGroup)
		authed.POST("/groups/:groupId/members", h.JoinGroup)
		authed.GET("/groups/:groupId/members", h.GetGroupMembers)

		authed.POST("/groups/:groupId/debts", h.RecordDebt)

		authed.GET("/groups/:groupId/settlements", h.ListSettlements)
		authed.POST("/groups/:groupId/settlements", h.RecordSettlement)
		authed.GET("/groups/:groupId/settlements/simplify", h.SimplifyDebts)
		authed.POST("/groups/:groupId/settlements/settle-up", h.SettleUp)

		authed.GET("/groups/:groupId/performance", h.GroupPerformance)
		authed.GET("/groups/:groupId/members/:userId/score", h.UserScore)
	}
}

// SignUp handles POST /api/auth/signup
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateGroup handles POST /api/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CreateGroup(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// JoinGroup handles POST /api/groups/:groupId/members
func (h *Handler) JoinGroup(c *gin.Context) {
	resp, err := h.svc.JoinGroup(c.Request.Context(), currentUserID(c), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetGroupMembers handles GET /api/groups/:groupId/members
func (h *Handler) GetGroupMembers(c *gin.Context) {
	resp, err := h.svc.GetGroupMembers(c.Request.Context(), currentUserID(c), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RecordDebt handles POST /api/groups/:groupId/debts
func (h *Handler) RecordDebt(c *gin.Context) {
	var req models.RecordDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.RecordDebt(c.Request.Context(), currentUserID(c), c.Param("groupId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// RecordSettlement handles POST /api/groups/:groupId/settlements
func (h *Handler) RecordSettlement(c *gin.Context) {
	var req models.RecordSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.RecordSettlement(c.Request.Context(), currentUserID(c), c.Param("groupId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListSettlements handles GET /api/groups/:groupId/settlements
func (h *Handler) ListSettlements(c *gin.Context) {
	resp, err := h.svc.ListSettlements(c.Request.Context(), currentUserID(c), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SimplifyDebts handles GET /api/groups/:groupId/settlements/simplify
func (h *Handler) SimplifyDebts(c *gin.Context) {
	resp, err := h.svc.SimplifyDebts(c.Request.Context(), currentUserID(c), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SettleUp handles POST /api/groups/:groupId/settlements/settle-up
func (h *Handler) SettleUp(c *gin.Context) {
	resp, err := h.svc.SettleUp(c.Request.Context(), currentUserID(c), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GroupPerformance handles GET /api/groups/:groupId/performance?domain=
func (h *Handler) GroupPerformance(c *gin.Context) {
	domain := performance.Domain(c.DefaultQuery("domain", string(performance.DomainExpense)))

	resp, err := h.svc.ComputeGroupPerformance(c.Request.Context(), currentUserID(c), c.Param("groupId"), domain)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UserScore handles GET /api/groups/:groupId/members/:userId/score?domain=
func (h *Handler) UserScore(c *gin.Context) {
	domain := performance.Domain(c.DefaultQuery("domain", string(performance.DomainExpense)))

	resp, err := h.svc.ComputeUserScore(c.Request.Context(), currentUserID(c), c.Param("userId"), c.Param("groupId"), domain)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// currentUserID returns the authenticated user ID set by AuthMiddleware.
func currentUserID(c *gin.Context) string {
	return c.GetString("userId")
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	})
}

// respondError maps service errors onto HTTP status codes. Anything not
// covered by a sentinel is a storage or internal failure: logged, and
// reported without leaking the underlying error.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "INVALID_INPUT", Message: err.Error(),
		})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status: "error", Code: "UNAUTHORIZED", Message: err.Error(),
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status: "error", Code: "FORBIDDEN", Message: err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status: "error", Code: "NOT_FOUND", Message: err.Error(),
		})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status: "error", Code: "CONFLICT", Message: err.Error(),
		})
	default:
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status: "error", Code: "INTERNAL", Message: "internal server error",
		})
	}
}
