package handler

import (
	"net/http"

	"robot-dispatch/internal/middleware"
	"robot-dispatch/internal/usecase/dispatch"
	"robot-dispatch/internal/usecase/order"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler serves the sender and recipient views of orders.
type OrderHandler struct {
	orders   *order.Service
	dispatch *dispatch.Service
}

func NewOrderHandler(orders *order.Service, dispatchService *dispatch.Service) *OrderHandler {
	return &OrderHandler{orders: orders, dispatch: dispatchService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:order_id", h.Get)
		orders.POST("/:order_id/cancel", h.Cancel)
	}
}

func (h *OrderHandler) Create(c *gin.Context) {
	senderID, ok := callerUserID(c)
	if !ok {
		return
	}

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.orders.Create(c.Request.Context(), senderID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Order created successfully", resp)
}

func (h *OrderHandler) Get(c *gin.Context) {
	callerID, ok := callerUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	resp, err := h.orders.Get(c.Request.Context(), orderID, callerID, middleware.CurrentRole(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *OrderHandler) List(c *gin.Context) {
	callerID, ok := callerUserID(c)
	if !ok {
		return
	}

	var q order.ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	resp, err := h.orders.List(c.Request.Context(), callerID, &q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	senderID, ok := callerUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	resp, err := h.dispatch.Cancel(c.Request.Context(), orderID, senderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order cancelled", resp)
}
