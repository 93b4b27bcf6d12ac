package handler

import (
	"net/http"

	"robot-dispatch/internal/usecase/dispatch"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DispatchHandler exposes manual and automatic robot assignment to admins.
type DispatchHandler struct {
	service *dispatch.Service
}

func NewDispatchHandler(service *dispatch.Service) *DispatchHandler {
	return &DispatchHandler{service: service}
}

func (h *DispatchHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders/:order_id")
	{
		orders.POST("/assign", h.Assign)
		orders.POST("/execute", h.Execute)
	}
}

func (h *DispatchHandler) Assign(c *gin.Context) {
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	var req dispatch.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.service.Assign(c.Request.Context(), orderID, req.RobotID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	message := "Robot assigned"
	if resp.AlreadyAssigned {
		message = "Robot already assigned"
	}
	utils.SuccessResponse(c, http.StatusOK, message, resp)
}

func (h *DispatchHandler) Execute(c *gin.Context) {
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	resp, err := h.service.Execute(c.Request.Context(), orderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order dispatched", resp)
}
