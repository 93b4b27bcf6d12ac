package handler

import (
	"net/http"

	"robot-dispatch/internal/usecase/fleet"
	"robot-dispatch/internal/usecase/robot"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

// FleetHandler is the surface robots call with their own token.
type FleetHandler struct {
	fleet  *fleet.Service
	robots *robot.Service
}

func NewFleetHandler(fleetService *fleet.Service, robotService *robot.Service) *FleetHandler {
	return &FleetHandler{fleet: fleetService, robots: robotService}
}

func (h *FleetHandler) RegisterRobotRoutes(router *gin.RouterGroup) {
	r := router.Group("/robot")
	{
		r.GET("/orders", h.ListMyOrders)
		r.POST("/orders/:order_id/accept", h.AcceptOrder)
		r.POST("/orders/:order_id/phase", h.ReportPhase)
		r.POST("/status", h.ReportStatus)
	}
}

func (h *FleetHandler) ListMyOrders(c *gin.Context) {
	robotID, ok := callerRobotID(c)
	if !ok {
		return
	}

	queue, err := h.fleet.ListMyOrders(c.Request.Context(), robotID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", queue)
}

func (h *FleetHandler) AcceptOrder(c *gin.Context) {
	robotID, ok := callerRobotID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	resp, err := h.fleet.AcceptOrder(c.Request.Context(), robotID, orderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order accepted", resp)
}

func (h *FleetHandler) ReportPhase(c *gin.Context) {
	robotID, ok := callerRobotID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	var req fleet.PhaseReport
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.fleet.ReportPhase(c.Request.Context(), robotID, orderID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Phase recorded", resp)
}

func (h *FleetHandler) ReportStatus(c *gin.Context) {
	robotID, ok := callerRobotID(c)
	if !ok {
		return
	}

	var req robot.StatusReport
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.robots.UpdateStatus(c.Request.Context(), robotID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Status recorded", resp)
}
