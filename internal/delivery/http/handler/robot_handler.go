package handler

import (
	"context"
	"net/http"

	"robot-dispatch/internal/usecase/robot"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RobotHandler serves fleet administration and the robot credential exchange.
type RobotHandler struct {
	service *robot.Service
}

func NewRobotHandler(service *robot.Service) *RobotHandler {
	return &RobotHandler{service: service}
}

// RegisterRoutes mounts the unauthenticated token exchange.
func (h *RobotHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/robots/auth", h.Authenticate)
}

// RegisterLiveRoutes mounts the cached telemetry view for signed-in users.
func (h *RobotHandler) RegisterLiveRoutes(router *gin.RouterGroup) {
	router.GET("/robots/:robot_id/live", h.Live)
}

func (h *RobotHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	robots := router.Group("/robots")
	{
		robots.POST("", h.Register)
		robots.GET("", h.List)
		robots.GET("/:robot_id", h.Get)
		robots.PUT("/:robot_id/status", h.SetStatus)
		robots.POST("/:robot_id/ping", h.Ping)
		robots.GET("/:robot_id/device-status", h.DeviceStatus)
		robots.POST("/:robot_id/emergency-stop", h.EmergencyStop)
	}
}

func (h *RobotHandler) Register(c *gin.Context) {
	var req robot.RegisterRobotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Robot registered successfully", resp)
}

func (h *RobotHandler) List(c *gin.Context) {
	var q robot.ListRobotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	resp, err := h.service.List(c.Request.Context(), &q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *RobotHandler) Get(c *gin.Context) {
	robotID, ok := pathID(c, "robot_id")
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), robotID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *RobotHandler) SetStatus(c *gin.Context) {
	robotID, ok := pathID(c, "robot_id")
	if !ok {
		return
	}

	var req robot.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.service.SetStatus(c.Request.Context(), robotID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Robot status updated", resp)
}

func (h *RobotHandler) Live(c *gin.Context) {
	robotID, ok := pathID(c, "robot_id")
	if !ok {
		return
	}

	resp, err := h.service.Live(c.Request.Context(), robotID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *RobotHandler) Authenticate(c *gin.Context) {
	var req robot.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.service.Authenticate(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Robot authenticated", resp)
}

func (h *RobotHandler) Ping(c *gin.Context) {
	h.deviceCommand(c, h.service.Ping)
}

func (h *RobotHandler) DeviceStatus(c *gin.Context) {
	h.deviceCommand(c, h.service.DeviceStatus)
}

func (h *RobotHandler) EmergencyStop(c *gin.Context) {
	h.deviceCommand(c, h.service.EmergencyStop)
}

func (h *RobotHandler) deviceCommand(c *gin.Context, call func(ctx context.Context, robotID uuid.UUID) (*robot.DeviceResult, error)) {
	robotID, ok := pathID(c, "robot_id")
	if !ok {
		return
	}

	resp, err := call(c.Request.Context(), robotID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}
