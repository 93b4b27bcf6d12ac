package handler

import (
	"net/http"

	"robot-dispatch/internal/usecase/node"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type NodeHandler struct {
	service *node.Service
}

func NewNodeHandler(service *node.Service) *NodeHandler {
	return &NodeHandler{service: service}
}

func (h *NodeHandler) RegisterRoutes(router *gin.RouterGroup) {
	nodes := router.Group("/nodes")
	{
		nodes.GET("", h.List)
		nodes.GET("/nearest", h.Nearest)
		nodes.GET("/:node_id", h.Get)
	}
}

func (h *NodeHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.POST("/nodes", h.Create)
}

func (h *NodeHandler) Create(c *gin.Context) {
	var req node.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Node created successfully", resp)
}

func (h *NodeHandler) Get(c *gin.Context) {
	nodeID, ok := pathID(c, "node_id")
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), nodeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *NodeHandler) List(c *gin.Context) {
	var q node.ListNodesQuery
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

func (h *NodeHandler) Nearest(c *gin.Context) {
	var q node.NearestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	resp, err := h.service.Nearest(c.Request.Context(), &q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}
