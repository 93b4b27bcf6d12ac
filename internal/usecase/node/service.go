// Package node manages the catalog of named geographic points orders travel
// between.
package node

import (
	"context"
	"errors"
	"fmt"

	domainNode "robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/geo"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"
	"robot-dispatch/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	nodeRepo domainNode.Repository
}

func NewService(nodeRepo domainNode.Repository) *Service {
	return &Service{nodeRepo: nodeRepo}
}

func (s *Service) Create(ctx context.Context, req *CreateNodeRequest) (*common.NodeResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	name := utils.SanitizeString(req.Name)
	if _, err := s.nodeRepo.GetByName(ctx, name); err == nil {
		return nil, appErrors.Conflict(fmt.Sprintf("Node %q already exists", name), nil)
	} else if !errors.Is(err, domainNode.ErrNodeNotFound) {
		return nil, err
	}

	n := &domainNode.Node{
		Name:      name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Type:      domainNode.Type(req.Type),
	}
	if err := s.nodeRepo.Create(ctx, n); err != nil {
		return nil, err
	}

	logger.Info("Node created",
		zap.String("node_id", n.ID.String()),
		zap.String("name", n.Name),
		zap.String("type", string(n.Type)),
		zap.String("event", "node_created"),
	)

	return common.ToNodeResponse(n), nil
}

func (s *Service) Get(ctx context.Context, nodeID uuid.UUID) (*common.NodeResponse, error) {
	n, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, common.NodeErr(err, nodeID)
	}
	return common.ToNodeResponse(n), nil
}

func (s *Service) List(ctx context.Context, q *ListNodesQuery) ([]*common.NodeResponse, error) {
	if err := utils.ValidateStruct(q); err != nil {
		return nil, appErrors.Validation("Invalid query", err)
	}

	nodes, err := s.list(ctx, q.Type)
	if err != nil {
		return nil, err
	}

	resp := make([]*common.NodeResponse, len(nodes))
	for i, n := range nodes {
		resp[i] = common.ToNodeResponse(n)
	}
	return resp, nil
}

// Nearest finds the node closest to the given point by great-circle distance,
// optionally restricted to one node type.
func (s *Service) Nearest(ctx context.Context, q *NearestQuery) (*NearestResponse, error) {
	if err := utils.ValidateStruct(q); err != nil {
		return nil, appErrors.Validation("Invalid query", err)
	}
	if err := geo.ValidateCoordinates(*q.Latitude, *q.Longitude); err != nil {
		return nil, appErrors.Validation("Invalid coordinates", err)
	}

	nodes, err := s.list(ctx, q.Type)
	if err != nil {
		return nil, err
	}

	best, dist := domainNode.Nearest(nodes, geo.Point{Latitude: *q.Latitude, Longitude: *q.Longitude})
	if best == nil {
		return nil, appErrors.NewAppError(appErrors.CodeNotFound, "No nodes match the query", nil)
	}

	return &NearestResponse{Node: common.ToNodeResponse(best), DistanceMeters: dist}, nil
}

func (s *Service) list(ctx context.Context, nodeType string) ([]*domainNode.Node, error) {
	if nodeType == "" {
		return s.nodeRepo.List(ctx, nil)
	}
	t := domainNode.Type(nodeType)
	return s.nodeRepo.List(ctx, &t)
}
