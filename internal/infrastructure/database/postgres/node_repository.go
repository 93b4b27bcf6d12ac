package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NodeRepository struct {
	db *DB
}

func NewNodeRepository(db *DB) *NodeRepository {
	return &NodeRepository{db: db}
}

func (r *NodeRepository) Create(ctx context.Context, n *node.Node) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	if err := r.db.DB.WithContext(ctx).Create(toNodeModel(n)).Error; err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}
	return nil
}

func (r *NodeRepository) GetByID(ctx context.Context, nodeID uuid.UUID) (*node.Node, error) {
	return r.first(r.db.DB.WithContext(ctx).Where("id = ?", nodeID))
}

func (r *NodeRepository) GetByName(ctx context.Context, name string) (*node.Node, error) {
	return r.first(r.db.DB.WithContext(ctx).Where("name = ?", name))
}

func (r *NodeRepository) first(db *gorm.DB) (*node.Node, error) {
	var dbModel models.NodeModel
	err := db.First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, node.ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return toNodeEntity(&dbModel), nil
}

func (r *NodeRepository) Update(ctx context.Context, n *node.Node) error {
	n.UpdatedAt = time.Now().UTC()

	result := r.db.DB.WithContext(ctx).
		Model(&models.NodeModel{}).
		Where("id = ?", n.ID).
		Updates(map[string]interface{}{
			"name":       n.Name,
			"latitude":   n.Latitude,
			"longitude":  n.Longitude,
			"type":       string(n.Type),
			"updated_at": n.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update node: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return node.ErrNodeNotFound
	}
	return nil
}

func (r *NodeRepository) List(ctx context.Context, nodeType *node.Type) ([]*node.Node, error) {
	var dbModels []models.NodeModel

	db := r.db.DB.WithContext(ctx).Model(&models.NodeModel{})
	if nodeType != nil {
		db = db.Where("type = ?", string(*nodeType))
	}

	if err := db.Order("name ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	nodes := make([]*node.Node, len(dbModels))
	for i := range dbModels {
		nodes[i] = toNodeEntity(&dbModels[i])
	}
	return nodes, nil
}

func toNodeModel(n *node.Node) *models.NodeModel {
	return &models.NodeModel{
		ID:        n.ID,
		Name:      n.Name,
		Latitude:  n.Latitude,
		Longitude: n.Longitude,
		Type:      string(n.Type),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func toNodeEntity(m *models.NodeModel) *node.Node {
	return &node.Node{
		ID:        m.ID,
		Name:      m.Name,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Type:      node.Type(m.Type),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
