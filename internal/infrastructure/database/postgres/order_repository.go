package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var activeOrderStatuses = []string{string(order.StatusProcessing), string(order.StatusEnRoute)}

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	dbModel := toOrderModel(o)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	return r.get(r.db.DB.WithContext(ctx), orderID)
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	return r.get(r.db.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), orderID)
}

func (r *OrderRepository) get(db *gorm.DB, orderID uuid.UUID) (*order.Order, error) {
	var dbModel models.OrderModel
	err := db.Where("id = ?", orderID).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return toOrderEntity(&dbModel), nil
}

func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now().UTC()
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"status":           string(o.Status),
			"robot_id":         o.RobotID,
			"is_product_paid":  o.IsProductPaid,
			"is_delivery_paid": o.IsDeliveryPaid,
			"last_phase":       o.LastPhase,
			"last_phase_at":    o.LastPhaseAt,
			"completed_at":     o.CompletedAt,
			"updated_at":       o.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}

	return nil
}

func (r *OrderRepository) List(ctx context.Context, filter *order.Filter) ([]*order.Order, int64, error) {
	var dbModels []models.OrderModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.OrderModel{})

	if filter != nil {
		if filter.Status != nil {
			db = db.Where("status = ?", string(*filter.Status))
		}
		if filter.SenderID != nil {
			db = db.Where("sender_id = ?", *filter.SenderID)
		}
		if filter.RecipientID != nil {
			db = db.Where("recipient_id = ?", *filter.RecipientID)
		}
		if filter.RobotID != nil {
			db = db.Where("robot_id = ?", *filter.RobotID)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	page, pageSize := 1, 20
	if filter != nil {
		if filter.Page > 0 {
			page = filter.Page
		}
		if filter.PageSize > 0 && filter.PageSize <= 100 {
			pageSize = filter.PageSize
		}
	}

	err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*order.Order, len(dbModels))
	for i := range dbModels {
		orders[i] = toOrderEntity(&dbModels[i])
	}

	return orders, total, nil
}

func (r *OrderRepository) ListActiveByRobot(ctx context.Context, robotID uuid.UUID) ([]*order.Order, error) {
	var dbModels []models.OrderModel
	err := r.db.DB.WithContext(ctx).
		Where("robot_id = ? AND status IN ?", robotID, activeOrderStatuses).
		Order("created_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list robot orders: %w", err)
	}

	orders := make([]*order.Order, len(dbModels))
	for i := range dbModels {
		orders[i] = toOrderEntity(&dbModels[i])
	}
	return orders, nil
}

func (r *OrderRepository) CountActiveByRobot(ctx context.Context, robotID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("robot_id = ? AND status IN ?", robotID, activeOrderStatuses).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count robot orders: %w", err)
	}
	return count, nil
}

func toOrderModel(o *order.Order) *models.OrderModel {
	return &models.OrderModel{
		ID:             o.ID,
		Name:           o.Name,
		Description:    o.Description,
		WeightKg:       o.WeightKg,
		DeliveryPrice:  o.DeliveryPrice,
		ProductPrice:   o.ProductPrice,
		IsProductPaid:  o.IsProductPaid,
		IsDeliveryPaid: o.IsDeliveryPaid,
		Payer:          string(o.Payer),
		Status:         string(o.Status),
		SenderID:       o.SenderID,
		RecipientID:    o.RecipientID,
		PickupNodeID:   o.PickupNodeID,
		DropoffNodeID:  o.DropoffNodeID,
		RobotID:        o.RobotID,
		LastPhase:      o.LastPhase,
		LastPhaseAt:    o.LastPhaseAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		CompletedAt:    o.CompletedAt,
	}
}

func toOrderEntity(m *models.OrderModel) *order.Order {
	return &order.Order{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		WeightKg:       m.WeightKg,
		DeliveryPrice:  m.DeliveryPrice,
		ProductPrice:   m.ProductPrice,
		IsProductPaid:  m.IsProductPaid,
		IsDeliveryPaid: m.IsDeliveryPaid,
		Payer:          order.Payer(m.Payer),
		Status:         order.Status(m.Status),
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		PickupNodeID:   m.PickupNodeID,
		DropoffNodeID:  m.DropoffNodeID,
		RobotID:        m.RobotID,
		LastPhase:      m.LastPhase,
		LastPhaseAt:    m.LastPhaseAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		CompletedAt:    m.CompletedAt,
	}
}
