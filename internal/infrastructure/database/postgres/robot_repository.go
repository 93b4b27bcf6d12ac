package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RobotRepository struct {
	db *DB
}

func NewRobotRepository(db *DB) *RobotRepository {
	return &RobotRepository{db: db}
}

func (r *RobotRepository) Create(ctx context.Context, rb *robot.Robot) error {
	if rb.ID == uuid.Nil {
		rb.ID = uuid.New()
	}
	now := time.Now().UTC()
	rb.CreatedAt = now
	rb.UpdatedAt = now

	if err := r.db.DB.WithContext(ctx).Create(toRobotModel(rb)).Error; err != nil {
		if isUniqueViolation(err) {
			return robot.ErrRobotAlreadyExists
		}
		return fmt.Errorf("failed to create robot: %w", err)
	}

	return nil
}

func (r *RobotRepository) GetByID(ctx context.Context, robotID uuid.UUID) (*robot.Robot, error) {
	return r.first(r.db.DB.WithContext(ctx).Where("id = ?", robotID))
}

func (r *RobotRepository) GetForUpdate(ctx context.Context, robotID uuid.UUID) (*robot.Robot, error) {
	return r.first(r.db.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", robotID))
}

func (r *RobotRepository) GetBySerialNumber(ctx context.Context, serial string) (*robot.Robot, error) {
	return r.first(r.db.DB.WithContext(ctx).Where("serial_number = ?", serial))
}

func (r *RobotRepository) first(db *gorm.DB) (*robot.Robot, error) {
	var dbModel models.RobotModel
	err := db.First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, robot.ErrRobotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get robot: %w", err)
	}

	return toRobotEntity(&dbModel), nil
}

func (r *RobotRepository) Update(ctx context.Context, rb *robot.Robot) error {
	if rb.UpdatedAt.IsZero() {
		rb.UpdatedAt = time.Now().UTC()
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.RobotModel{}).
		Where("id = ?", rb.ID).
		Updates(map[string]interface{}{
			"name":              rb.Name,
			"model":             rb.Model,
			"status":            string(rb.Status),
			"battery_level":     rb.BatteryLevel,
			"ip_address":        rb.IPAddress,
			"port":              rb.Port,
			"current_node_id":   rb.CurrentNodeID,
			"current_latitude":  rb.CurrentLatitude,
			"current_longitude": rb.CurrentLongitude,
			"target_node_id":    rb.TargetNodeID,
			"updated_at":        rb.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update robot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return robot.ErrRobotNotFound
	}

	return nil
}

func (r *RobotRepository) List(ctx context.Context, filter *robot.Filter) ([]*robot.Robot, error) {
	var dbModels []models.RobotModel

	db := r.db.DB.WithContext(ctx).Model(&models.RobotModel{})
	if filter != nil {
		if filter.Status != nil {
			db = db.Where("status = ?", string(*filter.Status))
		}
		if filter.MinBattery != nil {
			db = db.Where("battery_level >= ?", *filter.MinBattery)
		}
	}

	if err := db.Order("id ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list robots: %w", err)
	}

	robots := make([]*robot.Robot, len(dbModels))
	for i := range dbModels {
		robots[i] = toRobotEntity(&dbModels[i])
	}
	return robots, nil
}

func toRobotModel(rb *robot.Robot) *models.RobotModel {
	return &models.RobotModel{
		ID:                    rb.ID,
		Name:                  rb.Name,
		Model:                 rb.Model,
		Kind:                  string(rb.Kind),
		SerialNumber:          rb.SerialNumber,
		AccessKeyHash:         rb.AccessKeyHash,
		Status:                string(rb.Status),
		BatteryLevel:          rb.BatteryLevel,
		BatteryCapacityJoules: rb.BatteryCapacityJoules,
		EnergyPerMeterJoules:  rb.EnergyPerMeterJoules,
		IPAddress:             rb.IPAddress,
		Port:                  rb.Port,
		CurrentNodeID:         rb.CurrentNodeID,
		CurrentLatitude:       rb.CurrentLatitude,
		CurrentLongitude:      rb.CurrentLongitude,
		TargetNodeID:          rb.TargetNodeID,
		CreatedAt:             rb.CreatedAt,
		UpdatedAt:             rb.UpdatedAt,
	}
}

func toRobotEntity(m *models.RobotModel) *robot.Robot {
	return &robot.Robot{
		ID:                    m.ID,
		Name:                  m.Name,
		Model:                 m.Model,
		Kind:                  robot.Kind(m.Kind),
		SerialNumber:          m.SerialNumber,
		AccessKeyHash:         m.AccessKeyHash,
		Status:                robot.Status(m.Status),
		BatteryLevel:          m.BatteryLevel,
		BatteryCapacityJoules: m.BatteryCapacityJoules,
		EnergyPerMeterJoules:  m.EnergyPerMeterJoules,
		IPAddress:             m.IPAddress,
		Port:                  m.Port,
		CurrentNodeID:         m.CurrentNodeID,
		CurrentLatitude:       m.CurrentLatitude,
		CurrentLongitude:      m.CurrentLongitude,
		TargetNodeID:          m.TargetNodeID,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}
