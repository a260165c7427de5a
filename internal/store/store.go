package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"equipment-ledger-backend/internal/model"
)

// ErrNotFound is returned when an id does not resolve to a device.
var ErrNotFound = errors.New("device not found")

// Store defines the interface for all database operations.
type Store interface {
	Ping(ctx context.Context) error
	ListDevices(ctx context.Context, q DeviceQuery) (DevicePage, error)
	DistinctLocations(ctx context.Context, q LocationQuery) (LocationPage, error)
	GetDevice(ctx context.Context, id int64) (*model.Device, error)
	CreateDevice(ctx context.Context, d *model.Device) error
	UpdateDevice(ctx context.Context, id int64, changes map[string]interface{}) (*model.Device, error)
	DeleteDevice(ctx context.Context, id int64) (bool, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// ListDevices returns one page of devices matching q together with the number
// of matching rows before pagination.
func (s *gormStore) ListDevices(ctx context.Context, q DeviceQuery) (DevicePage, error) {
	q = q.Normalize()
	page := DevicePage{Items: []model.Device{}}

	if err := s.db.WithContext(ctx).
		Model(&model.Device{}).
		Scopes(deviceFilter(q)).
		Count(&page.Total).Error; err != nil {
		return DevicePage{}, fmt.Errorf("failed to count devices: %w", err)
	}

	if page.Total == 0 || int64(q.Offset) >= page.Total {
		return page, nil
	}

	if err := s.db.WithContext(ctx).
		Scopes(deviceFilter(q), deviceOrder(q.Sort)).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&page.Items).Error; err != nil {
		return DevicePage{}, fmt.Errorf("failed to list devices: %w", err)
	}
	return page, nil
}

// DistinctLocations enumerates the distinct non-empty locations in ascending
// order and reports whether any device lacks a location.
func (s *gormStore) DistinctLocations(ctx context.Context, q LocationQuery) (LocationPage, error) {
	q = q.Normalize()
	page := LocationPage{Items: []string{}}

	if err := s.db.WithContext(ctx).
		Model(&model.Device{}).
		Scopes(locationFilter(q)).
		Distinct("location").
		Count(&page.Total).Error; err != nil {
		return LocationPage{}, fmt.Errorf("failed to count locations: %w", err)
	}

	if page.Total > 0 && int64(q.Offset) < page.Total {
		if err := s.db.WithContext(ctx).
			Model(&model.Device{}).
			Scopes(locationFilter(q)).
			Distinct().
			Order("location ASC").
			Offset(q.Offset).
			Limit(q.Limit).
			Pluck("location", &page.Items).Error; err != nil {
			return LocationPage{}, fmt.Errorf("failed to list locations: %w", err)
		}
	}

	var ids []int64
	if err := s.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("location IS NULL OR location = ''").
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return LocationPage{}, fmt.Errorf("failed to probe empty locations: %w", err)
	}
	page.HasNull = len(ids) > 0

	return page, nil
}

func (s *gormStore) GetDevice(ctx context.Context, id int64) (*model.Device, error) {
	var d model.Device
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get device %d: %w", id, err)
	}
	return &d, nil
}

func (s *gormStore) CreateDevice(ctx context.Context, d *model.Device) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create device %q: %w", d.Code, err)
	}
	return nil
}

// UpdateDevice applies a partial update keyed by column name. Only the given
// columns change; updated_at is refreshed by GORM. A nil value clears the
// column. An empty change set returns the current row untouched.
func (s *gormStore) UpdateDevice(ctx context.Context, id int64, changes map[string]interface{}) (*model.Device, error) {
	var d model.Device
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&d, id).Error; err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&d).Updates(changes).Error; err != nil {
			return err
		}
		d = model.Device{}
		return tx.First(&d, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update device %d: %w", id, err)
	}
	return &d, nil
}

// DeleteDevice hard-deletes a device and reports whether a row was removed.
func (s *gormStore) DeleteDevice(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&model.Device{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete device %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
