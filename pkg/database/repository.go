package database

import (
	"time"

	"gorm.io/gorm"
)

// TransmissionRepository handles transmission database operations
type TransmissionRepository struct {
	db *gorm.DB
}

// NewTransmissionRepository creates a new transmission repository
func NewTransmissionRepository(db *gorm.DB) *TransmissionRepository {
	return &TransmissionRepository{db: db}
}

// Create adds a new transmission record
func (r *TransmissionRepository) Create(tx *Transmission) error {
	return r.db.Create(tx).Error
}

// GetRecent retrieves the most recent N transmissions
func (r *TransmissionRepository) GetRecent(limit int) ([]Transmission, error) {
	var transmissions []Transmission
	err := r.db.Order("start_time DESC").Limit(limit).Find(&transmissions).Error
	return transmissions, err
}

// GetRecentPaginated retrieves transmissions with pagination. page is 1-based.
func (r *TransmissionRepository) GetRecentPaginated(page, perPage int) ([]Transmission, int64, error) {
	var transmissions []Transmission
	var total int64

	if err := r.db.Model(&Transmission{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}

	err := r.db.Order("start_time DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&transmissions).Error

	return transmissions, total, err
}

// GetByProtocol retrieves transmissions for one protocol name
func (r *TransmissionRepository) GetByProtocol(name string, limit int) ([]Transmission, error) {
	var transmissions []Transmission
	err := r.db.Where("protocol = ?", name).
		Order("start_time DESC").
		Limit(limit).
		Find(&transmissions).Error
	return transmissions, err
}

// GetByTimeRange retrieves transmissions within a time range
func (r *TransmissionRepository) GetByTimeRange(start, end time.Time, limit int) ([]Transmission, error) {
	var transmissions []Transmission
	err := r.db.Where("start_time BETWEEN ? AND ?", start, end).
		Order("start_time DESC").
		Limit(limit).
		Find(&transmissions).Error
	return transmissions, err
}

// ProtocolCount is one row of CountByProtocol
type ProtocolCount struct {
	Protocol string `json:"protocol"`
	Count    int64  `json:"count"`
}

// CountByProtocol returns how many presses were recorded per protocol
func (r *TransmissionRepository) CountByProtocol() ([]ProtocolCount, error) {
	var counts []ProtocolCount
	err := r.db.Model(&Transmission{}).
		Select("protocol, COUNT(*) AS count").
		Group("protocol").
		Order("protocol").
		Scan(&counts).Error
	return counts, err
}

// DeleteOlderThan deletes transmissions older than the specified time
func (r *TransmissionRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result := r.db.Where("start_time < ?", before).Delete(&Transmission{})
	return result.RowsAffected, result.Error
}
