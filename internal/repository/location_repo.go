package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/findthemapp/findthem-core/internal/db"
	svcErr "github.com/findthemapp/findthem-core/internal/errors"
)

// LocationRepository provides data access for location-sharing requests.
type LocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new repository bound to the given DB connection.
func NewLocationRepository(database *gorm.DB) *LocationRepository {
	return &LocationRepository{db: database}
}

// CreateRequest inserts a pending request. The (sender, receiver) pair is
// unique; a second request maps to ErrDuplicate.
func (r *LocationRepository) CreateRequest(ctx context.Context, senderID, receiverID uint64) (*db.LocationRequest, error) {
	request := db.LocationRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     db.RequestPending,
	}
	if err := r.db.WithContext(ctx).Create(&request).Error; err != nil {
		mapped := svcErr.Map(err)
		if errors.Is(mapped, svcErr.ErrDuplicate) {
			return nil, svcErr.ErrDuplicate
		}
		return nil, mapped
	}
	return &request, nil
}

// GetRequest returns a request with both parties preloaded.
func (r *LocationRepository) GetRequest(ctx context.Context, id uint64) (*db.LocationRequest, error) {
	var request db.LocationRequest
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		First(&request, id).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &request, nil
}

// UpdateStatus resolves a request as accepted or declined.
func (r *LocationRepository) UpdateStatus(ctx context.Context, id uint64, status db.RequestStatus) error {
	res := r.db.WithContext(ctx).Model(&db.LocationRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFoundf("location request %d", id)
	}
	return nil
}
