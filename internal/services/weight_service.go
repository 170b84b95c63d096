package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/isdelr/weight-tracker-be/internal/database"
	"github.com/isdelr/weight-tracker-be/internal/models"
	"github.com/isdelr/weight-tracker-be/internal/store"
)

// WeightServiceProvider defines the interface for weight services. Every
// method takes the verified caller id and refuses to touch records owned by
// anyone else. Ownership is checked before existence.
type WeightServiceProvider interface {
	ListWeights(ctx context.Context, callerID int64, ownerID *int64) ([]models.Weight, error)
	CreateWeight(ctx context.Context, callerID, ownerID int64, value float64) (models.Weight, error)
	UpdateWeight(ctx context.Context, callerID, ownerID, weightID int64, value float64) (models.Weight, error)
	DeleteWeight(ctx context.Context, callerID, ownerID, weightID int64) error
}

// WeightService provides business logic for weight records.
type WeightService struct {
	db  *database.DB
	now func() time.Time
}

// NewWeightService creates a new WeightService.
func NewWeightService(db *database.DB) *WeightService {
	return &WeightService{db: db, now: time.Now}
}

func (s *WeightService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func checkOwner(callerID, ownerID int64) error {
	if callerID != ownerID {
		return newError(ErrForbidden, "Not allowed to access weight records of another user")
	}
	return nil
}

func checkValue(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return newError(ErrValidation, "weight must be a finite number")
	}
	return nil
}

// ListWeights returns all weights of ownerID. ownerID is required.
func (s *WeightService) ListWeights(ctx context.Context, callerID int64, ownerID *int64) ([]models.Weight, error) {
	if ownerID == nil {
		return nil, newError(ErrBadRequest, "Bad Request: userId is required")
	}
	if err := checkOwner(callerID, *ownerID); err != nil {
		return nil, err
	}
	return store.NewWeightStore(s.db).ListByUser(ctx, *ownerID)
}

// CreateWeight stores a new weight with the owner's next sequential id.
// The id is reserved and the row inserted in one transaction.
func (s *WeightService) CreateWeight(ctx context.Context, callerID, ownerID int64, value float64) (models.Weight, error) {
	if err := checkOwner(callerID, ownerID); err != nil {
		return models.Weight{}, err
	}
	if err := checkValue(value); err != nil {
		return models.Weight{}, err
	}

	var created models.Weight
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		weights := store.NewWeightStore(tx)
		weightID, err := weights.NextWeightID(ctx, ownerID)
		if err != nil {
			return err
		}
		created, err = weights.Insert(ctx, models.Weight{
			WeightID:  weightID,
			UserID:    ownerID,
			Weight:    value,
			Timestamp: s.timestamp(),
		})
		return err
	})
	if err != nil {
		return models.Weight{}, err
	}
	return created, nil
}

// UpdateWeight overwrites the value of an existing weight and refreshes its timestamp.
func (s *WeightService) UpdateWeight(ctx context.Context, callerID, ownerID, weightID int64, value float64) (models.Weight, error) {
	if err := checkOwner(callerID, ownerID); err != nil {
		return models.Weight{}, err
	}
	if err := checkValue(value); err != nil {
		return models.Weight{}, err
	}

	updated, err := store.NewWeightStore(s.db).Update(ctx, ownerID, weightID, value, s.timestamp())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Weight{}, newError(ErrNotFound, "Weight record not found")
		}
		return models.Weight{}, err
	}
	return updated, nil
}

// DeleteWeight permanently removes a weight.
func (s *WeightService) DeleteWeight(ctx context.Context, callerID, ownerID, weightID int64) error {
	if err := checkOwner(callerID, ownerID); err != nil {
		return err
	}

	if err := store.NewWeightStore(s.db).Delete(ctx, ownerID, weightID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(ErrNotFound, "Weight record not found")
		}
		return err
	}
	return nil
}
