package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/weight-tracker-be/internal/database"
	"github.com/isdelr/weight-tracker-be/internal/models"
)

// WeightStore is the storage accessor for the weights table.
type WeightStore struct {
	db database.DBTX
}

// NewWeightStore creates a new WeightStore.
func NewWeightStore(db database.DBTX) *WeightStore {
	return &WeightStore{db: db}
}

const weightColumns = "id, weight_id, user_id, weight, timestamp"

// NextWeightID returns the next per-owner weight id: 1 when the owner has
// no weights, otherwise the current maximum plus one. It must run inside a
// transaction; the owner's weight_sequences row is locked first so that
// concurrent creators for the same owner are serialized.
func (s *WeightStore) NextWeightID(ctx context.Context, userID int64) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weight_sequences (user_id, last_weight_id)
		VALUES (?, 0)
		ON CONFLICT (user_id) DO UPDATE SET last_weight_id = weight_sequences.last_weight_id`, userID)
	if err != nil {
		return 0, fmt.Errorf("lock weight sequence: %w", err)
	}

	var next int64
	err = s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(weight_id), 0) + 1 FROM weights WHERE user_id = ?", userID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("allocate weight id: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE weight_sequences SET last_weight_id = ? WHERE user_id = ?", next, userID)
	if err != nil {
		return 0, fmt.Errorf("record weight id: %w", err)
	}
	return next, nil
}

// Insert stores a weight whose WeightID has already been allocated.
func (s *WeightStore) Insert(ctx context.Context, w models.Weight) (models.Weight, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO weights (weight_id, user_id, weight, timestamp)
		VALUES (?, ?, ?, ?)
		RETURNING id`,
		w.WeightID, w.UserID, w.Weight, w.Timestamp).Scan(&w.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Weight{}, fmt.Errorf("insert weight: %w", ErrDuplicate)
		}
		return models.Weight{}, fmt.Errorf("insert weight: %w", err)
	}
	return w, nil
}

// ListByUser returns all weights owned by userID ordered by weight id.
func (s *WeightStore) ListByUser(ctx context.Context, userID int64) ([]models.Weight, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+weightColumns+" FROM weights WHERE user_id = ? ORDER BY weight_id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	weights := []models.Weight{}
	for rows.Next() {
		w, err := scanWeight(rows)
		if err != nil {
			return nil, err
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}

// Update overwrites the value and timestamp of one weight.
func (s *WeightStore) Update(ctx context.Context, userID, weightID int64, value float64, ts time.Time) (models.Weight, error) {
	w := models.Weight{WeightID: weightID, UserID: userID, Weight: value, Timestamp: ts}
	err := s.db.QueryRowContext(ctx, `
		UPDATE weights SET weight = ?, timestamp = ?
		WHERE user_id = ? AND weight_id = ?
		RETURNING id`,
		value, ts, userID, weightID).Scan(&w.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Weight{}, ErrNotFound
		}
		return models.Weight{}, err
	}
	return w, nil
}

// Get retrieves one weight by owner and per-owner id.
func (s *WeightStore) Get(ctx context.Context, userID, weightID int64) (models.Weight, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+weightColumns+" FROM weights WHERE user_id = ? AND weight_id = ?", userID, weightID)
	return scanWeight(row)
}

// Delete permanently removes one weight.
func (s *WeightStore) Delete(ctx context.Context, userID, weightID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM weights WHERE user_id = ? AND weight_id = ?", userID, weightID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWeight(scanner interface{ Scan(...any) error }) (models.Weight, error) {
	var w models.Weight
	err := scanner.Scan(&w.ID, &w.WeightID, &w.UserID, &w.Weight, &w.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Weight{}, ErrNotFound
		}
		return models.Weight{}, err
	}
	return w, nil
}
