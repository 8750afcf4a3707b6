package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fitcoachapp/fitcoach/internal/models"
)

// InsertWeightSample добавляет замер веса (журнал только пополняется)
// и обновляет текущий вес в профиле пользователя одной транзакцией.
func (s *Storage) InsertWeightSample(ctx context.Context, userID int64, weight float64, takenAt time.Time) (int64, error) {
	const op = "storage.InsertWeightSample"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var newID int64
	query := `INSERT INTO weight_logs (user_id, weight, taken_at)
			  VALUES ($1, $2, $3) RETURNING id`
	if err := tx.QueryRowContext(ctx, query, userID, weight, takenAt).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	update := `UPDATE users SET current_weight = $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, userID, weight); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// RecentWeightSamples возвращает последние limit замеров пользователя,
// свежие первыми.
func (s *Storage) RecentWeightSamples(ctx context.Context, userID int64, limit int) ([]models.WeightSample, error) {
	const op = "storage.RecentWeightSamples"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, weight, taken_at FROM weight_logs
			  WHERE user_id = $1 ORDER BY taken_at DESC LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.WeightSample
	for rows.Next() {
		var ws models.WeightSample
		if err := rows.Scan(&ws.ID, &ws.UserID, &ws.Weight, &ws.TakenAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, ws)
	}
	return result, rows.Err()
}
