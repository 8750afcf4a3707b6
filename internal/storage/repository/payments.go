package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fitcoachapp/fitcoach/internal/models"
)

const paymentColumns = `id, user_id, provider, provider_payment_id, amount,
	currency, plan_type, status, created_at, paid_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var paidAt sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.Provider, &p.ProviderPaymentID,
		&p.Amount, &p.Currency, &p.PlanType, &p.Status, &p.CreatedAt, &paidAt)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return p, nil
}

// FindPaymentByProviderID возвращает запись леджера по идентификатору
// транзакции провайдера или nil, если записи нет.
func (s *Storage) FindPaymentByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, error) {
	const op = "storage.FindPaymentByProviderID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_payment_id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, providerPaymentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// FindPaymentByProviderIDTx — то же самое в рамках транзакции.
func (s *Storage) FindPaymentByProviderIDTx(ctx context.Context, tx *sql.Tx, providerPaymentID string) (*models.Payment, error) {
	const op = "storage.FindPaymentByProviderIDTx"

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_payment_id = $1`
	p, err := scanPayment(tx.QueryRowContext(ctx, query, providerPaymentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// InsertPaymentTx вставляет запись леджера, если записи с таким
// идентификатором транзакции провайдера ещё нет (ON CONFLICT DO NOTHING).
// Возвращает false, когда запись уже существовала — единственная защита от
// повторной доставки вебхука, других блокировок не требуется.
func (s *Storage) InsertPaymentTx(ctx context.Context, tx *sql.Tx, p models.Payment) (bool, error) {
	const op = "storage.InsertPaymentTx"

	query := `INSERT INTO payments (user_id, provider, provider_payment_id, amount,
			      currency, plan_type, status, paid_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (provider_payment_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, query, p.UserID, p.Provider, p.ProviderPaymentID,
		p.Amount, p.Currency, p.PlanType, p.Status, p.PaidAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// MarkPaymentStatusTx переводит запись леджера в новый статус. Из конечного
// статуса запись не переводится (no-op по условию WHERE).
func (s *Storage) MarkPaymentStatusTx(ctx context.Context, tx *sql.Tx, providerPaymentID string, status models.PaymentStatus, paidAt *time.Time) error {
	const op = "storage.MarkPaymentStatusTx"

	query := `UPDATE payments
			  SET status = $2, paid_at = COALESCE($3, paid_at)
			  WHERE provider_payment_id = $1
			    AND status NOT IN ('succeeded', 'failed', 'refunded')`
	if _, err := tx.ExecContext(ctx, query, providerPaymentID, status, paidAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListPaymentsByUser возвращает историю платежей пользователя, свежие первыми.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userID int64) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SumSucceededAmount возвращает сумму успешных платежей в минорных единицах.
func (s *Storage) SumSucceededAmount(ctx context.Context) (int64, error) {
	const op = "storage.SumSucceededAmount"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sum int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'succeeded'`
	if err := s.DB.QueryRowContext(ctx, query).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}
