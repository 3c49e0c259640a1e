package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"collab-service/internal/models"
)

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentSuperseded = errors.New("payment superseded by a newer checkout")
)

const paymentColumns = `id, user_id, card_id, amount, status, created_at, paid_at`

// PaymentRepository tracks card checkout attempts.
type PaymentRepository interface {
	Create(ctx context.Context, userID string, cardID string, amount float64) (models.Payment, error)
	GetByID(ctx context.Context, paymentID int64) (models.Payment, error)
	Complete(ctx context.Context, paymentID int64) (models.Payment, error)
	ExpireStale(ctx context.Context, before time.Time) (int64, error)
}

// PaymentRepo is a sqlx-backed implementation.
type PaymentRepo struct {
	db *sqlx.DB
}

// NewPaymentRepo constructs a PaymentRepo.
func NewPaymentRepo(db *sqlx.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// Create opens a pending payment and moves the card to pending_payment.
func (r *PaymentRepo) Create(ctx context.Context, userID string, cardID string, amount float64) (models.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Payment{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `UPDATE cards SET status=$2 WHERE id=$1 AND status=$3`, cardID, models.CardPendingPayment, models.CardDraft)
	if err != nil {
		return models.Payment{}, err
	}
	var count int64
	if count, err = res.RowsAffected(); err != nil {
		return models.Payment{}, err
	}
	if count == 0 {
		err = ErrCardNotFound
		return models.Payment{}, err
	}

	var payment models.Payment
	if err = tx.GetContext(ctx, &payment, `INSERT INTO payments (user_id, card_id, amount, status) VALUES ($1, $2, $3, $4) RETURNING `+paymentColumns,
		userID, cardID, amount, models.PaymentPending); err != nil {
		return models.Payment{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

// GetByID fetches a payment by its invoice id.
func (r *PaymentRepo) GetByID(ctx context.Context, paymentID int64) (models.Payment, error) {
	var payment models.Payment
	err := r.db.GetContext(ctx, &payment, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, ErrPaymentNotFound
	}
	return payment, err
}

// Complete marks a pending payment paid and publishes its card. A payment that
// is already paid is returned unchanged. An expired payment is completed only
// while no other payment of its card is pending or paid; otherwise
// ErrPaymentSuperseded is returned and nothing changes.
func (r *PaymentRepo) Complete(ctx context.Context, paymentID int64) (models.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Payment{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var payment models.Payment
	err = tx.GetContext(ctx, &payment, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 FOR UPDATE`, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrPaymentNotFound
		return models.Payment{}, err
	}
	if err != nil {
		return models.Payment{}, err
	}
	if payment.Status == models.PaymentPaid {
		err = tx.Commit()
		return payment, err
	}
	if payment.Status == models.PaymentExpired {
		var competing int
		if err = tx.GetContext(ctx, &competing, `SELECT COUNT(*) FROM payments WHERE card_id=$1 AND id<>$2 AND status IN ($3, $4)`,
			payment.CardID, paymentID, models.PaymentPending, models.PaymentPaid); err != nil {
			return models.Payment{}, err
		}
		if competing > 0 {
			err = ErrPaymentSuperseded
			return models.Payment{}, err
		}
	}

	if err = tx.GetContext(ctx, &payment, `UPDATE payments SET status=$2, paid_at=NOW() WHERE id=$1 RETURNING `+paymentColumns,
		paymentID, models.PaymentPaid); err != nil {
		return models.Payment{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE cards SET status=$2, published_at=NOW() WHERE id=$1`, payment.CardID, models.CardPublished); err != nil {
		return models.Payment{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

// ExpireStale expires pending payments created before the cutoff and returns
// their cards to draft. It reports how many payments were expired.
func (r *PaymentRepo) ExpireStale(ctx context.Context, before time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var cardIDs []string
	if err = tx.SelectContext(ctx, &cardIDs, `UPDATE payments SET status=$1 WHERE status=$2 AND created_at < $3 RETURNING card_id`,
		models.PaymentExpired, models.PaymentPending, before); err != nil {
		return 0, err
	}
	if len(cardIDs) == 0 {
		err = tx.Commit()
		return 0, err
	}

	query, args, err := sqlx.In(`UPDATE cards SET status=? WHERE status=? AND id IN (?)`, models.CardDraft, models.CardPendingPayment, cardIDs)
	if err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(cardIDs)), nil
}
