package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/db"
	"github.com/yigit/supervision/internal/pkg/apperrors"
	"github.com/yigit/supervision/internal/pkg/dberrors"
)

var feePaymentColumns = []string{"id", "subject_id", "year", "is_paid", "paid_at"}

// FeePaymentRepository handles database operations for yearly fee payments
type FeePaymentRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewFeePaymentRepository creates a new fee payment repository
func NewFeePaymentRepository(q db.DBTX, sb squirrel.StatementBuilderType) *FeePaymentRepository {
	return &FeePaymentRepository{db: q, sb: sb}
}

func scanFeePayment(row db.Row) (*models.FeePayment, error) {
	var p models.FeePayment
	if err := row.Scan(&p.ID, &p.SubjectID, &p.Year, &p.IsPaid, &p.PaidAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreate returns the payment of subject for year, creating an unpaid one if absent
func (r *FeePaymentRepository) GetOrCreate(ctx context.Context, subjectID int64, year int) (*models.FeePayment, bool, error) {
	query, args, err := r.sb.Insert("fee_payments").
		Columns("subject_id", "year", "is_paid").
		Values(subjectID, int64(year), false).
		Suffix("ON CONFLICT (subject_id, year) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build create fee payment query: %w", err)
	}

	payment := &models.FeePayment{SubjectID: subjectID, Year: year}
	err = r.db.QueryRow(ctx, query, args...).Scan(&payment.ID)
	if err == nil {
		return payment, true, nil
	}
	if dberrors.IsForeignKeyViolation(err) {
		return nil, false, apperrors.ErrSubjectNotFound
	}
	if !errors.Is(err, db.ErrNoRows) {
		return nil, false, fmt.Errorf("error creating fee payment: %w", err)
	}

	existing, err := r.Get(ctx, subjectID, year)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Get retrieves the payment of subject for year
func (r *FeePaymentRepository) Get(ctx context.Context, subjectID int64, year int) (*models.FeePayment, error) {
	query, args, err := r.sb.Select(feePaymentColumns...).
		From("fee_payments").
		Where(squirrel.Eq{"subject_id": subjectID, "year": int64(year)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get fee payment query: %w", err)
	}

	payment, err := scanFeePayment(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperrors.ErrFeePaymentNotFound
		}
		return nil, fmt.Errorf("error retrieving fee payment: %w", err)
	}
	return payment, nil
}

// GetBySubject retrieves every payment of a subject, newest year first
func (r *FeePaymentRepository) GetBySubject(ctx context.Context, subjectID int64) ([]*models.FeePayment, error) {
	query, args, err := r.sb.Select(feePaymentColumns...).
		From("fee_payments").
		Where(squirrel.Eq{"subject_id": subjectID}).
		OrderBy("year DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list fee payments query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying fee payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.FeePayment
	for rows.Next() {
		payment, err := scanFeePayment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning fee payment row: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fee payment rows: %w", err)
	}
	return payments, nil
}

// SetPaid updates the paid flag and timestamp of a payment
func (r *FeePaymentRepository) SetPaid(ctx context.Context, id int64, paid bool, paidAt *time.Time) error {
	query, args, err := r.sb.Update("fee_payments").
		Set("is_paid", paid).
		Set("paid_at", nullTime(paidAt)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update fee payment query: %w", err)
	}

	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating fee payment: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrFeePaymentNotFound
	}
	return nil
}

// Reassign moves a payment to another subject
func (r *FeePaymentRepository) Reassign(ctx context.Context, id int64, subjectID int64) error {
	query, args, err := r.sb.Update("fee_payments").
		Set("subject_id", subjectID).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build reassign fee payment query: %w", err)
	}

	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrFeePaymentAlreadyExist
		}
		return fmt.Errorf("error reassigning fee payment: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrFeePaymentNotFound
	}
	return nil
}

// Delete removes the payment of subject for year and reports whether one existed
func (r *FeePaymentRepository) Delete(ctx context.Context, subjectID int64, year int) (bool, error) {
	query, args, err := r.sb.Delete("fee_payments").
		Where(squirrel.Eq{"subject_id": subjectID, "year": int64(year)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete fee payment query: %w", err)
	}

	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("error deleting fee payment: %w", err)
	}
	return affected > 0, nil
}
