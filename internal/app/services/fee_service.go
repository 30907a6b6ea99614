package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/app/repositories"
	"github.com/yigit/supervision/internal/pkg/apperrors"
	"github.com/yigit/supervision/internal/pkg/validation"
)

// FeeService manages the yearly fee records of subjects
type FeeService interface {
	// EnsureCurrentYear makes sure an (unpaid by default) record exists for the current year
	EnsureCurrentYear(ctx context.Context, subjectID int64) (*models.FeePayment, error)
	AddYear(ctx context.Context, subjectID int64, year int) (*models.FeePayment, bool, error)
	// Toggle flips the paid flag of a year, creating the record first if needed
	Toggle(ctx context.Context, subjectID int64, year int) (*models.FeePayment, error)
	DeleteYear(ctx context.Context, subjectID int64, year int) error
	// List returns a subject's records, newest year first
	List(ctx context.Context, subjectID int64) ([]*models.FeePayment, error)
}

type feeServiceImpl struct {
	tx     repositories.Transactor
	now    func() time.Time
	logger zerolog.Logger
}

// NewFeeService creates a fee service. now defaults to time.Now.
func NewFeeService(tx repositories.Transactor, now func() time.Time, lgr zerolog.Logger) FeeService {
	if now == nil {
		now = time.Now
	}
	return &feeServiceImpl{tx: tx, now: now, logger: lgr}
}

var yearValidator = validation.New()

type feeYear struct {
	Year int `validate:"feeyear"`
}

func validateYear(year int) error {
	if err := yearValidator.Struct(feeYear{Year: year}); err != nil {
		return fmt.Errorf("%w: %d is outside %d-%d", apperrors.ErrInvalidYear, year, validation.MinFeeYear, validation.MaxFeeYear)
	}
	return nil
}

// getOrCreate checks the subject exists before creating its record for year
func getOrCreate(ctx context.Context, store repositories.IStore, subjectID int64, year int) (*models.FeePayment, bool, error) {
	if _, err := store.Subjects().GetByID(ctx, subjectID); err != nil {
		return nil, false, err
	}
	return store.FeePayments().GetOrCreate(ctx, subjectID, year)
}

func (s *feeServiceImpl) EnsureCurrentYear(ctx context.Context, subjectID int64) (*models.FeePayment, error) {
	var payment *models.FeePayment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		var err error
		payment, _, err = getOrCreate(ctx, store, subjectID, s.now().Year())
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *feeServiceImpl) AddYear(ctx context.Context, subjectID int64, year int) (*models.FeePayment, bool, error) {
	if err := validateYear(year); err != nil {
		return nil, false, err
	}

	var (
		payment *models.FeePayment
		created bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		var err error
		payment, created, err = getOrCreate(ctx, store, subjectID, year)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info().Int64("subject_id", subjectID).Int("year", year).Msg("Fee year added")
	}
	return payment, created, nil
}

func (s *feeServiceImpl) Toggle(ctx context.Context, subjectID int64, year int) (*models.FeePayment, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}

	var payment *models.FeePayment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		var err error
		payment, _, err = getOrCreate(ctx, store, subjectID, year)
		if err != nil {
			return err
		}

		payment.IsPaid = !payment.IsPaid
		payment.PaidAt = nil
		if payment.IsPaid {
			paidAt := s.now().UTC()
			payment.PaidAt = &paidAt
		}
		return store.FeePayments().SetPaid(ctx, payment.ID, payment.IsPaid, payment.PaidAt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("subject_id", subjectID).
		Int("year", year).
		Bool("paid", payment.IsPaid).
		Msg("Fee status toggled")
	return payment, nil
}

func (s *feeServiceImpl) DeleteYear(ctx context.Context, subjectID int64, year int) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		deleted, err := store.FeePayments().Delete(ctx, subjectID, year)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: subject %d has no record for %d", apperrors.ErrFeePaymentNotFound, subjectID, year)
		}
		return nil
	})
}

func (s *feeServiceImpl) List(ctx context.Context, subjectID int64) ([]*models.FeePayment, error) {
	var payments []*models.FeePayment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		if _, err := store.Subjects().GetByID(ctx, subjectID); err != nil {
			return err
		}
		var err error
		payments, err = store.FeePayments().GetBySubject(ctx, subjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}
