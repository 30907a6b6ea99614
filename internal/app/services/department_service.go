package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/app/repositories"
	"github.com/yigit/supervision/internal/pkg/apperrors"
	"github.com/yigit/supervision/internal/pkg/textnorm"
)

// DepartmentService handles department-related operations
type DepartmentService interface {
	// EnsureDepartments get-or-creates every name and reports how many were new
	EnsureDepartments(ctx context.Context, names []string) (int, error)
	GetAllDepartments(ctx context.Context) ([]*models.Department, error)
}

type departmentServiceImpl struct {
	tx     repositories.Transactor
	logger zerolog.Logger
}

// NewDepartmentService creates a new department service instance
func NewDepartmentService(tx repositories.Transactor, lgr zerolog.Logger) DepartmentService {
	return &departmentServiceImpl{tx: tx, logger: lgr}
}

func (s *departmentServiceImpl) EnsureDepartments(ctx context.Context, names []string) (int, error) {
	created := 0
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		for _, raw := range names {
			name := textnorm.Text(raw)
			if name == "" {
				return fmt.Errorf("%w: department name cannot be empty", apperrors.ErrValidationFailed)
			}
			_, isNew, err := store.Departments().GetOrCreate(ctx, name)
			if err != nil {
				return err
			}
			if isNew {
				created++
				s.logger.Info().Str("department", name).Msg("Department created")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *departmentServiceImpl) GetAllDepartments(ctx context.Context) ([]*models.Department, error) {
	var departments []*models.Department
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		var err error
		departments, err = store.Departments().GetAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return departments, nil
}
