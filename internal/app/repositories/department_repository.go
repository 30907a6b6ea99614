package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/db"
	"github.com/yigit/supervision/internal/pkg/apperrors"
)

// DepartmentRepository handles database operations for departments
type DepartmentRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(q db.DBTX, sb squirrel.StatementBuilderType) *DepartmentRepository {
	return &DepartmentRepository{db: q, sb: sb}
}

// GetOrCreate returns the department named name, creating it if absent
func (r *DepartmentRepository) GetOrCreate(ctx context.Context, name string) (*models.Department, bool, error) {
	query, args, err := r.sb.Insert("departments").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build create department query: %w", err)
	}

	department := &models.Department{Name: name}
	err = r.db.QueryRow(ctx, query, args...).Scan(&department.ID)
	if err == nil {
		return department, true, nil
	}
	if !errors.Is(err, db.ErrNoRows) {
		return nil, false, fmt.Errorf("error creating department: %w", err)
	}

	existing, err := r.getBy(ctx, squirrel.Eq{"name": name})
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID retrieves a department by ID
func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

func (r *DepartmentRepository) getBy(ctx context.Context, where squirrel.Eq) (*models.Department, error) {
	query, args, err := r.sb.Select("id", "name").From("departments").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get department query: %w", err)
	}

	var department models.Department
	if err := r.db.QueryRow(ctx, query, args...).Scan(&department.ID, &department.Name); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("error retrieving department: %w", err)
	}
	return &department, nil
}

// GetAll retrieves all departments ordered by name
func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*models.Department, error) {
	query, args, err := r.sb.Select("id", "name").From("departments").OrderBy("name ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get all departments query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying departments: %w", err)
	}
	defer rows.Close()

	var departments []*models.Department
	for rows.Next() {
		var department models.Department
		if err := rows.Scan(&department.ID, &department.Name); err != nil {
			return nil, fmt.Errorf("error scanning department row: %w", err)
		}
		departments = append(departments, &department)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating department rows: %w", err)
	}

	return departments, nil
}
