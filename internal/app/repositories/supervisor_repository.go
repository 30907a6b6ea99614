package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/db"
	"github.com/yigit/supervision/internal/pkg/apperrors"
	"github.com/yigit/supervision/internal/pkg/dberrors"
)

var supervisorColumns = []string{"id", "name", "department_id", "is_active"}

// SupervisorRepository handles database operations for supervisors
type SupervisorRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewSupervisorRepository creates a new supervisor repository
func NewSupervisorRepository(q db.DBTX, sb squirrel.StatementBuilderType) *SupervisorRepository {
	return &SupervisorRepository{db: q, sb: sb}
}

func scanSupervisor(row db.Row) (*models.Supervisor, error) {
	var s models.Supervisor
	if err := row.Scan(&s.ID, &s.Name, &s.DepartmentID, &s.IsActive); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a supervisor and sets its ID
func (r *SupervisorRepository) Create(ctx context.Context, supervisor *models.Supervisor) error {
	query, args, err := r.sb.Insert("supervisors").
		Columns("name", "department_id", "is_active").
		Values(supervisor.Name, nullInt64(supervisor.DepartmentID), supervisor.IsActive).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create supervisor query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&supervisor.ID); err != nil {
		return fmt.Errorf("error creating supervisor: %w", err)
	}
	return nil
}

// GetByID retrieves a supervisor by ID
func (r *SupervisorRepository) GetByID(ctx context.Context, id int64) (*models.Supervisor, error) {
	query, args, err := r.sb.Select(supervisorColumns...).From("supervisors").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get supervisor query: %w", err)
	}

	supervisor, err := scanSupervisor(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperrors.ErrSupervisorNotFound
		}
		return nil, fmt.Errorf("error retrieving supervisor: %w", err)
	}
	return supervisor, nil
}

// GetAll retrieves all supervisors ordered by ID
func (r *SupervisorRepository) GetAll(ctx context.Context) ([]*models.Supervisor, error) {
	query, args, err := r.sb.Select(supervisorColumns...).From("supervisors").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get all supervisors query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying supervisors: %w", err)
	}
	defer rows.Close()

	var supervisors []*models.Supervisor
	for rows.Next() {
		supervisor, err := scanSupervisor(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning supervisor row: %w", err)
		}
		supervisors = append(supervisors, supervisor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supervisor rows: %w", err)
	}
	return supervisors, nil
}

// GetOrCreateByName returns the lowest-id supervisor named exactly name, creating an active one if none exists
func (r *SupervisorRepository) GetOrCreateByName(ctx context.Context, name string) (*models.Supervisor, bool, error) {
	query, args, err := r.sb.Select(supervisorColumns...).
		From("supervisors").
		Where(squirrel.Eq{"name": name}).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build find supervisor query: %w", err)
	}

	supervisor, err := scanSupervisor(r.db.QueryRow(ctx, query, args...))
	if err == nil {
		return supervisor, false, nil
	}
	if !errors.Is(err, db.ErrNoRows) {
		return nil, false, fmt.Errorf("error finding supervisor: %w", err)
	}

	supervisor = &models.Supervisor{Name: name, IsActive: true}
	if err := r.Create(ctx, supervisor); err != nil {
		return nil, false, err
	}
	return supervisor, true, nil
}

// SetDepartment points a supervisor at a department (nil clears it)
func (r *SupervisorRepository) SetDepartment(ctx context.Context, id int64, departmentID *int64) error {
	query, args, err := r.sb.Update("supervisors").
		Set("department_id", nullInt64(departmentID)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update supervisor query: %w", err)
	}

	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating supervisor department: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSupervisorNotFound
	}
	return nil
}

// Delete removes a supervisor. Links must be removed first.
func (r *SupervisorRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("supervisors").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete supervisor query: %w", err)
	}

	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrSupervisorHasSubjects
		}
		return fmt.Errorf("error deleting supervisor: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSupervisorNotFound
	}
	return nil
}
