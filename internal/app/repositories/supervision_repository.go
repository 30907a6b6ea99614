package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/db"
)

var linkColumns = []string{"id", "subject_id", "supervisor_id", "role"}

// SupervisionRepository handles database operations for supervision links
type SupervisionRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewSupervisionRepository creates a new supervision link repository
func NewSupervisionRepository(q db.DBTX, sb squirrel.StatementBuilderType) *SupervisionRepository {
	return &SupervisionRepository{db: q, sb: sb}
}

func scanLink(row db.Row) (*models.SupervisionLink, error) {
	var (
		link models.SupervisionLink
		role string
	)
	if err := row.Scan(&link.ID, &link.SubjectID, &link.SupervisorID, &role); err != nil {
		return nil, err
	}
	link.Role = models.Role(role)
	return &link, nil
}

// GetOrCreate returns the link between subject and supervisor, creating it with role if absent
func (r *SupervisionRepository) GetOrCreate(ctx context.Context, subjectID, supervisorID int64, role models.Role) (*models.SupervisionLink, bool, error) {
	if role == "" {
		role = models.RolePrimary
	}

	query, args, err := r.sb.Insert("supervision_links").
		Columns("subject_id", "supervisor_id", "role").
		Values(subjectID, supervisorID, string(role)).
		Suffix("ON CONFLICT (subject_id, supervisor_id) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build create link query: %w", err)
	}

	link := &models.SupervisionLink{SubjectID: subjectID, SupervisorID: supervisorID, Role: role}
	err = r.db.QueryRow(ctx, query, args...).Scan(&link.ID)
	if err == nil {
		return link, true, nil
	}
	if !errors.Is(err, db.ErrNoRows) {
		return nil, false, fmt.Errorf("error creating supervision link: %w", err)
	}

	query, args, err = r.sb.Select(linkColumns...).
		From("supervision_links").
		Where(squirrel.Eq{"subject_id": subjectID, "supervisor_id": supervisorID}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build get link query: %w", err)
	}

	existing, err := scanLink(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, false, fmt.Errorf("error retrieving supervision link: %w", err)
	}
	return existing, false, nil
}

func (r *SupervisionRepository) list(ctx context.Context, where any) ([]*models.SupervisionLink, error) {
	builder := r.sb.Select(linkColumns...).From("supervision_links").OrderBy("id ASC")
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list links query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying supervision links: %w", err)
	}
	defer rows.Close()

	var links []*models.SupervisionLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning supervision link row: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supervision link rows: %w", err)
	}
	return links, nil
}

// GetBySubject retrieves the links of a subject ordered by ID
func (r *SupervisionRepository) GetBySubject(ctx context.Context, subjectID int64) ([]*models.SupervisionLink, error) {
	return r.list(ctx, squirrel.Eq{"subject_id": subjectID})
}

// GetBySupervisor retrieves the links of a supervisor ordered by ID
func (r *SupervisionRepository) GetBySupervisor(ctx context.Context, supervisorID int64) ([]*models.SupervisionLink, error) {
	return r.list(ctx, squirrel.Eq{"supervisor_id": supervisorID})
}

// GetAll retrieves every link ordered by ID
func (r *SupervisionRepository) GetAll(ctx context.Context) ([]*models.SupervisionLink, error) {
	return r.list(ctx, nil)
}

func (r *SupervisionRepository) deleteWhere(ctx context.Context, where squirrel.Eq) (int64, error) {
	query, args, err := r.sb.Delete("supervision_links").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete links query: %w", err)
	}

	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting supervision links: %w", err)
	}
	return affected, nil
}

// DeleteBySubject removes every link of a subject and returns how many were removed
func (r *SupervisionRepository) DeleteBySubject(ctx context.Context, subjectID int64) (int64, error) {
	return r.deleteWhere(ctx, squirrel.Eq{"subject_id": subjectID})
}

// DeleteBySupervisor removes every link of a supervisor and returns how many were removed
func (r *SupervisionRepository) DeleteBySupervisor(ctx context.Context, supervisorID int64) (int64, error) {
	return r.deleteWhere(ctx, squirrel.Eq{"supervisor_id": supervisorID})
}
