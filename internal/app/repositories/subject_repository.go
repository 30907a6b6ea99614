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
	"github.com/yigit/supervision/internal/pkg/fingerprint"
)

const subjectKeyConstraint = "uniq_subject_by_name_titlefp_degree_kind"

var subjectColumns = []string{
	"id", "subject_name", "title", "title_fingerprint", "kind", "degree", "department_id",
	"status", "status_note", "status_date", "registration_date", "frame_date",
	"university_approval_date", "phone", "created_at", "updated_at",
}

// SubjectRepository handles database operations for subjects
type SubjectRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewSubjectRepository creates a new subject repository
func NewSubjectRepository(q db.DBTX, sb squirrel.StatementBuilderType) *SubjectRepository {
	return &SubjectRepository{db: q, sb: sb}
}

func scanSubject(row db.Row) (*models.Subject, error) {
	var (
		s      models.Subject
		kind   string
		degree string
		status string
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Title, &s.TitleFingerprint, &kind, &degree, &s.DepartmentID,
		&status, &s.StatusNote, &s.StatusDate, &s.RegistrationDate, &s.FrameDate,
		&s.UniversityApprovalDate, &s.Phone, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Kind = models.SubjectKind(kind)
	s.Degree = models.Degree(degree)
	s.Status = models.Status(status)
	return &s, nil
}

func (r *SubjectRepository) list(ctx context.Context, builder squirrel.SelectBuilder) ([]*models.Subject, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list subjects query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*models.Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning subject row: %w", err)
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subject rows: %w", err)
	}
	return subjects, nil
}

// Create inserts a subject, deriving its fingerprint from the title
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.Status == "" {
		subject.Status = models.StatusRegistered
	}
	if subject.Kind == "" {
		subject.Kind = models.KindResearcher
	}
	subject.TitleFingerprint = fingerprint.Title(subject.Title)
	subject.CreatedAt = now()
	subject.UpdatedAt = subject.CreatedAt

	query, args, err := r.sb.Insert("subjects").
		Columns(subjectColumns[1:]...).
		Values(
			subject.Name, subject.Title, subject.TitleFingerprint, string(subject.Kind), string(subject.Degree),
			nullInt64(subject.DepartmentID), string(subject.Status), subject.StatusNote,
			nullTime(subject.StatusDate), nullTime(subject.RegistrationDate), nullTime(subject.FrameDate),
			nullTime(subject.UniversityApprovalDate), subject.Phone, subject.CreatedAt, subject.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create subject query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&subject.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, subjectKeyConstraint) {
			return apperrors.ErrSubjectAlreadyExists
		}
		return fmt.Errorf("error creating subject: %w", err)
	}
	return nil
}

// GetByID retrieves a subject by ID
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	query, args, err := r.sb.Select(subjectColumns...).From("subjects").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get subject query: %w", err)
	}

	subject, err := scanSubject(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperrors.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("error retrieving subject: %w", err)
	}
	return subject, nil
}

// GetAll retrieves all subjects ordered by ID
func (r *SubjectRepository) GetAll(ctx context.Context) ([]*models.Subject, error) {
	return r.list(ctx, r.sb.Select(subjectColumns...).From("subjects").OrderBy("id ASC"))
}

// FindByKey retrieves subjects matching the natural key ordered by ID
func (r *SubjectRepository) FindByKey(ctx context.Context, key models.SubjectKey) ([]*models.Subject, error) {
	return r.list(ctx, r.sb.Select(subjectColumns...).
		From("subjects").
		Where(squirrel.Eq{
			"subject_name":      key.Name,
			"title_fingerprint": key.TitleFingerprint,
			"degree":            string(key.Degree),
			"kind":              string(key.Kind),
		}).
		OrderBy("id ASC"))
}

// Update writes every mutable column of subject and refreshes the fingerprint
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.TitleFingerprint = fingerprint.Title(subject.Title)
	subject.UpdatedAt = now()

	query, args, err := r.sb.Update("subjects").
		SetMap(map[string]any{
			"subject_name":             subject.Name,
			"title":                    subject.Title,
			"title_fingerprint":        subject.TitleFingerprint,
			"kind":                     string(subject.Kind),
			"degree":                   string(subject.Degree),
			"department_id":            nullInt64(subject.DepartmentID),
			"status":                   string(subject.Status),
			"status_note":              subject.StatusNote,
			"status_date":              nullTime(subject.StatusDate),
			"registration_date":        nullTime(subject.RegistrationDate),
			"frame_date":               nullTime(subject.FrameDate),
			"university_approval_date": nullTime(subject.UniversityApprovalDate),
			"phone":                    subject.Phone,
			"updated_at":               subject.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": subject.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update subject query: %w", err)
	}

	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrSubjectAlreadyExists
		}
		return fmt.Errorf("error updating subject: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSubjectNotFound
	}
	return nil
}

// Delete removes a subject; its links and fee payments cascade
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("subjects").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete subject query: %w", err)
	}

	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error deleting subject: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSubjectNotFound
	}
	return nil
}
