package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/db"
)

// IDepartmentRepository defines department persistence
type IDepartmentRepository interface {
	GetOrCreate(ctx context.Context, name string) (*models.Department, bool, error)
	GetByID(ctx context.Context, id int64) (*models.Department, error)
	GetAll(ctx context.Context) ([]*models.Department, error)
}

// ISupervisorRepository defines supervisor persistence
type ISupervisorRepository interface {
	Create(ctx context.Context, supervisor *models.Supervisor) error
	GetByID(ctx context.Context, id int64) (*models.Supervisor, error)
	// GetAll returns every supervisor ordered by ascending id
	GetAll(ctx context.Context) ([]*models.Supervisor, error)
	// GetOrCreateByName matches the exact name; among legacy duplicates the lowest id wins
	GetOrCreateByName(ctx context.Context, name string) (*models.Supervisor, bool, error)
	SetDepartment(ctx context.Context, id int64, departmentID *int64) error
	Delete(ctx context.Context, id int64) error
}

// ISubjectRepository defines subject persistence. Create and Update recompute
// the title fingerprint.
type ISubjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id int64) (*models.Subject, error)
	// GetAll returns every subject ordered by ascending id
	GetAll(ctx context.Context) ([]*models.Subject, error)
	// FindByKey returns the subjects stored under key ordered by ascending id.
	// More than one match only happens for rows that predate the unique constraint.
	FindByKey(ctx context.Context, key models.SubjectKey) ([]*models.Subject, error)
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id int64) error
}

// ISupervisionRepository defines supervision link persistence
type ISupervisionRepository interface {
	// GetOrCreate never overwrites the role of an existing link
	GetOrCreate(ctx context.Context, subjectID, supervisorID int64, role models.Role) (*models.SupervisionLink, bool, error)
	GetBySubject(ctx context.Context, subjectID int64) ([]*models.SupervisionLink, error)
	GetBySupervisor(ctx context.Context, supervisorID int64) ([]*models.SupervisionLink, error)
	GetAll(ctx context.Context) ([]*models.SupervisionLink, error)
	DeleteBySubject(ctx context.Context, subjectID int64) (int64, error)
	DeleteBySupervisor(ctx context.Context, supervisorID int64) (int64, error)
}

// IFeePaymentRepository defines fee payment persistence
type IFeePaymentRepository interface {
	GetOrCreate(ctx context.Context, subjectID int64, year int) (*models.FeePayment, bool, error)
	Get(ctx context.Context, subjectID int64, year int) (*models.FeePayment, error)
	// GetBySubject returns payments newest year first
	GetBySubject(ctx context.Context, subjectID int64) ([]*models.FeePayment, error)
	SetPaid(ctx context.Context, id int64, paid bool, paidAt *time.Time) error
	Reassign(ctx context.Context, id int64, subjectID int64) error
	Delete(ctx context.Context, subjectID int64, year int) (bool, error)
}

// IStore groups the repositories bound to one connection or transaction
type IStore interface {
	Departments() IDepartmentRepository
	Supervisors() ISupervisorRepository
	Subjects() ISubjectRepository
	Supervisions() ISupervisionRepository
	FeePayments() IFeePaymentRepository
}

// Transactor runs work against a transaction-bound store. fn's store must not
// escape the call; the transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, store IStore) error) error
}

// Repositories holds all the repository instances
type Repositories struct {
	DepartmentRepository  *DepartmentRepository
	SupervisorRepository  *SupervisorRepository
	SubjectRepository     *SubjectRepository
	SupervisionRepository *SupervisionRepository
	FeePaymentRepository  *FeePaymentRepository
}

// NewRepositories initializes all repositories over q
func NewRepositories(q db.DBTX, dialect db.Dialect) *Repositories {
	sb := squirrel.StatementBuilder.PlaceholderFormat(dialect.Placeholder())
	return &Repositories{
		DepartmentRepository:  NewDepartmentRepository(q, sb),
		SupervisorRepository:  NewSupervisorRepository(q, sb),
		SubjectRepository:     NewSubjectRepository(q, sb),
		SupervisionRepository: NewSupervisionRepository(q, sb),
		FeePaymentRepository:  NewFeePaymentRepository(q, sb),
	}
}

func (r *Repositories) Departments() IDepartmentRepository   { return r.DepartmentRepository }
func (r *Repositories) Supervisors() ISupervisorRepository   { return r.SupervisorRepository }
func (r *Repositories) Subjects() ISubjectRepository         { return r.SubjectRepository }
func (r *Repositories) Supervisions() ISupervisionRepository { return r.SupervisionRepository }
func (r *Repositories) FeePayments() IFeePaymentRepository   { return r.FeePaymentRepository }

// TxManager opens transactions on a database and hands out transaction-bound stores
type TxManager struct {
	db db.Database
}

// NewTxManager creates a transactor over database
func NewTxManager(database db.Database) *TxManager {
	return &TxManager{db: database}
}

// WithinTransaction implements Transactor
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store IStore) error) error {
	return m.db.WithTransaction(ctx, func(ctx context.Context, q db.DBTX) error {
		return fn(ctx, NewRepositories(q, m.db.Dialect()))
	})
}

// nullInt64 turns an optional id into a driver argument
func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullTime turns an optional timestamp into a driver argument
func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}

func now() time.Time {
	return time.Now().UTC()
}
