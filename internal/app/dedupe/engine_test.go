package dedupe_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/yigit/supervision/internal/app/dedupe"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/app/repositories"
	"github.com/yigit/supervision/internal/db"
	"github.com/yigit/supervision/internal/testutil"
)

type fixture struct {
	ctx    context.Context
	db     db.Database
	store  *repositories.Repositories
	engine *dedupe.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewSQLite(t)
	return &fixture{
		ctx:    context.Background(),
		db:     database,
		store:  repositories.NewRepositories(database.Querier(), database.Dialect()),
		engine: dedupe.NewEngine(repositories.NewTxManager(database), zerolog.Nop()),
	}
}

func (f *fixture) supervisor(t *testing.T, name string, departmentID *int64) *models.Supervisor {
	t.Helper()
	s := &models.Supervisor{Name: name, DepartmentID: departmentID, IsActive: true}
	if err := f.store.Supervisors().Create(f.ctx, s); err != nil {
		t.Fatalf("create supervisor %q: %v", name, err)
	}
	return s
}

func (f *fixture) subject(t *testing.T, name, title string, departmentID *int64) *models.Subject {
	t.Helper()
	s := &models.Subject{Name: name, Title: title, Degree: models.DegreeMA, DepartmentID: departmentID}
	if err := f.store.Subjects().Create(f.ctx, s); err != nil {
		t.Fatalf("create subject %q: %v", name, err)
	}
	return s
}

func (f *fixture) link(t *testing.T, subjectID, supervisorID int64, role models.Role) {
	t.Helper()
	if _, _, err := f.store.Supervisions().GetOrCreate(f.ctx, subjectID, supervisorID, role); err != nil {
		t.Fatalf("link: %v", err)
	}
}

func (f *fixture) department(t *testing.T, name string) *int64 {
	t.Helper()
	d, _, err := f.store.Departments().GetOrCreate(f.ctx, name)
	if err != nil {
		t.Fatalf("department: %v", err)
	}
	return &d.ID
}

type pair struct {
	Subject, Supervisor int64
	Role                models.Role
}

func (f *fixture) links(t *testing.T) []pair {
	t.Helper()
	all, err := f.store.Supervisions().GetAll(f.ctx)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	out := make([]pair, 0, len(all))
	for _, l := range all {
		out = append(out, pair{l.SubjectID, l.SupervisorID, l.Role})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].Supervisor < out[j].Supervisor
	})
	return out
}

func TestDedupeSupervisorsCollapsesWhitespaceVariants(t *testing.T) {
	f := newFixture(t)

	omar := f.supervisor(t, "Dr. Omar", nil)
	omar2 := f.supervisor(t, "Dr.  Omar", nil)
	sara := f.supervisor(t, "Dr. Sara", nil)

	s1 := f.subject(t, "Ahmed Ali", "A Study of X", nil)
	s2 := f.subject(t, "Mona", "Y", nil)
	f.link(t, s1.ID, omar.ID, models.RolePrimary)
	f.link(t, s1.ID, omar2.ID, models.RoleCo)
	f.link(t, s2.ID, omar2.ID, models.RoleCo)
	f.link(t, s2.ID, sara.ID, models.RolePrimary)

	summary, err := f.engine.DedupeSupervisors(f.ctx)
	if err != nil {
		t.Fatalf("DedupeSupervisors: %v", err)
	}
	if summary.RunID == "" {
		t.Error("missing run id")
	}
	want := dedupe.Summary{RunID: summary.RunID, GroupsMerged: 1, DuplicatesDeleted: 1, LinksMoved: 1}
	if diff := cmp.Diff(want, *summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	wantLinks := []pair{
		{s1.ID, omar.ID, models.RolePrimary},
		{s2.ID, omar.ID, models.RoleCo},
		{s2.ID, sara.ID, models.RolePrimary},
	}
	if diff := cmp.Diff(wantLinks, f.links(t)); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}

	all, err := f.store.Supervisors().GetAll(f.ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("supervisors left = %d, want 2", len(all))
	}

	again, err := f.engine.DedupeSupervisors(f.ctx)
	if err != nil {
		t.Fatalf("second DedupeSupervisors: %v", err)
	}
	if again.GroupsMerged != 0 || again.DuplicatesDeleted != 0 || again.LinksMoved != 0 {
		t.Errorf("second run not idempotent: %+v", again)
	}
}

func TestDedupeSupervisorsPrefersDepartment(t *testing.T) {
	f := newFixture(t)
	dept := f.department(t, "Math")

	first := f.supervisor(t, "Dr. Huda", nil)
	withDept := f.supervisor(t, " Dr. Huda", dept)
	subject := f.subject(t, "Ali", "T", nil)
	f.link(t, subject.ID, first.ID, models.RolePrimary)

	if _, err := f.engine.DedupeSupervisors(f.ctx); err != nil {
		t.Fatalf("DedupeSupervisors: %v", err)
	}

	all, err := f.store.Supervisors().GetAll(f.ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != withDept.ID {
		t.Fatalf("survivor = %+v, want id %d", all, withDept.ID)
	}
	if diff := cmp.Diff([]pair{{subject.ID, withDept.ID, models.RolePrimary}}, f.links(t)); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeSubjectsMergesLinksAndPayments(t *testing.T) {
	f := newFixture(t)
	dept := f.department(t, "Fiqh")

	sara := f.supervisor(t, "Dr. Sara", nil)
	omar := f.supervisor(t, "Dr. Omar", nil)

	first := f.subject(t, "Ahmed Ali", "A Study of X", nil)
	second := f.subject(t, "Ahmed  Ali", "A Study of X", dept)
	third := f.subject(t, "Ahmed Ali", "A  Study of X", nil)
	other := f.subject(t, "Someone Else", "A Study of X", nil)

	f.link(t, first.ID, sara.ID, models.RolePrimary)
	f.link(t, second.ID, sara.ID, models.RoleCo)
	f.link(t, third.ID, omar.ID, models.RoleExternal)
	f.link(t, other.ID, omar.ID, models.RolePrimary)

	for _, p := range []struct {
		subject int64
		year    int
	}{{first.ID, 2023}, {second.ID, 2023}, {third.ID, 2024}} {
		if _, _, err := f.store.FeePayments().GetOrCreate(f.ctx, p.subject, p.year); err != nil {
			t.Fatalf("fee: %v", err)
		}
	}

	summary, err := f.engine.DedupeSubjects(f.ctx)
	if err != nil {
		t.Fatalf("DedupeSubjects: %v", err)
	}
	want := dedupe.Summary{RunID: summary.RunID, GroupsMerged: 1, DuplicatesDeleted: 2, LinksMoved: 1, PaymentsMoved: 1}
	if diff := cmp.Diff(want, *summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	// second has the department, so it survives and keeps its own CO role for Sara.
	wantLinks := []pair{
		{second.ID, sara.ID, models.RoleCo},
		{second.ID, omar.ID, models.RoleExternal},
		{other.ID, omar.ID, models.RolePrimary},
	}
	if diff := cmp.Diff(wantLinks, f.links(t)); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}

	payments, err := f.store.FeePayments().GetBySubject(f.ctx, second.ID)
	if err != nil {
		t.Fatalf("payments: %v", err)
	}
	var years []int
	for _, p := range payments {
		years = append(years, p.Year)
	}
	if diff := cmp.Diff([]int{2024, 2023}, years); diff != "" {
		t.Errorf("payment years mismatch (-want +got):\n%s", diff)
	}

	again, err := f.engine.DedupeSubjects(f.ctx)
	if err != nil {
		t.Fatalf("second DedupeSubjects: %v", err)
	}
	if again.GroupsMerged != 0 || again.DuplicatesDeleted != 0 || again.LinksMoved != 0 || again.PaymentsMoved != 0 {
		t.Errorf("second run not idempotent: %+v", again)
	}
}

// failingStore fails subject deletes after the first one.
type failingStore struct {
	repositories.IStore
	subjects *failingSubjects
}

func (s failingStore) Subjects() repositories.ISubjectRepository { return s.subjects }

type failingSubjects struct {
	repositories.ISubjectRepository
	deletes int
}

var errInjected = errors.New("injected failure")

func (r *failingSubjects) Delete(ctx context.Context, id int64) error {
	r.deletes++
	if r.deletes > 1 {
		return errInjected
	}
	return r.ISubjectRepository.Delete(ctx, id)
}

type failingTx struct {
	inner repositories.Transactor
}

func (tx failingTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store repositories.IStore) error) error {
	return tx.inner.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		return fn(ctx, failingStore{IStore: store, subjects: &failingSubjects{ISubjectRepository: store.Subjects()}})
	})
}

func TestDedupeSubjectsRollsBackWholeRun(t *testing.T) {
	f := newFixture(t)
	sara := f.supervisor(t, "Dr. Sara", nil)

	a1 := f.subject(t, "A", "T1", nil)
	a2 := f.subject(t, "A ", "T1", nil)
	b1 := f.subject(t, "B", "T2", nil)
	b2 := f.subject(t, " B", "T2", nil)
	f.link(t, a2.ID, sara.ID, models.RolePrimary)
	f.link(t, b2.ID, sara.ID, models.RolePrimary)

	engine := dedupe.NewEngine(failingTx{inner: repositories.NewTxManager(f.db)}, zerolog.Nop())
	if _, err := engine.DedupeSubjects(f.ctx); !errors.Is(err, errInjected) {
		t.Fatalf("DedupeSubjects error = %v, want injected failure", err)
	}

	all, err := f.store.Subjects().GetAll(f.ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	var ids []int64
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff([]int64{a1.ID, a2.ID, b1.ID, b2.ID}, ids); diff != "" {
		t.Errorf("subjects after rollback mismatch (-want +got):\n%s", diff)
	}
	wantLinks := []pair{{a2.ID, sara.ID, models.RolePrimary}, {b2.ID, sara.ID, models.RolePrimary}}
	if diff := cmp.Diff(wantLinks, f.links(t)); diff != "" {
		t.Errorf("links after rollback mismatch (-want +got):\n%s", diff)
	}
}
