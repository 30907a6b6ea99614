package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/app/repositories"
	"github.com/yigit/supervision/internal/pkg/apperrors"
	"github.com/yigit/supervision/internal/pkg/fingerprint"
	"github.com/yigit/supervision/internal/testutil"
)

func newStore(t *testing.T) *repositories.Repositories {
	t.Helper()
	database := testutil.NewSQLite(t)
	return repositories.NewRepositories(database.Querier(), database.Dialect())
}

func TestDepartmentGetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first, created, err := store.Departments().GetOrCreate(ctx, "الفقه")
	if err != nil || !created {
		t.Fatalf("GetOrCreate() = %v, %v, %v", first, created, err)
	}
	again, created, err := store.Departments().GetOrCreate(ctx, "الفقه")
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if created || again.ID != first.ID {
		t.Errorf("second GetOrCreate = %+v created=%v, want id %d and not created", again, created, first.ID)
	}

	if _, err := store.Departments().GetByID(ctx, 999); !errors.Is(err, apperrors.ErrDepartmentNotFound) {
		t.Errorf("GetByID(999) error = %v", err)
	}
}

func TestSubjectCreateComputesFingerprint(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	approved := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	s := &models.Subject{
		Name:                   "Ahmed Ali",
		Title:                  "On Sets",
		Degree:                 models.DegreeMA,
		UniversityApprovalDate: &approved,
	}
	if err := store.Subjects().Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.TitleFingerprint != fingerprint.Title("On Sets") {
		t.Errorf("fingerprint = %q", s.TitleFingerprint)
	}
	if s.Kind != models.KindResearcher || s.Status != models.StatusRegistered {
		t.Errorf("defaults not applied: kind=%s status=%s", s.Kind, s.Status)
	}

	got, err := store.Subjects().GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != s.Name || got.TitleFingerprint != s.TitleFingerprint || got.Degree != models.DegreeMA {
		t.Errorf("GetByID = %+v", got)
	}
	if got.UniversityApprovalDate == nil || !got.UniversityApprovalDate.Equal(approved) {
		t.Errorf("UniversityApprovalDate = %v, want %v", got.UniversityApprovalDate, approved)
	}
	if got.StatusDate != nil {
		t.Errorf("StatusDate = %v, want nil", got.StatusDate)
	}

	dup := &models.Subject{Name: "Ahmed Ali", Title: "On Sets", Degree: models.DegreeMA}
	if err := store.Subjects().Create(ctx, dup); !errors.Is(err, apperrors.ErrSubjectAlreadyExists) {
		t.Errorf("duplicate Create error = %v, want ErrSubjectAlreadyExists", err)
	}
}

func TestSubjectUpdateAndFindByKey(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	s := &models.Subject{Name: "Sara", Degree: models.DegreePhD, Kind: models.KindAssistant}
	if err := store.Subjects().Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.TitleFingerprint != "" {
		t.Fatalf("blank title fingerprint = %q", s.TitleFingerprint)
	}

	s.Title = "Graphs"
	if err := store.Subjects().Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}

	found, err := store.Subjects().FindByKey(ctx, models.SubjectKey{
		Name:             "Sara",
		TitleFingerprint: fingerprint.Title("Graphs"),
		Degree:           models.DegreePhD,
		Kind:             models.KindAssistant,
	})
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if len(found) != 1 || found[0].ID != s.ID || found[0].Title != "Graphs" {
		t.Errorf("FindByKey = %+v", found)
	}

	if err := store.Subjects().Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Subjects().Delete(ctx, s.ID); !errors.Is(err, apperrors.ErrSubjectNotFound) {
		t.Errorf("second Delete error = %v", err)
	}
}

func TestSupervisionLinkKeepsExistingRole(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	subject := &models.Subject{Name: "Ali", Title: "T", Degree: models.DegreeMA}
	if err := store.Subjects().Create(ctx, subject); err != nil {
		t.Fatalf("Create subject: %v", err)
	}
	sup, created, err := store.Supervisors().GetOrCreateByName(ctx, "Dr. Omar")
	if err != nil || !created {
		t.Fatalf("GetOrCreateByName = %v, %v", created, err)
	}

	link, created, err := store.Supervisions().GetOrCreate(ctx, subject.ID, sup.ID, models.RoleCo)
	if err != nil || !created {
		t.Fatalf("GetOrCreate link = %v, %v", created, err)
	}
	again, created, err := store.Supervisions().GetOrCreate(ctx, subject.ID, sup.ID, models.RolePrimary)
	if err != nil {
		t.Fatalf("GetOrCreate link again: %v", err)
	}
	if created || again.ID != link.ID || again.Role != models.RoleCo {
		t.Errorf("second GetOrCreate = %+v created=%v, want existing CO link", again, created)
	}

	if err := store.Supervisors().Delete(ctx, sup.ID); !errors.Is(err, apperrors.ErrSupervisorHasSubjects) {
		t.Errorf("Delete linked supervisor error = %v, want ErrSupervisorHasSubjects", err)
	}

	n, err := store.Supervisions().DeleteBySupervisor(ctx, sup.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteBySupervisor = %d, %v", n, err)
	}
	if err := store.Supervisors().Delete(ctx, sup.ID); err != nil {
		t.Errorf("Delete unlinked supervisor: %v", err)
	}
}

func TestSupervisorGetOrCreateByNamePrefersLowestID(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first := &models.Supervisor{Name: "Dr. Huda", IsActive: true}
	second := &models.Supervisor{Name: "Dr. Huda", IsActive: true}
	for _, s := range []*models.Supervisor{first, second} {
		if err := store.Supervisors().Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, created, err := store.Supervisors().GetOrCreateByName(ctx, "Dr. Huda")
	if err != nil {
		t.Fatalf("GetOrCreateByName: %v", err)
	}
	if created || got.ID != first.ID {
		t.Errorf("GetOrCreateByName = id %d created=%v, want id %d", got.ID, created, first.ID)
	}

	dept, _, err := store.Departments().GetOrCreate(ctx, "Math")
	if err != nil {
		t.Fatalf("department: %v", err)
	}
	if err := store.Supervisors().SetDepartment(ctx, second.ID, &dept.ID); err != nil {
		t.Fatalf("SetDepartment: %v", err)
	}
	all, err := store.Supervisors().GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	var ids []int64
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff([]int64{first.ID, second.ID}, ids); diff != "" {
		t.Errorf("GetAll order mismatch (-want +got):\n%s", diff)
	}
	if all[1].DepartmentID == nil || *all[1].DepartmentID != dept.ID {
		t.Errorf("department not stored: %+v", all[1])
	}
}

func TestFeePayments(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	subject := &models.Subject{Name: "Mona", Title: "X", Degree: models.DegreeMA}
	if err := store.Subjects().Create(ctx, subject); err != nil {
		t.Fatalf("Create subject: %v", err)
	}

	for _, year := range []int{2022, 2024, 2023} {
		if _, created, err := store.FeePayments().GetOrCreate(ctx, subject.ID, year); err != nil || !created {
			t.Fatalf("GetOrCreate(%d) = %v, %v", year, created, err)
		}
	}
	p, created, err := store.FeePayments().GetOrCreate(ctx, subject.ID, 2024)
	if err != nil || created {
		t.Fatalf("GetOrCreate existing = %v, %v", created, err)
	}

	paidAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := store.FeePayments().SetPaid(ctx, p.ID, true, &paidAt); err != nil {
		t.Fatalf("SetPaid: %v", err)
	}

	list, err := store.FeePayments().GetBySubject(ctx, subject.ID)
	if err != nil {
		t.Fatalf("GetBySubject: %v", err)
	}
	var years []int
	for _, payment := range list {
		years = append(years, payment.Year)
	}
	if diff := cmp.Diff([]int{2024, 2023, 2022}, years); diff != "" {
		t.Errorf("years mismatch (-want +got):\n%s", diff)
	}
	if !list[0].IsPaid || list[0].PaidAt == nil || !list[0].PaidAt.Equal(paidAt) {
		t.Errorf("paid payment = %+v", list[0])
	}

	deleted, err := store.FeePayments().Delete(ctx, subject.ID, 2022)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	deleted, err = store.FeePayments().Delete(ctx, subject.ID, 2022)
	if err != nil || deleted {
		t.Errorf("second Delete = %v, %v", deleted, err)
	}

	if _, _, err := store.FeePayments().GetOrCreate(ctx, 4242, 2024); !errors.Is(err, apperrors.ErrSubjectNotFound) {
		t.Errorf("GetOrCreate for missing subject error = %v", err)
	}
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewSQLite(t)
	tx := repositories.NewTxManager(database)

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		if _, _, err := store.Departments().GetOrCreate(ctx, "Physics"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTransaction error = %v, want boom", err)
	}

	all, err := repositories.NewRepositories(database.Querier(), database.Dialect()).Departments().GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("departments after rollback = %d, want 0", len(all))
	}
}
