package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/app/repositories"
	"github.com/yigit/supervision/internal/app/services"
	"github.com/yigit/supervision/internal/pkg/apperrors"
	"github.com/yigit/supervision/internal/testutil"
)

var fixedNow = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (services.FeeService, services.DepartmentService, *models.Subject) {
	t.Helper()
	database := testutil.NewSQLite(t)
	store := repositories.NewRepositories(database.Querier(), database.Dialect())

	subject := &models.Subject{Name: "Ahmed Ali", Title: "A Study of X", Degree: models.DegreeMA}
	if err := store.Subjects().Create(context.Background(), subject); err != nil {
		t.Fatalf("Create subject: %v", err)
	}

	tx := repositories.NewTxManager(database)
	return services.NewFeeService(tx, func() time.Time { return fixedNow }, zerolog.Nop()),
		services.NewDepartmentService(tx, zerolog.Nop()),
		subject
}

func TestFeeServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	fees, _, subject := setup(t)

	current, err := fees.EnsureCurrentYear(ctx, subject.ID)
	if err != nil {
		t.Fatalf("EnsureCurrentYear: %v", err)
	}
	if current.Year != 2025 || current.IsPaid {
		t.Errorf("current = %+v", current)
	}
	again, err := fees.EnsureCurrentYear(ctx, subject.ID)
	if err != nil || again.ID != current.ID {
		t.Fatalf("EnsureCurrentYear again = %+v, %v", again, err)
	}

	if _, created, err := fees.AddYear(ctx, subject.ID, 2023); err != nil || !created {
		t.Fatalf("AddYear = %v, %v", created, err)
	}
	if _, created, err := fees.AddYear(ctx, subject.ID, 2023); err != nil || created {
		t.Fatalf("AddYear existing = %v, %v", created, err)
	}

	paid, err := fees.Toggle(ctx, subject.ID, 2023)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !paid.IsPaid || paid.PaidAt == nil || !paid.PaidAt.Equal(fixedNow) {
		t.Errorf("after first toggle = %+v", paid)
	}
	unpaid, err := fees.Toggle(ctx, subject.ID, 2023)
	if err != nil {
		t.Fatalf("Toggle back: %v", err)
	}
	if unpaid.IsPaid || unpaid.PaidAt != nil {
		t.Errorf("after second toggle = %+v", unpaid)
	}

	// Toggling a missing year creates it as paid.
	if p, err := fees.Toggle(ctx, subject.ID, 2024); err != nil || !p.IsPaid {
		t.Fatalf("Toggle new year = %+v, %v", p, err)
	}

	list, err := fees.List(ctx, subject.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var years []int
	for _, p := range list {
		years = append(years, p.Year)
	}
	if diff := cmp.Diff([]int{2025, 2024, 2023}, years); diff != "" {
		t.Errorf("years mismatch (-want +got):\n%s", diff)
	}

	if err := fees.DeleteYear(ctx, subject.ID, 2024); err != nil {
		t.Fatalf("DeleteYear: %v", err)
	}
	if err := fees.DeleteYear(ctx, subject.ID, 2024); !errors.Is(err, apperrors.ErrFeePaymentNotFound) {
		t.Errorf("DeleteYear missing error = %v", err)
	}
}

func TestFeeServiceValidation(t *testing.T) {
	ctx := context.Background()
	fees, _, subject := setup(t)

	for _, year := range []int{1899, 2101, 0} {
		if _, _, err := fees.AddYear(ctx, subject.ID, year); !errors.Is(err, apperrors.ErrInvalidYear) {
			t.Errorf("AddYear(%d) error = %v, want ErrInvalidYear", year, err)
		}
	}
	if _, err := fees.Toggle(ctx, subject.ID, 3000); !errors.Is(err, apperrors.ErrInvalidYear) {
		t.Errorf("Toggle(3000) error = %v", err)
	}
	for _, year := range []int{1900, 2100} {
		if _, created, err := fees.AddYear(ctx, subject.ID, year); err != nil || !created {
			t.Errorf("AddYear(%d) = created %v, %v; want boundary year accepted", year, created, err)
		}
	}
	if _, _, err := fees.AddYear(ctx, subject.ID+100, 2024); !errors.Is(err, apperrors.ErrSubjectNotFound) {
		t.Errorf("AddYear unknown subject error = %v", err)
	}
	if _, err := fees.List(ctx, subject.ID+100); !errors.Is(err, apperrors.ErrSubjectNotFound) {
		t.Errorf("List unknown subject error = %v", err)
	}
}

func TestEnsureDepartments(t *testing.T) {
	ctx := context.Background()
	_, departments, _ := setup(t)

	created, err := departments.EnsureDepartments(ctx, []string{"الجمباز", " الجمباز ", "المنازلات"})
	if err != nil {
		t.Fatalf("EnsureDepartments: %v", err)
	}
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}

	created, err = departments.EnsureDepartments(ctx, []string{"الجمباز", "المنازلات"})
	if err != nil || created != 0 {
		t.Errorf("second EnsureDepartments = %d, %v", created, err)
	}

	if _, err := departments.EnsureDepartments(ctx, []string{"  "}); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("blank name error = %v", err)
	}

	all, err := departments.GetAllDepartments(ctx)
	if err != nil {
		t.Fatalf("GetAllDepartments: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("departments = %d, want 2", len(all))
	}
}
