package exporter_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"github.com/yigit/supervision/internal/app/exporter"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/app/repositories"
	"github.com/yigit/supervision/internal/pkg/apperrors"
	"github.com/yigit/supervision/internal/testutil"
)

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    exporter.StatusFilter
		wantErr bool
	}{
		{"", exporter.FilterActive, false},
		{" ALL ", exporter.FilterAll, false},
		{"active_discussed", exporter.FilterActiveDiscussed, false},
		{"bogus", "", true},
	}
	for _, tt := range tests {
		got, err := exporter.ParseStatusFilter(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStatusFilter(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, apperrors.ErrBadRequest) {
			t.Errorf("error %v is not ErrBadRequest", err)
		}
		if err != nil && err.Error() != `unknown status filter "bogus"` {
			t.Errorf("error message = %q", err.Error())
		}
	}
}

func TestStatusFilterMatch(t *testing.T) {
	want := map[exporter.StatusFilter][]models.Status{
		exporter.FilterActive:          {models.StatusRegistered, models.StatusOther},
		exporter.FilterDiscussed:       {models.StatusDiscussed},
		exporter.FilterActiveDiscussed: {models.StatusRegistered, models.StatusDiscussed, models.StatusOther},
		exporter.FilterDismissed:       {models.StatusDismissed},
		exporter.FilterAll:             models.AllStatuses,
	}
	for filter, statuses := range want {
		var got []models.Status
		for _, s := range models.AllStatuses {
			if filter.Match(s) {
				got = append(got, s)
			}
		}
		if diff := cmp.Diff(statuses, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", filter, diff)
		}
	}
}

func TestExportWorkbook(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewSQLite(t)
	store := repositories.NewRepositories(database.Querier(), database.Dialect())

	dept, _, err := store.Departments().GetOrCreate(ctx, "الجمباز")
	if err != nil {
		t.Fatalf("department: %v", err)
	}
	sara := &models.Supervisor{Name: "Dr. Sara", DepartmentID: &dept.ID, IsActive: true}
	omar := &models.Supervisor{Name: "Dr. Omar", IsActive: true}
	for _, s := range []*models.Supervisor{sara, omar} {
		if err := store.Supervisors().Create(ctx, s); err != nil {
			t.Fatalf("supervisor: %v", err)
		}
	}

	subjects := []*models.Subject{
		{Name: "Ahmed Ali", Title: "A Study of X", Degree: models.DegreeMA},
		{Name: "Huda", Title: "Graphs", Degree: models.DegreePhD, Status: models.StatusDiscussed},
		{Name: "Mona", Title: "Sets", Degree: models.DegreeMA, Kind: models.KindAssistant},
	}
	for _, s := range subjects {
		if err := store.Subjects().Create(ctx, s); err != nil {
			t.Fatalf("subject: %v", err)
		}
		if _, _, err := store.Supervisions().GetOrCreate(ctx, s.ID, sara.ID, models.RolePrimary); err != nil {
			t.Fatalf("link: %v", err)
		}
	}
	if _, _, err := store.Supervisions().GetOrCreate(ctx, subjects[0].ID, omar.ID, models.RoleCo); err != nil {
		t.Fatalf("link: %v", err)
	}

	now := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	exp := exporter.NewExporter(repositories.NewTxManager(database), func() time.Time { return now }, zerolog.Nop())
	path := filepath.Join(t.TempDir(), "export.xlsx")

	res, err := exp.Export(ctx, path, exporter.Filter{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if diff := cmp.Diff(&exporter.Result{Researches: 2, Supervisors: 2, Filter: exporter.FilterActive}, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{exporter.SheetResearches, exporter.SheetSupervisors, exporter.SheetStats}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}

	researches, err := f.GetRows(exporter.SheetResearches)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	wantFirst := []string{
		strconv.FormatInt(subjects[0].ID, 10), "Ahmed Ali", "باحث", "ماجستير", "مسجل", "A Study of X",
		"Dr. Omar | Dr. Sara", "— | الجمباز", "2025-01-02 03:04", "active",
	}
	if len(researches) != 3 {
		t.Fatalf("research rows = %d, want header + 2", len(researches))
	}
	if diff := cmp.Diff(wantFirst, researches[1]); diff != "" {
		t.Errorf("first research row mismatch (-want +got):\n%s", diff)
	}

	summary, err := f.GetRows(exporter.SheetSupervisors)
	if err != nil {
		t.Fatalf("GetRows summary: %v", err)
	}
	wantSummary := [][]string{
		{strconv.FormatInt(omar.ID, 10), "Dr. Omar", "—", "1", "0", "1", "0", "active"},
		{strconv.FormatInt(sara.ID, 10), "Dr. Sara", "الجمباز", "1", "0", "1", "1", "active"},
	}
	if diff := cmp.Diff(wantSummary, summary[1:]); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	filtered, err := exp.Export(ctx, filepath.Join(t.TempDir(), "q.xlsx"), exporter.Filter{
		Status:       exporter.FilterAll,
		Query:        "graphs",
		SupervisorID: &sara.ID,
	})
	if err != nil {
		t.Fatalf("filtered Export: %v", err)
	}
	if filtered.Researches != 1 || filtered.Supervisors != 0 {
		t.Errorf("filtered result = %+v", filtered)
	}
}
