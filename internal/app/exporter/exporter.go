// Package exporter writes the supervision register to an Excel workbook with
// a subject sheet, a per-supervisor summary and aggregate stats.
package exporter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/app/repositories"
	"github.com/yigit/supervision/internal/pkg/apperrors"
)

// Sheet names
const (
	SheetResearches  = "Researches"
	SheetSupervisors = "Supervisors Summary"
	SheetStats       = "Stats"
)

const noDepartment = "—"

// StatusFilter selects which subjects an export covers
type StatusFilter string

const (
	FilterActive          StatusFilter = "active"
	FilterDiscussed       StatusFilter = "discussed"
	FilterActiveDiscussed StatusFilter = "active_discussed"
	FilterDismissed       StatusFilter = "dismissed"
	FilterAll             StatusFilter = "all"
)

// ParseStatusFilter maps user input onto a filter; blank input is active
func ParseStatusFilter(s string) (StatusFilter, error) {
	f := StatusFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FilterActive, nil
	case FilterActive, FilterDiscussed, FilterActiveDiscussed, FilterDismissed, FilterAll:
		return f, nil
	}
	return "", apperrors.NewBadRequestError(fmt.Sprintf("unknown status filter %q", s))
}

// Match reports whether a subject with status passes the filter
func (f StatusFilter) Match(status models.Status) bool {
	switch f {
	case FilterDiscussed:
		return status == models.StatusDiscussed
	case FilterDismissed:
		return status == models.StatusDismissed
	case FilterAll:
		return true
	case FilterActiveDiscussed:
		return status != models.StatusDismissed && status != models.StatusCancelled
	default:
		return status != models.StatusDiscussed && status != models.StatusDismissed && status != models.StatusCancelled
	}
}

// Filter narrows an export
type Filter struct {
	Status StatusFilter
	// Query matches subject name or title, and supervisor name in the summary, case-insensitively
	Query        string
	SupervisorID *int64
}

// Result reports what an export wrote
type Result struct {
	Researches  int
	Supervisors int
	Filter      StatusFilter
}

// Exporter builds export workbooks from the store
type Exporter struct {
	tx     repositories.Transactor
	now    func() time.Time
	logger zerolog.Logger
}

// NewExporter creates an exporter. now defaults to time.Now.
func NewExporter(tx repositories.Transactor, now func() time.Time, lgr zerolog.Logger) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{tx: tx, now: now, logger: lgr}
}

// snapshot is everything an export reads, loaded in one transaction
type snapshot struct {
	subjects    []*models.Subject
	supervisors map[int64]*models.Supervisor
	ordered     []*models.Supervisor
	departments map[int64]string
	bySubject   map[int64][]*models.Supervisor
	bySup       map[int64][]*models.Subject
}

func (e *Exporter) load(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{
		supervisors: make(map[int64]*models.Supervisor),
		departments: make(map[int64]string),
		bySubject:   make(map[int64][]*models.Supervisor),
		bySup:       make(map[int64][]*models.Subject),
	}

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		departments, err := store.Departments().GetAll(ctx)
		if err != nil {
			return err
		}
		for _, d := range departments {
			snap.departments[d.ID] = d.Name
		}

		if snap.ordered, err = store.Supervisors().GetAll(ctx); err != nil {
			return err
		}
		for _, s := range snap.ordered {
			snap.supervisors[s.ID] = s
		}

		if snap.subjects, err = store.Subjects().GetAll(ctx); err != nil {
			return err
		}
		subjects := make(map[int64]*models.Subject, len(snap.subjects))
		for _, s := range snap.subjects {
			subjects[s.ID] = s
		}

		links, err := store.Supervisions().GetAll(ctx)
		if err != nil {
			return err
		}
		for _, l := range links {
			snap.bySubject[l.SubjectID] = append(snap.bySubject[l.SubjectID], snap.supervisors[l.SupervisorID])
			snap.bySup[l.SupervisorID] = append(snap.bySup[l.SupervisorID], subjects[l.SubjectID])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error loading export data: %w", err)
	}

	for _, sups := range snap.bySubject {
		sort.SliceStable(sups, func(i, j int) bool { return sups[i].Name < sups[j].Name })
	}
	return snap, nil
}

func (s *snapshot) departmentName(id *int64) string {
	if id == nil {
		return noDepartment
	}
	if name, ok := s.departments[*id]; ok {
		return name
	}
	return noDepartment
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Build creates the export workbook in memory
func (e *Exporter) Build(ctx context.Context, filter Filter) (*excelize.File, *Result, error) {
	if filter.Status == "" {
		filter.Status = FilterActive
	}
	snap, err := e.load(ctx)
	if err != nil {
		return nil, nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetResearches); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("error preparing workbook: %w", err)
	}
	for _, name := range []string{SheetSupervisors, SheetStats} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("error creating sheet %s: %w", name, err)
		}
	}

	res := &Result{Filter: filter.Status}
	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetResearches, researchRows(snap, filter, e.now())},
		{SheetSupervisors, supervisorRows(snap, filter)},
		{SheetStats, statsRows(snap, filter)},
	}
	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.rows); err != nil {
			f.Close()
			return nil, nil, err
		}
	}
	res.Researches = len(sheets[0].rows) - 1
	res.Supervisors = len(sheets[1].rows) - 1

	return f, res, nil
}

// Export builds the workbook and saves it to path
func (e *Exporter) Export(ctx context.Context, path string, filter Filter) (*Result, error) {
	f, res, err := e.Build(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("error saving export to %s: %w", path, err)
	}

	e.logger.Info().
		Str("file", path).
		Str("filter", string(res.Filter)).
		Int("researches", res.Researches).
		Int("supervisors", res.Supervisors).
		Msg("Export written")
	return res, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("error writing %s row %d: %w", sheet, i+1, err)
		}
	}

	// Freeze the header row.
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func researchRows(snap *snapshot, filter Filter, now time.Time) [][]any {
	rows := [][]any{{
		"Research ID", "اسم الباحث", "النوع", "المرحلة", "الحالة", "عنوان البحث",
		"المشرفون", "قسم المشرف (إن وجد)", "تاريخ التصدير", "فلتر التصدير (sf)",
	}}
	exportTime := now.Format("2006-01-02 15:04")

	for _, s := range snap.subjects {
		if !filter.Status.Match(s.Status) {
			continue
		}
		if filter.Query != "" && !containsFold(s.Name, filter.Query) && !containsFold(s.Title, filter.Query) {
			continue
		}
		sups := snap.bySubject[s.ID]
		if filter.SupervisorID != nil && !hasSupervisor(sups, *filter.SupervisorID) {
			continue
		}

		names := make([]string, 0, len(sups))
		depts := make([]string, 0, len(sups))
		for _, sup := range sups {
			names = append(names, sup.Name)
			depts = append(depts, snap.departmentName(sup.DepartmentID))
		}

		rows = append(rows, []any{
			s.ID, s.Name, s.Kind.Label(), s.Degree.Label(), s.Status.Label(), s.Title,
			strings.Join(names, " | "), strings.Join(depts, " | "), exportTime, string(filter.Status),
		})
	}
	return rows
}

func hasSupervisor(sups []*models.Supervisor, id int64) bool {
	for _, s := range sups {
		if s.ID == id {
			return true
		}
	}
	return false
}

type supervisorLoad struct {
	sup                         *models.Supervisor
	ma, phd, researchers, assts int
}

func supervisorRows(snap *snapshot, filter Filter) [][]any {
	var loads []supervisorLoad
	for _, sup := range snap.ordered {
		if !sup.IsActive {
			continue
		}
		if filter.Query != "" && !containsFold(sup.Name, filter.Query) {
			continue
		}
		if filter.SupervisorID != nil && sup.ID != *filter.SupervisorID {
			continue
		}

		load := supervisorLoad{sup: sup}
		seen := make(map[int64]struct{})
		for _, subj := range snap.bySup[sup.ID] {
			if _, dup := seen[subj.ID]; dup || !filter.Status.Match(subj.Status) {
				continue
			}
			seen[subj.ID] = struct{}{}
			if subj.Kind == models.KindAssistant {
				load.assts++
				continue
			}
			load.researchers++
			if subj.Degree == models.DegreePhD {
				load.phd++
			} else {
				load.ma++
			}
		}
		loads = append(loads, load)
	}

	sort.SliceStable(loads, func(i, j int) bool {
		if loads[i].researchers != loads[j].researchers {
			return loads[i].researchers > loads[j].researchers
		}
		return loads[i].sup.Name < loads[j].sup.Name
	})

	rows := [][]any{{
		"Supervisor ID", "اسم المشرف", "القسم", "ماجستير (باحث)", "دكتوراه (باحث)",
		"إجمالي الباحثين", "المعيدين", "فلتر التصدير (sf)",
	}}
	for _, l := range loads {
		rows = append(rows, []any{
			l.sup.ID, l.sup.Name, snap.departmentName(l.sup.DepartmentID),
			l.ma, l.phd, l.researchers, l.assts, string(filter.Status),
		})
	}
	return rows
}

type tally struct {
	value string
	total int
}

func count[T ~string](subjects []*models.Subject, field func(*models.Subject) T) []tally {
	totals := make(map[string]int)
	for _, s := range subjects {
		totals[string(field(s))]++
	}
	out := make([]tally, 0, len(totals))
	for v, n := range totals {
		out = append(out, tally{value: v, total: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].value < out[j].value })
	return out
}

// statsRows aggregates by degree, status and kind. The status filter applies; the query does not.
func statsRows(snap *snapshot, filter Filter) [][]any {
	var base []*models.Subject
	for _, s := range snap.subjects {
		if filter.Status.Match(s.Status) {
			base = append(base, s)
		}
	}
	sf := string(filter.Status)

	byStatus := count(base, func(s *models.Subject) models.Status { return s.Status })
	sort.SliceStable(byStatus, func(i, j int) bool { return byStatus[i].total > byStatus[j].total })

	rows := [][]any{{"البند", "القيمة", "الإجمالي", "فلتر التصدير (sf)"}}
	section := func(title, label string, tallies []tally, last bool) {
		rows = append(rows, []any{title, "", "", sf})
		for _, t := range tallies {
			rows = append(rows, []any{label, t.value, t.total, sf})
		}
		if !last {
			rows = append(rows, []any{"", "", "", ""})
		}
	}
	section("حسب الدرجة", "درجة", count(base, func(s *models.Subject) models.Degree { return s.Degree }), false)
	section("حسب الحالة", "حالة", byStatus, false)
	section("حسب النوع", "نوع", count(base, func(s *models.Subject) models.SubjectKind { return s.Kind }), true)
	return rows
}
