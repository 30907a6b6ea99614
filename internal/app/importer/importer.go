// Package importer loads supervision rows from a spreadsheet into the store,
// merging legacy duplicates on the way.
package importer

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/supervision/internal/app/classify"
	"github.com/yigit/supervision/internal/app/dedupe"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/app/repositories"
	"github.com/yigit/supervision/internal/config"
	"github.com/yigit/supervision/internal/pkg/apperrors"
	"github.com/yigit/supervision/internal/pkg/fingerprint"
	"github.com/yigit/supervision/internal/pkg/sheet"
	"github.com/yigit/supervision/internal/pkg/textnorm"
	"github.com/yigit/supervision/internal/pkg/validation"
)

// Columns names the spreadsheet headers to read. Degree, Name, Title and
// Supervisor must be present in the sheet; the rest are optional.
type Columns struct {
	Degree               string `validate:"notblank"`
	Name                 string `validate:"notblank"`
	Title                string `validate:"notblank"`
	Supervisor           string `validate:"notblank"`
	SupervisorDepartment string
	Status               string
	Kind                 string
}

// ColumnsFromConfig copies configured header names
func ColumnsFromConfig(c config.ColumnNames) Columns {
	return Columns{
		Degree:               c.Degree,
		Name:                 c.Name,
		Title:                c.Title,
		Supervisor:           c.Supervisor,
		SupervisorDepartment: c.SupervisorDepartment,
		Status:               c.Status,
		Kind:                 c.Kind,
	}
}

// Options controls one import run
type Options struct {
	Path  string `validate:"required"`
	Sheet string
	// HeaderRow is the one-based sheet line of the header; nil detects it
	HeaderRow   *int `validate:"omitempty,min=1"`
	Columns     Columns
	MaxScanRows int `validate:"gte=0"`
}

// SkippedRow is a data row left out of the import
type SkippedRow struct {
	Line   int
	Reason string
}

// Summary is the outcome of an import run
type Summary struct {
	RunID              string
	RecordsCreated     int
	SupervisorsCreated int
	LinksCreated       int
	DuplicatesMerged   int
	RowsRead           int
	Skipped            []SkippedRow
}

// Importer runs spreadsheet imports
type Importer struct {
	tx       repositories.Transactor
	engine   *dedupe.Engine
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewImporter creates an importer writing through tx and merging with engine
func NewImporter(tx repositories.Transactor, engine *dedupe.Engine, lgr zerolog.Logger) *Importer {
	return &Importer{
		tx:       tx,
		engine:   engine,
		validate: validation.New(),
		logger:   lgr,
	}
}

// columnIndex holds resolved column positions; -1 marks an absent optional column
type columnIndex struct {
	degree, name, title, supervisor, department, status, kind int
}

// Import reads the workbook at opts.Path and applies every usable row in one
// transaction. Header problems are reported before any write happens.
func (im *Importer) Import(ctx context.Context, opts Options) (*Summary, error) {
	if err := im.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidationFailed, validation.Message(err))
	}

	grid, err := sheet.ReadWorkbook(opts.Path, opts.Sheet)
	if err != nil {
		return nil, err
	}

	table, cols, err := locate(grid, opts)
	if err != nil {
		return nil, err
	}

	summary := &Summary{RunID: uuid.NewString()}
	log := im.logger.With().Str("run_id", summary.RunID).Str("file", opts.Path).Logger()
	log.Info().Int("header_line", table.HeaderRow+1).Int("rows", len(table.Rows)).Msg("Starting import")

	err = im.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		for i, row := range table.Rows {
			if sheet.Blank(row) {
				continue
			}
			summary.RowsRead++
			if err := im.importRow(ctx, store, row, table.Line(i), cols, summary); err != nil {
				return fmt.Errorf("line %d: %w", table.Line(i), err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Import rolled back")
		return nil, fmt.Errorf("error importing %s: %w", opts.Path, err)
	}

	log.Info().
		Int("rows", summary.RowsRead).
		Int("records_created", summary.RecordsCreated).
		Int("supervisors_created", summary.SupervisorsCreated).
		Int("links_created", summary.LinksCreated).
		Int("duplicates_merged", summary.DuplicatesMerged).
		Int("skipped", len(summary.Skipped)).
		Msg("Import completed")
	return summary, nil
}

// locate finds the header and resolves every column, failing with the
// expected and available names when the sheet does not fit.
func locate(grid [][]string, opts Options) (*sheet.Table, columnIndex, error) {
	c := opts.Columns
	required := []string{c.Degree, c.Name, c.Title, c.Supervisor}

	var headerRow int
	if opts.HeaderRow != nil {
		headerRow = *opts.HeaderRow - 1
	} else {
		row, ok := sheet.FindHeaderRow(grid, required, opts.MaxScanRows)
		if !ok {
			return nil, columnIndex{}, apperrors.NewCustomError(apperrors.ErrHeaderNotFound,
				fmt.Sprintf("could not detect the header row; pass an explicit header row. Expected columns like: %v", required)).
				WithCode("HEADER_NOT_FOUND").
				WithDetails(map[string]interface{}{"expected": required})
		}
		headerRow = row
	}

	table, err := sheet.NewTable(grid, headerRow)
	if err != nil {
		return nil, columnIndex{}, err
	}

	if missing := table.Missing(required); len(missing) > 0 {
		return nil, columnIndex{}, apperrors.NewCustomError(apperrors.ErrMissingColumns,
			fmt.Sprintf("missing columns in sheet: %v; available columns: %v", missing, table.Available())).
			WithCode("MISSING_COLUMNS").
			WithDetails(map[string]interface{}{"missing": missing, "available": table.Available()})
	}

	optional := func(name string) int {
		if i, ok := table.Column(name); ok {
			return i
		}
		return -1
	}
	must := func(name string) int {
		i, _ := table.Column(name)
		return i
	}

	return table, columnIndex{
		degree:     must(c.Degree),
		name:       must(c.Name),
		title:      must(c.Title),
		supervisor: must(c.Supervisor),
		department: optional(c.SupervisorDepartment),
		status:     optional(c.Status),
		kind:       optional(c.Kind),
	}, nil
}

func (im *Importer) importRow(ctx context.Context, store repositories.IStore, row []string, line int, cols columnIndex, summary *Summary) error {
	name := textnorm.Text(sheet.Cell(row, cols.name))
	title := textnorm.Text(sheet.Cell(row, cols.title))
	if name == "" || title == "" {
		summary.Skipped = append(summary.Skipped, SkippedRow{Line: line, Reason: "missing name or title"})
		return nil
	}

	supervisorNames := textnorm.SplitNames(sheet.Cell(row, cols.supervisor))
	if len(supervisorNames) == 0 {
		summary.Skipped = append(summary.Skipped, SkippedRow{Line: line, Reason: "missing supervisor"})
		return nil
	}

	status := classify.Status(sheet.Cell(row, cols.status))
	key := models.SubjectKey{
		Name:             name,
		TitleFingerprint: fingerprint.Title(title),
		Degree:           classify.Degree(sheet.Cell(row, cols.degree)),
		Kind:             classify.Kind(sheet.Cell(row, cols.kind)),
	}

	subject, err := im.resolveSubject(ctx, store, key, title, status, summary)
	if err != nil {
		return err
	}

	var departmentID *int64
	if deptName := textnorm.Text(sheet.Cell(row, cols.department)); deptName != "" {
		dept, _, err := store.Departments().GetOrCreate(ctx, deptName)
		if err != nil {
			return err
		}
		departmentID = &dept.ID
	}

	for _, supName := range supervisorNames {
		supervisor, created, err := store.Supervisors().GetOrCreateByName(ctx, supName)
		if err != nil {
			return err
		}
		if created {
			summary.SupervisorsCreated++
		}

		if departmentID != nil && !supervisor.HasDepartment() {
			if err := store.Supervisors().SetDepartment(ctx, supervisor.ID, departmentID); err != nil {
				return err
			}
		}

		_, created, err = store.Supervisions().GetOrCreate(ctx, subject.ID, supervisor.ID, models.RolePrimary)
		if err != nil {
			return err
		}
		if created {
			summary.LinksCreated++
		}
	}
	return nil
}

// resolveSubject finds, merges, adopts or creates the subject for key and
// applies the title and status backfills.
func (im *Importer) resolveSubject(ctx context.Context, store repositories.IStore, key models.SubjectKey, title string, status classify.StatusResult, summary *Summary) (*models.Subject, error) {
	matches, err := store.Subjects().FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 && key.TitleFingerprint != "" {
		// A stored subject with the same identity but no title yet is the same person.
		blank := key
		blank.TitleFingerprint = ""
		matches, err = store.Subjects().FindByKey(ctx, blank)
		if err != nil {
			return nil, err
		}
	}

	var subject *models.Subject
	switch len(matches) {
	case 0:
		subject = &models.Subject{
			Name:       key.Name,
			Title:      title,
			Degree:     key.Degree,
			Kind:       key.Kind,
			Status:     status.Status,
			StatusNote: status.Note,
			StatusDate: status.Date,
		}
		if err := store.Subjects().Create(ctx, subject); err != nil {
			return nil, err
		}
		summary.RecordsCreated++
		return subject, nil
	case 1:
		subject = matches[0]
	default:
		survivor, counts, err := im.engine.MergeSubjectGroup(ctx, store, matches)
		if err != nil {
			return nil, err
		}
		summary.DuplicatesMerged += counts.RecordsDeleted
		subject = survivor
	}

	changed := false
	if subject.Title == "" && title != "" {
		subject.Title = title
		changed = true
	}
	if status.Note != "" && subject.StatusNote == "" {
		subject.Status = status.Status
		subject.StatusNote = status.Note
		subject.StatusDate = status.Date
		changed = true
	}
	if changed {
		if err := store.Subjects().Update(ctx, subject); err != nil {
			return nil, fmt.Errorf("error backfilling subject %d: %w", subject.ID, err)
		}
	}
	return subject, nil
}
