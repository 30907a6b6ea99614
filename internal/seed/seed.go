package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/supervision/internal/app/services"
)

// DefaultDepartments is the standard department list of the faculty
var DefaultDepartments = []string{
	"الإدارة الرياضية",
	"التدريب الرياضي",
	"الجمباز",
	"الرياضات الجماعية",
	"الرياضات المائية",
	"ألعاب قوى",
	"العلوم النفسية",
	"المنازلات",
	"خارجي",
	"طرق التدريس",
	"علوم الصحة",
}

// CreateDefaultData creates the default departments if they don't exist.
// It is safe to run repeatedly.
func CreateDefaultData(ctx context.Context, departments services.DepartmentService, lgr zerolog.Logger) (int, error) {
	lgr.Info().Msg("Checking/Creating default data (Departments)...")

	created, err := departments.EnsureDepartments(ctx, DefaultDepartments)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating default departments")
		return 0, fmt.Errorf("failed to seed departments: %w", err)
	}

	lgr.Info().Int("created", created).Int("total", len(DefaultDepartments)).Msg("Default data check/creation completed.")
	return created, nil
}
