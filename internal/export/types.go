// Package export renders a committed migration plan as an XLSX workbook or a
// CSV document and publishes it to S3-compatible object storage.
package export

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

type Renderer interface {
	Render(w io.Writer, data *PlanData) error
	SupportedFormat() Format
	ContentType() string
}

// PlanData is everything a rendered plan shows.
type PlanData struct {
	ProjectID       uuid.UUID
	ProjectName     string
	SnapshotVersion int
	GeneratedAt     time.Time
	Inventory       *inventory.Snapshot
	Cohorts         []plan.Cohort
	Waves           []plan.Wave
	Estimate        *estimator.ProjectEstimate
	Funnel          plan.Funnel
}

// NewRenderer returns the renderer of format.
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatXLSX:
		return NewXLSXRenderer(), nil
	case FormatCSV:
		return NewCSVRenderer(), nil
	}
	return nil, NewErrUnsupportedFormat(string(format))
}

// FileName is the object and attachment name of a rendered plan.
func FileName(data *PlanData, format Format) string {
	return data.ProjectID.String() + "/plan-v" + itoa(data.SnapshotVersion) + "." + string(format)
}
