// Package export provides export service interfaces.
package export

import (
	"context"
	"io"

	"github.com/statistics102/course-monitor/internal/downloads"
)

// ServiceInterface defines the contract for export services.
type ServiceInterface interface {
	BuildRows(ctx context.Context) ([]Row, error)
	WriteWorkbook(rows []Row, w io.Writer) error
	Export(ctx context.Context, rows []Row, saver downloads.Saver) (*Result, error)
}

// Ensure *Service implements the interface at compile time.
var _ ServiceInterface = (*Service)(nil)
