// Package export joins records with their attachments and writes the
// result as a spreadsheet.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/statistics102/course-monitor/internal/downloads"
	apperrors "github.com/statistics102/course-monitor/internal/errors"
	"github.com/statistics102/course-monitor/internal/logging"
	"github.com/statistics102/course-monitor/internal/models"
)

// SheetName is the single sheet of every exported workbook.
const SheetName = "Course Progress Reports"

// MediaType is the content type of exported workbooks.
const MediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RecordLister provides the records to export.
type RecordLister interface {
	ListAll(ctx context.Context) ([]models.ReportRecord, error)
}

// AttachmentLister provides the attachments to join.
type AttachmentLister interface {
	ListAll(ctx context.Context) ([]models.Attachment, error)
}

// Service provides spreadsheet export.
type Service struct {
	records     RecordLister
	attachments AttachmentLister
	now         func() time.Time
	loc         *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone for the Submitted At column and the file date.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// NewService creates a new export Service.
func NewService(records RecordLister, attachments AttachmentLister, opts ...Option) *Service {
	s := &Service{
		records:     records,
		attachments: attachments,
		now:         time.Now,
		loc:         time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result represents the result of an export operation.
type Result struct {
	FileName  string
	Path      string
	RowCount  int
	SizeBytes int64
	Duration  time.Duration
}

// BuildRows returns one row per record, in record order, joined with the
// first attachment sharing the record's id.
func (s *Service) BuildRows(ctx context.Context) ([]Row, error) {
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	files, err := s.attachments.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	// first attachment per owner
	byOwner := make(map[int64]*models.Attachment, len(files))
	for i := range files {
		if _, ok := byOwner[files[i].ID]; !ok {
			byOwner[files[i].ID] = &files[i]
		}
	}

	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, s.buildRow(r, byOwner[r.ID]))
	}
	return rows, nil
}

// FileName returns the workbook name for an export taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("course-progress-reports-%s.xlsx", t.Format("2006-01-02"))
}

// WriteWorkbook encodes rows as a one-sheet workbook with a header row.
func (s *Service) WriteWorkbook(rows []Row, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return apperrors.Wrap(apperrors.ErrExportFailed, "failed to name sheet", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return apperrors.Wrap(apperrors.ErrExportFailed, "failed to write header", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrExportFailed, "failed to address row", err)
		}
		cells := r.Cells()
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return apperrors.Wrap(apperrors.ErrExportFailed, fmt.Sprintf("failed to write row %d", i+1), err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return apperrors.Wrap(apperrors.ErrExportFailed, "failed to write workbook", err)
	}
	return nil
}

// Export writes rows to a workbook and hands it to saver under FileName.
// Callers check for empty rows beforehand.
func (s *Service) Export(ctx context.Context, rows []Row, saver downloads.Saver) (*Result, error) {
	startTime := s.now()

	var buf bytes.Buffer
	if err := s.WriteWorkbook(rows, &buf); err != nil {
		return nil, err
	}
	size := int64(buf.Len())

	name := FileName(startTime.In(s.loc))
	path, err := saver.Save(ctx, name, MediaType, &buf)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExportFailed, "failed to save workbook", err)
	}

	result := &Result{
		FileName:  name,
		Path:      path,
		RowCount:  len(rows),
		SizeBytes: size,
		Duration:  time.Since(startTime),
	}
	logging.Info("Export completed", map[string]interface{}{
		"file":       result.Path,
		"rows":       result.RowCount,
		"size_bytes": result.SizeBytes,
	})
	return result, nil
}
