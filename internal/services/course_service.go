// Package services coordinates the stores for the submission and review
// flows: submit, list, inspect, download, export and reset.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/statistics102/course-monitor/internal/attachments"
	"github.com/statistics102/course-monitor/internal/downloads"
	apperrors "github.com/statistics102/course-monitor/internal/errors"
	"github.com/statistics102/course-monitor/internal/export"
	"github.com/statistics102/course-monitor/internal/logging"
	"github.com/statistics102/course-monitor/internal/models"
)

// RecordStore is the part of the Record Store the services use.
type RecordStore interface {
	Append(ctx context.Context, fields models.ReportFields) (int64, error)
	ListAll(ctx context.Context) ([]models.ReportRecord, error)
	Get(ctx context.Context, id int64) (models.ReportRecord, bool, error)
	ClearAll(ctx context.Context) error
}

// AttachmentStore is the part of the Attachment Store the services use.
type AttachmentStore interface {
	AppendAsync(ctx context.Context, src attachments.FileSource, ownerID int64) *attachments.Pending
	ListAll(ctx context.Context) ([]models.Attachment, error)
	FindByOwner(ctx context.Context, id int64) (models.Attachment, bool, error)
	Decode(att models.Attachment) ([]byte, string, error)
	TriggerDownload(ctx context.Context, id int64, saver downloads.Saver) (bool, error)
	ClearAll(ctx context.Context) error
}

// CourseService provides the operations behind the form and admin views.
type CourseService struct {
	records     RecordStore
	attachments AttachmentStore
	export      export.ServiceInterface
}

// NewCourseService creates a new CourseService.
func NewCourseService(records RecordStore, files AttachmentStore, exporter export.ServiceInterface) *CourseService {
	return &CourseService{
		records:     records,
		attachments: files,
		export:      exporter,
	}
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	ID         int64
	Attachment *models.Attachment
}

// Submit stores the record, then the optional file under the record's id.
// A failed file leaves the record in place; the error is returned once and
// the caller keeps its form state for a manual retry. Once the record is
// stored, the file is awaited even if ctx is cancelled, so the outcome
// reported matches what was written.
func (s *CourseService) Submit(ctx context.Context, fields models.ReportFields, file *attachments.FileSource) (*SubmitResult, error) {
	id, err := s.records.Append(ctx, fields)
	if err != nil {
		logging.Error("Error submitting form", err)
		return nil, err
	}
	result := &SubmitResult{ID: id}

	if file != nil {
		att, err := s.attachments.AppendAsync(ctx, *file, id).Wait(context.WithoutCancel(ctx))
		if err != nil {
			logging.Error("Error submitting form", err, map[string]interface{}{"id": id, "file": file.Name})
			return nil, err
		}
		result.Attachment = &att
	}

	logging.Info("Report submitted", map[string]interface{}{
		"id":       id,
		"has_file": result.Attachment != nil,
	})
	return result, nil
}

// Submission is a record as shown in the admin list.
type Submission struct {
	models.ReportRecord
	HasFile bool `json:"hasFile"`
}

// List returns every submission in insertion order, flagged when a file
// is attached.
func (s *CourseService) List(ctx context.Context) ([]Submission, error) {
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	files, err := s.attachments.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	owners := make(map[int64]bool, len(files))
	for _, f := range files {
		owners[f.ID] = true
	}

	out := make([]Submission, 0, len(records))
	for _, r := range records {
		out = append(out, Submission{ReportRecord: r, HasFile: owners[r.ID]})
	}
	return out, nil
}

// Detail is one record together with its attachment, if any.
type Detail struct {
	Record     models.ReportRecord `json:"record"`
	Attachment *AttachmentInfo     `json:"attachment,omitempty"`
}

// AttachmentInfo describes an attachment without its payload.
type AttachmentInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// Detail returns the record with id. A missing record is NOT_FOUND.
func (s *CourseService) Detail(ctx context.Context, id int64) (*Detail, error) {
	record, ok, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("submission #%d not found", id))
	}

	d := &Detail{Record: record}
	att, ok, err := s.attachments.FindByOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		d.Attachment = &AttachmentInfo{Name: att.Name, Type: att.Type, Timestamp: att.Timestamp}
	}
	return d, nil
}

// AttachmentContent is a decoded attachment ready to be served.
type AttachmentContent struct {
	Name      string
	MediaType string
	Data      []byte
}

// OpenAttachment decodes the attachment owned by id. ok is false when
// there is none.
func (s *CourseService) OpenAttachment(ctx context.Context, id int64) (*AttachmentContent, bool, error) {
	att, ok, err := s.attachments.FindByOwner(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	data, mediaType, err := s.attachments.Decode(att)
	if err != nil {
		return nil, true, err
	}
	if att.Type != "" {
		mediaType = att.Type
	}
	return &AttachmentContent{Name: att.Name, MediaType: mediaType, Data: data}, true, nil
}

// Download saves the attachment owned by id through saver. A missing
// attachment is a no-op reported through the bool.
func (s *CourseService) Download(ctx context.Context, id int64, saver downloads.Saver) (bool, error) {
	return s.attachments.TriggerDownload(ctx, id, saver)
}

// rowsOrNoData builds the export rows and rejects an empty result.
func (s *CourseService) rowsOrNoData(ctx context.Context) ([]export.Row, error) {
	rows, err := s.export.BuildRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.New(apperrors.ErrNoData, "No data to export.")
	}
	return rows, nil
}

// ExportAll writes every submission to a workbook saved through saver.
func (s *CourseService) ExportAll(ctx context.Context, saver downloads.Saver) (*export.Result, error) {
	rows, err := s.rowsOrNoData(ctx)
	if err != nil {
		return nil, err
	}
	return s.export.Export(ctx, rows, saver)
}

// WriteExport streams the workbook for every submission to w.
func (s *CourseService) WriteExport(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.rowsOrNoData(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.export.WriteWorkbook(rows, w); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Reset deletes all submissions and files. It refuses to run unless the
// caller confirmed; the deletion cannot be undone.
func (s *CourseService) Reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return apperrors.New(apperrors.ErrConfirmationRequired,
			"Are you sure you want to delete all submissions and files? This action cannot be undone.")
	}

	// both slots are always attempted
	err := errors.Join(
		s.records.ClearAll(ctx),
		s.attachments.ClearAll(ctx),
	)
	if err != nil {
		logging.Error("Failed to clear data", err)
		return err
	}
	logging.Warn("All submissions and files deleted")
	return nil
}

// Overview summarizes the stored data for the admin dashboard.
type Overview struct {
	TotalSubmissions int            `json:"totalSubmissions"`
	FilesAttached    int            `json:"filesAttached"`
	ByContentType    map[string]int `json:"byContentType"`
	Courses          []string       `json:"courses"`
}

// Overview counts submissions, attached files and content types.
func (s *CourseService) Overview(ctx context.Context) (*Overview, error) {
	subs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	o := &Overview{
		TotalSubmissions: len(subs),
		ByContentType:    make(map[string]int),
		Courses:          []string{},
	}
	seen := make(map[string]bool)
	for _, sub := range subs {
		if sub.HasFile {
			o.FilesAttached++
		}
		o.ByContentType[sub.ContentType]++
		if sub.Course != "" && !seen[sub.Course] {
			seen[sub.Course] = true
			o.Courses = append(o.Courses, sub.Course)
		}
	}
	sort.Strings(o.Courses)
	return o, nil
}
