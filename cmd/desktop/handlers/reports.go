package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/statistics102/course-monitor/internal/attachments"
	"github.com/statistics102/course-monitor/internal/downloads"
	apperrors "github.com/statistics102/course-monitor/internal/errors"
	"github.com/statistics102/course-monitor/internal/export"
	"github.com/statistics102/course-monitor/internal/models"
	"github.com/statistics102/course-monitor/internal/services"
)

// CourseService is the service surface the report handlers drive.
type CourseService interface {
	Submit(ctx context.Context, fields models.ReportFields, file *attachments.FileSource) (*services.SubmitResult, error)
	List(ctx context.Context) ([]services.Submission, error)
	Detail(ctx context.Context, id int64) (*services.Detail, error)
	OpenAttachment(ctx context.Context, id int64) (*services.AttachmentContent, bool, error)
	Download(ctx context.Context, id int64, saver downloads.Saver) (bool, error)
	WriteExport(ctx context.Context, w io.Writer) (int, error)
	Reset(ctx context.Context, confirmed bool) error
	Overview(ctx context.Context) (*services.Overview, error)
}

// ReportHandler handles the submission form and admin endpoints.
type ReportHandler struct {
	service CourseService
	saver   downloads.Saver
	now     func() time.Time
	loc     *time.Location
}

// NewReportHandler creates a new ReportHandler. Attachment downloads are
// handed to saver.
func NewReportHandler(service CourseService, saver downloads.Saver, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{
		service: service,
		saver:   saver,
		now:     time.Now,
		loc:     loc,
	}
}

// reportForm binds the multipart submission form.
type reportForm struct {
	Date          string `form:"date"`
	LecturerName  string `form:"lecturerName"`
	LecturerID    string `form:"lecturerId"`
	Course        string `form:"course"`
	SectionNumber string `form:"sectionNumber"`
	TotalStudents string `form:"totalStudents"`
	Duration      string `form:"duration"`
	ContentType   string `form:"contentType"`
	ContentName   string `form:"contentName"`
	Description   string `form:"description"`
}

func (f reportForm) fields() models.ReportFields {
	return models.ReportFields{
		Date:          f.Date,
		LecturerName:  f.LecturerName,
		LecturerID:    f.LecturerID,
		Course:        f.Course,
		SectionNumber: f.SectionNumber,
		TotalStudents: f.TotalStudents,
		Duration:      f.Duration,
		ContentType:   f.ContentType,
		ContentName:   f.ContentName,
		Description:   f.Description,
	}
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	ID       int64  `json:"id"`
	FileName string `json:"fileName,omitempty"`
}

// Submit handles POST /api/reports.
func (h *ReportHandler) Submit(c *gin.Context) {
	var form reportForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, http.StatusBadRequest, apperrors.ErrInvalid, "invalid form data")
		return
	}

	var file *attachments.FileSource
	if fh, err := c.FormFile("file"); err == nil {
		file = &attachments.FileSource{
			Name:      fh.Filename,
			MediaType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	} else if err != http.ErrMissingFile {
		fail(c, http.StatusBadRequest, apperrors.ErrInvalid, "invalid file upload")
		return
	}

	result, err := h.service.Submit(c.Request.Context(), form.fields(), file)
	if err != nil {
		writeError(c, err, SubmitFailedMessage)
		return
	}

	resp := SubmitResponse{ID: result.ID}
	if result.Attachment != nil {
		resp.FileName = result.Attachment.Name
	}
	ok(c, http.StatusCreated, resp)
}

// List handles GET /api/reports.
func (h *ReportHandler) List(c *gin.Context) {
	subs, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err, InternalMessage)
		return
	}
	ok(c, http.StatusOK, subs)
}

// Get handles GET /api/reports/:id.
func (h *ReportHandler) Get(c *gin.Context) {
	id, good := parseID(c)
	if !good {
		return
	}
	detail, err := h.service.Detail(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, InternalMessage)
		return
	}
	ok(c, http.StatusOK, detail)
}

// Attachment handles GET /api/reports/:id/attachment by streaming the
// decoded file.
func (h *ReportHandler) Attachment(c *gin.Context) {
	id, good := parseID(c)
	if !good {
		return
	}
	content, found, err := h.service.OpenAttachment(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, InternalMessage)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, apperrors.ErrNotFound, export.NoFileAttached)
		return
	}

	c.Header("Content-Disposition", disposition(content.Name))
	c.Data(http.StatusOK, content.MediaType, content.Data)
}

// DownloadResponse reports whether an attachment was saved.
type DownloadResponse struct {
	Saved bool `json:"saved"`
}

// Download handles POST /api/reports/:id/attachment/download. A record
// without a file is not an error; nothing is saved.
func (h *ReportHandler) Download(c *gin.Context) {
	id, good := parseID(c)
	if !good {
		return
	}
	saved, err := h.service.Download(c.Request.Context(), id, h.saver)
	if err != nil {
		writeError(c, err, InternalMessage)
		return
	}
	ok(c, http.StatusOK, DownloadResponse{Saved: saved})
}

// Export handles GET /api/export by returning the workbook as a download.
func (h *ReportHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	rows, err := h.service.WriteExport(c.Request.Context(), &buf)
	if err != nil {
		writeError(c, err, InternalMessage)
		return
	}

	c.Header("Content-Disposition", disposition(export.FileName(h.now().In(h.loc))))
	c.Header("X-Export-Rows", strconv.Itoa(rows))
	c.Data(http.StatusOK, export.MediaType, buf.Bytes())
}

// Reset handles DELETE /api/reports. The query must carry confirm=true.
func (h *ReportHandler) Reset(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.service.Reset(c.Request.Context(), confirmed); err != nil {
		writeError(c, err, InternalMessage)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "All data has been cleared."})
}

// Overview handles GET /api/overview.
func (h *ReportHandler) Overview(c *gin.Context) {
	o, err := h.service.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err, InternalMessage)
		return
	}
	ok(c, http.StatusOK, o)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, apperrors.ErrInvalid, fmt.Sprintf("invalid submission id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func disposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
