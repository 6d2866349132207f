package export

import (
	"fmt"

	"github.com/statistics102/course-monitor/internal/models"
)

// Column headers, in sheet order.
const (
	ColSubmissionID  = "Submission ID"
	ColDate          = "Date"
	ColLecturerName  = "Lecturer Name"
	ColLecturerID    = "Lecturer ID"
	ColCourse        = "Course"
	ColSectionNumber = "Section Number"
	ColTotalStudents = "Total Students Present"
	ColDuration      = "Duration (minutes)"
	ColContentType   = "Content Type"
	ColContentName   = "Content Name/Number"
	ColDescription   = "Description"
	ColSubmittedAt   = "Submitted At"
	ColAttachedFile  = "Attached File"
	ColFileType      = "File Type"
	ColInstructions  = "Download Instructions"
)

// Columns lists every column header in sheet order.
var Columns = []string{
	ColSubmissionID,
	ColDate,
	ColLecturerName,
	ColLecturerID,
	ColCourse,
	ColSectionNumber,
	ColTotalStudents,
	ColDuration,
	ColContentType,
	ColContentName,
	ColDescription,
	ColSubmittedAt,
	ColAttachedFile,
	ColFileType,
	ColInstructions,
}

// Markers used when a record has no attachment.
const (
	NoFileAttached = "No file attached"
	NoFileType     = "N/A"
	NoFileToFetch  = "No file to download"
)

// SubmittedAtLayout formats the Submitted At column.
const SubmittedAtLayout = "2006-01-02 15:04:05"

// Row is one flattened record and attachment pairing.
type Row struct {
	SubmissionID int64  `json:"Submission ID"`
	Date         string `json:"Date"`
	LecturerName string `json:"Lecturer Name"`
	LecturerID   string `json:"Lecturer ID"`
	Course       string `json:"Course"`
	Section      string `json:"Section Number"`
	Students     string `json:"Total Students Present"`
	Duration     string `json:"Duration (minutes)"`
	ContentType  string `json:"Content Type"`
	ContentName  string `json:"Content Name/Number"`
	Description  string `json:"Description"`
	SubmittedAt  string `json:"Submitted At"`
	AttachedFile string `json:"Attached File"`
	FileType     string `json:"File Type"`
	Instructions string `json:"Download Instructions"`
}

// Cells returns the row's values in Columns order.
func (r Row) Cells() []interface{} {
	return []interface{}{
		r.SubmissionID,
		r.Date,
		r.LecturerName,
		r.LecturerID,
		r.Course,
		r.Section,
		r.Students,
		r.Duration,
		r.ContentType,
		r.ContentName,
		r.Description,
		r.SubmittedAt,
		r.AttachedFile,
		r.FileType,
		r.Instructions,
	}
}

// DownloadInstructions is the manual retrieval hint for a record with a file.
func DownloadInstructions(id int64) string {
	return fmt.Sprintf("Go to admin panel → Select submission #%d → Click Download button", id)
}

// buildRow joins one record with its attachment, if any.
func (s *Service) buildRow(r models.ReportRecord, att *models.Attachment) Row {
	submitted := r.Timestamp
	if t := r.TimestampTime(); !t.IsZero() {
		submitted = t.In(s.loc).Format(SubmittedAtLayout)
	}

	row := Row{
		SubmissionID: r.ID,
		Date:         r.Date,
		LecturerName: r.LecturerName,
		LecturerID:   r.LecturerID,
		Course:       r.Course,
		Section:      r.SectionNumber,
		Students:     r.TotalStudents,
		Duration:     r.Duration,
		ContentType:  r.ContentType,
		ContentName:  r.ContentName,
		Description:  r.Description,
		SubmittedAt:  submitted,
		AttachedFile: NoFileAttached,
		FileType:     NoFileType,
		Instructions: NoFileToFetch,
	}
	if att != nil {
		row.AttachedFile = att.Name
		row.FileType = att.Type
		row.Instructions = DownloadInstructions(r.ID)
	}
	return row
}
