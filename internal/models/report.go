// Package models provides data model definitions for course-monitor.
package models

import "time"

// TimestampLayout is the ISO-8601 form used for every persisted timestamp:
// UTC with millisecond precision, e.g. 2024-01-10T08:15:30.125Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ContentTypes lists the content type labels offered by the submission form.
// The stores never validate against it.
var ContentTypes = []string{
	"Lecture",
	"Assignment",
	"Quiz",
	"Exam",
	"Report",
}

// ReportFields holds the caller-supplied part of a report. Values are
// stored exactly as given.
type ReportFields struct {
	Date          string `json:"date"`
	LecturerName  string `json:"lecturerName"`
	LecturerID    string `json:"lecturerId"`
	Course        string `json:"course"`
	SectionNumber string `json:"sectionNumber"`
	TotalStudents string `json:"totalStudents"`
	Duration      string `json:"duration"`
	ContentType   string `json:"contentType"`
	ContentName   string `json:"contentName"`
	Description   string `json:"description"`
}

// ReportRecord is one submitted course-progress entry. It is persisted as
// a flat JSON object in the courseProgressData slot.
type ReportRecord struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	ReportFields
}

// TimestampTime parses Timestamp. The zero time is returned for values
// that do not parse.
func (r *ReportRecord) TimestampTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
