// Package services tests for the submission and review flows.
package services

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/statistics102/course-monitor/internal/attachments"
	"github.com/statistics102/course-monitor/internal/datauri"
	"github.com/statistics102/course-monitor/internal/downloads"
	apperrors "github.com/statistics102/course-monitor/internal/errors"
	"github.com/statistics102/course-monitor/internal/export"
	"github.com/statistics102/course-monitor/internal/idgen"
	"github.com/statistics102/course-monitor/internal/kv"
	"github.com/statistics102/course-monitor/internal/models"
	"github.com/statistics102/course-monitor/internal/records"
)

type fixture struct {
	mem     *kv.MemoryStore
	records *records.Store
	files   *attachments.Store
	service *CourseService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := kv.NewMemoryStore()
	recs := records.NewStore(mem, idgen.NewMonotonic())
	files := attachments.NewStore(mem, datauri.NewBase64Codec())
	exp := export.NewService(recs, files, export.WithLocation(time.UTC))
	return &fixture{
		mem:     mem,
		records: recs,
		files:   files,
		service: NewCourseService(recs, files, exp),
	}
}

func quiz() models.ReportFields {
	return models.ReportFields{
		Date:          "2024-01-10",
		LecturerName:  "A. Smith",
		LecturerID:    "L-042",
		Course:        "CS101",
		SectionNumber: "3",
		TotalStudents: "28",
		Duration:      "50",
		ContentType:   "Quiz",
		ContentName:   "Quiz 2",
		Description:   "Loops",
	}
}

// TestSubmit_withoutFile verifies a record is stored and no attachment exists.
func TestSubmit_withoutFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.service.Submit(ctx, quiz(), nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Attachment != nil {
		t.Error("Attachment should be nil without a file")
	}

	all, err := f.records.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 1 || all[0].ID != res.ID || all[0].ContentType != "Quiz" {
		t.Errorf("records = %+v", all)
	}

	_, ok, err := f.files.FindByOwner(ctx, res.ID)
	if err != nil {
		t.Fatalf("FindByOwner() error = %v", err)
	}
	if ok {
		t.Error("FindByOwner() should report no attachment")
	}
}

// TestSubmit_withFile verifies the attachment shares the record id and round-trips.
func TestSubmit_withFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Submit(ctx, quiz(), nil); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}

	content := []byte("ten bytes!")
	src := attachments.BytesSource("notes.txt", "text/plain", content)
	res, err := f.service.Submit(ctx, quiz(), &src)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	files, err := f.files.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("len(files) = %d, want 1", len(files))
	}
	if files[0].ID != res.ID || files[0].Name != "notes.txt" {
		t.Errorf("attachment = %+v", files[0])
	}

	got, ok, err := f.service.OpenAttachment(ctx, res.ID)
	if err != nil || !ok {
		t.Fatalf("OpenAttachment() ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got.Data, content) {
		t.Errorf("decoded = %q, want %q", got.Data, content)
	}
	if got.MediaType != "text/plain" {
		t.Errorf("MediaType = %q", got.MediaType)
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

// TestSubmit_fileFailure verifies the error surfaces and the record remains.
func TestSubmit_fileFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := attachments.FileSource{
		Name: "bad.bin",
		Open: func() (io.ReadCloser, error) { return io.NopCloser(brokenReader{}), nil },
	}
	_, err := f.service.Submit(ctx, quiz(), &src)
	if !apperrors.Is(err, apperrors.ErrEncodeFailed) {
		t.Fatalf("Submit() error = %v, want ENCODE_FAILED", err)
	}

	all, _ := f.records.ListAll(ctx)
	if len(all) != 1 {
		t.Errorf("records = %d, want 1", len(all))
	}
}

// TestSubmit_storeUnavailable verifies the store error propagates.
func TestSubmit_storeUnavailable(t *testing.T) {
	f := newFixture(t)
	f.mem.Close()

	_, err := f.service.Submit(context.Background(), quiz(), nil)
	if !apperrors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("Submit() error = %v, want STORE_UNAVAILABLE", err)
	}
}

// TestList_flagsFiles verifies HasFile.
func TestList_flagsFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plain, _ := f.service.Submit(ctx, quiz(), nil)
	src := attachments.BytesSource("a.txt", "text/plain", []byte("a"))
	withFile, _ := f.service.Submit(ctx, quiz(), &src)

	subs, err := f.service.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}
	if subs[0].ID != plain.ID || subs[0].HasFile {
		t.Errorf("subs[0] = %+v", subs[0])
	}
	if subs[1].ID != withFile.ID || !subs[1].HasFile {
		t.Errorf("subs[1] = %+v", subs[1])
	}
}

// TestDetail verifies lookups and NOT_FOUND.
func TestDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := attachments.BytesSource("a.txt", "text/plain", []byte("a"))
	res, _ := f.service.Submit(ctx, quiz(), &src)

	d, err := f.service.Detail(ctx, res.ID)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if d.Record.LecturerName != "A. Smith" || d.Attachment == nil || d.Attachment.Name != "a.txt" {
		t.Errorf("Detail() = %+v", d)
	}

	_, err = f.service.Detail(ctx, res.ID+1000)
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Detail(missing) error = %v, want NOT_FOUND", err)
	}
}

// TestDownload verifies saving and the no-op miss.
func TestDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := attachments.BytesSource("notes.txt", "text/plain", []byte("0123456789"))
	res, _ := f.service.Submit(ctx, quiz(), &src)

	var saver downloads.MemorySaver
	found, err := f.service.Download(ctx, res.ID, &saver)
	if err != nil || !found {
		t.Fatalf("Download() found=%v err=%v", found, err)
	}
	found, err = f.service.Download(ctx, res.ID+1, &saver)
	if err != nil || found {
		t.Fatalf("Download(miss) found=%v err=%v", found, err)
	}
	if files := saver.Files(); len(files) != 1 || string(files[0].Data) != "0123456789" {
		t.Errorf("saved = %+v", files)
	}
}

// TestExportAll_noData verifies the empty-export guard.
func TestExportAll_noData(t *testing.T) {
	f := newFixture(t)

	var saver downloads.MemorySaver
	_, err := f.service.ExportAll(context.Background(), &saver)
	if !apperrors.Is(err, apperrors.ErrNoData) {
		t.Errorf("ExportAll() error = %v, want NO_DATA", err)
	}
	if len(saver.Files()) != 0 {
		t.Error("nothing should be saved without data")
	}
}

// TestExportAll_twoRecords verifies row count and order.
func TestExportAll_twoRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := attachments.BytesSource("notes.txt", "text/plain", []byte("0123456789"))
	first, _ := f.service.Submit(ctx, quiz(), &src)
	second, _ := f.service.Submit(ctx, quiz(), nil)

	var saver downloads.MemorySaver
	result, err := f.service.ExportAll(ctx, &saver)
	if err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}
	if result.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", result.RowCount)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(saver.Files()[0].Data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer wb.Close()
	rows, _ := wb.GetRows(export.SheetName, excelize.Options{RawCellValue: true})
	if len(rows) != 3 {
		t.Fatalf("sheet rows = %d, want 3", len(rows))
	}
	if rows[1][12] != "notes.txt" || rows[2][12] != export.NoFileAttached {
		t.Errorf("attached column = %q, %q", rows[1][12], rows[2][12])
	}
	if rows[1][0] != strconv.FormatInt(first.ID, 10) || rows[2][0] != strconv.FormatInt(second.ID, 10) {
		t.Errorf("row order = %q, %q; want insertion order", rows[1][0], rows[2][0])
	}
}

// TestWriteExport verifies streaming and the empty guard.
func TestWriteExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var buf bytes.Buffer
	if _, err := f.service.WriteExport(ctx, &buf); !apperrors.Is(err, apperrors.ErrNoData) {
		t.Fatalf("WriteExport() error = %v, want NO_DATA", err)
	}

	f.service.Submit(ctx, quiz(), nil)
	n, err := f.service.WriteExport(ctx, &buf)
	if err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}
	if n != 1 || buf.Len() == 0 {
		t.Errorf("WriteExport() rows=%d bytes=%d", n, buf.Len())
	}
}

// TestReset verifies confirmation and clearing of both collections.
func TestReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := attachments.BytesSource("a.txt", "text/plain", []byte("a"))
	f.service.Submit(ctx, quiz(), &src)

	if err := f.service.Reset(ctx, false); !apperrors.Is(err, apperrors.ErrConfirmationRequired) {
		t.Fatalf("Reset(false) error = %v, want CONFIRMATION_REQUIRED", err)
	}
	if subs, _ := f.service.List(ctx); len(subs) != 1 {
		t.Fatal("unconfirmed Reset must not delete anything")
	}

	if err := f.service.Reset(ctx, true); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if err := f.service.Reset(ctx, true); err != nil {
		t.Fatalf("second Reset() error = %v", err)
	}

	recs, _ := f.records.ListAll(ctx)
	files, _ := f.files.ListAll(ctx)
	if len(recs) != 0 || len(files) != 0 {
		t.Errorf("after reset: %d records, %d files", len(recs), len(files))
	}
	if f.mem.Keys() != 0 {
		t.Errorf("store still holds %d keys", f.mem.Keys())
	}
}

// TestReset_storeUnavailable verifies clear errors propagate.
func TestReset_storeUnavailable(t *testing.T) {
	f := newFixture(t)
	f.mem.Close()

	if err := f.service.Reset(context.Background(), true); !apperrors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("Reset() error = %v, want STORE_UNAVAILABLE", err)
	}
}

// TestOverview verifies dashboard counts.
func TestOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lecture := quiz()
	lecture.ContentType = "Lecture"
	lecture.Course = "MA201"
	src := attachments.BytesSource("a.txt", "text/plain", []byte("a"))

	f.service.Submit(ctx, quiz(), &src)
	f.service.Submit(ctx, quiz(), nil)
	f.service.Submit(ctx, lecture, nil)

	o, err := f.service.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if o.TotalSubmissions != 3 || o.FilesAttached != 1 {
		t.Errorf("Overview() = %+v", o)
	}
	if o.ByContentType["Quiz"] != 2 || o.ByContentType["Lecture"] != 1 {
		t.Errorf("ByContentType = %v", o.ByContentType)
	}
	if len(o.Courses) != 2 || o.Courses[0] != "CS101" || o.Courses[1] != "MA201" {
		t.Errorf("Courses = %v", o.Courses)
	}
}

// TestSubmit_cancelledWhileEncoding verifies a cancelled caller still
// gets the stored attachment instead of a context error.
func TestSubmit_cancelledWhileEncoding(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opened := make(chan struct{})
	release := make(chan struct{})
	src := attachments.FileSource{
		Name:      "slow.txt",
		MediaType: "text/plain",
		Open: func() (io.ReadCloser, error) {
			close(opened)
			<-release
			return io.NopCloser(bytes.NewReader([]byte("late"))), nil
		},
	}

	type outcome struct {
		res *SubmitResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := f.service.Submit(ctx, quiz(), &src)
		done <- outcome{res, err}
	}()

	<-opened
	cancel()
	close(release)

	got := <-done
	if got.err != nil {
		t.Fatalf("Submit() error = %v, want success after cancellation", got.err)
	}
	if got.res.Attachment == nil || got.res.Attachment.Name != "slow.txt" {
		t.Errorf("Attachment = %+v", got.res.Attachment)
	}

	files, err := f.files.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(files) != 1 {
		t.Errorf("attachments = %d, want 1", len(files))
	}
}
