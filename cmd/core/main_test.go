// Package main tests for the admin CLI commands.
package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/statistics102/course-monitor/internal/attachments"
	"github.com/statistics102/course-monitor/internal/datauri"
	"github.com/statistics102/course-monitor/internal/downloads"
	"github.com/statistics102/course-monitor/internal/export"
	"github.com/statistics102/course-monitor/internal/idgen"
	"github.com/statistics102/course-monitor/internal/kv"
	"github.com/statistics102/course-monitor/internal/models"
	"github.com/statistics102/course-monitor/internal/records"
	"github.com/statistics102/course-monitor/internal/services"
)

type harness struct {
	cli     *cli
	out     *bytes.Buffer
	saver   *downloads.MemorySaver
	service *services.CourseService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := kv.NewMemoryStore()
	recs := records.NewStore(mem, idgen.NewMonotonic())
	files := attachments.NewStore(mem, datauri.NewBase64Codec())
	svc := services.NewCourseService(recs, files, export.NewService(recs, files, export.WithLocation(time.UTC)))

	out := &bytes.Buffer{}
	saver := &downloads.MemorySaver{}
	return &harness{
		cli:     &cli{service: svc, saver: saver, out: out},
		out:     out,
		saver:   saver,
		service: svc,
	}
}

func (h *harness) submit(t *testing.T, file *attachments.FileSource) int64 {
	t.Helper()
	res, err := h.service.Submit(context.Background(), models.ReportFields{
		Date:         "2024-01-10",
		LecturerName: "A. Smith",
		Course:       "CS101",
		ContentType:  "Quiz",
	}, file)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return res.ID
}

// TestRun_usage verifies unknown or missing commands fail.
func TestRun_usage(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{nil, {"frobnicate"}, {"show"}, {"show", "x"}} {
		if err := h.cli.run(context.Background(), args); err == nil {
			t.Errorf("run(%v) should fail", args)
		}
	}
}

// TestList verifies the table output.
func TestList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.cli.run(ctx, []string{"list"}); err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(h.out.String(), "No submissions yet.") {
		t.Errorf("output = %q", h.out.String())
	}

	h.out.Reset()
	id := h.submit(t, nil)
	if err := h.cli.run(ctx, []string{"list"}); err != nil {
		t.Fatalf("list error = %v", err)
	}
	out := h.out.String()
	if !strings.Contains(out, strconv.FormatInt(id, 10)) || !strings.Contains(out, "CS101") {
		t.Errorf("output = %q", out)
	}
}

// TestShow verifies detail output and the not-found error.
func TestShow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.submit(t, nil)

	if err := h.cli.run(ctx, []string{"show", strconv.FormatInt(id, 10)}); err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(h.out.String(), export.NoFileAttached) {
		t.Errorf("output = %q", h.out.String())
	}
	if err := h.cli.run(ctx, []string{"show", "1"}); err == nil {
		t.Error("show of a missing id should fail")
	}
}

// TestDownload verifies the attachment is saved.
func TestDownload(t *testing.T) {
	h := newHarness(t)
	src := attachments.BytesSource("notes.txt", "text/plain", []byte("0123456789"))
	id := h.submit(t, &src)

	if err := h.cli.run(context.Background(), []string{"download", strconv.FormatInt(id, 10)}); err != nil {
		t.Fatalf("download error = %v", err)
	}
	files := h.saver.Files()
	if len(files) != 1 || files[0].Name != "notes.txt" || string(files[0].Data) != "0123456789" {
		t.Errorf("saved = %+v", files)
	}
}

// TestExport verifies the empty message and a saved workbook.
func TestExport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.cli.run(ctx, []string{"export"}); err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(h.out.String(), "No data to export.") {
		t.Errorf("output = %q", h.out.String())
	}

	h.submit(t, nil)
	if err := h.cli.run(ctx, []string{"export"}); err != nil {
		t.Fatalf("export error = %v", err)
	}
	files := h.saver.Files()
	if len(files) != 1 || !strings.HasPrefix(files[0].Name, "course-progress-reports-") {
		t.Errorf("saved = %+v", files)
	}
}

// TestReset verifies -yes is required.
func TestReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.submit(t, nil)

	if err := h.cli.run(ctx, []string{"reset"}); err == nil {
		t.Fatal("reset without -yes should fail")
	}
	if err := h.cli.run(ctx, []string{"reset", "-yes"}); err != nil {
		t.Fatalf("reset -yes error = %v", err)
	}
	subs, err := h.service.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 0 {
		t.Errorf("got %d submissions after reset", len(subs))
	}
}

// TestContentTypeOrder verifies known types come first.
func TestContentTypeOrder(t *testing.T) {
	got := contentTypeOrder(map[string]int{"Workshop": 1, "Quiz": 2, "Lecture": 1, "Exam": 0})
	want := []string{"Lecture", "Quiz", "Workshop"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("contentTypeOrder() = %v, want %v", got, want)
	}
}
