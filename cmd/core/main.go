// Package main provides the course-monitor admin CLI. It works on the same
// store as the desktop server.
//
// Usage:
//
//	core [-config file] list
//	core [-config file] show <id>
//	core [-config file] download <id>
//	core [-config file] export
//	core [-config file] stats
//	core [-config file] reset -yes
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/statistics102/course-monitor/internal/app"
	"github.com/statistics102/course-monitor/internal/config"
	"github.com/statistics102/course-monitor/internal/downloads"
	apperrors "github.com/statistics102/course-monitor/internal/errors"
	"github.com/statistics102/course-monitor/internal/export"
	"github.com/statistics102/course-monitor/internal/services"
)

// Version is set at build time
var Version = "0.1.0"

var errUsage = errors.New("usage: core [-config file] list | show <id> | download <id> | export | stats | reset -yes | version")

// Service is the service surface the CLI drives.
type Service interface {
	List(ctx context.Context) ([]services.Submission, error)
	Detail(ctx context.Context, id int64) (*services.Detail, error)
	Download(ctx context.Context, id int64, saver downloads.Saver) (bool, error)
	ExportAll(ctx context.Context, saver downloads.Saver) (*export.Result, error)
	Reset(ctx context.Context, confirmed bool) error
	Overview(ctx context.Context) (*services.Overview, error)
}

// cli runs one command against a service.
type cli struct {
	service Service
	saver   downloads.Saver
	out     io.Writer
}

func main() {
	fs := flag.NewFlagSet("core", flag.ExitOnError)
	configFile := fs.String("config", "", "path to a config file")
	fs.Parse(os.Args[1:])

	if err := run(*configFile, fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configFile string, args []string) error {
	if len(args) > 0 && args[0] == "version" {
		fmt.Printf("Course Monitor Core v%s\n", Version)
		return nil
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	app.InitLogging(cfg)

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	c := &cli{service: a.Service, saver: a.Downloads, out: os.Stdout}
	return c.run(ctx, args)
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "list":
		return c.list(ctx)
	case "show":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		return c.show(ctx, id)
	case "download":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		return c.download(ctx, id)
	case "export":
		return c.export(ctx)
	case "stats":
		return c.stats(ctx)
	case "reset":
		fs := flag.NewFlagSet("reset", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		yes := fs.Bool("yes", false, "confirm deletion of all data")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return c.reset(ctx, *yes)
	default:
		return errUsage
	}
}

func idArg(args []string) (int64, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s: missing submission id", args[0])
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid submission id %q", args[0], args[1])
	}
	return id, nil
}

func (c *cli) list(ctx context.Context) error {
	subs, err := c.service.List(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Fprintln(c.out, "No submissions yet.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tLECTURER\tCOURSE\tSECTION\tTYPE\tFILE")
	for _, s := range subs {
		file := ""
		if s.HasFile {
			file = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Date, s.LecturerName, s.Course, s.SectionNumber, s.ContentType, file)
	}
	return tw.Flush()
}

func (c *cli) show(ctx context.Context, id int64) error {
	d, err := c.service.Detail(ctx, id)
	if err != nil {
		return err
	}
	r := d.Record

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s:\t%d\n", export.ColSubmissionID, r.ID)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColDate, r.Date)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColLecturerName, r.LecturerName)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColLecturerID, r.LecturerID)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColCourse, r.Course)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColSectionNumber, r.SectionNumber)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColTotalStudents, r.TotalStudents)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColDuration, r.Duration)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColContentType, r.ContentType)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColContentName, r.ContentName)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColDescription, r.Description)
	fmt.Fprintf(tw, "%s:\t%s\n", export.ColSubmittedAt, r.Timestamp)
	if d.Attachment != nil {
		fmt.Fprintf(tw, "%s:\t%s (%s)\n", export.ColAttachedFile, d.Attachment.Name, d.Attachment.Type)
	} else {
		fmt.Fprintf(tw, "%s:\t%s\n", export.ColAttachedFile, export.NoFileAttached)
	}
	return tw.Flush()
}

func (c *cli) download(ctx context.Context, id int64) error {
	saved, err := c.service.Download(ctx, id, c.saver)
	if err != nil {
		return err
	}
	if !saved {
		fmt.Fprintf(c.out, "Submission #%d has no attached file.\n", id)
		return nil
	}
	fmt.Fprintf(c.out, "Attachment for submission #%d saved.\n", id)
	return nil
}

func (c *cli) export(ctx context.Context) error {
	result, err := c.service.ExportAll(ctx, c.saver)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNoData) {
			fmt.Fprintln(c.out, apperrors.MessageOf(err))
			return nil
		}
		return err
	}
	fmt.Fprintf(c.out, "Exported %d submissions to %s\n", result.RowCount, result.Path)
	return nil
}

func (c *cli) stats(ctx context.Context) error {
	o, err := c.service.Overview(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Submissions: %d\n", o.TotalSubmissions)
	fmt.Fprintf(c.out, "Files attached: %d\n", o.FilesAttached)
	fmt.Fprintf(c.out, "Courses: %d\n", len(o.Courses))
	for _, t := range contentTypeOrder(o.ByContentType) {
		fmt.Fprintf(c.out, "  %s: %d\n", t, o.ByContentType[t])
	}
	return nil
}

func (c *cli) reset(ctx context.Context, yes bool) error {
	if err := c.service.Reset(ctx, yes); err != nil {
		if apperrors.Is(err, apperrors.ErrConfirmationRequired) {
			return fmt.Errorf("%s Re-run with -yes to confirm", apperrors.MessageOf(err))
		}
		return err
	}
	fmt.Fprintln(c.out, "All data has been cleared.")
	return nil
}
