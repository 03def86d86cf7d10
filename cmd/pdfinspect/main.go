// Command pdfinspect prints the structure of PDF files and simulates their
// progressive download.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/pdfcore/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

// options are the parsed command-line flags
type options struct {
	cfg       *config.Config
	pages     bool
	avail     bool
	imagesDir string
	jobs      int
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pdfinspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	password := fs.String("password", "", "password for encrypted files (overrides the configuration)")
	showPages := fs.Bool("pages", false, "list every page")
	simulate := fs.Bool("avail", false, "simulate a progressive download and report the requests")
	imagesDir := fs.String("images", "", "write the images of every page as PNG files into this directory")
	jobs := fs.Int("j", 4, "number of files inspected concurrently")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: %s [options] <file.pdf>...\n\n", os.Args[0]),
			writeln(stderr, "Prints the version, metadata and page tree of PDF files."),
			writeln(stderr),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	files := fs.Args()
	if len(files) == 0 {
		if err := writeln(stderr, "error: at least one PDF file is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			_ = writef(stderr, "error: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *password != "" {
		cfg.Password = *password
	}
	if *imagesDir != "" {
		if err := os.MkdirAll(*imagesDir, 0755); err != nil {
			_ = writef(stderr, "error creating images directory: %v\n", err)
			return 1
		}
	}

	opts := options{
		cfg:       cfg,
		pages:     *showPages,
		avail:     *simulate,
		imagesDir: *imagesDir,
		jobs:      max(*jobs, 1),
	}
	reports := inspectAll(context.Background(), files, opts, cfg.Logger(stderr))

	status := 0
	for _, r := range reports {
		if err := r.write(stdout); err != nil {
			return 1
		}
		if r.err != nil {
			_ = writef(stderr, "%s: %v\n", r.path, r.err)
			status = 1
		}
	}
	return status
}

// inspectAll inspects files concurrently. Each file gets its own reader;
// reports come back in argument order.
func inspectAll(ctx context.Context, files []string, opts options, logger *slog.Logger) []*report {
	reports := make([]*report, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			reports[i] = inspect(ctx, path, opts, logger)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
