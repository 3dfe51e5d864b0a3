package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	md2html "github.com/alnah/go-md2html"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Pool abstracts parser pool operations for testability.
type Pool interface {
	Acquire() (*md2html.Parser, error)
	Release(*md2html.Parser)
	Size() int
}

// Compile-time interface implementation check.
var _ Pool = (*md2html.ParserPool)(nil)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	PDFPath    string
	Err        error
	Duration   time.Duration
}

// convertBatch processes files concurrently, one parser per worker.
// Once ctx is done, files not yet started are reported with ctx.Err().
// exporter may be nil when no PDF is wanted.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, exporter Exporter, logger *zap.Logger) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			parser, err := pool.Acquire()
			if err != nil {
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       fmt.Errorf("creating parser: %w", err),
					}
				}
				return
			}
			defer pool.Release(parser)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, parser, files[idx], exporter)
				logResult(logger, results[idx])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile renders one file to HTML and, with an exporter, to PDF.
func convertFile(ctx context.Context, parser *md2html.Parser, f FileToConvert, exporter Exporter) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	doc, err := parser.RenderFile(f.InputPath)
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrOutputDirectory, err))
	}

	// #nosec G306 -- HTML files are meant to be readable
	if err := os.WriteFile(f.OutputPath, []byte(doc), filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
	}

	if exporter != nil {
		data, err := exporter.Export(ctx, doc, filepath.Dir(f.InputPath))
		if err != nil {
			return fail(fmt.Errorf("exporting %s: %w", f.InputPath, err))
		}
		pdfPath := f.PDFPath()
		// #nosec G306 -- PDFs are meant to be readable
		if err := os.WriteFile(pdfPath, data, filePermissions); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
		}
		result.PDFPath = pdfPath
	}

	result.Duration = time.Since(start)
	return result
}

func logResult(logger *zap.Logger, r ConversionResult) {
	if r.Err != nil {
		logger.Debug("conversion failed", zap.String("input", r.InputPath), zap.Error(r.Err))
		return
	}
	logger.Debug("converted",
		zap.String("input", r.InputPath),
		zap.String("output", r.OutputPath),
		zap.Duration("took", r.Duration))
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// collectErrors combines the errors of failed conversions, each prefixed
// with its input path.
func collectErrors(results []ConversionResult) error {
	var errs error
	for _, r := range results {
		if r.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.InputPath, r.Err))
		}
	}
	return errs
}

// printResults outputs conversion results. Failures are reported by the
// caller through the returned error of runConvert.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) {
	if quiet {
		return
	}

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
		if r.PDFPath != "" {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.PDFPath)
		}
	}

	if len(results) > 1 {
		summary := countResults(results)
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}
}
