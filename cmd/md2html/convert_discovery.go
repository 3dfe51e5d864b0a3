package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string // HTML destination
}

// PDFPath returns the PDF destination next to the HTML one.
func (f FileToConvert) PDFPath() string {
	return fileutil.ReplaceExtension(f.OutputPath, "pdf")
}

// discoverAll discovers the files of every input. A single file given with
// an .html output path keeps that path.
func discoverAll(inputs []string, outputDir string) ([]FileToConvert, error) {
	if len(inputs) > 1 && strings.HasSuffix(outputDir, ".html") {
		return nil, fmt.Errorf("%w: output %s names a file but %d inputs were given", ErrNoInput, outputDir, len(inputs))
	}

	var all []FileToConvert
	for _, in := range inputs {
		files, err := discoverFiles(in, outputDir)
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	return all, nil
}

// discoverFiles finds all markdown files to convert under inputPath.
func discoverFiles(inputPath, outputDir string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateMarkdownExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "")
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !isMarkdown(path) {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the HTML output path for a markdown file.
// Directory inputs keep their tree under outputDir.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	base := filepath.Base(fileutil.ReplaceExtension(inputPath, "html"))

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}

	if strings.HasSuffix(outputDir, ".html") {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), base)
		}
	}

	return filepath.Join(outputDir, base)
}

func isMarkdown(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".md" || ext == ".markdown"
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	if !isMarkdown(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > md2html.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, md2html.MaxPoolSize)
	}
	return nil
}
