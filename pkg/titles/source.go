package titles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Source read failures.
var (
	ErrNotFound = errors.New("source not found")
	ErrParse    = errors.New("source could not be parsed")
)

// ExtractionError reports a source document that could not be read.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to read source %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the local system.
type ExecRunner struct{}

// Run executes name with args. Stderr is folded into the error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Reader turns a source document into plain text.
type Reader struct {
	Runner CommandRunner
}

// NewReader returns a Reader that shells out to pdftotext for PDFs.
func NewReader() *Reader {
	return &Reader{Runner: ExecRunner{}}
}

// ReadSource reads path with the default Reader.
func ReadSource(ctx context.Context, path string) (string, error) {
	return NewReader().ReadSource(ctx, path)
}

// FromFile reads path and extracts its titles.
func FromFile(ctx context.Context, path string) ([]string, error) {
	text, err := ReadSource(ctx, path)
	if err != nil {
		return nil, err
	}
	return Extract(text), nil
}

// ReadSource dispatches on the file extension: .pdf through pdftotext,
// .html/.htm through goquery, anything else as plain text.
func (r *Reader) ReadSource(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &ExtractionError{Path: path, Err: ErrNotFound}
		}
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	}
	if info.IsDir() {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("%w: is a directory", ErrNotFound)}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return r.readPDF(ctx, path)
	case ".html", ".htm":
		return readHTML(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &ExtractionError{Path: path, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
		}
		return string(data), nil
	}
}

func (r *Reader) readPDF(ctx context.Context, path string) (string, error) {
	runner := r.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	out, err := runner.Run(ctx, "pdftotext", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("%w: %w", ErrParse, err)}
	}
	return string(out), nil
}

// readHTML returns the visible body text, one block per line.
func readHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("%w: %w", ErrParse, err)}
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, pre").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		// Ordered list numbering is rendered, not part of the text.
		if goquery.NodeName(s) == "li" && goquery.NodeName(s.Parent()) == "ol" {
			text = fmt.Sprintf("%d. %s", s.Index()+1, text)
		}
		lines = append(lines, text)
	})
	if len(lines) == 0 {
		return strings.TrimSpace(doc.Find("body").Text()), nil
	}
	return strings.Join(lines, "\n"), nil
}
