// Package resumestore persists uploaded resumes on local disk and hands the
// core an opaque handle.
package resumestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// Local stores resume bytes under a directory, one file per upload. Handles
// look like resume://<id><ext>; the core never interprets them.
type Local struct {
	Dir string
}

// NewLocal constructs a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("op=resumestore.new: %w", err)
	}
	return &Local{Dir: dir}, nil
}

// allowedExt enforces an allowlist for resumes: .txt, .pdf, .docx
func allowedExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".pdf") || strings.HasSuffix(n, ".docx")
}

func allowedMIME(m string) bool {
	m = strings.ToLower(m)
	if strings.HasPrefix(m, "text/") { // allow parameters such as charset
		return true
	}
	return m == "application/pdf" || m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// Store validates the content against the allowlist and writes it to disk.
// The stored filename is a fresh UUID; the original name only contributes its
// extension, so path traversal in the upload name is inert.
func (s *Local) Store(_ domain.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty resume", domain.ErrInvalidArgument)
	}
	if !allowedExt(filename) {
		return "", fmt.Errorf("%w: unsupported resume extension %q", domain.ErrInvalidArgument, filepath.Ext(filename))
	}
	m := mimetype.Detect(data)
	if !allowedMIME(m.String()) {
		return "", fmt.Errorf("%w: unsupported resume content type %q", domain.ErrInvalidArgument, m.String())
	}

	id := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.Dir, id)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("op=resumestore.store: %w", err)
	}
	return "resume://" + id, nil
}

// Open returns the stored bytes for a handle produced by Store.
func (s *Local) Open(handle string) ([]byte, error) {
	id, ok := strings.CutPrefix(handle, "resume://")
	if !ok || id == "" || strings.Contains(id, "/") || strings.Contains(id, "..") {
		return nil, fmt.Errorf("%w: malformed resume handle", domain.ErrInvalidArgument)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("op=resumestore.open: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("op=resumestore.open: %w", err)
	}
	return data, nil
}
