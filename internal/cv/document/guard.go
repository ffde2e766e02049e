package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Upload admission errors. They are raised before the pipeline starts.
var (
	ErrEmptyDocument   = errors.New("document is empty")
	ErrTooLarge        = errors.New("document exceeds maximum size")
	ErrUnsupportedType = errors.New("document type is not supported")
	ErrTooManyPages    = errors.New("document has too many pages")
)

// GuardConfig bounds what is accepted for extraction
type GuardConfig struct {
	MaxSizeBytes int64
	MaxPages     int // 0 disables the page check
	AllowedTypes []string
}

// Admission describes an accepted upload
type Admission struct {
	MIMEType string
	Size     int64
	Pages    int // -1 when the page count could not be read
}

// Guard enforces size, type and page limits on uploads
type Guard struct {
	cfg GuardConfig
}

// NewGuard creates a guard; a zero MaxSizeBytes means 10MB and no allowed
// types means PDF only
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = 10 * 1024 * 1024
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = []string{MIMETypePDF}
	}
	return &Guard{cfg: cfg}
}

// MaxSizeBytes returns the configured size limit
func (g *Guard) MaxSizeBytes() int64 {
	return g.cfg.MaxSizeBytes
}

// ReadLimited reads at most the size limit plus one byte so oversize uploads
// are detected without buffering them entirely
func (g *Guard) ReadLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, g.cfg.MaxSizeBytes+1))
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	if int64(len(raw)) > g.cfg.MaxSizeBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, g.cfg.MaxSizeBytes)
	}
	return raw, nil
}

// Check admits raw if it fits the configured limits. The content type is
// sniffed from the bytes; the client-declared type is not trusted.
func (g *Guard) Check(raw []byte) (*Admission, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyDocument
	}

	size := int64(len(raw))
	if size > g.cfg.MaxSizeBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d bytes", ErrTooLarge, size, g.cfg.MaxSizeBytes)
	}

	mimeType := DetectMIMEType(raw)
	if !g.allowed(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	admission := &Admission{MIMEType: mimeType, Size: size, Pages: -1}
	if mimeType == MIMETypePDF && g.cfg.MaxPages > 0 {
		pages, err := CountPages(raw)
		if err == nil {
			admission.Pages = pages
			if pages > g.cfg.MaxPages {
				return nil, fmt.Errorf("%w: %d pages, limit is %d", ErrTooManyPages, pages, g.cfg.MaxPages)
			}
		}
	}

	return admission, nil
}

func (g *Guard) allowed(mimeType string) bool {
	for _, t := range g.cfg.AllowedTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// CountPages returns the number of pages of a PDF. Malformed documents make
// the underlying reader panic, which is reported as an error.
func CountPages(raw []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = fmt.Errorf("unreadable pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return 0, fmt.Errorf("unreadable pdf: %w", err)
	}
	return reader.NumPage(), nil
}
