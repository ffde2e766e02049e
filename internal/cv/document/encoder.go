// Package document turns an uploaded CV into the base64 payload sent to the
// extraction model.
package document

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MIMETypePDF is the only content type accepted for extraction
const MIMETypePDF = "application/pdf"

// EncodedDocument is a CV ready for submission to the extraction service
type EncodedDocument struct {
	Filename string
	MIMEType string
	Size     int64
	Data     string // base64, standard encoding
	Raw      []byte
}

// EncodingError reports that the upload could not be read or encoded
type EncodingError struct {
	Filename string
	Err      error
}

func (e *EncodingError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("encoding failed for %s: %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("encoding failed: %v", e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Encode reads r fully and returns its base64 representation. Content is not
// transformed. When mimeType is empty it is sniffed from the bytes.
func Encode(r io.Reader, filename, mimeType string) (*EncodedDocument, error) {
	if r == nil {
		return nil, &EncodingError{Filename: filename, Err: fmt.Errorf("no content")}
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &EncodingError{Filename: filename, Err: err}
	}

	return EncodeBytes(raw, filename, mimeType), nil
}

// EncodeBytes encodes an in-memory document
func EncodeBytes(raw []byte, filename, mimeType string) *EncodedDocument {
	if mimeType == "" {
		mimeType = DetectMIMEType(raw)
	}

	return &EncodedDocument{
		Filename: filename,
		MIMEType: mimeType,
		Size:     int64(len(raw)),
		Data:     base64.StdEncoding.EncodeToString(raw),
		Raw:      raw,
	}
}

// EncodeFile encodes a document from disk, taking the MIME type from the
// extension and falling back to content sniffing
func EncodeFile(path string) (*EncodedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &EncodingError{Filename: filepath.Base(path), Err: err}
	}
	defer f.Close()

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	return Encode(f, filepath.Base(path), mimeType)
}

// DetectMIMEType sniffs the content type from the leading bytes
func DetectMIMEType(raw []byte) string {
	mt := mimetype.Detect(raw)
	if mt.Is(MIMETypePDF) {
		return MIMETypePDF
	}
	return mt.String()
}

// Decode returns the original bytes of an encoded document
func (d *EncodedDocument) Decode() ([]byte, error) {
	if d.Raw != nil {
		return d.Raw, nil
	}
	return base64.StdEncoding.DecodeString(d.Data)
}
