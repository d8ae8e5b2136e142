// Package attachments converts uploaded files into the stored reference form.
// Conversion is the one asynchronous boundary in the system: an entity only
// ever records a Ref after Convert has fully succeeded, so a failed upload
// leaves the owning entity unchanged.
package attachments

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grantline/grantline/internal/shared"
)

// Ref is the stored form of an uploaded receipt or photo.
type Ref struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MIME       string    `json:"mime"`
	Size       int64     `json:"size"`
	SHA256     string    `json:"sha256"`
	DataURL    string    `json:"dataUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Converter enforces upload limits and builds Refs.
type Converter struct {
	maxBytes     int64
	allowedMIMEs map[string]struct{}
}

// NewConverter builds a Converter. An empty mimes list allows any type.
func NewConverter(maxBytes int64, mimes []string) *Converter {
	allowed := make(map[string]struct{}, len(mimes))
	for _, m := range mimes {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &Converter{maxBytes: maxBytes, allowedMIMEs: allowed}
}

// Convert validates the upload and produces the stored reference.
func (c *Converter) Convert(name, mime string, data []byte) (Ref, error) {
	if name == "" {
		return Ref{}, fmt.Errorf("%w: attachment name required", shared.ErrValidation)
	}
	if len(data) == 0 {
		return Ref{}, fmt.Errorf("%w: attachment is empty", shared.ErrValidation)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return Ref{}, fmt.Errorf("%w: attachment exceeds %d bytes", shared.ErrValidation, c.maxBytes)
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "" {
		mime = "application/octet-stream"
	}
	if len(c.allowedMIMEs) > 0 {
		if _, ok := c.allowedMIMEs[mime]; !ok {
			return Ref{}, fmt.Errorf("%w: attachment type %q not accepted", shared.ErrValidation, mime)
		}
	}

	sum := sha256.Sum256(data)
	return Ref{
		ID:         uuid.NewString(),
		Name:       name,
		MIME:       mime,
		Size:       int64(len(data)),
		SHA256:     hex.EncodeToString(sum[:]),
		DataURL:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		UploadedAt: time.Now().UTC(),
	}, nil
}
