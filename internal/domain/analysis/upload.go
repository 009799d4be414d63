package analysis

import (
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"
)

// Upload is one video file handed to Submit.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Extension returns the lower-case extension without the dot.
func (u *Upload) Extension() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(baseName(u.Filename))), ".")
}

// Validate checks presence, size and extension against the allow-list.
func (u *Upload) Validate(field string, allowed []string) error {
	if u == nil || u.Body == nil || strings.TrimSpace(u.Filename) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidUpload, field)
	}
	if u.Size <= 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidUpload, field)
	}
	ext := u.Extension()
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s has unsupported file type %q (allowed: %s)",
		ErrInvalidUpload, field, ext, strings.Join(allowed, ", "))
}

// StoredName builds the on-disk name for one side of a task.
func StoredName(id TaskID, side string, u *Upload) string {
	name := SanitizeFilename(u.Filename)
	if name == "" || path.Ext(name) == "" {
		name = "video." + u.Extension()
	}
	return fmt.Sprintf("%s_%s_%s", id, side, name)
}

// SanitizeFilename keeps ASCII letters, digits, dot, dash and underscore.
// Directory parts are dropped, so the result never escapes the upload dir.
func SanitizeFilename(name string) string {
	name = baseName(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_'):
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
