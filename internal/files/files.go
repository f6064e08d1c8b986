// Package files collects local dataset files for upload. Files are checked
// against an extension allow-list and described with their size and media
// type; nothing is read until upload.
package files

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/thruflo/ttsdash/internal/notify"
)

// ErrIndexOutOfRange is returned by Remove for an invalid index.
var ErrIndexOutOfRange = errors.New("file index out of range")

// knownTypes pins the media types of the default extensions so results do
// not depend on the host's mime database.
var knownTypes = map[string]string{
	".zip":  "application/zip",
	".wav":  "audio/wav",
	".txt":  "text/plain",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
}

// Descriptor describes one accepted file.
type Descriptor struct {
	Name      string
	SizeBytes int64
	MimeType  string
	// LocationRef is the absolute path the file is read from on upload.
	LocationRef string
}

// HumanSize formats SizeBytes for listings, e.g. "1.2 MB".
func (d Descriptor) HumanSize() string {
	if d.SizeBytes < 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(d.SizeBytes))
}

// Rejection explains why an offered file was skipped.
type Rejection struct {
	Name   string
	Reason string
}

// Notice renders the rejection as a toast.
func (r Rejection) Notice() notify.Notice {
	return notify.Destructive("Invalid file type", r.Reason)
}

// Collection is the ordered set of files accepted for one dataset. It is
// safe for concurrent use.
type Collection struct {
	allowed map[string]bool

	mu    sync.Mutex
	files []Descriptor
}

// NewCollection creates an empty Collection accepting the given extensions.
// Extensions are matched case-insensitively with or without a leading dot.
func NewCollection(allowed []string) *Collection {
	c := &Collection{allowed: make(map[string]bool, len(allowed))}
	for _, ext := range allowed {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.allowed[ext] = true
	}
	return c
}

// Allowed reports whether name has an allowed final extension.
func (c *Collection) Allowed(name string) bool {
	return c.allowed[strings.ToLower(filepath.Ext(name))]
}

// Accept offers paths in order. Each allowed, readable regular file is
// appended; every other path yields one Rejection and the batch continues.
// len(accepted)+len(rejected) == len(paths).
func (c *Collection) Accept(paths []string) (accepted []Descriptor, rejected []Rejection) {
	for _, p := range paths {
		d, reason := c.describe(p)
		if reason != "" {
			rejected = append(rejected, Rejection{Name: filepath.Base(p), Reason: reason})
			continue
		}
		accepted = append(accepted, d)
	}

	c.mu.Lock()
	c.files = append(c.files, accepted...)
	c.mu.Unlock()

	return accepted, rejected
}

// describe stats path. A non-empty reason means the file is rejected.
func (c *Collection) describe(path string) (Descriptor, string) {
	name := filepath.Base(path)
	if !c.Allowed(name) {
		return Descriptor{}, name + " is not a supported file type."
	}

	info, err := os.Stat(path)
	if err != nil {
		return Descriptor{}, name + " could not be read."
	}
	if !info.Mode().IsRegular() {
		return Descriptor{}, name + " is not a regular file."
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return Descriptor{
		Name:        name,
		SizeBytes:   info.Size(),
		MimeType:    mimeType(name),
		LocationRef: abs,
	}, ""
}

func mimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Remove deletes the file at index i, keeping the order of the rest.
func (c *Collection) Remove(i int) (Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.files) {
		return Descriptor{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	removed := c.files[i]
	c.files = append(c.files[:i:i], c.files[i+1:]...)
	return removed, nil
}

// Files returns a copy of the accepted files in arrival order.
func (c *Collection) Files() []Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Descriptor(nil), c.files...)
}

// Len returns the number of accepted files.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

// TotalSize returns the summed size of the accepted files, formatted.
func (c *Collection) TotalSize() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total uint64
	for _, f := range c.files {
		if f.SizeBytes > 0 {
			total += uint64(f.SizeBytes)
		}
	}
	return humanize.Bytes(total)
}

// Clear empties the collection.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = nil
}
