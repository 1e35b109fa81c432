package blobkit

import (
	"fmt"
	"slices"
)

// File is a byte-bearing upload candidate with known size and MIME type.
// Size may be left zero, in which case len(Data) is used.
type File struct {
	Data     []byte
	Size     int64
	MIMEType string
}

func (f File) size() int64 {
	if f.Size > 0 {
		return f.Size
	}
	return int64(len(f.Data))
}

// Policy constrains uploads into one bucket. Zero fields mean unconstrained.
type Policy struct {
	MaxSize          int64
	AllowedMIMETypes []string
}

// Validate checks the file against the policy.
func (p Policy) Validate(f File) error {
	if p.MaxSize > 0 && f.size() > p.MaxSize {
		return fmt.Errorf("file size %d bytes exceeds %d bytes limit: %w", f.size(), p.MaxSize, ErrFileTooLarge)
	}
	if len(p.AllowedMIMETypes) > 0 && !slices.Contains(p.AllowedMIMETypes, f.MIMEType) {
		return fmt.Errorf("MIME type %s not in allowed types %v: %w", f.MIMEType, p.AllowedMIMETypes, ErrMIMETypeNotAllowed)
	}
	return nil
}
