package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxAttachmentSize caps checkpoint uploads.
const MaxAttachmentSize = 20 * 1024 * 1024 // 20MB

var allowedAttachmentExt = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
	".zip": true, ".md": true, ".txt": true,
}

// CheckAttachment rejects oversized files and unexpected extensions.
func CheckAttachment(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxAttachmentSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", fileHeader.Size, MaxAttachmentSize)
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedAttachmentExt[ext] {
		return fmt.Errorf("file type %q not allowed", ext)
	}
	return nil
}

// AttachmentKey builds the object key for a checkpoint upload. A random
// prefix keeps resubmissions from overwriting earlier files.
func AttachmentKey(registrationID string, week int, filename string) string {
	base := filepath.Base(filename)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	return fmt.Sprintf("checkpoints/%s/week-%d/%s-%s", registrationID, week, uuid.NewString()[:8], base)
}
