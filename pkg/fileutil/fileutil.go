package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hfadhel/consolepull/pkg/failure"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	outDir := filepath.Join(targetPath...)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}
