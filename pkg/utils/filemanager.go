// =============================================================================
// Load Export - File Manager Utility
// =============================================================================
//
// This module writes exported documents into the output directory and keeps
// the previous copy of any document it replaces.
//
// ARCHIVAL STRATEGY:
//   - Export file names are deterministic per scope and day, so a second
//     export on the same day targets the same name
//   - Before overwriting, the existing file is moved to the archive
//     directory under a timestamped name
//   - Documents are written to a temp file and renamed into place, so a
//     reader never sees a half-written document
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles output and archive directories.
type FileManager struct {
	// OutputDir is the directory where documents are placed.
	OutputDir string

	// ArchiveDir is the directory for replaced documents.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: output_archive/2026/04/15/loads_all_2026-04-15_101500_1a2b3c4d.iif
	UseTimestampSubdirs bool

	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		now:        time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT WRITING
// =============================================================================

// WriteOutput writes content to OutputDir/name, archiving any existing file
// of that name first.
//
// PARAMETERS:
//   - name: The bare file name. Directory components are rejected.
//   - content: The document body.
//
// RETURNS:
//   - The path of the written file.
//   - The path of the archived previous copy, or "" if there was none.
//   - An error if any step fails. On error the previous copy, if archived,
//     stays in the archive.
func (fm *FileManager) WriteOutput(name string, content io.Reader) (string, string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", "", fmt.Errorf("invalid output file name %q", name)
	}
	if err := fm.EnsureDirectories(); err != nil {
		return "", "", err
	}

	target := filepath.Join(fm.OutputDir, name)

	tmp, err := os.CreateTemp(fm.OutputDir, "."+name+".*.tmp")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		return "", "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", "", fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", "", fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}

	archived := ""
	if FileExists(target) {
		archived, err = fm.ArchiveOutputFile(target)
		if err != nil {
			return "", "", err
		}
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", archived, fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return target, archived, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveOutputFile moves an output file into the archive directory under a
// timestamped name.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file:
// <base>_<YYYYMMDD_HHMMSS>_<8 hex><ext>.
func (fm *FileManager) getArchivePath(filePath string) string {
	now := fm.now()
	fileName := filepath.Base(filePath)
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	archived := fmt.Sprintf("%s_%s_%s%s", base, now.Format("20060102_150405"), uuid.NewString()[:8], ext)

	dir := fm.ArchiveDir
	if fm.UseTimestampSubdirs {
		dir = filepath.Join(
			dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}
	return filepath.Join(dir, archived)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
