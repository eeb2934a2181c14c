package usecase

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// extraction is the outcome of extractArchive, valid even when an error is returned
type extraction struct {
	files   []string
	size    int64
	touched bool // a file or directory was created under destDir
}

// extractArchive extracts every entry of the zip file at archivePath into destDir.
// onProgress is called after each entry with the number done and the total.
func extractArchive(ctx context.Context, archivePath, destDir string, onProgress func(done, total int)) (*extraction, error) {
	logger := ctxlog.From(ctx)
	result := &extraction{}

	// Insecure names are rejected per entry by extractFile
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return result, goerr.Wrap(err, "failed to open zip archive", goerr.V("path", archivePath))
	}
	defer zipReader.Close()

	total := len(zipReader.File)
	logger.Debug("Opened zip archive", "path", archivePath, "entries", total)

	for idx, file := range zipReader.File {
		if err := ctx.Err(); err != nil {
			return result, goerr.Wrap(err, "extraction interrupted", goerr.V("extracted", idx))
		}

		touched, err := extractFile(file, destDir)
		result.touched = result.touched || touched
		if err != nil {
			return result, goerr.Wrap(err, "failed to extract file",
				goerr.V("entry", file.Name),
				goerr.V("extracted", idx),
				goerr.V("total", total),
			)
		}

		result.files = append(result.files, file.Name)
		result.size += int64(file.UncompressedSize64)

		if onProgress != nil {
			onProgress(idx+1, total)
		}
	}

	return result, nil
}

// extractFile extracts a single file from ZIP to the destination directory.
// touched reports whether anything was created on disk, even when err is set.
func extractFile(file *zip.File, destDir string) (touched bool, err error) {
	// Security check: prevent path traversal attacks
	destPath := filepath.Join(destDir, file.Name)
	if destPath == filepath.Clean(destDir) && file.FileInfo().IsDir() {
		return false, nil
	}
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return false, goerr.New("invalid file path detected",
			goerr.V("file", file.Name),
			goerr.V("dest", destPath),
		)
	}

	if file.FileInfo().IsDir() {
		created, err := mkdirAll(destPath)
		if err != nil {
			return created, goerr.Wrap(err, "failed to create directory", goerr.V("path", destPath))
		}
		return created, nil
	}

	// Create parent directories
	touched, err = mkdirAll(filepath.Dir(destPath))
	if err != nil {
		return touched, goerr.Wrap(err, "failed to create parent directories", goerr.V("path", filepath.Dir(destPath)))
	}

	rc, err := file.Open()
	if err != nil {
		return touched, goerr.Wrap(err, "failed to open file in zip", goerr.V("file", file.Name))
	}
	defer rc.Close()

	mode := file.FileInfo().Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return touched, goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}

	if _, err := io.Copy(destFile, rc); err != nil {
		_ = destFile.Close()
		return true, goerr.Wrap(err, "failed to copy file content", goerr.V("path", destPath))
	}

	if err := destFile.Close(); err != nil {
		return true, goerr.Wrap(err, "failed to close destination file", goerr.V("path", destPath))
	}

	return true, nil
}

// mkdirAll creates dir and its parents and reports whether dir did not exist before
func mkdirAll(dir string) (bool, error) {
	if _, err := os.Stat(dir); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}
	return true, nil
}
