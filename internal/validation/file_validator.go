package validation

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "pickstats/internal/errors"
)

// ErrOutsideDataDir is returned when a requested path escapes the data directory
var ErrOutsideDataDir = stderrors.New("path is outside the data directory")

// FileValidator checks input and output paths before files are parsed or
// written. When baseDir is set, relative paths are resolved against it and
// no path may leave it.
type FileValidator struct {
	baseDir string
	logger  *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(baseDir string, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if baseDir != "" {
		if abs, err := filepath.Abs(baseDir); err == nil {
			baseDir = abs
		}
	}
	return &FileValidator{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Resolve returns the cleaned path for p, confined to the base directory
// when one is configured.
func (v *FileValidator) Resolve(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", apperrors.NewAppValidationError("path is required")
	}
	if v.baseDir == "" {
		return filepath.Clean(p), nil
	}

	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(v.baseDir, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(v.baseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		v.logger.Warn("Rejected path outside data directory",
			slog.String("path", p),
			slog.String("data_dir", v.baseDir))
		return "", apperrors.NewAppError(apperrors.ErrTypeValidation, fmt.Sprintf("%s: %s", ErrOutsideDataDir.Error(), p), ErrOutsideDataDir)
	}
	return full, nil
}

// ValidateFile checks that path exists, is a regular file and is readable.
// A missing file yields a not-found error wrapping fs.ErrNotExist.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile resolves p and checks that it names a readable file
func (v *FileValidator) ValidateInputFile(p string) (string, error) {
	path, err := v.Resolve(p)
	if err != nil {
		return "", err
	}
	if err := v.ValidateFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFile resolves p and makes sure its directory is writable
func (v *FileValidator) ValidateOutputFile(p string) (string, error) {
	path, err := v.Resolve(p)
	if err != nil {
		return "", err
	}
	if err := v.ValidateOutputDirectory(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, nil
}
