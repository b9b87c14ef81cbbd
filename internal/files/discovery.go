package files

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pickstats/internal/dataprocessing"
)

// DefaultMaxFiles caps how many files a single walk reports
const DefaultMaxFiles = 1000

var particleExtensions = map[string]bool{
	".star": true,
	".csv":  true,
	".tsv":  true,
	".txt":  true,
	".box":  true,
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Format  dataprocessing.Format
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	maxFiles int
	logger   *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{maxFiles: DefaultMaxFiles, logger: logger}
}

// WithMaxFiles returns a copy of d that stops after n files
func (d *Discovery) WithMaxFiles(n int) *Discovery {
	c := *d
	c.maxFiles = n
	return &c
}

// IsParticleFile reports whether name has an extension a loader accepts
func IsParticleFile(name string) bool {
	return particleExtensions[strings.ToLower(filepath.Ext(name))]
}

// FindParticleFiles walks dir and returns the particle files below it,
// sorted by path. The second result is true when the walk was cut short by
// the file limit.
func (d *Discovery) FindParticleFiles(dir string) ([]FileInfo, bool, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, false, fmt.Errorf("%s is not a directory", dir)
	}

	var (
		found     []FileInfo
		truncated bool
	)
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Debug("Skipping unreadable entry",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if path != dir && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || !IsParticleFile(entry.Name()) {
			return nil
		}
		if d.maxFiles > 0 && len(found) >= d.maxFiles {
			truncated = true
			return fs.SkipAll
		}

		fi, err := entry.Info()
		if err != nil {
			return nil
		}
		found = append(found, FileInfo{
			Path:    path,
			Name:    entry.Name(),
			Format:  dataprocessing.DetectFormat(path),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })

	d.logger.Debug("Particle files discovered",
		slog.String("directory", dir),
		slog.Int("count", len(found)),
		slog.Bool("truncated", truncated))
	return found, truncated, nil
}
