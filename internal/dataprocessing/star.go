package dataprocessing

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	apperrors "pickstats/internal/errors"
	"pickstats/internal/recordset"
)

const (
	OpticsBlock    = "data_optics"
	ParticlesBlock = "data_particles"

	blockPrefix = "data_"
	loopMarker  = "loop_"
	rlnPrefix   = "_rln"
)

// StarOptions configures the STAR views
type StarOptions struct {
	MicrographColumn string
}

// StarFile is a parsed RELION STAR file. Optics and Particles are nil when the
// block is missing or holds no usable loop.
type StarFile struct {
	views
	Path      string
	Optics    *recordset.Table
	Particles *recordset.Table
	Dropped   int
}

// ParseStar extracts the optics and particles blocks. A block runs from its
// marker line to the next data_ line or the end of input.
func ParseStar(r io.Reader, opts StarOptions) (*StarFile, error) {
	blocks, err := splitBlocks(r)
	if err != nil {
		return nil, err
	}

	sf := &StarFile{}
	if body, ok := blocks[OpticsBlock]; ok {
		sf.Optics, _ = parseLoop(body)
	}
	if body, ok := blocks[ParticlesBlock]; ok {
		var dropped int
		sf.Particles, dropped = parseLoop(body)
		sf.Dropped = dropped
	}
	sf.views = newViews(sf.Particles, opts.MicrographColumn)
	return sf, nil
}

// splitBlocks groups the non-empty trimmed lines by block name. Only the
// first occurrence of a name is kept.
func splitBlocks(r io.Reader) (map[string][]string, error) {
	blocks := make(map[string][]string)
	var current string
	var body []string

	flush := func() {
		if current == "" {
			return
		}
		if _, seen := blocks[current]; !seen {
			blocks[current] = body
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, blockPrefix) {
			flush()
			current = strings.Fields(line)[0]
			body = []string{}
			continue
		}
		if current != "" {
			body = append(body, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewParsingError("failed to read STAR data", err)
	}
	flush()
	return blocks, nil
}

// parseLoop turns a block body into a table. The body must open with loop_,
// followed by the _name declarations (comment lines may sit between them)
// and then the value rows. Rows whose
// token count differs from the declarations are dropped and counted.
func parseLoop(lines []string) (*recordset.Table, int) {
	if len(lines) == 0 || !strings.Contains(lines[0], loopMarker) {
		return nil, 0
	}

	var names []string
	i := 1
	for ; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "#") {
			continue
		}
		if !strings.HasPrefix(lines[i], "_") {
			break
		}
		names = append(names, columnName(lines[i]))
	}
	if len(names) == 0 || i == len(lines) {
		return nil, 0
	}

	var rows [][]string
	dropped := 0
	for _, line := range lines[i:] {
		if strings.HasPrefix(line, "_") || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(names) {
			dropped++
			continue
		}
		rows = append(rows, fields)
	}
	if len(rows) == 0 {
		return nil, dropped
	}

	table, err := recordset.FromRows(names, rows)
	if err != nil {
		// duplicate declarations
		return nil, dropped
	}
	return table, dropped
}

// columnName canonicalizes a declaration such as "_rlnCoordinateX #1"
func columnName(decl string) string {
	name, _, _ := strings.Cut(decl, "#")
	name = strings.TrimSpace(name)
	return strings.TrimPrefix(name, rlnPrefix)
}

// LoadStarFile parses the STAR file at path. Unlike the other formats a file
// that cannot be opened is an error.
func LoadStarFile(path string, opts StarOptions, logger *slog.Logger) (*StarFile, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(path, err)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	sf, err := ParseStar(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	sf.Path = path

	if sf.Dropped > 0 {
		logger.Warn("Dropped malformed STAR rows", slog.String("path", path), slog.Int("dropped", sf.Dropped))
	}
	particles := 0
	if sf.Particles != nil {
		particles = sf.Particles.Len()
	}
	logger.Debug("Parsed STAR file",
		slog.String("path", path),
		slog.Bool("has_optics", sf.Optics != nil),
		slog.Int("particles", particles))
	return sf, nil
}

// Statistics returns particle and per-micrograph counts. The map is empty
// when the file has no particles block.
func (s *StarFile) Statistics() map[string]any {
	if s == nil || s.Particles == nil {
		return map[string]any{}
	}

	stats := map[string]any{
		"total_particles":              s.Particles.Len(),
		"unique_micrographs":           len(s.Micrographs()),
		"avg_particles_per_micrograph": 0.0,
		"min_particles_per_micrograph": 0,
		"max_particles_per_micrograph": 0,
	}

	counts := s.CountsPerMicrograph()
	if len(counts) == 0 {
		return stats
	}
	total, lo, hi := 0, -1, 0
	for _, n := range counts {
		total += n
		if lo < 0 || n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	stats["avg_particles_per_micrograph"] = float64(total) / float64(len(counts))
	stats["min_particles_per_micrograph"] = lo
	stats["max_particles_per_micrograph"] = hi
	return stats
}
