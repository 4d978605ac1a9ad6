// internal/storage/memory/export.go
package memory

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/internal/route"
	"github.com/skyroute/flightplanner/internal/storage"
	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/vmihailenco/msgpack/v5"
)

// Export formats
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// ExportVersion is written into every export file
const ExportVersion = 1

// ErrUnknownFormat is returned for an export format other than json or msgpack
var ErrUnknownFormat = errors.New("unknown export format")

// PlanExport is the root structure of an exported plan file
type PlanExport struct {
	Version  int             `json:"version" msgpack:"version"`
	Name     string          `json:"name" msgpack:"name"`
	SavedAt  time.Time       `json:"savedAt" msgpack:"savedAt"`
	Revision uint64          `json:"revision" msgpack:"revision"`
	Plan     core.FlightPlan `json:"plan" msgpack:"plan"`
	Summary  core.Summary    `json:"summary" msgpack:"summary"`
	// Route is the route polyline in EPSG:3857 for map overlays.
	Route [][2]float64 `json:"route" msgpack:"route"`
}

func buildExport(s *storage.Snapshot) PlanExport {
	return PlanExport{
		Version:  ExportVersion,
		Name:     s.DisplayName(),
		SavedAt:  s.Time.UTC(),
		Revision: s.Revision,
		Plan:     s.Plan,
		Summary:  s.Summary,
		Route:    geo.MercatorPolyline(route.Points(s.Plan)),
	}
}

// FileName returns "<DEP>_<ARR>_<timestamp>_r<revision>.<ext>" for the snapshot.
func FileName(s *storage.Snapshot, format string, compress bool) string {
	ext := "json"
	if format == FormatMsgpack {
		ext = "msgpack"
	}
	if compress {
		ext += ".gz"
	}
	return fmt.Sprintf("%s_%s_r%d.%s", s.RouteName(), s.Time.Format("20060102_150405"), s.Revision, ext)
}

func encode(format string, data PlanExport) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.Marshal(data)
	case FormatMsgpack:
		return msgpack.Marshal(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// export writes the snapshot to the output directory and returns the file path
func (b *Backend) export(s *storage.Snapshot) (string, error) {
	data, err := encode(b.cfg.Format, buildExport(s))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, FileName(s, b.cfg.Format, b.cfg.CompressOutput))
	if err := writeExport(outputPath, data, b.cfg.CompressOutput); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return outputPath, nil
}

// writeExport never replaces an existing export; a name collision is an error.
func writeExport(path string, data []byte, compress bool) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if !compress {
		_, err = f.Write(data)
		return err
	}
	gzWriter := gzip.NewWriter(f)
	if _, err := gzWriter.Write(data); err != nil {
		return err
	}
	return gzWriter.Close()
}

// ReadExport loads an exported plan file. The format is taken from the file
// extension; a .gz suffix is decompressed first.
func ReadExport(path string) (PlanExport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PlanExport{}, err
	}

	name := path
	if strings.HasSuffix(name, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return PlanExport{}, fmt.Errorf("failed to open gzip: %w", err)
		}
		defer zr.Close()
		if raw, err = io.ReadAll(zr); err != nil {
			return PlanExport{}, fmt.Errorf("failed to decompress: %w", err)
		}
		name = strings.TrimSuffix(name, ".gz")
	}

	var out PlanExport
	switch filepath.Ext(name) {
	case ".json":
		err = json.Unmarshal(raw, &out)
	case ".msgpack":
		err = msgpack.Unmarshal(raw, &out)
	default:
		return PlanExport{}, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(name))
	}
	if err != nil {
		return PlanExport{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return out, nil
}
