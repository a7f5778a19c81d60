package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/esnlab/internal/config"
	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/experiment"
)

const (
	SeriesTruth    = "truth"
	SeriesForecast = "forecast"

	metadataFile = "metadata.json"
)

type Store struct {
	baseDir     string
	compression string
	log         *slog.Logger
}

func New(baseDir, compression string, logger *slog.Logger) (*Store, error) {
	if _, err := parseCompression(compression); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{baseDir: baseDir, compression: compression, log: logger}, nil
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Fingerprint   string             `json:"fingerprint"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Members       int                `json:"members"`
	Dim           int                `json:"dim"`
	TrainSteps    int                `json:"train_steps"`
	ForecastSteps int                `json:"forecast_steps"`
	Compression   string             `json:"compression"`
	Config        *config.Config     `json:"config"`
	Metrics       map[string]float64 `json:"metrics"`
	// NonFinite lists metrics dropped from Metrics because JSON cannot
	// represent NaN or Inf.
	NonFinite []string `json:"non_finite,omitempty"`
}

// Save writes report's metadata and its truth and forecast series to a new
// run directory and returns the run id.
func (s *Store) Save(cfg *config.Config, report *experiment.Report, members int) (string, error) {
	if report.Truth.Len() == 0 || report.Forecast.Len() == 0 {
		return "", fmt.Errorf("save: report has no trajectories")
	}
	now := time.Now()
	runID := fmt.Sprintf("lorenz_%s_%d", report.Fingerprint[:min(8, len(report.Fingerprint))], now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Fingerprint:   report.Fingerprint,
		Timestamp:     now,
		Seed:          report.Seed,
		Members:       members,
		Dim:           report.Truth.Dim(),
		TrainSteps:    report.Train.Len(),
		ForecastSteps: report.Forecast.Len(),
		Compression:   s.compression,
		Config:        cfg,
		Metrics:       make(map[string]float64),
	}
	for name, v := range report.Metrics() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			meta.NonFinite = append(meta.NonFinite, name)
			continue
		}
		meta.Metrics[name] = v
	}
	sort.Strings(meta.NonFinite)

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	for name, tr := range map[string]*dynamo.Trajectory{SeriesTruth: report.Truth, SeriesForecast: report.Forecast} {
		data, err := EncodeTrajectory(tr, s.compression)
		if err != nil {
			return "", fmt.Errorf("save %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(runDir, name+".mebo"), data, 0644); err != nil {
			return "", err
		}
		s.log.Debug("series written", "run", runID, "series", name, "points", tr.Len(), "bytes", len(data))
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.log.Debug("skipping run", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries decodes the named series (SeriesTruth or SeriesForecast).
func (s *Store) LoadSeries(runID, name string) (*dynamo.Trajectory, error) {
	if name != SeriesTruth && name != SeriesForecast {
		return nil, fmt.Errorf("unknown series: %s", name)
	}
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, name+".mebo"))
	if err != nil {
		return nil, err
	}
	return DecodeTrajectory(data, meta.Dim)
}

// ExportCSV writes one row per truth state with the forecast alongside it.
// Forecast columns are empty before the forecast starts.
func (s *Store) ExportCSV(runID string, out io.Writer) error {
	truth, err := s.LoadSeries(runID, SeriesTruth)
	if err != nil {
		return err
	}
	forecast, err := s.LoadSeries(runID, SeriesForecast)
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)

	dim := truth.Dim()
	header := []string{"time"}
	for k := 0; k < dim; k++ {
		header = append(header, ComponentName(k, dim))
	}
	for k := 0; k < dim; k++ {
		header = append(header, "pred_"+ComponentName(k, dim))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	offset := truth.Len() - forecast.Len()
	for i, state := range truth.States {
		row := []string{strconv.FormatFloat(truth.Times[i], 'f', 6, 64)}
		for _, val := range state {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		j := i - offset
		for k := 0; k < dim; k++ {
			if j >= 0 && j < forecast.Len() {
				row = append(row, strconv.FormatFloat(forecast.States[j][k], 'f', 6, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
