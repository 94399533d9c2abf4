// Package store archives completed runs: one directory per run holding
// JSON metadata and the CSV kinetic-energy trace.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string    `json:"id"`
	Config     string    `json:"config"`
	Timestamp  time.Time `json:"timestamp"`
	Seed       int64     `json:"seed"`
	Events     uint64    `json:"events"`
	SimTime    float64   `json:"sim_time"`
	MFT        float64   `json:"mft"`
	KE         float64   `json:"kinetic_energy"`
	InternalU  float64   `json:"internal_energy"`
	Particles  int       `json:"particles"`
	CheckFails int       `json:"check_fails"`
}

// Save writes the run directory: metadata.json plus an energy.csv trace
// of (time, kinetic energy) samples.
func (s *Store) Save(meta RunMetadata, times, ke []float64) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("run_%d", time.Now().Unix())
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "energy.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"time", "ke"}); err != nil {
		return "", err
	}
	for i := range times {
		if i >= len(ke) {
			break
		}
		row := []string{
			strconv.FormatFloat(times[i], 'g', 17, 64),
			strconv.FormatFloat(ke[i], 'g', 17, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrace reads the energy trace back as parallel slices.
func (s *Store) LoadTrace(runID string) (times, ke []float64, err error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "energy.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	for i := 1; i < len(records); i++ {
		if len(records[i]) < 2 {
			continue
		}
		t, err1 := strconv.ParseFloat(records[i][0], 64)
		e, err2 := strconv.ParseFloat(records[i][1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		times = append(times, t)
		ke = append(ke, e)
	}
	return times, ke, nil
}
