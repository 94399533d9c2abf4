package store

import (
	"testing"
	"time"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	meta := RunMetadata{
		ID:        "run_test",
		Config:    "gas.xml",
		Timestamp: time.Now(),
		Events:    1000,
		SimTime:   3.5,
		MFT:       0.01,
		KE:        40.5,
		Particles: 27,
	}
	times := []float64{0, 1, 2, 3}
	ke := []float64{40.5, 40.5, 40.5, 40.5}

	id, err := s.Save(meta, times, ke)
	if err != nil {
		t.Fatal(err)
	}
	if id != "run_test" {
		t.Errorf("expected id run_test, got %s", id)
	}

	loaded, err := s.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Events != 1000 || loaded.Particles != 27 {
		t.Errorf("metadata changed across round trip: %+v", loaded)
	}

	gotT, gotKE, err := s.LoadTrace(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotT) != 4 || len(gotKE) != 4 {
		t.Fatalf("trace length changed: %d/%d", len(gotT), len(gotKE))
	}
	if gotT[3] != 3 || gotKE[0] != 40.5 {
		t.Error("trace values changed across round trip")
	}
}

func TestListEmpty(t *testing.T) {
	s := New(t.TempDir() + "/missing")
	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestListSkipsJunk(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(RunMetadata{ID: "good"}, nil, nil); err != nil {
		t.Fatal(err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "good" {
		t.Errorf("expected only the good run, got %+v", runs)
	}
}
