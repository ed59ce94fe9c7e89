package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"missionctl/core"
)

// Store persists the entire intern collection to a single JSON file.
// Suitable for demos and small deployments. Record order in the file is
// store order.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	records map[core.InternID]*core.Intern
	order   []core.InternID
}

type document struct {
	Interns []core.Intern `json:"interns"`
}

// New opens (or creates) a file-backed store. When the file does not exist
// yet, the seed records are written as the initial state; otherwise the file
// contents win and seed is ignored.
func New(path string, seedRecords []core.Intern) (*Store, error) {
	s := &Store{path: path, records: map[core.InternID]*core.Intern{}}
	err := s.load()
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, fs.ErrNotExist):
		for _, rec := range seedRecords {
			if _, dup := s.records[rec.ID]; dup {
				continue
			}
			cp := rec.Clone()
			s.records[rec.ID] = &cp
			s.order = append(s.order, rec.ID)
		}
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, err
	}
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	for _, rec := range doc.Interns {
		cp := rec.Clone()
		s.records[rec.ID] = &cp
		s.order = append(s.order, rec.ID)
	}
	return nil
}

func (s *Store) persist() error {
	doc := document{Interns: make([]core.Intern, 0, len(s.order))}
	for _, id := range s.order {
		doc.Interns = append(doc.Interns, *s.records[id])
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Find(_ context.Context, id core.InternID) (core.Intern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return core.Intern{}, core.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) Snapshot(_ context.Context) ([]core.Intern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Intern, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}

func (s *Store) ApplyDonation(_ context.Context, id core.InternID, amount float64) (core.DonationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return core.DonationResult{}, core.ErrRecordNotFound
	}
	next, res, err := core.Advance(*rec, amount)
	if err != nil {
		return core.DonationResult{}, err
	}
	old := *rec
	*rec = next
	if err := s.persist(); err != nil {
		// roll back so no partial update is ever visible
		*rec = old
		return core.DonationResult{}, err
	}
	return res, nil
}
