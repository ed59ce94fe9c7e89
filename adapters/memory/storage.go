package memory

import (
	"context"
	"sync"

	"missionctl/core"
)

// Store is the in-memory Storage implementation. Records are seeded once at
// construction; no record is created or deleted afterwards. Each record has
// its own mutex so a donation commits as one indivisible unit.
type Store struct {
	records map[core.InternID]*record
	order   []core.InternID
}

type record struct {
	mu  sync.Mutex
	rec core.Intern
}

// New builds a store seeded with the given records, preserving their order.
func New(records []core.Intern) *Store {
	s := &Store{
		records: make(map[core.InternID]*record, len(records)),
		order:   make([]core.InternID, 0, len(records)),
	}
	for _, rec := range records {
		if _, exists := s.records[rec.ID]; exists {
			continue
		}
		s.records[rec.ID] = &record{rec: rec.Clone()}
		s.order = append(s.order, rec.ID)
	}
	return s
}

func (s *Store) Find(_ context.Context, id core.InternID) (core.Intern, error) {
	r, ok := s.records[id]
	if !ok {
		return core.Intern{}, core.ErrRecordNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Clone(), nil
}

func (s *Store) Snapshot(_ context.Context) ([]core.Intern, error) {
	out := make([]core.Intern, 0, len(s.order))
	for _, id := range s.order {
		r := s.records[id]
		r.mu.Lock()
		out = append(out, r.rec.Clone())
		r.mu.Unlock()
	}
	return out, nil
}

func (s *Store) ApplyDonation(_ context.Context, id core.InternID, amount float64) (core.DonationResult, error) {
	r, ok := s.records[id]
	if !ok {
		return core.DonationResult{}, core.ErrRecordNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next, res, err := core.Advance(r.rec, amount)
	if err != nil {
		return core.DonationResult{}, err
	}
	r.rec = next
	return res, nil
}
