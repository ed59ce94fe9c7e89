package engine

import (
	"context"

	"missionctl/core"
)

// Storage abstracts the intern record store. Snapshot must return records in
// store order; ApplyDonation must be atomic with respect to the record it
// targets and is the only write path into the store. The returned result
// carries the record's level from before the write, so event decisions never
// need a separate read.
type Storage interface {
	Find(ctx context.Context, id core.InternID) (core.Intern, error)
	Snapshot(ctx context.Context) ([]core.Intern, error)
	ApplyDonation(ctx context.Context, id core.InternID, amount float64) (core.DonationResult, error)
}
