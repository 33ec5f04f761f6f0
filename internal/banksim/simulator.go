// internal/banksim/simulator.go
//
// Simulated bank feed: fabricates a small batch of plausible transactions
// per sync call. Calls are deliberately not idempotent; every sync is
// expected to discover "new" activity.
package banksim

import (
	"math/rand"
	"sync"
	"time"

	"smartmoney/internal/domain"
)

// Account created on demand when a user syncs without one.
const (
	DefaultInstitution = "GTBank"
	DefaultAccountType = "Savings"
)

const (
	minBatch = 3
	maxBatch = 6

	// Debit jitter: each expense grows by up to this much, never shrinks.
	maxJitter = 500

	// Generated dates land up to this many days in the past, unordered.
	maxBackdateDays = 5
)

type CatalogEntry struct {
	Merchant   string
	Category   string
	BaseAmount float64
}

// Catalog mixes expenses (negative) and income (positive). Picked with
// replacement.
var Catalog = []CatalogEntry{
	{"Jumia Nigeria", "Shopping", -15000},
	{"Uber Trip", "Transport", -2500},
	{"Chicken Republic", "Food", -3500},
	{"Apple Music", "Bills", -1000},
	{"Salary Deposit", "Salary", 250000},
	{"Total Energies", "Transport", -12000},
	{"FilmHouse Cinema", "Entertainment", -6000},
	{"Transfer from Abiola", "Gift", 5000},
}

// Simulator draws batches from an injected random source, so tests can pass
// a seeded *rand.Rand and assert exact output. *rand.Rand is not safe for
// concurrent use, hence the mutex.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func New(rng *rand.Rand) *Simulator {
	return &Simulator{rng: rng, now: time.Now}
}

// Generate fabricates between 3 and 6 transaction drafts. Debits get a
// random 0..500 added to their magnitude; income amounts pass through
// unchanged. Dates are backdated 0-5 days independently per draft and are
// not sorted.
func (s *Simulator) Generate() []domain.TransactionDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := minBatch + s.rng.Intn(maxBatch-minBatch+1)
	drafts := make([]domain.TransactionDraft, 0, n)
	for i := 0; i < n; i++ {
		entry := Catalog[s.rng.Intn(len(Catalog))]

		amount := entry.BaseAmount
		if amount < 0 {
			amount -= float64(s.rng.Intn(maxJitter + 1))
		}

		date := s.now().UTC().AddDate(0, 0, -s.rng.Intn(maxBackdateDays+1))

		drafts = append(drafts, domain.TransactionDraft{
			Amount:       amount,
			Category:     entry.Category,
			MerchantName: entry.Merchant,
			Date:         date,
		})
	}
	return drafts
}
