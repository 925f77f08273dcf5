// internal/royalty/store.go
package royalty

import (
	"sort"
	"sync"
	"time"

	"github.com/javajoker/imi-royalty/internal/models"
)

// Patch is a partial RoyaltyRecord update. Nil fields are left untouched so
// that fetch paths refreshing different field subsets never erase each
// other's data.
type Patch struct {
	Pending *models.Amount
	Claimed *models.Amount
	Owned   *bool
	Origin  *bool
}

// Store is the in-memory royalty table for the active wallet session. It is
// the single source of truth for "what can I claim"; records are only
// removed wholesale, on account switch.
type Store struct {
	mu      sync.RWMutex
	account string
	records map[uint64]models.RoyaltyRecord
}

func NewStore() *Store {
	return &Store{records: make(map[uint64]models.RoyaltyRecord)}
}

// Account returns the account the cache is currently scoped to.
func (s *Store) Account() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// ResetForAccount clears every record and rebinds the cache to account.
// Ownership flags from a previous account are meaningless for the new one.
func (s *Store) ResetForAccount(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = account
	s.records = make(map[uint64]models.RoyaltyRecord)
}

func (s *Store) Get(assetID uint64) (models.RoyaltyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[assetID]
	return rec, ok
}

// Upsert merges patch into the record for assetID, creating it lazily on
// first fetch. Returns the merged record.
func (s *Store) Upsert(assetID uint64, patch Patch) models.RoyaltyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[assetID]
	if !ok {
		rec = models.RoyaltyRecord{
			AssetID: assetID,
			Pending: models.ZeroAmount(),
			Claimed: models.ZeroAmount(),
		}
	}
	if patch.Pending != nil {
		rec.Pending = *patch.Pending
	}
	if patch.Claimed != nil {
		rec.Claimed = *patch.Claimed
	}
	if patch.Owned != nil {
		rec.OwnedByAccount = *patch.Owned
	}
	if patch.Origin != nil {
		rec.OriginAsset = *patch.Origin
	}
	rec.FetchedAt = time.Now()
	s.records[assetID] = rec
	return rec
}

// Snapshot returns all records ordered by asset id.
func (s *Store) Snapshot() []models.RoyaltyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RoyaltyRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
