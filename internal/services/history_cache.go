package services

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sjperalta/car-ledger-api/internal/models"
)

// HistoryCache keeps recently displayed member histories. Each member has a
// generation bumped by Invalidate, so a history read before an edit is not
// cached after it.
type HistoryCache struct {
	cache *lru.Cache[int, []models.LedgerRecord]

	mu          sync.Mutex
	generations map[int]uint64
}

// NewHistoryCache creates a cache holding up to size members
func NewHistoryCache(size int) (*HistoryCache, error) {
	if size < 1 {
		size = 1
	}
	cache, err := lru.New[int, []models.LedgerRecord](size)
	if err != nil {
		return nil, err
	}
	return &HistoryCache{cache: cache, generations: make(map[int]uint64)}, nil
}

func (c *HistoryCache) Get(memberID int) ([]models.LedgerRecord, bool) {
	records, ok := c.cache.Get(memberID)
	if !ok {
		return nil, false
	}
	return cloneRecords(records), true
}

// Generation is taken before reading a history from the database
func (c *HistoryCache) Generation(memberID int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[memberID]
}

// AddIfCurrent caches records unless the member was invalidated since gen
// was taken. It reports whether the records were cached.
func (c *HistoryCache) AddIfCurrent(memberID int, gen uint64, records []models.LedgerRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[memberID] != gen {
		return false
	}
	c.cache.Add(memberID, cloneRecords(records))
	return true
}

// Invalidate drops a member after its balances changed
func (c *HistoryCache) Invalidate(memberID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[memberID]++
	c.cache.Remove(memberID)
}

func (c *HistoryCache) Len() int {
	return c.cache.Len()
}

func cloneRecords(records []models.LedgerRecord) []models.LedgerRecord {
	out := make([]models.LedgerRecord, len(records))
	copy(out, records)
	return out
}
