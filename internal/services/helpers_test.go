package services

import (
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"listify_echo/internal/testutil"
)

type broadcast struct {
	groupID   uint
	eventType string
	payload   interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
}

func (f *fakeBroadcaster) Broadcast(groupID uint, eventType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, broadcast{groupID, eventType, payload})
}

func newBalances(db *gorm.DB) *BalanceService {
	return NewBalanceService(db, nil, time.Minute)
}

func setup(t *testing.T) (*gorm.DB, *BalanceService) {
	t.Helper()
	db := testutil.NewDB(t)
	return db, newBalances(db)
}
