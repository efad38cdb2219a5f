package storage

import (
	"context"
	"sync"
	"time"

	"checkout-form-api/models"
)

// MemoryStore keeps submissions in process. Entries expire after ttl.
type MemoryStore struct {
	mu          sync.Mutex
	submissions map[string]memoryEntry
	locks       map[string]time.Time
	ttl         time.Duration
	now         func() time.Time
}

type memoryEntry struct {
	sub       models.Submission
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]memoryEntry),
		locks:       make(map[string]time.Time),
		ttl:         ttl,
		now:         time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()

	if _, exists := s.submissions[sub.ID]; exists {
		return ErrSubmissionExists
	}
	s.submissions[sub.ID] = memoryEntry{sub: *sub, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()

	entry, ok := s.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	sub := entry.sub
	return &sub, nil
}

func (s *MemoryStore) Complete(ctx context.Context, id string, status models.PaymentStatus, message string, at time.Time) (*models.Submission, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	entry.sub.Status = status
	entry.sub.Message = message
	entry.sub.CompletedAt = &at
	s.submissions[id] = entry

	sub := entry.sub
	return &sub, nil
}

func (s *MemoryStore) LockForm(ctx context.Context, formID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if until, ok := s.locks[formID]; ok && until.After(now) {
		return false, nil
	}
	s.locks[formID] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) UnlockForm(ctx context.Context, formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, formID)
	return nil
}

func (s *MemoryStore) IsFormLocked(ctx context.Context, formID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.locks[formID]
	return ok && until.After(s.now()), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// evictExpired must be called with mu held.
func (s *MemoryStore) evictExpired() {
	now := s.now()
	for id, entry := range s.submissions {
		if !entry.expiresAt.After(now) {
			delete(s.submissions, id)
		}
	}
	for formID, until := range s.locks {
		if !until.After(now) {
			delete(s.locks, formID)
		}
	}
}
