package uploads

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Record // id -> record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Record)}
}

func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, ownerKey, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[id]
	if !ok || rec.OwnerKey != ownerKey {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *MemoryRepo) Update(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[rec.ID]
	if !ok || cur.OwnerKey != rec.OwnerKey {
		return ErrNotFound
	}
	r.data[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, ownerKey, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[id]
	if !ok || cur.OwnerKey != ownerKey {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func cloneRecord(rec Record) Record {
	if rec.File != nil {
		f := *rec.File
		rec.File = &f
	}
	return rec
}

var _ Repo = (*MemoryRepo)(nil)
