package uploads

import "context"

// Repo persists upload drafts. Lookups are always scoped to the owner.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, ownerKey, id string) (Record, error)
	Update(ctx context.Context, rec Record) error
	Delete(ctx context.Context, ownerKey, id string) error
}
