package internal

import "context"

// A Store persists one date of birth per username.
type Store interface {
	// UpsertBirthday creates or overwrites the record for n atomically.
	UpsertBirthday(ctx context.Context, n Name, b Birthday) error
	// LookupBirthday returns ErrNotFound when n has never been stored.
	LookupBirthday(ctx context.Context, n Name) (Birthday, error)
	Close() error
}
