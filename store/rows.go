package store

import "context"

// Rows is the row client contract. *Store and *Memory implement it.
type Rows interface {
	Select(ctx context.Context, table string, f Filter, dest any, opts ...Option) error
	SelectOne(ctx context.Context, table string, f Filter, dest any) error
	Insert(ctx context.Context, table string, rows any) error
	Update(ctx context.Context, table string, f Filter, fields map[string]any) (int64, error)
	Delete(ctx context.Context, table string, f Filter, ids ...string) (int64, error)
	Count(ctx context.Context, table string, f Filter) (int64, error)
}

var (
	_ Rows = (*Store)(nil)
	_ Rows = (*Memory)(nil)
)
