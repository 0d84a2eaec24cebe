// Package store is the generic row client every page controller and the
// badge engine read and write through.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paymordomo/apperr"
	"paymordomo/models"
)

const (
	TableUsers         = "users"
	TableTransactions  = "transactions"
	TableContributions = "contributions"
	TableGoals         = "goals"
	TableBadges        = "badges"
)

// ErrUnscoped is returned when a query on a user-owned table has no user_id
// filter.
var ErrUnscoped = errors.New("store: query on user-owned table without user_id")

var (
	columnRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

	tables = map[string]func() any{
		TableUsers:         func() any { return &models.User{} },
		TableTransactions:  func() any { return &models.Transaction{} },
		TableContributions: func() any { return &models.Contribution{} },
		TableGoals:         func() any { return &models.Goal{} },
		TableBadges:        func() any { return &models.Badge{} },
	}
)

// Models lists every table model, for AutoMigrate.
func Models() []any {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = tables[n]()
	}
	return out
}

// Filter is column -> value equality. Nil values are ignored.
type Filter map[string]any

// ByUser is the common filter scoping a query to one owner.
func ByUser(userID string) Filter { return Filter{"user_id": userID} }

// With returns a copy of f with col=v added.
func (f Filter) With(col string, v any) Filter {
	out := make(Filter, len(f)+1)
	for k, val := range f {
		out[k] = val
	}
	out[col] = v
	return out
}

type query struct {
	order    []clause.OrderByColumn
	limit    int
	afterCol string
	after    time.Time
}

type Option func(*query)

func OrderBy(col string, desc bool) Option {
	return func(q *query) {
		q.order = append(q.order, clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc})
	}
}

func Limit(n int) Option {
	return func(q *query) { q.limit = n }
}

// After keeps rows whose col is strictly later than t.
func After(col string, t time.Time) Option {
	return func(q *query) { q.afterCol, q.after = col, t }
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle for migrations and health checks.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) scoped(ctx context.Context, table string, f Filter) (*gorm.DB, error) {
	model, ok := tables[table]
	if !ok {
		return nil, apperr.Store(fmt.Sprintf("unknown table %q", table), nil)
	}
	if table != TableUsers {
		if uid, _ := f["user_id"].(string); uid == "" {
			return nil, apperr.Store("query not scoped to a user", ErrUnscoped)
		}
	}

	tx := s.db.WithContext(ctx).Model(model()).Table(table)
	cols := make([]string, 0, len(f))
	for col, v := range f {
		if v == nil {
			continue
		}
		if !columnRe.MatchString(col) {
			return nil, apperr.Store(fmt.Sprintf("invalid column %q", col), nil)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: col}, Value: f[col]})
	}
	return tx, nil
}

// Select loads every matching row into dest (a pointer to a slice).
func (s *Store) Select(ctx context.Context, table string, f Filter, dest any, opts ...Option) error {
	tx, err := s.scoped(ctx, table, f)
	if err != nil {
		return err
	}
	var q query
	for _, o := range opts {
		o(&q)
	}
	if q.afterCol != "" {
		tx = tx.Where(clause.Gt{Column: clause.Column{Name: q.afterCol}, Value: q.after})
	}
	if len(q.order) > 0 {
		tx = tx.Order(clause.OrderBy{Columns: q.order})
	}
	if q.limit > 0 {
		tx = tx.Limit(q.limit)
	}
	if err := tx.Find(dest).Error; err != nil {
		return apperr.Store("failed to load "+table, err)
	}
	return nil
}

// SelectOne loads a single row into dest (a pointer to a struct).
func (s *Store) SelectOne(ctx context.Context, table string, f Filter, dest any) error {
	tx, err := s.scoped(ctx, table, f)
	if err != nil {
		return err
	}
	err = tx.Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(table + " not found")
	}
	if err != nil {
		return apperr.Store("failed to load "+table, err)
	}
	return nil
}

// Insert creates one row or a batch in a single statement. rows is a pointer
// to a model or a slice of models.
func (s *Store) Insert(ctx context.Context, table string, rows any) error {
	if _, ok := tables[table]; !ok {
		return apperr.Store(fmt.Sprintf("unknown table %q", table), nil)
	}
	err := s.db.WithContext(ctx).Table(table).Create(rows).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.KindConflict, table+" already exists", err)
	}
	if err != nil {
		return apperr.Store("failed to insert into "+table, err)
	}
	return nil
}

// Update applies fields to every matching row and returns how many changed.
func (s *Store) Update(ctx context.Context, table string, f Filter, fields map[string]any) (int64, error) {
	tx, err := s.scoped(ctx, table, f)
	if err != nil {
		return 0, err
	}
	res := tx.Updates(fields)
	if res.Error != nil {
		return 0, apperr.Store("failed to update "+table, res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes the rows with the given ids inside the filter scope in one
// statement. No ids is a no-op.
func (s *Store) Delete(ctx context.Context, table string, f Filter, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.scoped(ctx, table, f)
	if err != nil {
		return 0, err
	}
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = id
	}
	res := tx.Where(clause.IN{Column: clause.Column{Name: "id"}, Values: vals}).Delete(tables[table]())
	if res.Error != nil {
		return 0, apperr.Store("failed to delete from "+table, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) Count(ctx context.Context, table string, f Filter) (int64, error) {
	tx, err := s.scoped(ctx, table, f)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, apperr.Store("failed to count "+table, err)
	}
	return n, nil
}
