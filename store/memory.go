package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm/schema"

	"paymordomo/apperr"
)

type row = map[string]any

// uniqueKeys mirrors the unique indexes declared on the models.
var uniqueKeys = map[string][][]string{
	TableUsers:  {{"phone"}, {"email"}},
	TableBadges: {{"user_id", "name"}},
}

// Memory is an in-process Rows for tests and local runs without a
// database. Rows are kept column by column using the gorm schema of the
// models, so filters use the same column names as the database.
type Memory struct {
	mu      sync.Mutex
	tables  map[string][]row
	schemas sync.Map
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{tables: map[string][]row{}, now: time.Now}
}

func (m *Memory) schemaOf(t reflect.Type) (*schema.Schema, error) {
	return schema.Parse(reflect.New(t).Interface(), &m.schemas, schema.NamingStrategy{})
}

// elemType unwraps *T, *[]T, *[]*T and []T to T.
func elemType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t
}

func (m *Memory) toRows(ctx context.Context, v any) ([]row, error) {
	sch, err := m.schemaOf(elemType(v))
	if err != nil {
		return nil, err
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	var items []reflect.Value
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			items = append(items, reflect.Indirect(rv.Index(i)))
		}
	} else {
		items = []reflect.Value{rv}
	}

	out := make([]row, 0, len(items))
	for _, item := range items {
		r := row{}
		for _, f := range sch.Fields {
			if f.DBName == "" {
				continue
			}
			val, _ := f.ValueOf(ctx, item)
			r[f.DBName] = val
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) fromRows(ctx context.Context, rows []row, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer {
		return apperr.Store("destination must be a pointer", nil)
	}
	sch, err := m.schemaOf(elemType(dest))
	if err != nil {
		return err
	}
	fill := func(r row) (reflect.Value, error) {
		item := reflect.New(sch.ModelType).Elem()
		for _, f := range sch.Fields {
			if v, ok := r[f.DBName]; ok && f.DBName != "" {
				if err := f.Set(ctx, item, v); err != nil {
					return item, err
				}
			}
		}
		return item, nil
	}

	target := dv.Elem()
	if target.Kind() != reflect.Slice {
		if len(rows) == 0 {
			return nil
		}
		item, err := fill(rows[0])
		if err != nil {
			return err
		}
		target.Set(item)
		return nil
	}

	ptrElems := target.Type().Elem().Kind() == reflect.Pointer
	out := reflect.MakeSlice(target.Type(), 0, len(rows))
	for _, r := range rows {
		item, err := fill(r)
		if err != nil {
			return err
		}
		if ptrElems {
			p := reflect.New(sch.ModelType)
			p.Elem().Set(item)
			item = p
		}
		out = reflect.Append(out, item)
	}
	target.Set(out)
	return nil
}

func (m *Memory) check(table string, f Filter) error {
	if _, ok := tables[table]; !ok {
		return apperr.Store(fmt.Sprintf("unknown table %q", table), nil)
	}
	if table != TableUsers {
		if uid, _ := f["user_id"].(string); uid == "" {
			return apperr.Store("query not scoped to a user", ErrUnscoped)
		}
	}
	return nil
}

func matches(r row, f Filter) bool {
	for col, v := range f {
		if v == nil {
			continue
		}
		if fmt.Sprint(r[col]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

func less(a, b any) bool {
	if ta, ok := asTime(a); ok {
		tb, _ := asTime(b)
		return ta.Before(tb)
	}
	switch x := a.(type) {
	case float64:
		y, _ := b.(float64)
		return x < y
	case int64:
		y, _ := b.(int64)
		return x < y
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func (m *Memory) filter(table string, f Filter, opts ...Option) []row {
	var q query
	for _, o := range opts {
		o(&q)
	}
	var out []row
	for _, r := range m.tables[table] {
		if !matches(r, f) {
			continue
		}
		if q.afterCol != "" {
			if t, ok := asTime(r[q.afterCol]); !ok || !t.After(q.after) {
				continue
			}
		}
		out = append(out, r)
	}
	for i := len(q.order) - 1; i >= 0; i-- {
		o := q.order[i]
		sort.SliceStable(out, func(a, b int) bool {
			if o.Desc {
				return less(out[b][o.Column.Name], out[a][o.Column.Name])
			}
			return less(out[a][o.Column.Name], out[b][o.Column.Name])
		})
	}
	if q.limit > 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out
}

func (m *Memory) Select(ctx context.Context, table string, f Filter, dest any, opts ...Option) error {
	if err := m.check(table, f); err != nil {
		return err
	}
	m.mu.Lock()
	rows := m.filter(table, f, opts...)
	m.mu.Unlock()
	return m.fromRows(ctx, rows, dest)
}

func (m *Memory) SelectOne(ctx context.Context, table string, f Filter, dest any) error {
	if err := m.check(table, f); err != nil {
		return err
	}
	m.mu.Lock()
	rows := m.filter(table, f)
	m.mu.Unlock()
	if len(rows) == 0 {
		return apperr.NotFound(table + " not found")
	}
	return m.fromRows(ctx, rows[:1], dest)
}

func (m *Memory) conflicts(table string, r row, skip int) bool {
	for _, cols := range uniqueKeys[table] {
		for i, other := range m.tables[table] {
			if i == skip {
				continue
			}
			same := true
			for _, c := range cols {
				if fmt.Sprint(other[c]) != fmt.Sprint(r[c]) {
					same = false
					break
				}
			}
			if same {
				return true
			}
		}
	}
	return false
}

func stamp(r row, cols []string, now time.Time) {
	for _, col := range cols {
		if v, ok := r[col]; ok {
			if t, _ := asTime(v); t.IsZero() {
				r[col] = now
			}
		}
	}
}

// Insert adds all rows or none, like a single INSERT statement.
func (m *Memory) Insert(ctx context.Context, table string, rows any) error {
	if _, ok := tables[table]; !ok {
		return apperr.Store(fmt.Sprintf("unknown table %q", table), nil)
	}
	batch, err := m.toRows(ctx, rows)
	if err != nil {
		return apperr.Store("failed to insert into "+table, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.tables[table])
	now := m.now()
	for _, r := range batch {
		stamp(r, []string{"created_at", "updated_at"}, now)
		if m.conflicts(table, r, -1) {
			m.tables[table] = m.tables[table][:before]
			return apperr.Conflict(table + " already exists")
		}
		m.tables[table] = append(m.tables[table], r)
	}
	return nil
}

func (m *Memory) Update(_ context.Context, table string, f Filter, fields map[string]any) (int64, error) {
	if err := m.check(table, f); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i, r := range m.tables[table] {
		if !matches(r, f) {
			continue
		}
		next := make(row, len(r))
		for k, v := range r {
			next[k] = v
		}
		for k, v := range fields {
			next[k] = v
		}
		if _, ok := next["updated_at"]; ok {
			next["updated_at"] = m.now()
		}
		if m.conflicts(table, next, i) {
			return n, apperr.Conflict(table + " already exists")
		}
		m.tables[table][i] = next
		n++
	}
	return n, nil
}

func (m *Memory) Delete(_ context.Context, table string, f Filter, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := m.check(table, f); err != nil {
		return 0, err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	kept := make([]row, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		if drop[fmt.Sprint(r["id"])] && matches(r, f) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.tables[table] = kept
	return n, nil
}

func (m *Memory) Count(_ context.Context, table string, f Filter) (int64, error) {
	if err := m.check(table, f); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filter(table, f))), nil
}
