package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store with the same batch-atomicity and listener
// semantics as the Firestore adapter. It backs the package tests and local
// development without an emulator. Never the system of record.
type Memory struct {
	mu      sync.Mutex
	cols    map[string]map[string]Doc
	nextSub int
	subs    map[int]*memSub
}

func NewMemory() *Memory {
	return &Memory{
		cols: map[string]map[string]Doc{},
		subs: map[int]*memSub{},
	}
}

func (m *Memory) Get(ctx context.Context, col, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.cols[col][id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%s/%s: %w", col, id, ErrNotFound)
	}
	return Snapshot{ID: id, Data: cloneDoc(doc)}, nil
}

func (m *Memory) Create(ctx context.Context, col string, data Doc) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(col, id, cloneDoc(data))
	m.notifyLocked(col, id)
	return id, nil
}

func (m *Memory) Set(ctx context.Context, col, id string, data Doc, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(col, id, data, merge)
	m.notifyLocked(col, id)
	return nil
}

func (m *Memory) Update(ctx context.Context, col, id string, ups ...Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.cols[col][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", col, id, ErrNotFound)
	}
	applyUpdates(doc, ups)
	m.notifyLocked(col, id)
	return nil
}

func (m *Memory) Delete(ctx context.Context, col, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cols[col], id)
	m.notifyLocked(col, id)
	return nil
}

func (m *Memory) Query(ctx context.Context, col string, filters ...Filter) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryLocked(col, filters...), nil
}

func (m *Memory) Batch() Batch {
	return &memBatch{m: m}
}

func (m *Memory) ListenDoc(ctx context.Context, col, id string, fn func(Snapshot, bool)) CancelFunc {
	sub := &memSub{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		col:    col,
		docID:  id,
		docFn:  fn,
	}
	return m.addSub(sub)
}

func (m *Memory) ListenQuery(ctx context.Context, col string, f Filter, fn func([]Snapshot)) CancelFunc {
	sub := &memSub{
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		col:     col,
		filter:  &f,
		queryFn: fn,
	}
	return m.addSub(sub)
}

func (m *Memory) addSub(sub *memSub) CancelFunc {
	m.mu.Lock()
	key := m.nextSub
	m.nextSub++
	m.subs[key] = sub
	go sub.pump()
	m.pushToSubLocked(sub) // initial snapshot
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, key)
			m.mu.Unlock()
			close(sub.done)
		})
	}
}

// ---- internals (m.mu held) ----

func (m *Memory) putLocked(col, id string, doc Doc) {
	if m.cols[col] == nil {
		m.cols[col] = map[string]Doc{}
	}
	m.cols[col][id] = doc
}

func (m *Memory) setLocked(col, id string, data Doc, merge bool) {
	if merge {
		if cur, ok := m.cols[col][id]; ok {
			for k, v := range cloneDoc(data) {
				cur[k] = v
			}
			return
		}
	}
	m.putLocked(col, id, cloneDoc(data))
}

func (m *Memory) queryLocked(col string, filters ...Filter) []Snapshot {
	ids := make([]string, 0, len(m.cols[col]))
	for id := range m.cols[col] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Snapshot
	for _, id := range ids {
		doc := m.cols[col][id]
		ok := true
		for _, f := range filters {
			if !matches(doc, f) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, Snapshot{ID: id, Data: cloneDoc(doc)})
		}
	}
	return out
}

func (m *Memory) notifyLocked(col, id string) {
	for _, sub := range m.subs {
		if sub.col != col {
			continue
		}
		if sub.docFn != nil && sub.docID != id {
			continue
		}
		m.pushToSubLocked(sub)
	}
}

func (m *Memory) pushToSubLocked(sub *memSub) {
	if sub.docFn != nil {
		doc, ok := m.cols[sub.col][sub.docID]
		snap := Snapshot{ID: sub.docID}
		if ok {
			snap.Data = cloneDoc(doc)
		}
		fn, exists := sub.docFn, ok
		sub.enqueue(func() { fn(snap, exists) })
		return
	}
	snaps := m.queryLocked(sub.col, *sub.filter)
	fn := sub.queryFn
	sub.enqueue(func() { fn(snaps) })
}

func matches(doc Doc, f Filter) bool {
	switch f.Op {
	case "==":
		return reflect.DeepEqual(doc[f.Field], f.Value)
	case "array-contains":
		switch arr := doc[f.Field].(type) {
		case []interface{}:
			for _, e := range arr {
				if reflect.DeepEqual(e, f.Value) {
					return true
				}
			}
		case []string:
			for _, e := range arr {
				if e == f.Value {
					return true
				}
			}
		}
		return false
	case ">=":
		a, aok := doc[f.Field].(string)
		b, bok := f.Value.(string)
		return aok && bok && a >= b
	case "<":
		a, aok := doc[f.Field].(string)
		b, bok := f.Value.(string)
		return aok && bok && a < b
	}
	return false
}

func applyUpdates(doc Doc, ups []Update) {
	for _, u := range ups {
		switch op := u.Value.(type) {
		case arrayUnion:
			cur := toIfaceSlice(doc[u.Field])
			for _, e := range op.elems {
				found := false
				for _, have := range cur {
					if reflect.DeepEqual(have, e) {
						found = true
						break
					}
				}
				if !found {
					cur = append(cur, e)
				}
			}
			doc[u.Field] = cur
		case arrayRemove:
			cur := toIfaceSlice(doc[u.Field])
			kept := cur[:0]
			for _, have := range cur {
				drop := false
				for _, e := range op.elems {
					if reflect.DeepEqual(have, e) {
						drop = true
						break
					}
				}
				if !drop {
					kept = append(kept, have)
				}
			}
			doc[u.Field] = kept
		default:
			doc[u.Field] = u.Value
		}
	}
}

func toIfaceSlice(v interface{}) []interface{} {
	switch arr := v.(type) {
	case []interface{}:
		return arr
	case []string:
		out := make([]interface{}, len(arr))
		for i, s := range arr {
			out[i] = s
		}
		return out
	}
	return nil
}

func cloneDoc(d Doc) Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Doc:
		return map[string]interface{}(cloneDoc(t))
	case map[string]interface{}:
		return map[string]interface{}(cloneDoc(Doc(t)))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

// memBatch queues writes and applies them all-or-nothing under the store lock.
type memBatch struct {
	m   *Memory
	ops []memOp
}

type memOp struct {
	kind string // "set", "update", "delete"
	col  string
	id   string
	data Doc
	ups  []Update
}

func (b *memBatch) Set(col, id string, data Doc) {
	b.ops = append(b.ops, memOp{kind: "set", col: col, id: id, data: cloneDoc(data)})
}

func (b *memBatch) Update(col, id string, ups ...Update) {
	b.ops = append(b.ops, memOp{kind: "update", col: col, id: id, ups: ups})
}

func (b *memBatch) Delete(col, id string) {
	b.ops = append(b.ops, memOp{kind: "delete", col: col, id: id})
}

func (b *memBatch) Commit(ctx context.Context) error {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()

	// Validate before touching anything: an update against a missing
	// document fails the whole batch, matching the backend.
	for _, op := range b.ops {
		if op.kind == "update" {
			if _, ok := b.m.cols[op.col][op.id]; !ok {
				return fmt.Errorf("batch update %s/%s: %w", op.col, op.id, ErrNotFound)
			}
		}
	}

	for _, op := range b.ops {
		switch op.kind {
		case "set":
			b.m.putLocked(op.col, op.id, op.data)
		case "update":
			applyUpdates(b.m.cols[op.col][op.id], op.ups)
		case "delete":
			delete(b.m.cols[op.col], op.id)
		}
	}
	for _, op := range b.ops {
		b.m.notifyLocked(op.col, op.id)
	}
	return nil
}

// memSub delivers pushes to one listener in order on its own goroutine.
type memSub struct {
	col     string
	docID   string
	filter  *Filter
	docFn   func(Snapshot, bool)
	queryFn func([]Snapshot)

	qmu    sync.Mutex
	queue  []func()
	notify chan struct{}
	done   chan struct{}
}

func (s *memSub) enqueue(f func()) {
	s.qmu.Lock()
	s.queue = append(s.queue, f)
	s.qmu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *memSub) pump() {
	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
		}
		for {
			s.qmu.Lock()
			if len(s.queue) == 0 {
				s.qmu.Unlock()
				break
			}
			f := s.queue[0]
			s.queue = s.queue[1:]
			s.qmu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			f()
		}
	}
}
