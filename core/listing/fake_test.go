package listing

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trezcool/masomo-admin/core"
)

type row struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Tags   []string `json:"tags"`
}

func (r row) RecordID() string { return r.ID }

func (r row) Clone() row {
	r.Tags = append([]string(nil), r.Tags...)
	return r
}

func makeRows(n int, status string) []row {
	rows := make([]row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, row{ID: strconv.Itoa(i), Status: status})
	}
	return rows
}

// fakeSource is an in-memory data source recording its calls.
// gates block the calls of the matching op until closed.
type fakeSource struct {
	mu      sync.Mutex
	rows    []row
	calls   map[string]int
	queries []Query
	creates []row
	updates []row
	bulks   [][]string

	listErr error
	mutErr  error
	gates   map[string]chan struct{} // op or "list:<status>" -> gate
}

func newFakeSource(rows ...row) *fakeSource {
	return &fakeSource{rows: rows, calls: make(map[string]int), gates: make(map[string]chan struct{})}
}

func (s *fakeSource) gate(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[key] = ch
	return ch
}

// begin records a call of op and returns the first existing gate of gateKeys.
func (s *fakeSource) begin(op string, gateKeys ...string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	for _, k := range gateKeys {
		if g, ok := s.gates[k]; ok {
			return g
		}
	}
	return nil
}

func waitGate(ctx context.Context, ch <-chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *fakeSource) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *fakeSource) snapshot() []row {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]row, 0, len(s.rows))
	for _, r := range s.rows {
		rows = append(rows, r.Clone())
	}
	return rows
}

func (s *fakeSource) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return
		}
	}
}

func (s *fakeSource) List(ctx context.Context, q Query) (Result[row], error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	waitGate(ctx, s.begin("list", "list:"+q.Filters["status"].Eq, "list"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return Result[row]{}, s.listErr
	}
	var matched []row
	for _, r := range s.rows {
		if st := q.Filters["status"].Eq; st != "" && r.Status != st {
			continue
		}
		matched = append(matched, r.Clone())
	}
	if len(q.Ordering) > 0 && q.Ordering[0].Field == "id" {
		asc := q.Ordering[0].Ascending
		sort.SliceStable(matched, func(i, j int) bool {
			a, _ := strconv.Atoi(matched[i].ID)
			b, _ := strconv.Atoi(matched[j].ID)
			if asc {
				return a < b
			}
			return a > b
		})
	}
	res := Result[row]{Count: len(matched)}
	start := q.Offset()
	if start < len(matched) {
		end := start + q.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		res.Rows = matched[start:end]
	}
	return res, nil
}

func (s *fakeSource) Create(ctx context.Context, e row) (row, error) {
	s.mu.Lock()
	s.creates = append(s.creates, e.Clone())
	s.mu.Unlock()
	waitGate(ctx, s.begin("create", "create"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutErr != nil {
		return row{}, s.mutErr
	}
	e.ID = strconv.Itoa(len(s.rows) + 100)
	s.rows = append(s.rows, e)
	return e, nil
}

func (s *fakeSource) Update(ctx context.Context, id string, e row) (row, error) {
	s.mu.Lock()
	s.updates = append(s.updates, e.Clone())
	s.mu.Unlock()
	waitGate(ctx, s.begin("update", "update"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutErr != nil {
		return row{}, s.mutErr
	}
	for i, r := range s.rows {
		if r.ID == id {
			e.ID = id
			s.rows[i] = e
			return e, nil
		}
	}
	return row{}, core.ErrNotFound
}

func (s *fakeSource) Delete(ctx context.Context, id string) (bool, error) {
	waitGate(ctx, s.begin("delete", "delete"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutErr != nil {
		return false, s.mutErr
	}
	for i, r := range s.rows {
		if r.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSource) BulkUpdate(ctx context.Context, ids []string, patch Patch) (bool, error) {
	s.mu.Lock()
	s.bulks = append(s.bulks, ids)
	s.mu.Unlock()
	waitGate(ctx, s.begin("bulk", "bulk"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutErr != nil {
		return false, s.mutErr
	}
	var updated bool
	for i, r := range s.rows {
		for _, id := range ids {
			if r.ID == id {
				if st, ok := patch["status"].(string); ok {
					s.rows[i].Status = st
				}
				updated = true
			}
		}
	}
	return updated, nil
}

type countingInvalidator struct {
	n int32
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	atomic.AddInt32(&c.n, 1)
	return nil
}

func (c *countingInvalidator) count() int { return int(atomic.LoadInt32(&c.n)) }

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []error
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Failure(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, err)
}

type staticConfirmer struct {
	answer bool
	asked  int32
}

func (c *staticConfirmer) Confirm(context.Context, string) (bool, error) {
	atomic.AddInt32(&c.asked, 1)
	return c.answer, nil
}

// mapStore is a Store without expiry.
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStore() *mapStore { return &mapStore{data: make(map[string][]byte)} }

func (s *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *mapStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := strconv.ParseInt(string(s.data[key]), 10, 64)
	n++
	s.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

var errBackend = errors.New("backend unavailable")
