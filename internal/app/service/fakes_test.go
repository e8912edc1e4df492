package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/model"
)

// newTxDB returns a sqlmock-backed pool. Services only use it to open transactions;
// the fakes below hold the data.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func expectCommits(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeContestRepo struct {
	state  *model.ContestState
	writes int
	err    error
}

func (r *fakeContestRepo) snapshot() *model.ContestState {
	if r.state == nil {
		return nil
	}
	cp := *r.state
	return &cp
}

func (r *fakeContestRepo) Get(ctx context.Context, tx *sql.Tx) (*model.ContestState, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.state == nil {
		return nil, fmt.Errorf("contest state: %w", common.ErrNotFound)
	}
	return r.snapshot(), nil
}

func (r *fakeContestRepo) Save(ctx context.Context, tx *sql.Tx, s *model.ContestState) error {
	if r.err != nil {
		return r.err
	}
	r.writes++
	cp := *s
	r.state = &cp
	return nil
}

func (r *fakeContestRepo) SetVisibility(ctx context.Context, tx *sql.Tx, visible bool, at time.Time) error {
	r.writes++
	if r.state == nil {
		r.state = &model.ContestState{ID: model.ContestStateID, Status: model.ContestPending}
	}
	r.state.IsVisible = visible
	r.state.UpdatedAt = at
	return nil
}

func (r *fakeContestRepo) MarkStopped(ctx context.Context, tx *sql.Tx, at time.Time) error {
	r.writes++
	if r.state == nil {
		r.state = &model.ContestState{ID: model.ContestStateID}
	}
	r.state.Status = model.ContestEnded
	end := at
	r.state.EndTime = &end
	r.state.UpdatedAt = at
	return nil
}

func (r *fakeContestRepo) UpdateStatus(ctx context.Context, tx *sql.Tx, status model.ContestStatus, at time.Time) (time.Time, error) {
	r.writes++
	r.state.Status = status
	r.state.UpdatedAt = at
	return at, nil
}

func (r *fakeContestRepo) ExtendEnd(ctx context.Context, tx *sql.Tx, end time.Time, total int, at time.Time) error {
	r.writes++
	r.state.EndTime = &end
	r.state.TotalDurationMinutes = total
	r.state.UpdatedAt = at
	return nil
}

func (r *fakeContestRepo) MoveStart(ctx context.Context, tx *sql.Tx, start time.Time, at time.Time) error {
	r.writes++
	r.state.StartTime = &start
	r.state.UpdatedAt = at
	return nil
}

// fakeProblemRepo keeps problems in memory and records call order.
type fakeProblemRepo struct {
	mu       sync.Mutex
	problems map[string]model.Problem
	calls    []string
	loads    int
	failOn   string
	loadGate chan struct{}
	// loadStarted, when set, receives once a ListSummaries call is waiting on loadGate.
	loadStarted chan struct{}
}

func newFakeProblemRepo() *fakeProblemRepo {
	return &fakeProblemRepo{problems: map[string]model.Problem{}}
}

func (r *fakeProblemRepo) record(call string) error {
	r.calls = append(r.calls, call)
	if r.failOn == call {
		return fmt.Errorf("%s: %w", call, common.ErrDependency)
	}
	return nil
}

func (r *fakeProblemRepo) ListSummaries(ctx context.Context) ([]model.ProblemSummary, error) {
	if r.loadGate != nil {
		if r.loadStarted != nil {
			select {
			case r.loadStarted <- struct{}{}:
			default:
			}
		}
		select {
		case <-r.loadGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if err := r.record("ListSummaries"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(r.problems))
	for id := range r.problems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := []model.ProblemSummary{}
	for _, id := range ids {
		p := r.problems[id]
		out = append(out, model.ProblemSummary{ID: p.ID, Title: p.Title, Origin: p.Origin, TimeLimit: p.TimeLimit, MemoryLimit: p.MemoryLimit})
	}
	return out, nil
}

func (r *fakeProblemRepo) FindWithSamples(ctx context.Context, id string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if err := r.record("FindWithSamples"); err != nil {
		return nil, err
	}
	p, ok := r.problems[id]
	if !ok {
		return nil, fmt.Errorf("problem %s: %w", id, common.ErrNotFound)
	}
	p.Samples = append([]model.Sample{}, p.Samples...)
	return &p, nil
}

func (r *fakeProblemRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("Count"); err != nil {
		return 0, err
	}
	return len(r.problems), nil
}

func (r *fakeProblemRepo) Upsert(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("Upsert"); err != nil {
		return err
	}
	existing := r.problems[p.ID]
	cp := *p
	cp.Samples = existing.Samples
	r.problems[p.ID] = cp
	return nil
}

func (r *fakeProblemRepo) Update(ctx context.Context, tx *sql.Tx, p *model.Problem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("Update"); err != nil {
		return 0, err
	}
	existing, ok := r.problems[p.ID]
	if !ok {
		return 0, nil
	}
	cp := *p
	cp.Samples = existing.Samples
	r.problems[p.ID] = cp
	return 1, nil
}

func (r *fakeProblemRepo) Delete(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("Delete"); err != nil {
		return 0, err
	}
	if _, ok := r.problems[id]; !ok {
		return 0, nil
	}
	delete(r.problems, id)
	return 1, nil
}

func (r *fakeProblemRepo) AddSamplesToProblem(ctx context.Context, tx *sql.Tx, id string, samples []model.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("AddSamplesToProblem"); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	p, ok := r.problems[id]
	if !ok {
		return fmt.Errorf("insert samples for %s: foreign key violation: %w", id, common.ErrDependency)
	}
	p.Samples = append(p.Samples, samples...)
	r.problems[id] = p
	return nil
}

func (r *fakeProblemRepo) DeleteSamplesByProblemID(ctx context.Context, tx *sql.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("DeleteSamplesByProblemID"); err != nil {
		return err
	}
	if p, ok := r.problems[id]; ok {
		p.Samples = nil
		r.problems[id] = p
	}
	return nil
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
