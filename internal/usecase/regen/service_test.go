package regen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/itemsearch/internal/domain"
	"github.com/kailas-cloud/itemsearch/internal/domain/batch"
	"github.com/kailas-cloud/itemsearch/internal/domain/item"
	"github.com/kailas-cloud/itemsearch/internal/usecase/embedding"
)

// --- Mocks ---

type mockCatalog struct {
	items []item.Item
	err   error
}

func (m *mockCatalog) ListEligible(_ context.Context) ([]item.Item, error) {
	return m.items, m.err
}

type mockEmbedder struct {
	mu       sync.Mutex
	events   []string
	fail     map[string]error
	delay    time.Duration
	inflight atomic.Int32
	maxSeen  atomic.Int32
}

func (m *mockEmbedder) EmbedItem(ctx context.Context, it *item.Item) error {
	n := m.inflight.Add(1)
	for {
		cur := m.maxSeen.Load()
		if n <= cur || m.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	m.record("start:" + it.ID())
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.inflight.Add(-1)
	m.record("end:" + it.ID())

	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := m.fail[it.ID()]; ok {
		return err
	}
	return nil
}

func (m *mockEmbedder) record(e string) {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
}

type fakeSleeper struct {
	mu     sync.Mutex
	calls  []time.Duration
	onCall func()
	err    error
	emb    *mockEmbedder
}

func (f *fakeSleeper) sleep(_ context.Context, d time.Duration) error {
	f.mu.Lock()
	f.calls = append(f.calls, d)
	f.mu.Unlock()
	if f.emb != nil {
		f.emb.record("sleep")
	}
	if f.onCall != nil {
		f.onCall()
	}
	return f.err
}

// --- Helpers ---

func makeItems(t *testing.T, n int) []item.Item {
	t.Helper()
	items := make([]item.Item, n)
	for i := range items {
		it, err := item.New(strconv.Itoa(i+1), fmt.Sprintf("Item %d", i+1), "", "", "")
		if err != nil {
			t.Fatalf("item.New: %v", err)
		}
		items[i] = it
	}
	return items
}

func newTestService(t *testing.T, items []item.Item, emb *mockEmbedder) (*Service, *fakeSleeper) {
	t.Helper()
	sl := &fakeSleeper{emb: emb}
	svc := New(&mockCatalog{items: items}, emb)
	svc.sleep = sl.sleep
	svc.newRunID = func() string { return "run-1" }
	return svc, sl
}

// --- Tests ---

func TestRun_SevenItemsTwoBatches(t *testing.T) {
	emb := &mockEmbedder{}
	svc, sl := newTestService(t, makeItems(t, 7), emb)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Total != 7 || report.Processed() != 7 || report.Failed() != 0 {
		t.Errorf("unexpected report: total=%d processed=%d failed=%d", report.Total, report.Processed(), report.Failed())
	}
	if report.RunID != "run-1" {
		t.Errorf("expected run id run-1, got %q", report.RunID)
	}
	if report.Message() != batch.MessageCompleted {
		t.Errorf("unexpected message %q", report.Message())
	}
	if len(sl.calls) != 1 || sl.calls[0] != time.Second {
		t.Errorf("expected exactly one 1s pause between batches, got %v", sl.calls)
	}
}

func TestRun_PauseOnlyBetweenBatches(t *testing.T) {
	emb := &mockEmbedder{}
	svc, sl := newTestService(t, makeItems(t, 10), emb)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sl.calls) != 1 {
		t.Errorf("expected 1 pause for 2 full batches, got %d", len(sl.calls))
	}
}

func TestRun_BatchBarrier(t *testing.T) {
	emb := &mockEmbedder{delay: 5 * time.Millisecond}
	svc, _ := newTestService(t, makeItems(t, 7), emb)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sleepAt := -1
	for i, e := range emb.events {
		if e == "sleep" {
			sleepAt = i
		}
	}
	if sleepAt < 0 {
		t.Fatal("pause not recorded")
	}
	ends := 0
	for _, e := range emb.events[:sleepAt] {
		if len(e) > 4 && e[:4] == "end:" {
			ends++
		}
	}
	if ends != 5 {
		t.Errorf("expected the whole first batch to finish before the pause, got %d completions", ends)
	}
	for _, e := range emb.events[sleepAt+1:] {
		if e == "start:1" || e == "start:5" {
			t.Errorf("first-batch item started after the pause: %s", e)
		}
	}
}

func TestRun_ConcurrentWithinBatch(t *testing.T) {
	emb := &mockEmbedder{delay: 30 * time.Millisecond}
	svc, _ := newTestService(t, makeItems(t, 7), emb)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := emb.maxSeen.Load(); got != DefaultBatchSize {
		t.Errorf("expected %d items in flight, saw %d", DefaultBatchSize, got)
	}
}

func TestRun_BatchIsolation(t *testing.T) {
	emb := &mockEmbedder{fail: map[string]error{"3": errors.New("rate limited")}}
	svc, _ := newTestService(t, makeItems(t, 7), emb)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Processed() != 6 || report.Failed() != 1 {
		t.Fatalf("expected 6 ok / 1 failed, got %d / %d", report.Processed(), report.Failed())
	}
	if report.Errors[0] != "Item 3: rate limited" {
		t.Errorf("unexpected error line %q", report.Errors[0])
	}
	if report.Processed()+report.Failed() != report.Total {
		t.Error("every item must be accounted for exactly once")
	}
}

type textEmbedder struct {
	failOn map[string]error
}

func (e *textEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if err, ok := e.failOn[text]; ok {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}, TotalTokens: 1}, nil
}

type recordingWriter struct {
	mu      sync.Mutex
	written map[string][]float32
}

func (w *recordingWriter) WriteEmbedding(_ context.Context, itemID string, vector []float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written == nil {
		w.written = make(map[string][]float32)
	}
	w.written[itemID] = vector
	return nil
}

func TestRun_BatchIsolation_WritesSiblings(t *testing.T) {
	items := makeItems(t, 2)
	a, b := items[0], items[1]
	writer := &recordingWriter{}
	embedder := embedding.NewItemEmbedder(&textEmbedder{
		failOn: map[string]error{b.EmbeddingText(): fmt.Errorf("%w: upstream 500", domain.ErrEmbeddingProviderError)},
	}, writer)

	svc := New(&mockCatalog{items: items}, embedder)
	svc.sleep = func(context.Context, time.Duration) error { return nil }

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Processed() != 1 || report.Failed() != 1 {
		t.Fatalf("expected 1 ok / 1 failed, got %d / %d", report.Processed(), report.Failed())
	}
	if len(report.Succeeded) != 1 || report.Succeeded[0] != a.ID() {
		t.Errorf("succeeded = %v, want [%s]", report.Succeeded, a.ID())
	}
	if got := writer.written[a.ID()]; len(got) != 2 || got[0] != float32(len(a.EmbeddingText())) {
		t.Errorf("item %s vector = %v, want it written", a.ID(), got)
	}
	if _, ok := writer.written[b.ID()]; ok {
		t.Errorf("item %s must not be written after its embed failed", b.ID())
	}
}

func TestRun_EmptyCatalog(t *testing.T) {
	emb := &mockEmbedder{}
	svc, sl := newTestService(t, nil, emb)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Total != 0 || report.Processed() != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	if report.Message() != batch.MessageEmpty {
		t.Errorf("unexpected message %q", report.Message())
	}
	if len(emb.events) != 0 || len(sl.calls) != 0 {
		t.Error("no embedding or pause expected for an empty catalog")
	}
}

func TestRun_FetchFailure(t *testing.T) {
	svc := New(&mockCatalog{err: fmt.Errorf("list items: %w", domain.ErrDatabase)}, &mockEmbedder{})

	_, err := svc.Run(context.Background())
	if !errors.Is(err, domain.ErrDatabase) {
		t.Fatalf("expected ErrDatabase, got %v", err)
	}
}

func TestRun_CancelledDuringPause(t *testing.T) {
	emb := &mockEmbedder{}
	svc, sl := newTestService(t, makeItems(t, 12), emb)
	sl.err = context.Canceled

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Processed() != 5 || report.Failed() != 7 {
		t.Fatalf("expected 5 ok / 7 failed, got %d / %d", report.Processed(), report.Failed())
	}
	if report.Errors[0] != "Item 6: "+context.Canceled.Error() {
		t.Errorf("unexpected error line %q", report.Errors[0])
	}
}

func TestRun_Idempotent(t *testing.T) {
	items := makeItems(t, 6)
	emb := &mockEmbedder{}
	svc, _ := newTestService(t, items, emb)

	first, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Processed() != second.Processed() || first.Total != second.Total {
		t.Errorf("runs diverged: %+v vs %+v", first, second)
	}
}

func TestRun_CustomBatchSize(t *testing.T) {
	emb := &mockEmbedder{}
	svc, sl := newTestService(t, makeItems(t, 7), emb)
	svc.WithBatchSize(2).WithPacingDelay(250 * time.Millisecond)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sl.calls) != 3 {
		t.Fatalf("expected 3 pauses for 4 batches, got %d", len(sl.calls))
	}
	if sl.calls[0] != 250*time.Millisecond {
		t.Errorf("unexpected delay %v", sl.calls[0])
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
