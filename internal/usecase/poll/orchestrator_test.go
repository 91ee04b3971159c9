package poll_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/usecase/poll"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

/*────────────────────  スタブ  ────────────────────*/

type stubChannels struct {
	mu      sync.Mutex
	data    []*entity.Channel
	listErr error
	updErr  map[int64]error
	updates []watermarkWrite
}

type watermarkWrite struct {
	ID int64
	At time.Time
}

func (s *stubChannels) Get(_ context.Context, id int64) (*entity.Channel, error) {
	for _, c := range s.data {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}
func (s *stubChannels) GetByExternalID(context.Context, string) (*entity.Channel, error) {
	return nil, nil
}
func (s *stubChannels) GetByHandle(context.Context, string) (*entity.Channel, error) {
	return nil, nil
}
func (s *stubChannels) List(context.Context) ([]*entity.Channel, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	// 呼び出し側が書き換えても元データに影響しないようコピー
	out := make([]*entity.Channel, 0, len(s.data))
	for _, c := range s.data {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}
func (s *stubChannels) ListByDestination(context.Context, int64) ([]*entity.Channel, error) {
	return nil, nil
}
func (s *stubChannels) CountByDestination(context.Context, int64) (int64, error) { return 0, nil }
func (s *stubChannels) Create(context.Context, *entity.Channel) error          { return nil }
func (s *stubChannels) Delete(context.Context, int64) error                    { return nil }
func (s *stubChannels) UpdateLastCheckedAt(_ context.Context, id int64, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updErr[id]; err != nil {
		return err
	}
	s.updates = append(s.updates, watermarkWrite{ID: id, At: t})
	for _, c := range s.data {
		if c.ID == id {
			c.LastCheckedAt = t
		}
	}
	return nil
}

func (s *stubChannels) watermark(id int64) time.Time {
	for _, c := range s.data {
		if c.ID == id {
			return c.LastCheckedAt
		}
	}
	return time.Time{}
}

type fakeProvider struct {
	items      map[string][]entity.Item
	batchErr   error
	singleErr  map[string]error
	omit       map[string]bool
	batchCalls int
	batchSince time.Time
	singleArgs map[string]time.Time
	quota      int64
}

func (f *fakeProvider) CheckNewBatch(_ context.Context, ids []string, since time.Time) (map[string][]entity.Item, error) {
	f.batchCalls++
	f.batchSince = since
	f.quota += int64(1 + len(ids))
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make(map[string][]entity.Item)
	for _, id := range ids {
		if f.omit[id] {
			continue
		}
		out[id] = entity.FilterNewerThan(f.items[id], since)
	}
	return out, nil
}

func (f *fakeProvider) CheckNewSingle(_ context.Context, id string, since time.Time) ([]entity.Item, error) {
	if f.singleArgs == nil {
		f.singleArgs = map[string]time.Time{}
	}
	f.singleArgs[id] = since
	f.quota += 2
	if err := f.singleErr[id]; err != nil {
		return nil, err
	}
	return entity.FilterNewerThan(f.items[id], since), nil
}

func (f *fakeProvider) QuotaUsed() int64 { return f.quota }

type fakeNotifier struct {
	mu        sync.Mutex
	delivered []string // videoID
	fail      map[string]bool
	onDeliver func()
}

func (f *fakeNotifier) Deliver(_ context.Context, _ *entity.Channel, item entity.Item) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, item.VideoID)
	if f.onDeliver != nil {
		f.onDeliver()
	}
	return !f.fail[item.VideoID]
}

/*────────────────────  ヘルパー  ────────────────────*/

var runStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time { return func() time.Time { return runStart } }

func item(id string, publishedAt time.Time) entity.Item {
	return entity.Item{VideoID: id, Title: id, URL: entity.WatchURL(id), PublishedAt: publishedAt}
}

func newOrchestrator(chs *stubChannels, p *fakeProvider, n *fakeNotifier, mode poll.Mode) *poll.Orchestrator {
	cfg := poll.DefaultConfig()
	cfg.Mode = mode
	return poll.NewOrchestrator(chs, p, n, cfg, poll.WithClock(fixedClock()))
}

/*────────────────────  テストケース  ────────────────────*/

/* 1. 新着なし: ウォーターマークは変わらない */
func TestRun_NoHitsLeavesWatermark(t *testing.T) {
	w := runStart.Add(-30 * time.Minute)
	chs := &stubChannels{data: []*entity.Channel{{ID: 1, ExternalID: "UC1", LastCheckedAt: w}}}
	p := &fakeProvider{items: map[string][]entity.Item{
		"UC1": {item("old", runStart.Add(-45*time.Minute))}, // inside lookback, before watermark
	}}
	n := &fakeNotifier{}

	stats, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, n.delivered)
	assert.Empty(t, chs.updates)
	assert.Equal(t, w, chs.watermark(1))
	assert.Equal(t, 0, stats.ChannelsWithHits)
}

/* 2. 新着あり: 実行開始時刻へ進む（アイテム時刻ではない） */
func TestRun_HitsAdvanceWatermarkToRunStart(t *testing.T) {
	w := runStart.Add(-30 * time.Minute)
	chs := &stubChannels{data: []*entity.Channel{{ID: 1, ExternalID: "UC1", LastCheckedAt: w}}}
	p := &fakeProvider{items: map[string][]entity.Item{
		"UC1": {item("b", runStart.Add(-5*time.Minute)), item("a", runStart.Add(-10*time.Minute))},
	}}
	n := &fakeNotifier{}

	stats, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(context.Background())
	require.NoError(t, err)

	// oldest first
	assert.Equal(t, []string{"a", "b"}, n.delivered)
	assert.Equal(t, []watermarkWrite{{ID: 1, At: runStart}}, chs.updates)
	assert.Equal(t, runStart.Add(-time.Hour), p.batchSince)

	want := &poll.RunStats{
		RunID:            stats.RunID,
		StartedAt:        runStart,
		Channels:         1,
		ChannelsWithHits: 1,
		NewItems:         2,
		Notified:         2,
		QuotaUsed:        2,
		Status:           poll.StatusSuccess,
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

/* 3. 同じ応答で2回目: 通知なし */
func TestRun_SecondRunIsIdempotent(t *testing.T) {
	chs := &stubChannels{data: []*entity.Channel{{ID: 1, ExternalID: "UC1", LastCheckedAt: runStart.Add(-time.Hour)}}}
	p := &fakeProvider{items: map[string][]entity.Item{"UC1": {item("a", runStart.Add(-time.Minute))}}}
	n := &fakeNotifier{}

	orch := newOrchestrator(chs, p, n, poll.ModeBatch)
	_, err := orch.Run(context.Background())
	require.NoError(t, err)
	_, err = orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, n.delivered)
	assert.Len(t, chs.updates, 1)
}

/* 4. 境界: 公開時刻 == ウォーターマーク は新着ではない */
func TestRun_StrictlyGreaterThanWatermark(t *testing.T) {
	w := runStart.Add(-20 * time.Minute)
	chs := &stubChannels{data: []*entity.Channel{{ID: 1, ExternalID: "UC1", LastCheckedAt: w}}}
	p := &fakeProvider{items: map[string][]entity.Item{
		"UC1": {item("i1", w), item("i2", w.Add(time.Second))},
	}}
	n := &fakeNotifier{}

	_, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"i2"}, n.delivered)
	assert.Equal(t, runStart, chs.watermark(1))
}

/* 5. バッチ全体の失敗: ウォーターマークに触れず中断 */
func TestRun_BatchFailureAbortsWithoutWatermarkWrites(t *testing.T) {
	chs := &stubChannels{data: []*entity.Channel{
		{ID: 1, ExternalID: "UC1", LastCheckedAt: runStart.Add(-time.Hour)},
		{ID: 2, ExternalID: "UC2", LastCheckedAt: runStart.Add(-time.Hour)},
	}}
	p := &fakeProvider{batchErr: errors.New("quotaExceeded")}
	n := &fakeNotifier{}

	stats, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(context.Background())
	require.ErrorIs(t, err, poll.ErrBatchFailed)
	require.NotNil(t, stats)

	assert.Empty(t, n.delivered)
	assert.Empty(t, chs.updates)
}

/* 6. 1チャンネルの失敗は他に影響しない（バッチ: 欠落、単発: エラー） */
func TestRun_FailureIsolation(t *testing.T) {
	newState := func() (*stubChannels, *fakeProvider) {
		chs := &stubChannels{data: []*entity.Channel{
			{ID: 1, ExternalID: "UC1", LastCheckedAt: runStart.Add(-time.Hour)},
			{ID: 2, ExternalID: "UC2", LastCheckedAt: runStart.Add(-time.Hour)},
		}}
		p := &fakeProvider{items: map[string][]entity.Item{
			"UC1": {item("x", runStart.Add(-time.Minute))},
			"UC2": {item("y", runStart.Add(-time.Minute))},
		}}
		return chs, p
	}

	t.Run("batch omits failing channel", func(t *testing.T) {
		chs, p := newState()
		p.omit = map[string]bool{"UC1": true}
		n := &fakeNotifier{}

		stats, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{"y"}, n.delivered)
		assert.Equal(t, []watermarkWrite{{ID: 2, At: runStart}}, chs.updates)
		assert.Equal(t, 1, stats.ChannelErrors)
	})

	t.Run("single mode provider error", func(t *testing.T) {
		chs, p := newState()
		p.singleErr = map[string]error{"UC1": errors.New("boom")}
		n := &fakeNotifier{}

		stats, err := newOrchestrator(chs, p, n, poll.ModeSingle).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{"y"}, n.delivered)
		assert.Equal(t, []watermarkWrite{{ID: 2, At: runStart}}, chs.updates)
		assert.Equal(t, 1, stats.ChannelErrors)
	})

	t.Run("watermark write failure", func(t *testing.T) {
		chs, p := newState()
		chs.updErr = map[int64]error{1: errors.New("db down")}
		n := &fakeNotifier{}

		stats, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(context.Background())
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"x", "y"}, n.delivered)
		assert.Equal(t, []watermarkWrite{{ID: 2, At: runStart}}, chs.updates)
		assert.Equal(t, 1, stats.ChannelErrors)
	})
}

/* 7. 通知失敗: 後続アイテムもウォーターマーク更新も止めない */
func TestRun_DeliveryFailureDoesNotBlock(t *testing.T) {
	chs := &stubChannels{data: []*entity.Channel{{ID: 1, ExternalID: "UC1", LastCheckedAt: runStart.Add(-time.Hour)}}}
	p := &fakeProvider{items: map[string][]entity.Item{
		"UC1": {item("a", runStart.Add(-3*time.Minute)), item("b", runStart.Add(-2*time.Minute))},
	}}
	n := &fakeNotifier{fail: map[string]bool{"a": true}}

	stats, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, n.delivered)
	assert.Equal(t, 2, stats.NewItems)
	assert.Equal(t, 1, stats.Notified)
	assert.Equal(t, runStart, chs.watermark(1))
}

/* 8. 単発モード: 各チャンネル自身のウォーターマークで問い合わせ */
func TestRun_SingleModeUsesOwnWatermark(t *testing.T) {
	w1 := runStart.Add(-3 * time.Hour)
	w2 := runStart.Add(-10 * time.Minute)
	chs := &stubChannels{data: []*entity.Channel{
		{ID: 1, ExternalID: "UC1", LastCheckedAt: w1},
		{ID: 2, ExternalID: "UC2", LastCheckedAt: w2},
	}}
	p := &fakeProvider{items: map[string][]entity.Item{
		"UC1": {item("older-than-lookback", runStart.Add(-2*time.Hour))},
		"UC2": {item("before-w2", runStart.Add(-20*time.Minute))},
	}}
	n := &fakeNotifier{}

	_, err := newOrchestrator(chs, p, n, poll.ModeSingle).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]time.Time{"UC1": w1, "UC2": w2}, p.singleArgs)
	assert.Equal(t, []string{"older-than-lookback"}, n.delivered)
	assert.Equal(t, 0, p.batchCalls)
}

/* 9. チャンネルなし: プロバイダーを呼ばない */
func TestRun_NoChannelsIsNoop(t *testing.T) {
	chs := &stubChannels{}
	p := &fakeProvider{quota: 7}
	n := &fakeNotifier{}

	stats, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, p.batchCalls)
	assert.Equal(t, int64(7), stats.QuotaUsed)
}

/* 10. チャンネル一覧の失敗 */
func TestRun_ListFailure(t *testing.T) {
	chs := &stubChannels{listErr: errors.New("connection refused")}
	p := &fakeProvider{}

	_, err := newOrchestrator(chs, p, &fakeNotifier{}, poll.ModeBatch).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, p.batchCalls)
}

/* 11. キャンセル済み: 通知もウォーターマーク更新もしない */
func TestRun_CanceledContextSkipsChannels(t *testing.T) {
	chs := &stubChannels{data: []*entity.Channel{{ID: 1, ExternalID: "UC1", LastCheckedAt: runStart.Add(-time.Hour)}}}
	p := &fakeProvider{items: map[string][]entity.Item{"UC1": {item("a", runStart.Add(-time.Minute))}}}
	n := &fakeNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, n.delivered)
	assert.Empty(t, chs.updates)
	assert.Equal(t, poll.StatusInterrupted, stats.Status)
}

/* 11b. 実行中の停止: 残りのチャンネルは次回へ、成功扱いにしない */
func TestRun_StopMidRunIsInterrupted(t *testing.T) {
	chs := &stubChannels{data: []*entity.Channel{
		{ID: 1, ExternalID: "UC1", LastCheckedAt: runStart.Add(-time.Hour)},
		{ID: 2, ExternalID: "UC2", LastCheckedAt: runStart.Add(-time.Hour)},
	}}
	p := &fakeProvider{items: map[string][]entity.Item{
		"UC1": {item("a", runStart.Add(-time.Minute))},
		"UC2": {item("b", runStart.Add(-time.Minute))},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := &fakeNotifier{onDeliver: cancel}

	stats, err := newOrchestrator(chs, p, n, poll.ModeBatch).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, poll.StatusInterrupted, stats.Status)
	assert.Equal(t, []string{"a"}, n.delivered)
	assert.Equal(t, runStart.Add(-time.Hour), chs.watermark(2))
}

func TestRun_CompletedRunReportsStatus(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		stats, err := newOrchestrator(&stubChannels{}, &fakeProvider{}, &fakeNotifier{}, poll.ModeBatch).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, poll.StatusEmpty, stats.Status)
	})

	t.Run("aborted", func(t *testing.T) {
		chs := &stubChannels{data: []*entity.Channel{{ID: 1, ExternalID: "UC1"}}}
		p := &fakeProvider{batchErr: errors.New("quota exceeded")}
		stats, err := newOrchestrator(chs, p, &fakeNotifier{}, poll.ModeBatch).Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, poll.StatusAborted, stats.Status)
	})
}

/* 12. トレース: 1回の実行で1スパン */
func TestRun_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	chs := &stubChannels{data: []*entity.Channel{{ID: 1, ExternalID: "UC1", LastCheckedAt: runStart.Add(-time.Hour)}}}
	p := &fakeProvider{items: map[string][]entity.Item{"UC1": {item("a", runStart.Add(-time.Minute))}}}

	orch := poll.NewOrchestrator(chs, p, &fakeNotifier{}, poll.DefaultConfig(),
		poll.WithClock(fixedClock()), poll.WithTracer(tp.Tracer("test")))
	_, err := orch.Run(context.Background())
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "poll.run", spans[0].Name)

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "batch", attrs["poll.mode"])
	assert.Equal(t, int64(1), attrs["poll.new_items"])
}
