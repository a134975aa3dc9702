package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spendlens/internal/amqp"
	"spendlens/internal/analytics"
	"spendlens/internal/cache"
	"spendlens/internal/core"
	"spendlens/internal/records"
	"spendlens/internal/records/memory"
	"spendlens/internal/report"
)

func sampleRecords() []core.Record {
	return []core.Record{
		{Date: "2026-01-05", Category: "Food", Amount: "100"},
		{Date: "2026-01-20", Category: "Rent", Amount: "900"},
		{Date: "2026-02-03", Category: "Food", Amount: "150"},
		{Date: "2026-02-18", Category: "Rent", Amount: "900"},
		{Date: "2026-03-09", Category: "Food", Amount: "200"},
		{Date: "2026-03-21", Category: "Rent", Amount: "900"},
		{Date: "bad", Category: "Food", Amount: "5"},
	}
}

type fixture struct {
	store    *memory.Store
	analysis *AnalysisService
	records  *RecordService
}

func newFixture(t *testing.T, withCache bool) fixture {
	t.Helper()
	store := memory.NewWithRecords(map[string][]core.Record{"alice": sampleRecords()})
	var loader *cache.Loader[*analytics.Result]
	if withCache {
		loader = cache.NewLoader[*analytics.Result](cache.NewLRUCache[*analytics.Result](16, time.Minute))
	}
	analysis := NewAnalysisService(store, loader, analytics.DefaultConfig(), nil)
	return fixture{
		store:    store,
		analysis: analysis,
		records:  NewRecordService(store, analysis, nil),
	}
}

func TestAnalysisService_Analyze(t *testing.T) {
	f := newFixture(t, false)

	res, err := f.analysis.Analyze(context.Background(), "alice", AnalysisOptions{})
	require.NoError(t, err)

	assert.Len(t, res.Transactions, 6)
	assert.Len(t, res.Dropped, 1)
	assert.Equal(t, analytics.StatusComplete, res.Status())
	require.NotNil(t, res.SpendingTypes)
	assert.Equal(t, 3, res.SpendingTypes.EffectiveK)
	require.NotNil(t, res.Forecast)
	assert.Equal(t, "1150", core.RoundAmount(res.Forecast.Predicted).String())
}

func TestAnalysisService_EmptyOwner(t *testing.T) {
	f := newFixture(t, false)

	res, err := f.analysis.Analyze(context.Background(), "nobody", AnalysisOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
	assert.Equal(t, analytics.StatusReduced, res.Status())
	assert.ErrorIs(t, res.ClusteringErr, analytics.ErrClusteringSkipped)
	assert.ErrorIs(t, res.ForecastErr, analytics.ErrInsufficientData)
}

func TestAnalysisService_Options(t *testing.T) {
	f := newFixture(t, false)
	seed := int64(7)

	cfg, err := f.analysis.Config(AnalysisOptions{Clusters: 4, Seed: &seed, Indexing: analytics.IndexCalendar})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Clusters.Count)
	assert.Equal(t, int64(7), cfg.Clusters.Seed)
	assert.Equal(t, analytics.IndexCalendar, cfg.Indexing)

	for _, opts := range []AnalysisOptions{{Clusters: 1}, {Clusters: 7}, {Indexing: "weekly"}} {
		_, err := f.analysis.Analyze(context.Background(), "alice", opts)
		var oe *OptionsError
		assert.ErrorAs(t, err, &oe, "options %+v", opts)
	}
}

func TestAnalysisService_CacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	first, err := f.analysis.Analyze(ctx, "alice", AnalysisOptions{})
	require.NoError(t, err)
	again, err := f.analysis.Analyze(ctx, "alice", AnalysisOptions{})
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = f.records.Add(ctx, "alice", core.Record{Date: "2026-04-02", Category: "Food", Amount: "50"})
	require.NoError(t, err)

	fresh, err := f.analysis.Analyze(ctx, "alice", AnalysisOptions{})
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Len(t, fresh.Transactions, 7)
}

func TestRecordService_Add(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	tests := []struct {
		name    string
		record  core.Record
		wantErr error
	}{
		{"valid", core.Record{Date: " 2026-04-01 ", Category: "Food", Amount: "12,50"}, nil},
		{"bad date", core.Record{Date: "yesterday", Category: "Food", Amount: "1"}, core.ErrInvalidDate},
		{"zero amount", core.Record{Date: "2026-04-01", Category: "Food", Amount: "0"}, core.ErrInvalidAmount},
		{"empty category", core.Record{Date: "2026-04-01", Category: "  ", Amount: "3"}, core.ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.records.Add(ctx, "bob", tt.record)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "2026-04-01", got.Date)
				assert.Equal(t, "bob", got.Owner)
				assert.NotZero(t, got.ID)
				assert.False(t, got.CreatedAt.IsZero())
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	rs, err := f.records.List(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, rs, 1)
}

func TestRecordService_ImportCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	n, err := f.records.ImportCSV(ctx, "carol", strings.NewReader("Date,Category,Amount,Description\n2026-01-01,Food,10,lunch\n2026-01-02,Food,oops,\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.records.ImportCSV(ctx, "carol", strings.NewReader("Date,Amount\n2026-01-01,10\n"))
	var se *analytics.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{core.ColumnCategory}, se.Missing)

	_, err = f.records.ImportCSV(ctx, "carol", strings.NewReader(""))
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Empty)

	cleared, err := f.records.Clear(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)
}

type stubSheet struct {
	table core.RawTable
	err   error
	rng   string
}

func (s *stubSheet) ReadTable(_ context.Context, rng string) (core.RawTable, error) {
	s.rng = rng
	return s.table, s.err
}

func TestRecordService_ImportSheet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	src := &stubSheet{table: core.RawTable{
		Columns: []string{"Date", "Category", "Amount"},
		Rows:    [][]string{{"2026-05-01", "Travel", "300"}},
	}}

	n, err := f.records.ImportSheet(ctx, "dave", src, "Expenses!A:D")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Expenses!A:D", src.rng)

	_, err = f.records.ImportSheet(ctx, "dave", &stubSheet{err: errors.New("quota")}, "A:C")
	assert.ErrorContains(t, err, "read sheet")
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func TestReportService_Queue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	t.Run("without broker", func(t *testing.T) {
		svc := NewReportService(f.analysis, f.store, nil, nil)
		assert.False(t, svc.QueueEnabled())
		assert.ErrorIs(t, svc.Queue(ctx, "alice", report.FormatPDF, AnalysisOptions{}), ErrQueueUnavailable)
	})

	t.Run("publishes request", func(t *testing.T) {
		pub := &mockPublisher{}
		pub.On("PublishReportRequest", mock.Anything, mock.MatchedBy(func(m *amqp.ReportRequestMessage) bool {
			return m.Owner == "alice" && m.Format == "xlsx" && m.Clusters == 4 && m.Seed == 42
		})).Return(nil).Once()

		svc := NewReportService(f.analysis, f.store, pub, nil)
		require.NoError(t, svc.Queue(ctx, "alice", report.FormatXLSX, AnalysisOptions{Clusters: 4}))
		pub.AssertExpectations(t)
	})

	t.Run("rejects bad options before publishing", func(t *testing.T) {
		pub := &mockPublisher{}
		svc := NewReportService(f.analysis, f.store, pub, nil)
		var oe *OptionsError
		assert.ErrorAs(t, svc.Queue(ctx, "alice", report.FormatPDF, AnalysisOptions{Clusters: 9}), &oe)
		pub.AssertNotCalled(t, "PublishReportRequest", mock.Anything, mock.Anything)
	})

	t.Run("publish failure", func(t *testing.T) {
		pub := &mockPublisher{}
		pub.On("PublishReportRequest", mock.Anything, mock.Anything).Return(errors.New("broker down"))
		svc := NewReportService(f.analysis, f.store, pub, nil)
		assert.ErrorContains(t, svc.Queue(ctx, "alice", report.FormatPDF, AnalysisOptions{}), "broker down")
	})
}

func TestReportService_GenerateAndDownload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	svc := NewReportService(f.analysis, f.store, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC) }

	direct, err := svc.Render(ctx, "alice", report.FormatCSV, AnalysisOptions{})
	require.NoError(t, err)
	assert.Equal(t, "expenses_report_20260401.csv", direct.Filename)
	assert.Equal(t, "text/csv", direct.ContentType)

	stored, err := svc.Generate(ctx, "alice", report.FormatCSV, AnalysisOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(len(direct.Data)), stored.Size)

	list, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Data)

	got, err := svc.Download(ctx, "alice", stored.ID)
	require.NoError(t, err)
	assert.Equal(t, direct.Data, got.Data)

	_, err = svc.Download(ctx, "bob", stored.ID)
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestResultKey_SeparatorBytesInCells(t *testing.T) {
	cfg := analytics.DefaultConfig()
	a := []core.Record{{ID: 1, Date: "2026-01-05", Category: "Food\x1f2026", Amount: "10", Description: ""}}
	b := []core.Record{{ID: 1, Date: "2026-01-05", Category: "Food", Amount: "2026\x1f10", Description: ""}}
	c := []core.Record{
		{ID: 1, Date: "2026-01-05", Category: "Food", Amount: "10", Description: "x\x1e"},
		{ID: 2, Date: "2026-01-06", Category: "Rent", Amount: "5"},
	}
	d := []core.Record{
		{ID: 1, Date: "2026-01-05", Category: "Food", Amount: "10", Description: "x"},
		{ID: 2, Date: "\x1e2026-01-06", Category: "Rent", Amount: "5"},
	}

	assert.NotEqual(t, resultKey("alice", cfg, a), resultKey("alice", cfg, b))
	assert.NotEqual(t, resultKey("alice", cfg, c), resultKey("alice", cfg, d))
	assert.Equal(t, resultKey("alice", cfg, a), resultKey("alice", cfg, a))
	assert.True(t, strings.HasPrefix(resultKey("alice", cfg, a), ownerPrefix("alice")))
}
