package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baylab/nitrogen-dashboard/internal/adapter/cache"
	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"github.com/baylab/nitrogen-dashboard/internal/observability"
	"github.com/baylab/nitrogen-dashboard/internal/pipeline"
)

// --- mocks ---

type mockLoader struct {
	calls   atomic.Int64
	failFor map[domain.ScenarioID]error
	started chan struct{}
	release chan struct{}
}

func (m *mockLoader) Load(_ context.Context, id domain.ScenarioID) (*domain.ScenarioTables, error) {
	m.calls.Add(1)
	if m.started != nil {
		m.started <- struct{}{}
		<-m.release
	}
	if err := m.failFor[id]; err != nil {
		return nil, err
	}
	return &domain.ScenarioTables{
		Scenario: domain.Scenario{ID: id, Label: string(id), Dir: string(id)},
		CropStage: []domain.CropStageRecord{
			{FIPS: "51001", County: "Accomack", Commodity: "corn", Losses: [domain.CropLossCount]float64{1_000_000, 500_000}},
		},
	}, nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.ScenarioID
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, d *domain.Dashboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, d.Scenario.ID)
	return nil
}

func newPresenter(loader pipeline.ScenarioLoader, opts ...pipeline.Option) (*pipeline.Presenter, *observability.Metrics) {
	// Use a fresh registry to avoid "already registered" panics in tests.
	metrics := observability.NewMetricsForTesting()
	return pipeline.NewPresenter(domain.DefaultRegistry(), loader, zap.NewNop(), metrics, opts...), metrics
}

func newCache() *cache.DashboardCache {
	return cache.New(8, 0, clockwork.NewFakeClock())
}

// --- tests ---

func TestPresenter_Dashboard_HappyPath(t *testing.T) {
	loader := &mockLoader{}
	p, metrics := newPresenter(loader)

	dash, err := p.Dashboard(context.Background(), "2030")
	require.NoError(t, err)

	assert.Equal(t, domain.ScenarioID("2030"), dash.Scenario.ID)
	assert.Len(t, dash.NitrogenLossMaps, 8)
	total := dash.NitrogenLossTable.Rows[len(dash.NitrogenLossTable.Rows)-1]
	assert.Equal(t, "1.50", total.Total.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Builds.WithLabelValues("2030", "success")))
}

func TestPresenter_Dashboard_UnknownScenario(t *testing.T) {
	loader := &mockLoader{}
	p, _ := newPresenter(loader)

	_, err := p.Dashboard(context.Background(), "1999")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownScenario)
	assert.Equal(t, int64(0), loader.calls.Load())
}

func TestPresenter_Dashboard_LoadError(t *testing.T) {
	loader := &mockLoader{failFor: map[domain.ScenarioID]error{
		"2030": fmt.Errorf("load scenario 2030: %w", domain.ErrDataUnavailable),
	}}
	p, metrics := newPresenter(loader, pipeline.WithCache(newCache()))

	_, err := p.Dashboard(context.Background(), "2030")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Builds.WithLabelValues("2030", "error")))

	// Failures are not cached.
	_, err = p.Dashboard(context.Background(), "2030")
	require.Error(t, err)
	assert.Equal(t, int64(2), loader.calls.Load())
}

func TestPresenter_CacheHit(t *testing.T) {
	loader := &mockLoader{}
	p, metrics := newPresenter(loader, pipeline.WithCache(newCache()))

	first, err := p.Dashboard(context.Background(), "2017")
	require.NoError(t, err)
	second, err := p.Dashboard(context.Background(), "2017")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), loader.calls.Load(), "should only load once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheEnabled))
}

func TestPresenter_NoCacheRebuilds(t *testing.T) {
	loader := &mockLoader{}
	p, metrics := newPresenter(loader)

	_, err := p.Dashboard(context.Background(), "2017")
	require.NoError(t, err)
	_, err = p.Dashboard(context.Background(), "2017")
	require.NoError(t, err)

	assert.Equal(t, int64(2), loader.calls.Load())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CacheEnabled))
}

func TestPresenter_ConcurrentFillSharesBuild(t *testing.T) {
	loader := &mockLoader{started: make(chan struct{}, 1), release: make(chan struct{})}
	p, _ := newPresenter(loader, pipeline.WithCache(newCache()))

	const callers = 10
	var wg sync.WaitGroup
	results := make([]*domain.Dashboard, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Dashboard(context.Background(), "2050")
		}(i)
	}

	<-loader.started
	time.Sleep(50 * time.Millisecond) // let the other callers join the in-flight build
	close(loader.release)
	wg.Wait()

	assert.Equal(t, int64(1), loader.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}

func TestPresenter_Invalidate(t *testing.T) {
	loader := &mockLoader{}
	p, _ := newPresenter(loader, pipeline.WithCache(newCache()))

	_, err := p.Dashboard(context.Background(), "2017")
	require.NoError(t, err)
	p.Invalidate("2017")
	_, err = p.Dashboard(context.Background(), "2017")
	require.NoError(t, err)

	assert.Equal(t, int64(2), loader.calls.Load())
}

func TestPresenter_Warm(t *testing.T) {
	loader := &mockLoader{}
	p, _ := newPresenter(loader, pipeline.WithCache(newCache()))

	require.NoError(t, p.Warm(context.Background()))
	assert.Equal(t, int64(3), loader.calls.Load())
	require.NoError(t, p.CheckReadiness(context.Background()))

	// Warm rebuilds even when every scenario is cached.
	require.NoError(t, p.Warm(context.Background()))
	assert.Equal(t, int64(6), loader.calls.Load())

	// Cached afterwards.
	_, err := p.Dashboard(context.Background(), "2030")
	require.NoError(t, err)
	assert.Equal(t, int64(6), loader.calls.Load())
}

func TestPresenter_WarmJoinsErrors(t *testing.T) {
	loader := &mockLoader{failFor: map[domain.ScenarioID]error{
		"2050": &domain.SchemaError{Table: domain.TableCropStage, Missing: []string{"FIPS"}},
	}}
	p, _ := newPresenter(loader, pipeline.WithCache(newCache()))

	err := p.Warm(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)

	// The healthy scenarios were still built and cached.
	require.NoError(t, p.CheckReadiness(context.Background()))
	_, err = p.Dashboard(context.Background(), "2017")
	require.NoError(t, err)
	assert.Equal(t, int64(3), loader.calls.Load())
}

func TestPresenter_Readiness(t *testing.T) {
	p, _ := newPresenter(&mockLoader{})

	err := p.CheckReadiness(context.Background())
	require.Error(t, err)

	_, err = p.Dashboard(context.Background(), "2017")
	require.NoError(t, err)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPresenter_Publishes(t *testing.T) {
	pub := &mockPublisher{}
	p, metrics := newPresenter(&mockLoader{}, pipeline.WithCache(newCache()), pipeline.WithPublisher(pub))

	for i := 0; i < 3; i++ {
		_, err := p.Dashboard(context.Background(), "2030")
		require.NoError(t, err)
	}

	assert.Equal(t, []domain.ScenarioID{"2030"}, pub.published, "only fresh builds are published")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Published))
}

func TestPresenter_PublishFailureIsNotSurfaced(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	p, metrics := newPresenter(&mockLoader{}, pipeline.WithPublisher(pub))

	dash, err := p.Dashboard(context.Background(), "2030")
	require.NoError(t, err)
	assert.NotNil(t, dash)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishErrors))
}

func TestPresenter_FixtureEndToEnd(t *testing.T) {
	loader, _ := newFixtureLoader(t, fixtureDir)
	p, _ := newPresenter(loader)

	dash, err := p.Dashboard(context.Background(), "2017")
	require.NoError(t, err)

	want := []string{"1.25", "0.63", "0.12", "0.05", "0.03", "0.01", "0.01", "2.09"}
	got := make([]string, 0, len(dash.NitrogenLossTable.Rows))
	for _, row := range dash.NitrogenLossTable.Rows {
		got = append(got, row.Total.String())
	}
	assert.Equal(t, want, got)

	totalMap := dash.NitrogenLossMaps[len(dash.NitrogenLossMaps)-1]
	require.Len(t, totalMap.Regions, 2)
	assert.Equal(t, domain.Region{FIPS: "24001", County: "Allegany", Value: 145_000, Color: domain.LogScale(145_000)}, totalMap.Regions[0])
	assert.Equal(t, "Accomack", totalMap.Regions[1].County)
	assert.Equal(t, 1_940_000.0, totalMap.Regions[1].Value)

	live := dash.TradeFlowSections[domain.StageLiveAnimal].Table.Rows
	require.Len(t, live, 2)
	assert.Equal(t, "Dairy Cattle", live[0].Commodity)
	assert.Equal(t, "2.00", live[0].Import.String())
	assert.Equal(t, "1.00", live[0].Export.String())
	assert.Equal(t, "0.50", live[0].WithinCounty.String())
	assert.Equal(t, "Hogs And Pigs", live[1].Commodity)

	assert.Equal(t, 3, dash.Meta.RowCounts[domain.TableCropStage])
}

func TestPresenter_FixtureIdempotent(t *testing.T) {
	loader, _ := newFixtureLoader(t, fixtureDir)
	p, _ := newPresenter(loader)

	first, err := p.Dashboard(context.Background(), "2030")
	require.NoError(t, err)
	second, err := p.Dashboard(context.Background(), "2030")
	require.NoError(t, err)
	require.NotSame(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
