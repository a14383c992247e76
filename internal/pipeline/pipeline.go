package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"github.com/baylab/nitrogen-dashboard/internal/observability"
)

// ScenarioLoader reads the source tables of one scenario.
type ScenarioLoader interface {
	Load(ctx context.Context, id domain.ScenarioID) (*domain.ScenarioTables, error)
}

// Cache stores assembled dashboards by scenario.
type Cache interface {
	Get(id domain.ScenarioID) (*domain.Dashboard, bool)
	Put(id domain.ScenarioID, d *domain.Dashboard)
	Invalidate(id domain.ScenarioID)
	Purge()
}

// Publisher forwards freshly assembled dashboards downstream.
type Publisher interface {
	Publish(ctx context.Context, d *domain.Dashboard) error
}

// Presenter builds dashboards on demand: load, derive, assemble.
type Presenter struct {
	registry  *domain.Registry
	loader    ScenarioLoader
	cache     Cache
	publisher Publisher
	logger    *zap.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
	group     singleflight.Group
	ready     atomic.Bool
}

// Option configures optional Presenter collaborators.
type Option func(*Presenter)

// WithCache keeps assembled dashboards in c. Without a cache every request
// rebuilds from the source tables.
func WithCache(c Cache) Option {
	return func(p *Presenter) { p.cache = c }
}

// WithPublisher publishes each freshly built dashboard. Publish failures are
// logged and counted, never returned to the caller.
func WithPublisher(pub Publisher) Option {
	return func(p *Presenter) { p.publisher = pub }
}

// NewPresenter creates a Presenter over the scenarios in registry.
func NewPresenter(registry *domain.Registry, loader ScenarioLoader, logger *zap.Logger, metrics *observability.Metrics, opts ...Option) *Presenter {
	p := &Presenter{
		registry: registry,
		loader:   loader,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer(observability.TracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache != nil {
		metrics.CacheEnabled.Set(1)
	}
	return p
}

// Registry returns the scenarios this presenter serves.
func (p *Presenter) Registry() *domain.Registry {
	return p.registry
}

// CheckReadiness returns nil once at least one dashboard has been built.
func (p *Presenter) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no dashboard has been built yet")
	}
	return nil
}

// Dashboard returns the dashboard of a scenario, building it if needed.
// Concurrent requests for the same uncached scenario share one build.
func (p *Presenter) Dashboard(ctx context.Context, id domain.ScenarioID) (*domain.Dashboard, error) {
	if _, err := p.registry.Lookup(id); err != nil {
		return nil, err
	}

	if p.cache != nil {
		if d, ok := p.cache.Get(id); ok {
			p.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return d, nil
		}
		p.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	v, err, shared := p.group.Do(string(id), func() (any, error) {
		return p.build(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		p.logger.Debug("dashboard build shared", zap.String("scenario", string(id)))
	}
	return v.(*domain.Dashboard), nil
}

// Invalidate drops the cached dashboard of one scenario.
func (p *Presenter) Invalidate(id domain.ScenarioID) {
	if p.cache != nil {
		p.cache.Invalidate(id)
	}
}

// Warm discards every cached dashboard and rebuilds all registered scenarios.
// It returns the joined errors of the scenarios that failed.
func (p *Presenter) Warm(ctx context.Context) error {
	if p.cache != nil {
		p.cache.Purge()
	}

	var errs []error
	for _, s := range p.registry.Scenarios() {
		if _, err := p.Dashboard(ctx, s.ID); err != nil {
			p.logger.Warn("warm scenario failed",
				zap.String("scenario", string(s.ID)),
				zap.String("kind", domain.ErrorKind(err)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Presenter) build(ctx context.Context, id domain.ScenarioID) (*domain.Dashboard, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "dashboard.build",
		trace.WithAttributes(attribute.String("scenario", string(id))))
	defer span.End()

	dash, err := p.assemble(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorKind(err))
		p.metrics.Builds.WithLabelValues(string(id), "error").Inc()
		p.logger.Error("dashboard build failed",
			zap.String("scenario", string(id)),
			zap.String("kind", domain.ErrorKind(err)),
			zap.Error(err),
		)
		return nil, err
	}

	elapsed := time.Since(start)
	p.metrics.Builds.WithLabelValues(string(id), "success").Inc()
	p.metrics.BuildDuration.WithLabelValues(string(id)).Observe(elapsed.Seconds())
	p.logger.Info("dashboard built",
		zap.String("scenario", string(id)),
		zap.Duration("duration", elapsed),
	)

	if p.cache != nil {
		p.cache.Put(id, dash)
	}
	p.ready.Store(true)
	p.publish(ctx, dash)

	return dash, nil
}

func (p *Presenter) assemble(ctx context.Context, id domain.ScenarioID) (*domain.Dashboard, error) {
	loadCtx, span := p.tracer.Start(ctx, "scenario.load")
	tables, err := p.loader.Load(loadCtx, id)
	span.End()
	if err != nil {
		return nil, err
	}

	_, span = p.tracer.Start(ctx, "scenario.derive")
	derived := domain.Derive(tables)
	span.End()

	_, span = p.tracer.Start(ctx, "dashboard.assemble")
	dash := domain.Assemble(derived)
	span.End()

	if dash.Scenario.ID != id {
		return nil, fmt.Errorf("loader returned scenario %q for %q", dash.Scenario.ID, id)
	}
	return dash, nil
}

func (p *Presenter) publish(ctx context.Context, dash *domain.Dashboard) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, dash); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish dashboard failed",
			zap.String("scenario", string(dash.Scenario.ID)),
			zap.Error(err),
		)
		return
	}
	p.metrics.Published.Inc()
}
