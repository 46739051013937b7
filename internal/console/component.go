package console

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/config-console/internal/actuator"
	"github.com/eugenenazirov/config-console/internal/future"
)

// ConfigurationService is the data source of the configuration view.
type ConfigurationService interface {
	GetBeans(ctx context.Context) *future.Future[[]actuator.Bean]
	GetPropertySources(ctx context.Context) *future.Future[[]actuator.PropertySource]
}

// Snapshot is a copy of the component state at one point in time.
type Snapshot struct {
	AllBeans             []actuator.Bean
	Beans                []actuator.Bean
	PropertySources      []actuator.PropertySource
	BeansFilter          string
	BeansAscending       bool
	BeansError           error
	PropertySourcesError error
	LoadedAt             time.Time
}

// load tracks the two completions of one OnInit call.
type load struct {
	id      uint64
	pending int
	done    chan struct{}
	errs    []error
}

// Component holds the configuration view: every bean, the filtered and sorted
// beans on display, and the property sources.
type Component struct {
	service ConfigurationService
	logger  *zap.Logger
	clock   func() time.Time

	mu                 sync.RWMutex
	allBeans           []actuator.Bean
	beans              []actuator.Bean
	propertySources    []actuator.PropertySource
	beansFilter        string
	beansAscending     bool
	beansErr           error
	propertySourcesErr error
	loadedAt           time.Time
	current            *load
	generation         uint64
}

// Option configures a Component.
type Option func(*Component)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Component) {
		c.clock = clock
	}
}

// New creates a Component reading from service.
func New(service ConfigurationService, logger *zap.Logger, opts ...Option) *Component {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Component{
		service:        service,
		logger:         logger,
		clock:          func() time.Time { return time.Now().UTC() },
		beansAscending: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnInit requests beans and property sources and returns without waiting.
// Each result is stored as soon as it arrives; use Wait to block until both
// have. Results of an earlier OnInit that arrive after a newer call are dropped.
func (c *Component) OnInit(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	current := &load{id: c.generation, pending: 2, done: make(chan struct{})}
	c.current = current
	c.mu.Unlock()

	c.service.GetBeans(ctx).Subscribe(func(beans []actuator.Bean, err error) {
		c.onBeans(current, beans, err)
	})
	c.service.GetPropertySources(ctx).Subscribe(func(sources []actuator.PropertySource, err error) {
		c.onPropertySources(current, sources, err)
	})
}

func (c *Component) onBeans(l *load, beans []actuator.Bean, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l.id != c.generation {
		c.logger.Debug("dropping stale beans result", zap.Uint64("load", l.id))
		c.finish(l, nil)
		return
	}
	if err != nil {
		c.logger.Warn("failed to load beans", zap.Error(err))
		c.beansErr = err
		c.finish(l, err)
		return
	}

	c.allBeans = beans
	c.beans = beans
	c.beansFilter = ""
	c.beansAscending = true
	c.beansErr = nil
	c.loadedAt = c.clock()
	c.finish(l, nil)
}

func (c *Component) onPropertySources(l *load, sources []actuator.PropertySource, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l.id != c.generation {
		c.logger.Debug("dropping stale property sources result", zap.Uint64("load", l.id))
		c.finish(l, nil)
		return
	}
	if err != nil {
		c.logger.Warn("failed to load property sources", zap.Error(err))
		c.propertySourcesErr = err
		c.finish(l, err)
		return
	}

	c.propertySources = sources
	c.propertySourcesErr = nil
	c.loadedAt = c.clock()
	c.finish(l, nil)
}

// finish must be called with c.mu held.
func (c *Component) finish(l *load, err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
	l.pending--
	if l.pending == 0 {
		close(l.done)
	}
}

// Wait blocks until both results of the latest OnInit have arrived and
// returns the fetch failures of that call, if any.
func (c *Component) Wait(ctx context.Context) error {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()
	if current == nil {
		return nil
	}

	select {
	case <-current.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return errors.Join(current.errs...)
}

// FilterAndSortBeans rebuilds the displayed beans from all beans, keeping
// those whose prefix contains filter (case-insensitive) ordered by prefix.
// A successful reload resets the displayed beans to all beans.
func (c *Component) FilterAndSortBeans(filter string, ascending bool) []actuator.Bean {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.beansFilter = filter
	c.beansAscending = ascending
	c.beans = filterAndSort(c.allBeans, filter, ascending)

	return cloneBeans(c.beans)
}

// SelectBeans returns the beans FilterAndSortBeans would display without
// changing the displayed beans.
func (c *Component) SelectBeans(filter string, ascending bool) []actuator.Bean {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filterAndSort(c.allBeans, filter, ascending)
}

func filterAndSort(all []actuator.Bean, filter string, ascending bool) []actuator.Bean {
	needle := strings.ToLower(filter)
	beans := make([]actuator.Bean, 0, len(all))
	for _, bean := range all {
		if needle == "" || strings.Contains(strings.ToLower(bean.Prefix), needle) {
			beans = append(beans, bean)
		}
	}
	sort.SliceStable(beans, func(i, j int) bool {
		if ascending {
			return beans[i].Prefix < beans[j].Prefix
		}
		return beans[i].Prefix > beans[j].Prefix
	})
	return beans
}

// AllBeans returns every loaded bean.
func (c *Component) AllBeans() []actuator.Bean {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneBeans(c.allBeans)
}

// Beans returns the beans on display.
func (c *Component) Beans() []actuator.Bean {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneBeans(c.beans)
}

// PropertySources returns the loaded property sources.
func (c *Component) PropertySources() []actuator.PropertySource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSources(c.propertySources)
}

// Snapshot returns the whole state.
func (c *Component) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		AllBeans:             cloneBeans(c.allBeans),
		Beans:                cloneBeans(c.beans),
		PropertySources:      cloneSources(c.propertySources),
		BeansFilter:          c.beansFilter,
		BeansAscending:       c.beansAscending,
		BeansError:           c.beansErr,
		PropertySourcesError: c.propertySourcesErr,
		LoadedAt:             c.loadedAt,
	}
}

// cloneBeans copies the slice header only; beans are never mutated in place.
func cloneBeans(src []actuator.Bean) []actuator.Bean {
	if src == nil {
		return nil
	}
	out := make([]actuator.Bean, len(src))
	copy(out, src)
	return out
}

func cloneSources(src []actuator.PropertySource) []actuator.PropertySource {
	if src == nil {
		return nil
	}
	out := make([]actuator.PropertySource, len(src))
	copy(out, src)
	return out
}
