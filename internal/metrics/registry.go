package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// ErrInvalidDelta is returned when a counter is incremented by a negative delta.
var ErrInvalidDelta = errors.New("counter delta must not be negative")

// ErrLabelShapeMismatch is returned when a recording uses label names that
// differ from the label-name set already established for the family.
var ErrLabelShapeMismatch = errors.New("label names differ from family label set")

// ErrUnknownBuckets is returned when a histogram observation targets a family
// that was never configured with bucket boundaries.
var ErrUnknownBuckets = errors.New("histogram family has no configured buckets")

// ErrTypeMismatch is returned when a recording targets a family registered
// with a different metric type.
var ErrTypeMismatch = errors.New("metric family registered with a different type")

// Kind is the semantic type of a metric family.
type Kind string

const (
	KindCounter   Kind = "counter"
	KindGauge     Kind = "gauge"
	KindHistogram Kind = "histogram"
	KindDerived   Kind = "derived"
)

// expositionType returns the TYPE token for the text format. Derived metrics
// are computed gauges and expose as such.
func (k Kind) expositionType() string {
	if k == KindDerived {
		return "gauge"
	}
	return string(k)
}

// DerivedFunc computes the samples of a derived family from a snapshot.
// It must be a pure function of the snapshot it is given.
type DerivedFunc func(s *Snapshot) []Sample

// Sample is a single computed value with its label set.
type Sample struct {
	Labels LabelSet
	Value  float64
}

// atomicFloat64 provides lock-free accumulation for counter and gauge series.
type atomicFloat64 struct {
	bits uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(atomic.LoadUint64(&a.bits))
}

func (a *atomicFloat64) Store(val float64) {
	atomic.StoreUint64(&a.bits, math.Float64bits(val))
}

func (a *atomicFloat64) Add(delta float64) {
	for {
		old := atomic.LoadUint64(&a.bits)
		next := math.Float64frombits(old) + delta
		if atomic.CompareAndSwapUint64(&a.bits, old, math.Float64bits(next)) {
			return
		}
	}
}

// family holds one named metric family and all of its series.
type family struct {
	name     string
	help     string
	kind     Kind
	decimals int       // fixed render precision, -1 for natural formatting
	buckets  []float64 // histogram upper bounds, ascending, +Inf last
	compute  DerivedFunc

	mu         sync.RWMutex
	labelNames []string // established on first series, sorted
	shaped     bool
	series     map[string]*series
}

// series is one accumulating value identified by a label set.
type series struct {
	labels LabelSet
	value  atomicFloat64 // counter and gauge kinds

	// Histogram state. All bucket counts are cumulative (count of
	// observations <= bound) and mutate under mu so a snapshot never
	// observes a half-applied observation.
	mu     sync.Mutex
	bounds []float64
	counts []uint64
	sum    float64
	count  uint64
}

// observe applies a single histogram observation.
func (s *series) observe(value float64) {
	s.mu.Lock()
	for i, bound := range s.bounds {
		if value <= bound {
			s.counts[i]++
		}
	}
	s.sum += value
	s.count++
	s.mu.Unlock()
}

// lookupOrCreate returns the series for the given labels, creating it on
// first use. The family's label-name shape is fixed by the first series.
func (f *family) lookupOrCreate(labels Labels) (*series, error) {
	ls := NewLabelSet(labels)

	f.mu.RLock()
	s, ok := f.series[ls.Key()]
	f.mu.RUnlock()
	if ok {
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.series[ls.Key()]; ok {
		return s, nil
	}

	if !f.shaped {
		f.labelNames = ls.Names()
		f.shaped = true
	} else if !ls.sameNames(f.labelNames) {
		return nil, fmt.Errorf("%w: family %q has labels %v, got %v",
			ErrLabelShapeMismatch, f.name, f.labelNames, ls.Names())
	}

	s = &series{labels: ls}
	if f.kind == KindHistogram {
		s.bounds = f.buckets
		s.counts = make([]uint64, len(f.buckets))
	}
	f.series[ls.Key()] = s
	return s, nil
}

// Registry owns all metric families for one process. It is created once,
// mutated by recording calls for the life of the process, and read (never
// mutated) by Snapshot.
type Registry struct {
	mu       sync.RWMutex
	families []*family // first-registration order
	byName   map[string]*family
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*family)}
}

// RegisterCounter registers a counter family. Registration is optional for
// counters (RecordCounter creates families lazily) but carries the help text.
func (r *Registry) RegisterCounter(name, help string, opts ...FamilyOption) {
	r.register(&family{name: name, help: help, kind: KindCounter}, opts)
}

// RegisterGauge registers a gauge family.
func (r *Registry) RegisterGauge(name, help string, opts ...FamilyOption) {
	r.register(&family{name: name, help: help, kind: KindGauge}, opts)
}

// RegisterHistogram registers a histogram family with its bucket boundaries.
// Boundaries are sorted and a +Inf sentinel is appended if missing. Histogram
// families must be registered before observations are recorded.
func (r *Registry) RegisterHistogram(name, help string, buckets []float64, opts ...FamilyOption) {
	bounds := make([]float64, len(buckets))
	copy(bounds, buckets)
	sort.Float64s(bounds)
	if len(bounds) == 0 || !math.IsInf(bounds[len(bounds)-1], 1) {
		bounds = append(bounds, math.Inf(1))
	}
	r.register(&family{name: name, help: help, kind: KindHistogram, buckets: bounds}, opts)
}

// RegisterDerived registers a derived gauge computed from the snapshot at
// render time. Derived families own no stored series.
func (r *Registry) RegisterDerived(name, help string, fn DerivedFunc, opts ...FamilyOption) {
	r.register(&family{name: name, help: help, kind: KindDerived, compute: fn}, opts)
}

// FamilyOption configures a family at registration time.
type FamilyOption func(*family)

// WithDecimals renders the family's values with a fixed number of decimal
// places instead of the natural representation.
func WithDecimals(n int) FamilyOption {
	return func(f *family) { f.decimals = n }
}

// register adds a family to the registry. Duplicate names are programmer
// errors and panic, as they would produce invalid exposition output.
func (r *Registry) register(f *family, opts []FamilyOption) {
	if f.name == "" {
		panic("metrics: family name must not be empty")
	}
	f.decimals = -1
	f.series = make(map[string]*series)
	for _, opt := range opts {
		opt(f)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[f.name]; exists {
		panic(fmt.Sprintf("metrics: duplicate family name %q", f.name))
	}
	r.byName[f.name] = f
	r.families = append(r.families, f)
}

// lookup returns the family for a name.
func (r *Registry) lookup(name string) (*family, bool) {
	r.mu.RLock()
	f, ok := r.byName[name]
	r.mu.RUnlock()
	return f, ok
}

// lookupOrCreateFamily returns the family for a name, lazily creating it with
// the given kind. Only counter and gauge families may be created lazily.
func (r *Registry) lookupOrCreateFamily(name string, kind Kind) *family {
	if f, ok := r.lookup(name); ok {
		return f
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.byName[name]; ok {
		return f
	}
	f := &family{name: name, kind: kind, decimals: -1, series: make(map[string]*series)}
	r.byName[name] = f
	r.families = append(r.families, f)
	return f
}

// RecordCounter adds delta to the counter series identified by (name,
// labels), creating the family and series on first use. The registry is left
// unchanged when an error is returned.
func (r *Registry) RecordCounter(name string, labels Labels, delta float64) error {
	if delta < 0 {
		return fmt.Errorf("%w: %s delta %v", ErrInvalidDelta, name, delta)
	}

	f := r.lookupOrCreateFamily(name, KindCounter)
	if f.kind != KindCounter {
		return fmt.Errorf("%w: %s is a %s, not a counter", ErrTypeMismatch, name, f.kind)
	}

	s, err := f.lookupOrCreate(labels)
	if err != nil {
		return err
	}
	s.value.Add(delta)
	return nil
}

// RecordObservation records a histogram observation for (name, labels).
// Every bucket whose bound is >= value is incremented, the running sum grows
// by value and the running count by one.
func (r *Registry) RecordObservation(name string, labels Labels, value float64) error {
	f, ok := r.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBuckets, name)
	}
	if f.kind != KindHistogram {
		return fmt.Errorf("%w: %s is a %s, not a histogram", ErrTypeMismatch, name, f.kind)
	}

	s, err := f.lookupOrCreate(labels)
	if err != nil {
		return err
	}
	s.observe(value)
	return nil
}

// SetGauge sets the gauge series identified by (name, labels), creating the
// family and series on first use.
func (r *Registry) SetGauge(name string, labels Labels, value float64) error {
	f := r.lookupOrCreateFamily(name, KindGauge)
	if f.kind != KindGauge {
		return fmt.Errorf("%w: %s is a %s, not a gauge", ErrTypeMismatch, name, f.kind)
	}

	s, err := f.lookupOrCreate(labels)
	if err != nil {
		return err
	}
	s.value.Store(value)
	return nil
}
