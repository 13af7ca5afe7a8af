package metrics

import "sort"

// Snapshot is an internally consistent copy of the registry state. Families
// keep their first-registration order; series within a family are sorted by
// canonical label key so repeated snapshots of the same state render
// identically.
type Snapshot struct {
	Families []*FamilySnapshot

	byName map[string]*FamilySnapshot
}

// FamilySnapshot is one family's state at snapshot time.
type FamilySnapshot struct {
	Name     string
	Help     string
	Kind     Kind
	Decimals int
	Buckets  []float64
	Series   []SeriesSnapshot

	compute DerivedFunc
}

// SeriesSnapshot is one series' state at snapshot time. Value is set for
// counter and gauge kinds; BucketCounts, Sum and Count for histograms.
type SeriesSnapshot struct {
	Labels       LabelSet
	Value        float64
	BucketCounts []uint64
	Sum          float64
	Count        uint64
}

// Snapshot copies the registry state. Writers are only blocked per family for
// the time needed to copy that family's series.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	families := make([]*family, len(r.families))
	copy(families, r.families)
	r.mu.RUnlock()

	snap := &Snapshot{
		Families: make([]*FamilySnapshot, 0, len(families)),
		byName:   make(map[string]*FamilySnapshot, len(families)),
	}

	for _, f := range families {
		fs := &FamilySnapshot{
			Name:     f.name,
			Help:     f.help,
			Kind:     f.kind,
			Decimals: f.decimals,
			Buckets:  f.buckets,
			compute:  f.compute,
		}

		f.mu.RLock()
		keys := make([]string, 0, len(f.series))
		for key := range f.series {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fs.Series = make([]SeriesSnapshot, 0, len(keys))
		for _, key := range keys {
			fs.Series = append(fs.Series, f.series[key].snapshot())
		}
		f.mu.RUnlock()

		snap.Families = append(snap.Families, fs)
		snap.byName[fs.Name] = fs
	}

	return snap
}

// snapshot copies one series' state.
func (s *series) snapshot() SeriesSnapshot {
	ss := SeriesSnapshot{Labels: s.labels}
	if s.counts == nil {
		ss.Value = s.value.Load()
		return ss
	}

	s.mu.Lock()
	ss.BucketCounts = make([]uint64, len(s.counts))
	copy(ss.BucketCounts, s.counts)
	ss.Sum = s.sum
	ss.Count = s.count
	s.mu.Unlock()
	return ss
}

// Derived computes the samples of a derived family against the snapshot.
// Returns nil for non-derived families.
func (fs *FamilySnapshot) Derived(snap *Snapshot) []Sample {
	if fs.compute == nil {
		return nil
	}
	return fs.compute(snap)
}

// Family returns the snapshot of a named family.
func (s *Snapshot) Family(name string) (*FamilySnapshot, bool) {
	fs, ok := s.byName[name]
	return fs, ok
}

// Value returns the value of a counter or gauge series, or false when the
// family or series does not exist. Intended for derived-metric functions.
func (s *Snapshot) Value(name string, labels Labels) (float64, bool) {
	fs, ok := s.byName[name]
	if !ok {
		return 0, false
	}
	key := NewLabelSet(labels).Key()
	for i := range fs.Series {
		if fs.Series[i].Labels.Key() == key {
			return fs.Series[i].Value, true
		}
	}
	return 0, false
}
