package param

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// UpdateResult reports the outcome of a parameter write.
type UpdateResult int

const (
	Success UpdateResult = iota
	InvalidParameter
	OutOfRange
	ValidationFailed
	SmoothingActive
	SystemLocked
)

func (r UpdateResult) String() string {
	switch r {
	case Success:
		return "success"
	case InvalidParameter:
		return "invalid parameter"
	case OutOfRange:
		return "out of range"
	case ValidationFailed:
		return "validation failed"
	case SmoothingActive:
		return "smoothing active"
	case SystemLocked:
		return "system locked"
	default:
		return "unknown"
	}
}

// Value is the control-side bookkeeping for one parameter.
type Value struct {
	Current    float32
	Raw        float32
	Target     float32
	HasBeenSet bool
	LastUpdate time.Time
}

type atomicFloat struct {
	bits atomic.Uint32
}

func (a *atomicFloat) Load() float32 {
	return math.Float32frombits(a.bits.Load())
}

func (a *atomicFloat) Store(v float32) {
	a.bits.Store(math.Float32bits(v))
}

type slotKey struct {
	global bool
	slot   int
}

// Store holds the current value of every parameter, globally and per
// instrument slot. Reads are lock-free and allocation-free; writes go
// through Set on the control goroutine, and ProcessAudioBlock runs the
// smoothers on the audio goroutine.
type Store struct {
	mu     sync.Mutex
	cfgs   [Count]Config
	locked bool

	values     [Count]Value
	slotValues [MaxInstruments][Count]Value

	current     [Count]atomicFloat
	slotCurrent [MaxInstruments][Count]atomicFloat

	targets     [Count]atomicFloat
	slotTargets [MaxInstruments][Count]atomicFloat
	dirty       [Count]atomic.Bool
	slotDirty   [MaxInstruments][Count]atomic.Bool

	smoothers     [Count]*Smoother
	slotSmoothers [MaxInstruments][Count]*Smoother

	sampleRate float32
	now        func() time.Time
}

// NewStore creates a store with the built-in parameter table and all
// values at their defaults.
func NewStore(sampleRate float32) *Store {
	return NewStoreWithConfigs(sampleRate, NewDefaultConfigs())
}

// NewStoreWithConfigs creates a store using a custom parameter table.
func NewStoreWithConfigs(sampleRate float32, cfgs [Count]Config) *Store {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	s := &Store{
		cfgs:       cfgs,
		sampleRate: sampleRate,
		now:        time.Now,
	}
	for id := ID(0); id < Count; id++ {
		s.smoothers[id] = s.newSmoother(id, cfgs[id].Default)
		s.publish(slotKey{global: true}, id, cfgs[id].Default)
		s.values[id] = Value{
			Current: cfgs[id].Default,
			Raw:     cfgs[id].Default,
			Target:  cfgs[id].Default,
		}
		for slot := 0; slot < MaxInstruments; slot++ {
			s.slotSmoothers[slot][id] = s.newSmoother(id, cfgs[id].Default)
			s.publish(slotKey{slot: slot}, id, cfgs[id].Default)
			s.slotValues[slot][id] = s.values[id]
		}
	}
	return s
}

func (s *Store) newSmoother(id ID, initial float32) *Smoother {
	cfg := NewDefaultSmootherConfig(s.sampleRate)
	cfg.Type = s.cfgs[id].SmoothType
	cfg.Curve = s.cfgs[id].SmoothCurve
	return NewSmoother(cfg, initial)
}

func (s *Store) publish(key slotKey, id ID, v float32) {
	if key.global {
		s.current[id].Store(v)
		return
	}
	s.slotCurrent[key.slot][id].Store(v)
}

// Get returns the current global value of a parameter. Safe to call
// from the audio goroutine.
func (s *Store) Get(id ID) float32 {
	if !id.Valid() {
		return 0
	}
	return s.current[id].Load()
}

// GetSlot returns the current value of a parameter on an instrument
// slot. Safe to call from the audio goroutine.
func (s *Store) GetSlot(id ID, slot int) float32 {
	if !id.Valid() || slot < 0 || slot >= MaxInstruments {
		return 0
	}
	return s.slotCurrent[slot][id].Load()
}

// Set updates the global value of a parameter.
func (s *Store) Set(id ID, value float32) UpdateResult {
	return s.set(slotKey{global: true}, id, value)
}

// SetSlot updates a parameter on an instrument slot.
func (s *Store) SetSlot(id ID, slot int, value float32) UpdateResult {
	if slot < 0 || slot >= MaxInstruments {
		return InvalidParameter
	}
	return s.set(slotKey{slot: slot}, id, value)
}

func (s *Store) set(key slotKey, id ID, value float32) UpdateResult {
	if !id.Valid() {
		return InvalidParameter
	}
	if !isFinite(value) {
		return OutOfRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return SystemLocked
	}

	cfg := &s.cfgs[id]
	if value < cfg.MinValue || value > cfg.MaxValue {
		return OutOfRange
	}
	if cfg.Validate != nil && !cfg.Validate(value) {
		return ValidationFailed
	}

	raw := value
	value = clampf(value, cfg.MinValue, cfg.MaxValue)
	if cfg.StepSize > 0 {
		value = quantizeStep(value, cfg.MinValue, cfg.StepSize)
		value = clampf(value, cfg.MinValue, cfg.MaxValue)
	}

	v := s.valueFor(key, id)
	v.Raw = raw
	v.Target = value
	v.HasBeenSet = true
	v.LastUpdate = s.now()

	if cfg.Smoothed && cfg.SmoothType != SmoothInstant {
		s.targetFor(key, id).Store(value)
		s.dirtyFor(key, id).Store(true)
		return SmoothingActive
	}

	v.Current = value
	s.targetFor(key, id).Store(value)
	s.dirtyFor(key, id).Store(true)
	s.publish(key, id, value)
	return Success
}

// SetBatch applies several global updates and returns the first
// non-success result that is not SmoothingActive, or Success.
func (s *Store) SetBatch(updates map[ID]float32) UpdateResult {
	ids := make([]ID, 0, len(updates))
	for id := range updates {
		ids = append(ids, id)
	}
	sortIDs(ids)
	for _, id := range ids {
		if r := s.Set(id, updates[id]); r != Success && r != SmoothingActive {
			return r
		}
	}
	return Success
}

func (s *Store) valueFor(key slotKey, id ID) *Value {
	if key.global {
		return &s.values[id]
	}
	return &s.slotValues[key.slot][id]
}

func (s *Store) targetFor(key slotKey, id ID) *atomicFloat {
	if key.global {
		return &s.targets[id]
	}
	return &s.slotTargets[key.slot][id]
}

func (s *Store) dirtyFor(key slotKey, id ID) *atomic.Bool {
	if key.global {
		return &s.dirty[id]
	}
	return &s.slotDirty[key.slot][id]
}

// ProcessAudioBlock advances all smoothers by frames samples and
// publishes the results. It must only run on the audio goroutine, which
// owns the smoother state. Parameters are processed in ascending ID
// order, global first, then slot 0 through slot 7.
func (s *Store) ProcessAudioBlock(frames int) {
	if frames <= 0 {
		return
	}
	for id := ID(0); id < Count; id++ {
		s.processOne(s.smoothers[id], &s.dirty[id], &s.targets[id], &s.current[id],
			frames, s.cfgs[id].Smoothed)
	}
	for slot := 0; slot < MaxInstruments; slot++ {
		for id := ID(0); id < Count; id++ {
			s.processOne(s.slotSmoothers[slot][id], &s.slotDirty[slot][id],
				&s.slotTargets[slot][id], &s.slotCurrent[slot][id],
				frames, s.cfgs[id].Smoothed)
		}
	}
}

func (s *Store) processOne(sm *Smoother, dirty *atomic.Bool, target, current *atomicFloat, frames int, smoothed bool) {
	wasDirty := dirty.CompareAndSwap(true, false)
	if wasDirty {
		t := target.Load()
		if !smoothed || sm.cfg.Type == SmoothInstant {
			sm.SetImmediate(t)
			current.Store(t)
			return
		}
		sm.SetTarget(t)
	}
	if !sm.IsSmoothing() {
		if wasDirty {
			current.Store(sm.Value())
		}
		return
	}
	v := sm.Value()
	for i := 0; i < frames; i++ {
		v = sm.Next()
		if !sm.IsSmoothing() {
			break
		}
	}
	current.Store(v)
}

// ActiveSmootherCount reports how many smoothers are mid-transition.
// Audio goroutine only.
func (s *Store) ActiveSmootherCount() int {
	n := 0
	for id := ID(0); id < Count; id++ {
		if s.smoothers[id].IsSmoothing() {
			n++
		}
	}
	for slot := 0; slot < MaxInstruments; slot++ {
		for id := ID(0); id < Count; id++ {
			if s.slotSmoothers[slot][id].IsSmoothing() {
				n++
			}
		}
	}
	return n
}

// Config returns the metadata for a parameter.
func (s *Store) Config(id ID) (Config, bool) {
	if !id.Valid() {
		return Config{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfgs[id], true
}

// SetValidator installs a custom validator for a parameter.
func (s *Store) SetValidator(id ID, fn func(float32) bool) bool {
	if !id.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfgs[id].Validate = fn
	return true
}

// SetLocked blocks or unblocks all writes.
func (s *Store) SetLocked(locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = locked
}

// Locked reports whether writes are currently rejected.
func (s *Store) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// ValueInfo returns the control-side bookkeeping for a global parameter.
func (s *Store) ValueInfo(id ID) (Value, bool) {
	if !id.Valid() {
		return Value{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[id], true
}

// IDsInGroup lists parameters belonging to a metadata group.
func (s *Store) IDsInGroup(group string) []ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ID
	for id := ID(0); id < Count; id++ {
		if s.cfgs[id].Group == group {
			out = append(out, id)
		}
	}
	return out
}

// ResetParameter restores one global parameter to its default, without
// smoothing.
func (s *Store) ResetParameter(id ID) UpdateResult {
	if !id.Valid() {
		return InvalidParameter
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return SystemLocked
	}
	def := s.cfgs[id].Default
	s.values[id] = Value{Current: def, Raw: def, Target: def}
	s.targets[id].Store(def)
	s.dirty[id].Store(true)
	s.publish(slotKey{global: true}, id, def)
	return Success
}

// Reset restores every parameter, global and per slot, to its default.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := ID(0); id < Count; id++ {
		def := s.cfgs[id].Default
		s.values[id] = Value{Current: def, Raw: def, Target: def}
		s.targets[id].Store(def)
		s.dirty[id].Store(true)
		s.publish(slotKey{global: true}, id, def)
		for slot := 0; slot < MaxInstruments; slot++ {
			s.slotValues[slot][id] = s.values[id]
			s.slotTargets[slot][id].Store(def)
			s.slotDirty[slot][id].Store(true)
			s.publish(slotKey{slot: slot}, id, def)
		}
	}
}

// Snapshot copies the current global targets into a map keyed by
// canonical parameter names, for preset serialization.
func (s *Store) Snapshot() map[string]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float32, Count)
	for id := ID(0); id < Count; id++ {
		out[id.String()] = s.values[id].Target
	}
	return out
}

// ApplySnapshot writes named values back into the store. Unknown names
// are ignored; each known value goes through normal validation.
func (s *Store) ApplySnapshot(values map[string]float32) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if id, ok := IDByName(name); ok {
			s.Set(id, values[name])
		}
	}
}

func quantizeStep(v, min, step float32) float32 {
	n := float32(math.Round(float64((v - min) / step)))
	return min + n*step
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}

func sortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
