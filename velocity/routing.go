package velocity

// EngineType identifies a synthesis engine family.
type EngineType int

const (
	EngineMacroVA EngineType = iota
	EngineMacroFM
	EngineMacroWaveshaper
	EngineMacroWavetable
	EngineMacroChord
	EngineMacroHarmonics
	EngineFormantVocal
	EngineNoiseParticles
	EngineTidesOsc
	EngineRingsVoice
	EngineElementsVoice
	EngineDrumKit
	EngineSamplerKit
	EngineSamplerSlicer
)

func (e EngineType) String() string {
	switch e {
	case EngineMacroVA:
		return "macro-va"
	case EngineMacroFM:
		return "macro-fm"
	case EngineMacroWaveshaper:
		return "macro-waveshaper"
	case EngineMacroWavetable:
		return "macro-wavetable"
	case EngineMacroChord:
		return "macro-chord"
	case EngineMacroHarmonics:
		return "macro-harmonics"
	case EngineFormantVocal:
		return "formant-vocal"
	case EngineNoiseParticles:
		return "noise-particles"
	case EngineTidesOsc:
		return "tides-osc"
	case EngineRingsVoice:
		return "rings-voice"
	case EngineElementsVoice:
		return "elements-voice"
	case EngineDrumKit:
		return "drum-kit"
	case EngineSamplerKit:
		return "sampler-kit"
	case EngineSamplerSlicer:
		return "sampler-slicer"
	default:
		return "unknown"
	}
}

// Target names a velocity-modulatable destination inside an engine.
type Target int

const (
	TargetVolume Target = iota
	TargetFilterCutoff
	TargetFilterResonance
	TargetAttack
	TargetDecay
	TargetSustain
	TargetRelease
	TargetHarmonics
	TargetTimbre
	TargetMorph
	TargetOscMix
	TargetDetune
	TargetFMIndex
	TargetFMRatio
	TargetWavetablePos
	TargetNoiseLevel
	TargetFormant
	TargetPitch
)

func (t Target) String() string {
	switch t {
	case TargetVolume:
		return "volume"
	case TargetFilterCutoff:
		return "filter_cutoff"
	case TargetFilterResonance:
		return "filter_resonance"
	case TargetAttack:
		return "attack"
	case TargetDecay:
		return "decay"
	case TargetSustain:
		return "sustain"
	case TargetRelease:
		return "release"
	case TargetHarmonics:
		return "harmonics"
	case TargetTimbre:
		return "timbre"
	case TargetMorph:
		return "morph"
	case TargetOscMix:
		return "osc_mix"
	case TargetDetune:
		return "detune"
	case TargetFMIndex:
		return "fm_index"
	case TargetFMRatio:
		return "fm_ratio"
	case TargetWavetablePos:
		return "wavetable_pos"
	case TargetNoiseLevel:
		return "noise_level"
	case TargetFormant:
		return "formant"
	case TargetPitch:
		return "pitch"
	default:
		return "unknown"
	}
}

// Mapping routes velocity into one engine target.
type Mapping struct {
	Target         Target
	BaseValue      float32
	VelocityAmount float32 // [-1, 1]
	Curve          Curve
	MinValue       float32
	MaxValue       float32
	Invert         bool
	SmoothingMs    float32
}

// EngineConfig holds the velocity routing for one engine instance.
type EngineConfig struct {
	Engine      EngineType
	Name        string
	Mappings    []Mapping
	GlobalScale float32
	GlobalBias  float32
}

// TargetValue is one routed result from UpdateEngineParameters.
type TargetValue struct {
	Target Target
	Value  float32
}

type voiceKey struct {
	engineID int
	voiceID  int
}

type voiceState struct {
	lastVelocity int
	lastValues   map[Target]float32
}

// EngineUpdateFunc observes routed values per engine and voice.
type EngineUpdateFunc func(engineID, voiceID int, target Target, value float32)

// EngineRouter distributes velocity to per-engine target mappings and
// tracks per-voice state. Control goroutine only.
type EngineRouter struct {
	engines  map[int]*EngineConfig
	voices   map[voiceKey]*voiceState
	onUpdate EngineUpdateFunc
}

// NewEngineRouter creates an empty router.
func NewEngineRouter() *EngineRouter {
	return &EngineRouter{
		engines: make(map[int]*EngineConfig),
		voices:  make(map[voiceKey]*voiceState),
	}
}

// RegisterEngine installs the routing config for an engine instance.
func (r *EngineRouter) RegisterEngine(engineID int, cfg EngineConfig) {
	if cfg.GlobalScale <= 0 {
		cfg.GlobalScale = 1.0
	}
	for i := range cfg.Mappings {
		m := &cfg.Mappings[i]
		m.VelocityAmount = clampf(m.VelocityAmount, -1, 1)
		if m.MaxValue <= m.MinValue {
			m.MinValue, m.MaxValue = 0, 1
		}
	}
	r.engines[engineID] = &cfg
}

// RegisterDefaultEngine installs the built-in preset for an engine
// type. It reports whether a preset exists for the type.
func (r *EngineRouter) RegisterDefaultEngine(engineID int, typ EngineType) bool {
	cfg, ok := defaultEngineConfig(typ)
	if !ok {
		return false
	}
	r.RegisterEngine(engineID, cfg)
	return true
}

// EngineConfigFor returns the routing config for an engine instance.
func (r *EngineRouter) EngineConfigFor(engineID int) (EngineConfig, bool) {
	cfg, ok := r.engines[engineID]
	if !ok {
		return EngineConfig{}, false
	}
	return *cfg, true
}

// RemoveEngine forgets an engine and all its voices.
func (r *EngineRouter) RemoveEngine(engineID int) {
	delete(r.engines, engineID)
	for key := range r.voices {
		if key.engineID == engineID {
			delete(r.voices, key)
		}
	}
}

// OnUpdate installs a callback fired for every routed target value.
func (r *EngineRouter) OnUpdate(fn EngineUpdateFunc) {
	r.onUpdate = fn
}

// UpdateEngineParameters routes one velocity event through every
// mapping of the engine and records it on the voice. velocity is in
// [0, 127]. It returns nil for unknown engines.
func (r *EngineRouter) UpdateEngineParameters(engineID, voiceID, velocity int) []TargetValue {
	cfg, ok := r.engines[engineID]
	if !ok {
		return nil
	}
	if velocity < 0 {
		velocity = 0
	}
	if velocity > 127 {
		velocity = 127
	}

	key := voiceKey{engineID: engineID, voiceID: voiceID}
	vs, ok := r.voices[key]
	if !ok {
		vs = &voiceState{lastValues: make(map[Target]float32)}
		r.voices[key] = vs
	}
	vs.lastVelocity = velocity

	norm := float32(velocity) / 127.0
	out := make([]TargetValue, 0, len(cfg.Mappings))
	for i := range cfg.Mappings {
		m := &cfg.Mappings[i]

		v := norm
		if m.Invert {
			v = 1 - v
		}
		v = m.Curve.Apply(v)
		v = clamp01(v*cfg.GlobalScale + cfg.GlobalBias)

		value := m.BaseValue + v*m.VelocityAmount
		value = clampf(value, m.MinValue, m.MaxValue)

		vs.lastValues[m.Target] = value
		out = append(out, TargetValue{Target: m.Target, Value: value})
		if r.onUpdate != nil {
			r.onUpdate(engineID, voiceID, m.Target, value)
		}
	}
	return out
}

// VoiceValue returns the last routed value for a target on a voice.
func (r *EngineRouter) VoiceValue(engineID, voiceID int, target Target) (float32, bool) {
	vs, ok := r.voices[voiceKey{engineID: engineID, voiceID: voiceID}]
	if !ok {
		return 0, false
	}
	v, ok := vs.lastValues[target]
	return v, ok
}

// VoiceVelocity returns the last velocity seen by a voice.
func (r *EngineRouter) VoiceVelocity(engineID, voiceID int) (int, bool) {
	vs, ok := r.voices[voiceKey{engineID: engineID, voiceID: voiceID}]
	if !ok {
		return 0, false
	}
	return vs.lastVelocity, true
}

// RemoveVoice forgets one voice.
func (r *EngineRouter) RemoveVoice(engineID, voiceID int) {
	delete(r.voices, voiceKey{engineID: engineID, voiceID: voiceID})
}

// ClearVoices forgets all voices on an engine.
func (r *EngineRouter) ClearVoices(engineID int) {
	for key := range r.voices {
		if key.engineID == engineID {
			delete(r.voices, key)
		}
	}
}

// VoiceCount reports the number of tracked voices on an engine.
func (r *EngineRouter) VoiceCount(engineID int) int {
	n := 0
	for key := range r.voices {
		if key.engineID == engineID {
			n++
		}
	}
	return n
}

// AvailableTargets lists the targets that make sense for an engine
// type. Common targets come first.
func AvailableTargets(typ EngineType) []Target {
	common := []Target{
		TargetVolume, TargetFilterCutoff, TargetFilterResonance,
		TargetAttack, TargetDecay, TargetSustain, TargetRelease,
	}
	switch typ {
	case EngineMacroVA:
		return append(common, TargetOscMix, TargetDetune, TargetTimbre)
	case EngineMacroFM:
		return append(common, TargetFMIndex, TargetFMRatio, TargetTimbre)
	case EngineMacroWaveshaper:
		return append(common, TargetTimbre, TargetMorph)
	case EngineMacroWavetable:
		return append(common, TargetWavetablePos, TargetMorph)
	case EngineMacroChord, EngineMacroHarmonics:
		return append(common, TargetHarmonics, TargetTimbre, TargetMorph)
	case EngineFormantVocal:
		return append(common, TargetFormant, TargetMorph)
	case EngineNoiseParticles:
		return append(common, TargetNoiseLevel, TargetTimbre)
	case EngineTidesOsc, EngineRingsVoice, EngineElementsVoice:
		return append(common, TargetTimbre, TargetMorph, TargetDetune)
	case EngineDrumKit, EngineSamplerKit, EngineSamplerSlicer:
		return append(common, TargetPitch, TargetNoiseLevel)
	default:
		return common
	}
}

func defaultEngineConfig(typ EngineType) (EngineConfig, bool) {
	switch typ {
	case EngineMacroVA:
		return EngineConfig{
			Engine:      typ,
			Name:        "macro-va",
			GlobalScale: 1.0,
			Mappings: []Mapping{
				{Target: TargetVolume, BaseValue: 0.3, VelocityAmount: 0.7,
					Curve: Curve{Type: CurveExponential, Amount: 2.0}, MinValue: 0, MaxValue: 1},
				{Target: TargetFilterCutoff, BaseValue: 0.4, VelocityAmount: 0.5,
					Curve: Curve{Type: CurveLinear, Amount: 1.0}, MinValue: 0, MaxValue: 1},
				{Target: TargetAttack, BaseValue: 0.2, VelocityAmount: -0.15,
					Curve: Curve{Type: CurveLinear, Amount: 1.0}, MinValue: 0, MaxValue: 1},
			},
		}, true
	case EngineMacroFM:
		return EngineConfig{
			Engine:      typ,
			Name:        "macro-fm",
			GlobalScale: 1.0,
			Mappings: []Mapping{
				{Target: TargetVolume, BaseValue: 0.3, VelocityAmount: 0.7,
					Curve: Curve{Type: CurveExponential, Amount: 2.0}, MinValue: 0, MaxValue: 1},
				{Target: TargetFMIndex, BaseValue: 0.2, VelocityAmount: 0.6,
					Curve: Curve{Type: CurveSCurve, Amount: 2.0}, MinValue: 0, MaxValue: 1},
				{Target: TargetTimbre, BaseValue: 0.5, VelocityAmount: 0.3,
					Curve: Curve{Type: CurveLinear, Amount: 1.0}, MinValue: 0, MaxValue: 1},
			},
		}, true
	case EngineMacroHarmonics:
		return EngineConfig{
			Engine:      typ,
			Name:        "macro-harmonics",
			GlobalScale: 1.0,
			Mappings: []Mapping{
				{Target: TargetVolume, BaseValue: 0.35, VelocityAmount: 0.65,
					Curve: Curve{Type: CurveExponential, Amount: 1.5}, MinValue: 0, MaxValue: 1},
				{Target: TargetHarmonics, BaseValue: 0.3, VelocityAmount: 0.5,
					Curve: Curve{Type: CurveLogarithmic, Amount: 1.5}, MinValue: 0, MaxValue: 1},
			},
		}, true
	case EngineMacroWavetable:
		return EngineConfig{
			Engine:      typ,
			Name:        "macro-wavetable",
			GlobalScale: 1.0,
			Mappings: []Mapping{
				{Target: TargetVolume, BaseValue: 0.3, VelocityAmount: 0.7,
					Curve: Curve{Type: CurveExponential, Amount: 2.0}, MinValue: 0, MaxValue: 1},
				{Target: TargetWavetablePos, BaseValue: 0.0, VelocityAmount: 0.8,
					Curve: Curve{Type: CurveLinear, Amount: 1.0}, MinValue: 0, MaxValue: 1},
			},
		}, true
	default:
		return EngineConfig{}, false
	}
}
