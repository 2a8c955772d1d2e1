package param

// ID identifies a synthesis parameter. Values are dense and double as
// array indices on the audio path.
type ID int

const (
	Harmonics ID = iota
	Timbre
	Morph
	OscMix
	Detune
	SubLevel
	SubAnchor
	FilterCutoff
	FilterResonance
	FilterType
	Attack
	Decay
	Sustain
	Release
	LFORate
	LFODepth
	LFOShape
	ReverbSize
	ReverbDamping
	ReverbMix
	DelayTime
	DelayFeedback
	Volume
	Pan

	Count
)

// MaxInstruments is the number of per-instrument parameter slots.
const MaxInstruments = 8

var idNames = [Count]string{
	Harmonics:       "harmonics",
	Timbre:          "timbre",
	Morph:           "morph",
	OscMix:          "osc_mix",
	Detune:          "detune",
	SubLevel:        "sub_level",
	SubAnchor:       "sub_anchor",
	FilterCutoff:    "filter_cutoff",
	FilterResonance: "filter_resonance",
	FilterType:      "filter_type",
	Attack:          "env_attack",
	Decay:           "env_decay",
	Sustain:         "amp_sustain",
	Release:         "env_release",
	LFORate:         "lfo_rate",
	LFODepth:        "lfo_depth",
	LFOShape:        "lfo_shape",
	ReverbSize:      "reverb_size",
	ReverbDamping:   "reverb_damping",
	ReverbMix:       "reverb_mix",
	DelayTime:       "delay_time",
	DelayFeedback:   "delay_feedback",
	Volume:          "volume",
	Pan:             "pan",
}

// Valid reports whether id addresses a real parameter.
func (id ID) Valid() bool {
	return id >= 0 && id < Count
}

// String returns the canonical preset name for the parameter.
func (id ID) String() string {
	if !id.Valid() {
		return "invalid"
	}
	return idNames[id]
}

// IDByName resolves a canonical preset name back to its ID.
func IDByName(name string) (ID, bool) {
	for id, n := range idNames {
		if n == name {
			return ID(id), true
		}
	}
	return Count, false
}

// AllIDs returns every parameter ID in ascending order.
func AllIDs() []ID {
	ids := make([]ID, Count)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}
