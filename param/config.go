package param

// Config holds static metadata for one parameter.
type Config struct {
	Name        string
	MinValue    float32
	MaxValue    float32
	Default     float32
	StepSize    float32 // 0 means continuous
	Group       string
	Smoothed    bool
	SmoothType  SmoothType
	SmoothCurve SmoothCurve

	// Validate, when set, runs after the range check. Returning false
	// rejects the update.
	Validate func(float32) bool
}

// NewDefaultConfigs returns the built-in parameter table. All values are
// normalized to [0,1]; the step size quantizes discrete selectors.
func NewDefaultConfigs() [Count]Config {
	var cfgs [Count]Config
	for id := ID(0); id < Count; id++ {
		cfgs[id] = Config{
			Name:        id.String(),
			MinValue:    0.0,
			MaxValue:    1.0,
			Default:     0.5,
			Group:       groupOf(id),
			Smoothed:    true,
			SmoothType:  SmoothAudible,
			SmoothCurve: CurveLinear,
		}
	}

	cfgs[Harmonics].Default = 0.3
	cfgs[Timbre].Default = 0.5
	cfgs[Morph].Default = 0.0
	cfgs[OscMix].Default = 0.5
	cfgs[Detune].Default = 0.0
	cfgs[SubLevel].Default = 0.0
	cfgs[SubAnchor].Default = 0.5

	cfgs[FilterCutoff].Default = 0.8
	cfgs[FilterCutoff].SmoothCurve = CurveExponential
	cfgs[FilterResonance].Default = 0.1
	cfgs[FilterType].Default = 0.0
	cfgs[FilterType].StepSize = 1.0 / 3.0
	cfgs[FilterType].Smoothed = false

	cfgs[Attack].Default = 0.01
	cfgs[Decay].Default = 0.3
	cfgs[Sustain].Default = 0.7
	cfgs[Release].Default = 0.2

	cfgs[LFORate].Default = 0.25
	cfgs[LFODepth].Default = 0.0
	cfgs[LFOShape].Default = 0.0
	cfgs[LFOShape].StepSize = 1.0 / 5.0
	cfgs[LFOShape].Smoothed = false

	cfgs[ReverbSize].Default = 0.4
	cfgs[ReverbDamping].Default = 0.5
	cfgs[ReverbMix].Default = 0.15
	cfgs[DelayTime].Default = 0.25
	cfgs[DelayFeedback].Default = 0.3

	cfgs[Volume].Default = 0.8
	cfgs[Volume].SmoothType = SmoothFast
	cfgs[Pan].Default = 0.5
	cfgs[Pan].SmoothType = SmoothFast

	return cfgs
}

func groupOf(id ID) string {
	switch id {
	case Harmonics, Timbre, Morph, OscMix, Detune, SubLevel, SubAnchor:
		return "oscillator"
	case FilterCutoff, FilterResonance, FilterType:
		return "filter"
	case Attack, Decay, Sustain, Release:
		return "envelope"
	case LFORate, LFODepth, LFOShape:
		return "lfo"
	case ReverbSize, ReverbDamping, ReverbMix, DelayTime, DelayFeedback:
		return "effects"
	case Volume, Pan:
		return "mix"
	default:
		return "misc"
	}
}
