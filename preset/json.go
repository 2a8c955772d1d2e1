package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cwbudde/algo-velocity/param"
)

// SchemaVersion is the preset format written by Save. Older documents
// are accepted; unknown sections and names are ignored.
const SchemaVersion = "2.0"

// Info describes a preset.
type Info struct {
	Name         string `json:"name,omitempty"`
	Category     string `json:"category,omitempty"`
	Author       string `json:"author,omitempty"`
	Description  string `json:"description,omitempty"`
	CreatedDate  string `json:"created_date,omitempty"`
	ModifiedDate string `json:"modified_date,omitempty"`
}

// VelocityMapping is one per-parameter entry in the velocity section.
type VelocityMapping struct {
	VelocityScale float32 `json:"velocity_scale"`
}

// Performance holds the playback settings stored with a preset.
type Performance struct {
	Quality   string `json:"quality,omitempty"`
	MaxVoices int    `json:"max_voices,omitempty"`
}

// SystemInfo records which system wrote the preset.
type SystemInfo struct {
	EngineVersion  string `json:"engine_version,omitempty"`
	ParameterCount int    `json:"parameter_count,omitempty"`
}

// Preset is the in-memory form of a preset document. Parameters are
// keyed by canonical names and normalized to [0,1].
type Preset struct {
	SchemaVersion    string
	Info             Info
	Parameters       map[string]float32
	MacroAssignments map[string]string
	VelocityMappings map[string]VelocityMapping
	Performance      Performance
	SystemInfo       SystemInfo
}

// NewDefaultPreset returns a preset holding every parameter at its
// built-in default.
func NewDefaultPreset() *Preset {
	cfgs := param.NewDefaultConfigs()
	params := make(map[string]float32, param.Count)
	for id := param.ID(0); id < param.Count; id++ {
		params[id.String()] = cfgs[id].Default
	}
	return &Preset{
		SchemaVersion:    SchemaVersion,
		Parameters:       params,
		MacroAssignments: make(map[string]string),
		VelocityMappings: make(map[string]VelocityMapping),
		SystemInfo:       SystemInfo{ParameterCount: int(param.Count)},
	}
}

// Section layout of the document. Parameter values are raw so that a
// single malformed number skips one field instead of failing the file.
type file struct {
	SchemaVersion string                     `json:"schema_version,omitempty"`
	Info          *Info                      `json:"preset_info,omitempty"`
	Hold          map[string]json.RawMessage `json:"hold_params,omitempty"`
	Twist         map[string]json.RawMessage `json:"twist_params,omitempty"`
	Morph         map[string]json.RawMessage `json:"morph_params,omitempty"`
	Macros        map[string]string          `json:"macro_assignments,omitempty"`
	FX            *fxSection                 `json:"fx_params,omitempty"`
	Velocity      *velocitySection           `json:"velocity_config,omitempty"`
	Performance   *Performance               `json:"performance,omitempty"`
	SystemInfo    *SystemInfo                `json:"unified_system_info,omitempty"`
}

type fxSection struct {
	Reverb map[string]json.RawMessage `json:"reverb,omitempty"`
	Delay  map[string]json.RawMessage `json:"delay,omitempty"`
}

type velocitySection struct {
	Mappings map[string]*velocityMappingRaw `json:"velocity_mappings,omitempty"`
}

type velocityMappingRaw struct {
	VelocityScale json.RawMessage `json:"velocity_scale,omitempty"`
}

// twistNames are the parameters serialized into twist_params.
var twistNames = map[string]bool{
	"env_attack":  true,
	"env_decay":   true,
	"env_release": true,
	"lfo_rate":    true,
	"lfo_depth":   true,
	"detune":      true,
}

// fx name tables: short keys inside the fx sub-objects map onto the
// canonical reverb_*/delay_* names.
var reverbNames = map[string]string{
	"size":    "reverb_size",
	"damping": "reverb_damping",
	"mix":     "reverb_mix",
}

var delayNames = map[string]string{
	"time":     "delay_time",
	"feedback": "delay_feedback",
}

// Parse reads a preset document on top of the defaults. Unknown names
// and malformed numeric fields are skipped; only structurally broken
// JSON is an error.
func Parse(b []byte) (*Preset, error) {
	var f file
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}

	p := NewDefaultPreset()
	if f.SchemaVersion != "" {
		p.SchemaVersion = f.SchemaVersion
	}
	if f.Info != nil {
		p.Info = *f.Info
	}

	applyGroup(p.Parameters, f.Hold, nil)
	applyGroup(p.Parameters, f.Twist, nil)
	applyGroup(p.Parameters, f.Morph, nil)
	if f.FX != nil {
		applyGroup(p.Parameters, f.FX.Reverb, reverbNames)
		applyGroup(p.Parameters, f.FX.Delay, delayNames)
	}

	for name, val := range f.Macros {
		p.MacroAssignments[name] = val
	}

	if f.Velocity != nil {
		for name, raw := range f.Velocity.Mappings {
			if raw == nil {
				continue
			}
			if _, known := param.IDByName(name); !known {
				continue
			}
			scale, ok := parseFloat(raw.VelocityScale)
			if !ok {
				continue
			}
			p.VelocityMappings[name] = VelocityMapping{VelocityScale: scale}
		}
	}

	if f.Performance != nil {
		p.Performance = *f.Performance
	}
	if f.SystemInfo != nil {
		p.SystemInfo = *f.SystemInfo
	}
	return p, nil
}

// applyGroup copies the parseable numeric fields of one section into
// the parameter map. rename, when set, maps section keys to canonical
// names; keys missing from it are dropped.
func applyGroup(dst map[string]float32, src map[string]json.RawMessage, rename map[string]string) {
	for name, raw := range src {
		if rename != nil {
			canon, ok := rename[name]
			if !ok {
				continue
			}
			name = canon
		}
		if _, known := param.IDByName(name); !known {
			continue
		}
		v, ok := parseFloat(raw)
		if !ok {
			continue
		}
		dst[name] = clamp01(v)
	}
}

func parseFloat(raw json.RawMessage) (float32, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return float32(v), true
}

// Serialize renders a preset as schema 2.0 JSON.
func Serialize(p *Preset) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nil preset")
	}

	f := file{
		SchemaVersion: SchemaVersion,
		Hold:          make(map[string]json.RawMessage),
		Twist:         make(map[string]json.RawMessage),
		Morph:         make(map[string]json.RawMessage),
		FX: &fxSection{
			Reverb: make(map[string]json.RawMessage),
			Delay:  make(map[string]json.RawMessage),
		},
	}
	if p.Info != (Info{}) {
		info := p.Info
		f.Info = &info
	}

	names := make([]string, 0, len(p.Parameters))
	for name := range p.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, known := param.IDByName(name); !known {
			continue
		}
		raw := formatFloat(p.Parameters[name])
		switch {
		case name == "morph":
			f.Morph[name] = raw
		case twistNames[name]:
			f.Twist[name] = raw
		case strings.HasPrefix(name, "reverb_"):
			f.FX.Reverb[strings.TrimPrefix(name, "reverb_")] = raw
		case strings.HasPrefix(name, "delay_"):
			f.FX.Delay[strings.TrimPrefix(name, "delay_")] = raw
		default:
			f.Hold[name] = raw
		}
	}

	if len(p.MacroAssignments) > 0 {
		f.Macros = p.MacroAssignments
	}
	if len(p.VelocityMappings) > 0 {
		f.Velocity = &velocitySection{Mappings: make(map[string]*velocityMappingRaw)}
		for name, m := range p.VelocityMappings {
			f.Velocity.Mappings[name] = &velocityMappingRaw{
				VelocityScale: formatFloat(m.VelocityScale),
			}
		}
	}
	if p.Performance != (Performance{}) {
		perf := p.Performance
		f.Performance = &perf
	}
	info := p.SystemInfo
	info.ParameterCount = int(param.Count)
	f.SystemInfo = &info

	return json.MarshalIndent(&f, "", "  ")
}

func formatFloat(v float32) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// Load reads a preset file and applies it on top of the defaults.
func Load(path string) (*Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Save writes a preset file.
func Save(path string, p *Preset) error {
	b, err := Serialize(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// FromStore snapshots a parameter store into a preset.
func FromStore(s *param.Store, info Info) *Preset {
	p := NewDefaultPreset()
	p.Info = info
	for name, v := range s.Snapshot() {
		p.Parameters[name] = v
	}
	return p
}

// ApplyToStore writes a preset's parameters into a store. Values pass
// through the store's normal validation.
func ApplyToStore(s *param.Store, p *Preset) {
	if s == nil || p == nil {
		return
	}
	s.ApplySnapshot(p.Parameters)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
