package models

import "strings"

// ModelType identifies a generation model supported by the wan2gp server
type ModelType string

const (
	ModelLTX2        ModelType = "ltx2"
	ModelFluxKlein9b ModelType = "flux_klein_9b"
	ModelAceStep15   ModelType = "ace_step_15"
)

// Label returns the human-readable name of the model
func (m ModelType) Label() string {
	switch m {
	case ModelLTX2:
		return "LTX 2"
	case ModelFluxKlein9b:
		return "Flux Klein 9b"
	case ModelAceStep15:
		return "Ace Step 1.5"
	default:
		return string(m)
	}
}

// Valid reports whether the model is one of the supported types
func (m ModelType) Valid() bool {
	switch m {
	case ModelLTX2, ModelFluxKlein9b, ModelAceStep15:
		return true
	}
	return false
}

// ParseModelType resolves a model id string, defaulting to LTX2
func ParseModelType(id string) ModelType {
	m := ModelType(strings.ToLower(strings.TrimSpace(id)))
	if m.Valid() {
		return m
	}
	return ModelLTX2
}

// Ltx2Options holds generation parameters for the LTX 2 video model
type Ltx2Options struct {
	Width           int     `yaml:"width" json:"width"`
	Height          int     `yaml:"height" json:"height"`
	Frames          int     `yaml:"frames" json:"frames"`
	FPS             int     `yaml:"fps" json:"fps"`
	Steps           int     `yaml:"steps" json:"steps"`
	CfgScale        float64 `yaml:"cfg_scale" json:"cfg_scale"`
	Sampler         string  `yaml:"sampler" json:"sampler"`
	Scheduler       string  `yaml:"scheduler" json:"scheduler"`
	DenoiseStrength float64 `yaml:"denoise_strength" json:"denoise_strength"`
	Prompt          string  `yaml:"prompt" json:"prompt"`
	Seed            string  `yaml:"seed" json:"seed"`
	RandomizeSeed   bool    `yaml:"randomize_seed" json:"randomize_seed"`
	NegativePrompt  string  `yaml:"negative_prompt" json:"negative_prompt"`
	Tiling          bool    `yaml:"tiling" json:"tiling"`
	Upscale         bool    `yaml:"upscale" json:"upscale"`
	UpscaleFactor   float64 `yaml:"upscale_factor" json:"upscale_factor"`
}

// DefaultLtx2Options returns the server defaults for LTX 2
func DefaultLtx2Options() Ltx2Options {
	return Ltx2Options{
		Width:           1024,
		Height:          576,
		Frames:          73,
		FPS:             24,
		Steps:           28,
		CfgScale:        3.5,
		Sampler:         "euler",
		Scheduler:       "karras",
		DenoiseStrength: 1.0,
		RandomizeSeed:   true,
		UpscaleFactor:   1.0,
	}
}

// Validated returns a copy with every numeric field clamped to the
// range the model accepts and the seed reduced to sign + digits.
func (o Ltx2Options) Validated() Ltx2Options {
	o.Width = clampInt(o.Width, 256, 2048)
	o.Height = clampInt(o.Height, 256, 2048)
	o.Frames = clampInt(o.Frames, 8, 240)
	o.FPS = clampInt(o.FPS, 1, 60)
	o.Steps = clampInt(o.Steps, 1, 80)
	o.CfgScale = clampFloat(o.CfgScale, 1, 20)
	o.DenoiseStrength = clampFloat(o.DenoiseStrength, 0, 1)
	o.UpscaleFactor = clampFloat(o.UpscaleFactor, 1, 4)
	o.Seed = sanitizeSeed(o.Seed)
	return o
}

// FluxKlein9bOptions holds generation parameters for the Flux Klein 9b image model
type FluxKlein9bOptions struct {
	Width          int     `yaml:"width" json:"width"`
	Height         int     `yaml:"height" json:"height"`
	Steps          int     `yaml:"steps" json:"steps"`
	NumImages      int     `yaml:"num_images" json:"num_images"`
	Guidance       float64 `yaml:"guidance" json:"guidance"`
	Sampler        string  `yaml:"sampler" json:"sampler"`
	Scheduler      string  `yaml:"scheduler" json:"scheduler"`
	Strength       float64 `yaml:"strength" json:"strength"`
	Denoise        float64 `yaml:"denoise" json:"denoise"`
	Prompt         string  `yaml:"prompt" json:"prompt"`
	NegativePrompt string  `yaml:"negative_prompt" json:"negative_prompt"`
	Seed           string  `yaml:"seed" json:"seed"`
	RandomizeSeed  bool    `yaml:"randomize_seed" json:"randomize_seed"`
	SafetyChecker  bool    `yaml:"safety_checker" json:"safety_checker"`
	Tiling         bool    `yaml:"tiling" json:"tiling"`
	Upscale        bool    `yaml:"upscale" json:"upscale"`
	UpscaleFactor  float64 `yaml:"upscale_factor" json:"upscale_factor"`
}

// DefaultFluxKlein9bOptions returns the server defaults for Flux Klein 9b
func DefaultFluxKlein9bOptions() FluxKlein9bOptions {
	return FluxKlein9bOptions{
		Width:         1024,
		Height:        1024,
		Steps:         24,
		NumImages:     1,
		Guidance:      3.5,
		Sampler:       "euler",
		Scheduler:     "karras",
		Strength:      1.0,
		Denoise:       1.0,
		RandomizeSeed: true,
		SafetyChecker: true,
		UpscaleFactor: 1.0,
	}
}

// Validated returns a copy with all fields clamped to valid ranges
func (o FluxKlein9bOptions) Validated() FluxKlein9bOptions {
	o.Width = clampInt(o.Width, 256, 2048)
	o.Height = clampInt(o.Height, 256, 2048)
	o.Steps = clampInt(o.Steps, 1, 80)
	o.NumImages = clampInt(o.NumImages, 1, 8)
	o.Guidance = clampFloat(o.Guidance, 0, 20)
	o.Strength = clampFloat(o.Strength, 0, 1)
	o.Denoise = clampFloat(o.Denoise, 0, 1)
	o.UpscaleFactor = clampFloat(o.UpscaleFactor, 1, 4)
	o.Seed = sanitizeSeed(o.Seed)
	return o
}

// AceStep15Options holds generation parameters for the Ace Step 1.5 model
type AceStep15Options struct {
	Width           int     `yaml:"width" json:"width"`
	Height          int     `yaml:"height" json:"height"`
	DurationSeconds int     `yaml:"duration_seconds" json:"duration_seconds"`
	FPS             int     `yaml:"fps" json:"fps"`
	Steps           int     `yaml:"steps" json:"steps"`
	Guidance        float64 `yaml:"guidance" json:"guidance"`
	AudioReactive   bool    `yaml:"audio_reactive" json:"audio_reactive"`
	Prompt          string  `yaml:"prompt" json:"prompt"`
	NegativePrompt  string  `yaml:"negative_prompt" json:"negative_prompt"`
	Seed            string  `yaml:"seed" json:"seed"`
}

// DefaultAceStep15Options returns the server defaults for Ace Step 1.5
func DefaultAceStep15Options() AceStep15Options {
	return AceStep15Options{
		Width:           1280,
		Height:          720,
		DurationSeconds: 8,
		FPS:             24,
		Steps:           30,
		Guidance:        4.0,
	}
}

// Validated returns a copy with all fields clamped to valid ranges
func (o AceStep15Options) Validated() AceStep15Options {
	o.Width = clampInt(o.Width, 256, 2048)
	o.Height = clampInt(o.Height, 256, 2048)
	o.DurationSeconds = clampInt(o.DurationSeconds, 1, 60)
	o.FPS = clampInt(o.FPS, 1, 60)
	o.Steps = clampInt(o.Steps, 1, 80)
	o.Guidance = clampFloat(o.Guidance, 0, 20)
	o.Seed = sanitizeSeed(o.Seed)
	return o
}

// GenerationSettings is the canonical snapshot of everything needed to
// submit a job: the selected model and the per-model option sets.
type GenerationSettings struct {
	ServerAddr    string             `yaml:"server_addr" json:"server_addr"`
	SelectedModel ModelType          `yaml:"selected_model" json:"selected_model"`
	SelectedMode  GenerationMode     `yaml:"selected_mode" json:"selected_mode"`
	ModeInputs    ModeInputOptions   `yaml:"mode_inputs" json:"mode_inputs"`
	Ltx2          Ltx2Options        `yaml:"ltx2" json:"ltx2"`
	Flux          FluxKlein9bOptions `yaml:"flux" json:"flux"`
	Ace           AceStep15Options   `yaml:"ace" json:"ace"`
}

// DefaultGenerationSettings returns a settings snapshot with server defaults
func DefaultGenerationSettings() GenerationSettings {
	return GenerationSettings{
		SelectedModel: ModelLTX2,
		SelectedMode:  DefaultModeForModel(ModelLTX2),
		ModeInputs:    DefaultModeInputOptions(),
		Ltx2:          DefaultLtx2Options(),
		Flux:          DefaultFluxKlein9bOptions(),
		Ace:           DefaultAceStep15Options(),
	}
}

// Validated clamps every option set. The selected mode is left as-is:
// an incompatible mode fails payload building instead of being
// silently replaced.
func (s GenerationSettings) Validated() GenerationSettings {
	s.ModeInputs = s.ModeInputs.Validated()
	s.Ltx2 = s.Ltx2.Validated()
	s.Flux = s.Flux.Validated()
	s.Ace = s.Ace.Validated()
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sanitizeSeed keeps digits and the minus sign, dropping everything else
func sanitizeSeed(seed string) string {
	var b strings.Builder
	for _, r := range seed {
		if (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
