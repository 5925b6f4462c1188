// Package settings persists the generation settings snapshot in a
// yaml config file, one key per field.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/wan2gp/wanctl/pkg/models"
)

// Store reads and writes the settings file. Values are validated
// (clamped) on save, so a loaded snapshot is always inside model
// ranges unless the file was edited by hand; Load clamps again to
// cover that case.
type Store struct {
	v    *viper.Viper
	path string
}

// DefaultConfigPath returns $HOME/.wanctl/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".wanctl", "config.yaml"), nil
}

// NewStore creates a store backed by the given file; a missing file is
// not an error, defaults apply until the first save.
func NewStore(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v, models.DefaultGenerationSettings())

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) && !strings.Contains(err.Error(), "no such file") {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return &Store{v: v, path: path}, nil
}

// Load returns the current settings snapshot with defaults applied
func (s *Store) Load() models.GenerationSettings {
	v := s.v
	settings := models.GenerationSettings{
		ServerAddr:    v.GetString("server_addr"),
		SelectedModel: models.ParseModelType(v.GetString("selected_model")),
		SelectedMode:  models.ParseGenerationMode(v.GetString("selected_mode")),
		ModeInputs: models.ModeInputOptions{
			SourceImagePath: v.GetString("mode.source_image"),
			MaskPath:        v.GetString("mode.mask_image"),
			SourceVideoPath: v.GetString("mode.source_video"),
			ExtendSeconds:   v.GetInt("mode.extend_seconds"),
			ExtendFromFrame: v.GetInt("mode.extend_from_frame"),
		},
		Ltx2: models.Ltx2Options{
			Width:           v.GetInt("ltx2.width"),
			Height:          v.GetInt("ltx2.height"),
			Frames:          v.GetInt("ltx2.frames"),
			FPS:             v.GetInt("ltx2.fps"),
			Steps:           v.GetInt("ltx2.steps"),
			CfgScale:        v.GetFloat64("ltx2.cfg_scale"),
			Sampler:         v.GetString("ltx2.sampler"),
			Scheduler:       v.GetString("ltx2.scheduler"),
			DenoiseStrength: v.GetFloat64("ltx2.denoise_strength"),
			Prompt:          v.GetString("ltx2.prompt"),
			Seed:            v.GetString("ltx2.seed"),
			RandomizeSeed:   v.GetBool("ltx2.randomize_seed"),
			NegativePrompt:  v.GetString("ltx2.negative_prompt"),
			Tiling:          v.GetBool("ltx2.tiling"),
			Upscale:         v.GetBool("ltx2.upscale"),
			UpscaleFactor:   v.GetFloat64("ltx2.upscale_factor"),
		},
		Flux: models.FluxKlein9bOptions{
			Width:          v.GetInt("flux.width"),
			Height:         v.GetInt("flux.height"),
			Steps:          v.GetInt("flux.steps"),
			NumImages:      v.GetInt("flux.num_images"),
			Guidance:       v.GetFloat64("flux.guidance"),
			Sampler:        v.GetString("flux.sampler"),
			Scheduler:      v.GetString("flux.scheduler"),
			Strength:       v.GetFloat64("flux.strength"),
			Denoise:        v.GetFloat64("flux.denoise"),
			Prompt:         v.GetString("flux.prompt"),
			NegativePrompt: v.GetString("flux.negative_prompt"),
			Seed:           v.GetString("flux.seed"),
			RandomizeSeed:  v.GetBool("flux.randomize_seed"),
			SafetyChecker:  v.GetBool("flux.safety_checker"),
			Tiling:         v.GetBool("flux.tiling"),
			Upscale:        v.GetBool("flux.upscale"),
			UpscaleFactor:  v.GetFloat64("flux.upscale_factor"),
		},
		Ace: models.AceStep15Options{
			Width:           v.GetInt("ace.width"),
			Height:          v.GetInt("ace.height"),
			DurationSeconds: v.GetInt("ace.duration_seconds"),
			FPS:             v.GetInt("ace.fps"),
			Steps:           v.GetInt("ace.steps"),
			Guidance:        v.GetFloat64("ace.guidance"),
			AudioReactive:   v.GetBool("ace.audio_reactive"),
			Prompt:          v.GetString("ace.prompt"),
			NegativePrompt:  v.GetString("ace.negative_prompt"),
			Seed:            v.GetString("ace.seed"),
		},
	}
	// a persisted mode the current model does not accept falls back to
	// the model's default, the same correction made when the model
	// selection changes
	if !models.ModeSupportedByModel(settings.SelectedMode, settings.SelectedModel) {
		settings.SelectedMode = models.DefaultModeForModel(settings.SelectedModel)
	}
	return settings.Validated()
}

// Save validates and writes the full settings snapshot
func (s *Store) Save(settings models.GenerationSettings) error {
	settings = settings.Validated()

	set := s.v.Set
	set("server_addr", strings.TrimSpace(settings.ServerAddr))
	set("selected_model", string(settings.SelectedModel))
	set("selected_mode", string(settings.SelectedMode))

	m := settings.ModeInputs
	set("mode.source_image", m.SourceImagePath)
	set("mode.mask_image", m.MaskPath)
	set("mode.source_video", m.SourceVideoPath)
	set("mode.extend_seconds", m.ExtendSeconds)
	set("mode.extend_from_frame", m.ExtendFromFrame)

	o := settings.Ltx2
	set("ltx2.width", o.Width)
	set("ltx2.height", o.Height)
	set("ltx2.frames", o.Frames)
	set("ltx2.fps", o.FPS)
	set("ltx2.steps", o.Steps)
	set("ltx2.cfg_scale", o.CfgScale)
	set("ltx2.sampler", o.Sampler)
	set("ltx2.scheduler", o.Scheduler)
	set("ltx2.denoise_strength", o.DenoiseStrength)
	set("ltx2.prompt", o.Prompt)
	set("ltx2.seed", o.Seed)
	set("ltx2.randomize_seed", o.RandomizeSeed)
	set("ltx2.negative_prompt", o.NegativePrompt)
	set("ltx2.tiling", o.Tiling)
	set("ltx2.upscale", o.Upscale)
	set("ltx2.upscale_factor", o.UpscaleFactor)

	f := settings.Flux
	set("flux.width", f.Width)
	set("flux.height", f.Height)
	set("flux.steps", f.Steps)
	set("flux.num_images", f.NumImages)
	set("flux.guidance", f.Guidance)
	set("flux.sampler", f.Sampler)
	set("flux.scheduler", f.Scheduler)
	set("flux.strength", f.Strength)
	set("flux.denoise", f.Denoise)
	set("flux.prompt", f.Prompt)
	set("flux.negative_prompt", f.NegativePrompt)
	set("flux.seed", f.Seed)
	set("flux.randomize_seed", f.RandomizeSeed)
	set("flux.safety_checker", f.SafetyChecker)
	set("flux.tiling", f.Tiling)
	set("flux.upscale", f.Upscale)
	set("flux.upscale_factor", f.UpscaleFactor)

	a := settings.Ace
	set("ace.width", a.Width)
	set("ace.height", a.Height)
	set("ace.duration_seconds", a.DurationSeconds)
	set("ace.fps", a.FPS)
	set("ace.steps", a.Steps)
	set("ace.guidance", a.Guidance)
	set("ace.audio_reactive", a.AudioReactive)
	set("ace.prompt", a.Prompt)
	set("ace.negative_prompt", a.NegativePrompt)
	set("ace.seed", a.Seed)

	return s.write()
}

// SaveServerAddr updates only the stored server address
func (s *Store) SaveServerAddr(addr string) error {
	s.v.Set("server_addr", strings.TrimSpace(addr))
	return s.write()
}

// SaveSelectedModel updates only the selected model
func (s *Store) SaveSelectedModel(model models.ModelType) error {
	if !model.Valid() {
		return fmt.Errorf("unsupported model %q", model)
	}
	s.v.Set("selected_model", string(model))
	return s.write()
}

// SaveSelectedMode updates only the selected generation mode
func (s *Store) SaveSelectedMode(mode models.GenerationMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unsupported mode %q", mode)
	}
	s.v.Set("selected_mode", string(mode))
	return s.write()
}

// Path returns the config file location
func (s *Store) Path() string {
	return s.path
}

func (s *Store) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", s.path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d models.GenerationSettings) {
	v.SetDefault("server_addr", d.ServerAddr)
	v.SetDefault("selected_model", string(d.SelectedModel))
	v.SetDefault("selected_mode", string(d.SelectedMode))

	v.SetDefault("mode.source_image", d.ModeInputs.SourceImagePath)
	v.SetDefault("mode.mask_image", d.ModeInputs.MaskPath)
	v.SetDefault("mode.source_video", d.ModeInputs.SourceVideoPath)
	v.SetDefault("mode.extend_seconds", d.ModeInputs.ExtendSeconds)
	v.SetDefault("mode.extend_from_frame", d.ModeInputs.ExtendFromFrame)

	v.SetDefault("ltx2.width", d.Ltx2.Width)
	v.SetDefault("ltx2.height", d.Ltx2.Height)
	v.SetDefault("ltx2.frames", d.Ltx2.Frames)
	v.SetDefault("ltx2.fps", d.Ltx2.FPS)
	v.SetDefault("ltx2.steps", d.Ltx2.Steps)
	v.SetDefault("ltx2.cfg_scale", d.Ltx2.CfgScale)
	v.SetDefault("ltx2.sampler", d.Ltx2.Sampler)
	v.SetDefault("ltx2.scheduler", d.Ltx2.Scheduler)
	v.SetDefault("ltx2.denoise_strength", d.Ltx2.DenoiseStrength)
	v.SetDefault("ltx2.prompt", d.Ltx2.Prompt)
	v.SetDefault("ltx2.seed", d.Ltx2.Seed)
	v.SetDefault("ltx2.randomize_seed", d.Ltx2.RandomizeSeed)
	v.SetDefault("ltx2.negative_prompt", d.Ltx2.NegativePrompt)
	v.SetDefault("ltx2.tiling", d.Ltx2.Tiling)
	v.SetDefault("ltx2.upscale", d.Ltx2.Upscale)
	v.SetDefault("ltx2.upscale_factor", d.Ltx2.UpscaleFactor)

	v.SetDefault("flux.width", d.Flux.Width)
	v.SetDefault("flux.height", d.Flux.Height)
	v.SetDefault("flux.steps", d.Flux.Steps)
	v.SetDefault("flux.num_images", d.Flux.NumImages)
	v.SetDefault("flux.guidance", d.Flux.Guidance)
	v.SetDefault("flux.sampler", d.Flux.Sampler)
	v.SetDefault("flux.scheduler", d.Flux.Scheduler)
	v.SetDefault("flux.strength", d.Flux.Strength)
	v.SetDefault("flux.denoise", d.Flux.Denoise)
	v.SetDefault("flux.prompt", d.Flux.Prompt)
	v.SetDefault("flux.negative_prompt", d.Flux.NegativePrompt)
	v.SetDefault("flux.seed", d.Flux.Seed)
	v.SetDefault("flux.randomize_seed", d.Flux.RandomizeSeed)
	v.SetDefault("flux.safety_checker", d.Flux.SafetyChecker)
	v.SetDefault("flux.tiling", d.Flux.Tiling)
	v.SetDefault("flux.upscale", d.Flux.Upscale)
	v.SetDefault("flux.upscale_factor", d.Flux.UpscaleFactor)

	v.SetDefault("ace.width", d.Ace.Width)
	v.SetDefault("ace.height", d.Ace.Height)
	v.SetDefault("ace.duration_seconds", d.Ace.DurationSeconds)
	v.SetDefault("ace.fps", d.Ace.FPS)
	v.SetDefault("ace.steps", d.Ace.Steps)
	v.SetDefault("ace.guidance", d.Ace.Guidance)
	v.SetDefault("ace.audio_reactive", d.Ace.AudioReactive)
	v.SetDefault("ace.prompt", d.Ace.Prompt)
	v.SetDefault("ace.negative_prompt", d.Ace.NegativePrompt)
	v.SetDefault("ace.seed", d.Ace.Seed)
}
