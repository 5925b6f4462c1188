package models

import "fmt"

// GenerationPayload is the model + parameter bundle sent to the server
// to create a job. It is built fresh from validated settings at submit
// time and never mutated afterwards.
type GenerationPayload struct {
	Model      string                 `json:"model"`
	Parameters map[string]interface{} `json:"parameters"`
}

// BuildPayload constructs the wire payload for the selected model and
// mode. Settings are clamped before the parameter map is assembled, so
// an out-of-range value can never reach the transport. An unknown
// model or a mode the model does not accept is a structural error and
// fails before any network call.
func BuildPayload(settings GenerationSettings) (GenerationPayload, error) {
	if !settings.SelectedModel.Valid() {
		return GenerationPayload{}, fmt.Errorf("unsupported model %q", settings.SelectedModel)
	}

	mode := settings.SelectedMode
	if mode == "" {
		mode = DefaultModeForModel(settings.SelectedModel)
	}
	if !ModeSupportedByModel(mode, settings.SelectedModel) {
		return GenerationPayload{}, fmt.Errorf("%s is not supported by %s", mode.Label(), settings.SelectedModel.Label())
	}

	s := settings.Validated()

	var params map[string]interface{}
	switch s.SelectedModel {
	case ModelLTX2:
		o := s.Ltx2
		params = map[string]interface{}{
			"width":            o.Width,
			"height":           o.Height,
			"frames":           o.Frames,
			"fps":              o.FPS,
			"steps":            o.Steps,
			"cfg_scale":        o.CfgScale,
			"sampler":          o.Sampler,
			"scheduler":        o.Scheduler,
			"denoise_strength": o.DenoiseStrength,
			"seed":             o.Seed,
			"randomize_seed":   o.RandomizeSeed,
			"tiling":           o.Tiling,
			"upscale":          o.Upscale,
			"upscale_factor":   o.UpscaleFactor,
			"prompt":           o.Prompt,
			"negative_prompt":  o.NegativePrompt,
		}
	case ModelFluxKlein9b:
		o := s.Flux
		params = map[string]interface{}{
			"width":           o.Width,
			"height":          o.Height,
			"steps":           o.Steps,
			"num_images":      o.NumImages,
			"guidance":        o.Guidance,
			"sampler":         o.Sampler,
			"scheduler":       o.Scheduler,
			"strength":        o.Strength,
			"denoise":         o.Denoise,
			"seed":            o.Seed,
			"randomize_seed":  o.RandomizeSeed,
			"safety_checker":  o.SafetyChecker,
			"tiling":          o.Tiling,
			"upscale":         o.Upscale,
			"upscale_factor":  o.UpscaleFactor,
			"prompt":          o.Prompt,
			"negative_prompt": o.NegativePrompt,
		}
	case ModelAceStep15:
		o := s.Ace
		params = map[string]interface{}{
			"width":            o.Width,
			"height":           o.Height,
			"duration_seconds": o.DurationSeconds,
			"fps":              o.FPS,
			"steps":            o.Steps,
			"guidance":         o.Guidance,
			"audio_reactive":   o.AudioReactive,
			"seed":             o.Seed,
			"prompt":           o.Prompt,
			"negative_prompt":  o.NegativePrompt,
		}
	}

	params["mode"] = string(mode)
	for key, value := range s.ModeInputs.payloadParams(mode) {
		params[key] = value
	}

	return GenerationPayload{
		Model:      string(s.SelectedModel),
		Parameters: params,
	}, nil
}
