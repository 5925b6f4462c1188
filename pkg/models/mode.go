package models

import "strings"

// GenerationMode selects how a model is driven: plain text-to-media or
// one of the modes that take a source asset as input
type GenerationMode string

const (
	ModeTxtToImage  GenerationMode = "txt_to_image"
	ModeTxtToVideo  GenerationMode = "txt_to_video"
	ModeImgToImg    GenerationMode = "img_to_img"
	ModeImgToVideo  GenerationMode = "img_to_video"
	ModeEditImage   GenerationMode = "edit_image"
	ModeExtendVideo GenerationMode = "extend_video"
)

// Label returns the human-readable name of the mode
func (m GenerationMode) Label() string {
	switch m {
	case ModeTxtToImage:
		return "Text to image"
	case ModeTxtToVideo:
		return "Text to video"
	case ModeImgToImg:
		return "Image to image"
	case ModeImgToVideo:
		return "Image to video"
	case ModeEditImage:
		return "Edit image"
	case ModeExtendVideo:
		return "Extend video"
	default:
		return string(m)
	}
}

// Valid reports whether the mode is one of the known modes
func (m GenerationMode) Valid() bool {
	switch m {
	case ModeTxtToImage, ModeTxtToVideo, ModeImgToImg, ModeImgToVideo, ModeEditImage, ModeExtendVideo:
		return true
	}
	return false
}

// ParseGenerationMode normalizes a mode id string. The result may be
// invalid; callers decide between falling back to the model default
// (loading persisted state) and failing (building a payload).
func ParseGenerationMode(id string) GenerationMode {
	return GenerationMode(strings.ToLower(strings.TrimSpace(id)))
}

// SupportedModes returns the modes a model accepts, default first.
// Video models take the video-producing modes, image models the
// image-producing ones.
func SupportedModes(model ModelType) []GenerationMode {
	switch model {
	case ModelLTX2:
		return []GenerationMode{ModeTxtToVideo, ModeImgToVideo, ModeExtendVideo}
	case ModelFluxKlein9b:
		return []GenerationMode{ModeTxtToImage, ModeImgToImg, ModeEditImage}
	case ModelAceStep15:
		return []GenerationMode{ModeTxtToVideo}
	}
	return nil
}

// DefaultModeForModel returns the mode a model starts in
func DefaultModeForModel(model ModelType) GenerationMode {
	modes := SupportedModes(model)
	if len(modes) == 0 {
		return ModeTxtToVideo
	}
	return modes[0]
}

// ModeSupportedByModel reports whether the model accepts the mode
func ModeSupportedByModel(mode GenerationMode, model ModelType) bool {
	for _, m := range SupportedModes(model) {
		if m == mode {
			return true
		}
	}
	return false
}

// ModeInputOptions holds the source-asset inputs of the modes that
// need one. Only the fields of the active mode reach the wire.
type ModeInputOptions struct {
	SourceImagePath string `yaml:"source_image" json:"source_image"`
	MaskPath        string `yaml:"mask_image" json:"mask_image"`
	SourceVideoPath string `yaml:"source_video" json:"source_video"`
	ExtendSeconds   int    `yaml:"extend_seconds" json:"extend_seconds"`
	ExtendFromFrame int    `yaml:"extend_from_frame" json:"extend_from_frame"` // -1 extends from the end
}

// DefaultModeInputOptions returns the mode input defaults
func DefaultModeInputOptions() ModeInputOptions {
	return ModeInputOptions{
		ExtendSeconds:   5,
		ExtendFromFrame: -1,
	}
}

// Validated returns a copy with the extend fields clamped
func (o ModeInputOptions) Validated() ModeInputOptions {
	o.ExtendSeconds = clampInt(o.ExtendSeconds, 1, 60)
	if o.ExtendFromFrame < -1 {
		o.ExtendFromFrame = -1
	}
	return o
}

// payloadParams returns the wire parameters the active mode
// contributes beyond the shared mode id
func (o ModeInputOptions) payloadParams(mode GenerationMode) map[string]interface{} {
	switch mode {
	case ModeImgToImg, ModeImgToVideo:
		return map[string]interface{}{
			"source_image": o.SourceImagePath,
		}
	case ModeEditImage:
		return map[string]interface{}{
			"source_image": o.SourceImagePath,
			"mask_image":   o.MaskPath,
		}
	case ModeExtendVideo:
		return map[string]interface{}{
			"source_video":      o.SourceVideoPath,
			"extend_seconds":    o.ExtendSeconds,
			"extend_from_frame": o.ExtendFromFrame,
		}
	}
	return nil
}
