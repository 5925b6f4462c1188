package models

import "testing"

func TestLtx2Options_Validated_ClampsRanges(t *testing.T) {
	o := Ltx2Options{
		Width:           4096,
		Height:          100,
		Frames:          1000,
		FPS:             0,
		Steps:           200,
		CfgScale:        50,
		DenoiseStrength: 2,
		UpscaleFactor:   9,
	}
	v := o.Validated()

	if v.Width != 2048 {
		t.Errorf("Expected width clamped to 2048, got %d", v.Width)
	}
	if v.Height != 256 {
		t.Errorf("Expected height clamped to 256, got %d", v.Height)
	}
	if v.Frames != 240 {
		t.Errorf("Expected frames clamped to 240, got %d", v.Frames)
	}
	if v.FPS != 1 {
		t.Errorf("Expected fps clamped to 1, got %d", v.FPS)
	}
	if v.Steps != 80 {
		t.Errorf("Expected steps clamped to 80, got %d", v.Steps)
	}
	if v.CfgScale != 20 {
		t.Errorf("Expected cfg scale clamped to 20, got %v", v.CfgScale)
	}
	if v.DenoiseStrength != 1 {
		t.Errorf("Expected denoise strength clamped to 1, got %v", v.DenoiseStrength)
	}
	if v.UpscaleFactor != 4 {
		t.Errorf("Expected upscale factor clamped to 4, got %v", v.UpscaleFactor)
	}
}

func TestFluxOptions_Validated_ClampsRanges(t *testing.T) {
	o := FluxKlein9bOptions{Width: 10, Height: 5000, Steps: 0, NumImages: 20, Guidance: -3}
	v := o.Validated()

	if v.Width != 256 || v.Height != 2048 {
		t.Errorf("Expected 256x2048, got %dx%d", v.Width, v.Height)
	}
	if v.Steps != 1 {
		t.Errorf("Expected steps clamped to 1, got %d", v.Steps)
	}
	if v.NumImages != 8 {
		t.Errorf("Expected num images clamped to 8, got %d", v.NumImages)
	}
	if v.Guidance != 0 {
		t.Errorf("Expected guidance clamped to 0, got %v", v.Guidance)
	}
}

func TestValidated_SanitizesSeed(t *testing.T) {
	o := Ltx2Options{Seed: "-12a3 b45"}
	if got := o.Validated().Seed; got != "-12345" {
		t.Errorf("Expected seed -12345, got %q", got)
	}
}

func TestBuildPayload_Ltx2ClampsBeforeWire(t *testing.T) {
	settings := DefaultGenerationSettings()
	settings.SelectedModel = ModelLTX2
	settings.Ltx2.Width = 4096

	payload, err := BuildPayload(settings)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	if payload.Model != "ltx2" {
		t.Errorf("Expected model ltx2, got %q", payload.Model)
	}
	if got := payload.Parameters["width"]; got != 2048 {
		t.Errorf("Expected clamped width 2048 in payload, got %v", got)
	}
	for _, key := range []string{"height", "frames", "fps", "steps", "cfg_scale", "sampler", "scheduler", "seed", "randomize_seed", "prompt", "negative_prompt", "mode"} {
		if _, ok := payload.Parameters[key]; !ok {
			t.Errorf("Expected payload to contain %q", key)
		}
	}
}

func TestBuildPayload_AceUsesDurationKey(t *testing.T) {
	settings := DefaultGenerationSettings()
	settings.SelectedModel = ModelAceStep15

	payload, err := BuildPayload(settings)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	if got := payload.Parameters["duration_seconds"]; got != 8 {
		t.Errorf("Expected duration_seconds 8, got %v", got)
	}
	if _, ok := payload.Parameters["frames"]; ok {
		t.Error("Ace payload should not contain frames")
	}
}

func TestBuildPayload_AceCarriesPromptKeys(t *testing.T) {
	settings := DefaultGenerationSettings()
	settings.SelectedModel = ModelAceStep15
	settings.Ace.Prompt = "lo-fi drum loop"
	settings.Ace.NegativePrompt = "vocals"

	payload, err := BuildPayload(settings)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	if got := payload.Parameters["prompt"]; got != "lo-fi drum loop" {
		t.Errorf("Expected prompt in ace payload, got %v", got)
	}
	if got := payload.Parameters["negative_prompt"]; got != "vocals" {
		t.Errorf("Expected negative_prompt in ace payload, got %v", got)
	}
}

func TestBuildPayload_CarriesModeID(t *testing.T) {
	settings := DefaultGenerationSettings()
	payload, err := BuildPayload(settings)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	if got := payload.Parameters["mode"]; got != "txt_to_video" {
		t.Errorf("Expected default ltx2 mode txt_to_video, got %v", got)
	}

	settings.SelectedModel = ModelFluxKlein9b
	settings.SelectedMode = ""
	payload, err = BuildPayload(settings)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	if got := payload.Parameters["mode"]; got != "txt_to_image" {
		t.Errorf("Expected empty mode to default to txt_to_image for flux, got %v", got)
	}
}

func TestBuildPayload_ExtendVideoInputs(t *testing.T) {
	settings := DefaultGenerationSettings()
	settings.SelectedMode = ModeExtendVideo
	settings.ModeInputs.SourceVideoPath = "/clips/harbor.mp4"
	settings.ModeInputs.ExtendSeconds = 600
	settings.ModeInputs.ExtendFromFrame = -7

	payload, err := BuildPayload(settings)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	if got := payload.Parameters["source_video"]; got != "/clips/harbor.mp4" {
		t.Errorf("Expected source_video, got %v", got)
	}
	if got := payload.Parameters["extend_seconds"]; got != 60 {
		t.Errorf("Expected extend_seconds clamped to 60, got %v", got)
	}
	if got := payload.Parameters["extend_from_frame"]; got != -1 {
		t.Errorf("Expected extend_from_frame clamped to -1, got %v", got)
	}
}

func TestBuildPayload_EditImageInputs(t *testing.T) {
	settings := DefaultGenerationSettings()
	settings.SelectedModel = ModelFluxKlein9b
	settings.SelectedMode = ModeEditImage
	settings.ModeInputs.SourceImagePath = "/images/in.png"
	settings.ModeInputs.MaskPath = "/images/mask.png"

	payload, err := BuildPayload(settings)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	if got := payload.Parameters["source_image"]; got != "/images/in.png" {
		t.Errorf("Expected source_image, got %v", got)
	}
	if got := payload.Parameters["mask_image"]; got != "/images/mask.png" {
		t.Errorf("Expected mask_image, got %v", got)
	}
}

func TestBuildPayload_TextModeOmitsSourceInputs(t *testing.T) {
	settings := DefaultGenerationSettings()
	settings.ModeInputs.SourceImagePath = "/images/stale.png"
	settings.ModeInputs.SourceVideoPath = "/clips/stale.mp4"

	payload, err := BuildPayload(settings)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	for _, key := range []string{"source_image", "mask_image", "source_video", "extend_seconds", "extend_from_frame"} {
		if _, ok := payload.Parameters[key]; ok {
			t.Errorf("txt_to_video payload should not contain %q", key)
		}
	}
}

func TestBuildPayload_RejectsUnsupportedMode(t *testing.T) {
	settings := DefaultGenerationSettings()
	settings.SelectedModel = ModelFluxKlein9b
	settings.SelectedMode = ModeExtendVideo

	if _, err := BuildPayload(settings); err == nil {
		t.Error("Expected error for a mode the model does not accept")
	}

	settings.SelectedMode = GenerationMode("teleport")
	if _, err := BuildPayload(settings); err == nil {
		t.Error("Expected error for an unknown mode")
	}
}

func TestModeSupportMatrix(t *testing.T) {
	cases := []struct {
		mode  GenerationMode
		model ModelType
		want  bool
	}{
		{ModeTxtToVideo, ModelLTX2, true},
		{ModeImgToVideo, ModelLTX2, true},
		{ModeExtendVideo, ModelLTX2, true},
		{ModeTxtToImage, ModelLTX2, false},
		{ModeTxtToImage, ModelFluxKlein9b, true},
		{ModeImgToImg, ModelFluxKlein9b, true},
		{ModeEditImage, ModelFluxKlein9b, true},
		{ModeTxtToVideo, ModelFluxKlein9b, false},
		{ModeTxtToVideo, ModelAceStep15, true},
		{ModeEditImage, ModelAceStep15, false},
	}
	for _, tc := range cases {
		if got := ModeSupportedByModel(tc.mode, tc.model); got != tc.want {
			t.Errorf("ModeSupportedByModel(%s, %s) = %v, want %v", tc.mode, tc.model, got, tc.want)
		}
	}

	if got := DefaultModeForModel(ModelFluxKlein9b); got != ModeTxtToImage {
		t.Errorf("Expected flux default txt_to_image, got %s", got)
	}
}

func TestBuildPayload_UnknownModelFails(t *testing.T) {
	settings := DefaultGenerationSettings()
	settings.SelectedModel = ModelType("sdxl")

	if _, err := BuildPayload(settings); err == nil {
		t.Error("Expected error for unknown model, got nil")
	}
}

func TestIsTerminalStatus(t *testing.T) {
	cases := map[string]bool{
		"completed": true,
		"COMPLETED": true,
		"Failed":    true,
		"cancelled": true,
		"queued":    false,
		"running":   false,
		"":          false,
		"paused":    false,
	}
	for status, want := range cases {
		if got := IsTerminalStatus(status); got != want {
			t.Errorf("IsTerminalStatus(%q) = %v, want %v", status, got, want)
		}
	}
}
