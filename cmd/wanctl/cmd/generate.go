package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wan2gp/wanctl/pkg/gallery"
	"github.com/wan2gp/wanctl/pkg/models"
	"github.com/wan2gp/wanctl/pkg/orchestrator"
)

var (
	genModel           string
	genMode            string
	genPrompt          string
	genNegativePrompt  string
	genWidth           int
	genHeight          int
	genSteps           int
	genSeed            string
	genFrames          int
	genFPS             int
	genCfgScale        float64
	genGuidance        float64
	genNumImages       int
	genDuration        int
	genSourceImage     string
	genMaskImage       string
	genSourceVideo     string
	genExtendSeconds   int
	genExtendFromFrame int
	genSave            bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Submit a generation job and follow it to completion",
	Long: `Submit a generation job built from the stored settings plus any flag
overrides, poll it until it reaches a terminal state and download the
result assets into the local gallery.

Press Ctrl+C while the job is running to cancel it on the server.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&genModel, "model", "", "model to use: ltx2, flux_klein_9b, ace_step_15 (default from config)")
	generateCmd.Flags().StringVar(&genMode, "mode", "", "generation mode, e.g. txt_to_video, img_to_img, extend_video (default from config)")
	generateCmd.Flags().StringVar(&genPrompt, "prompt", "", "generation prompt")
	generateCmd.Flags().StringVar(&genNegativePrompt, "negative-prompt", "", "negative prompt")
	generateCmd.Flags().IntVar(&genWidth, "width", 0, "output width")
	generateCmd.Flags().IntVar(&genHeight, "height", 0, "output height")
	generateCmd.Flags().IntVar(&genSteps, "steps", 0, "sampling steps")
	generateCmd.Flags().StringVar(&genSeed, "seed", "", "seed (sign + digits)")
	generateCmd.Flags().IntVar(&genFrames, "frames", 0, "frame count (ltx2)")
	generateCmd.Flags().IntVar(&genFPS, "fps", 0, "frames per second (ltx2, ace_step_15)")
	generateCmd.Flags().Float64Var(&genCfgScale, "cfg-scale", 0, "cfg scale (ltx2)")
	generateCmd.Flags().Float64Var(&genGuidance, "guidance", 0, "guidance (flux_klein_9b, ace_step_15)")
	generateCmd.Flags().IntVar(&genNumImages, "num-images", 0, "number of images (flux_klein_9b)")
	generateCmd.Flags().IntVar(&genDuration, "duration", 0, "duration in seconds (ace_step_15)")
	generateCmd.Flags().StringVar(&genSourceImage, "source-image", "", "source image path or URI (img/edit modes)")
	generateCmd.Flags().StringVar(&genMaskImage, "mask-image", "", "mask path or URI (edit_image mode)")
	generateCmd.Flags().StringVar(&genSourceVideo, "source-video", "", "source video path or URI (extend_video mode)")
	generateCmd.Flags().IntVar(&genExtendSeconds, "extend-seconds", 0, "seconds to extend by (extend_video mode)")
	generateCmd.Flags().IntVar(&genExtendFromFrame, "extend-from-frame", -1, "frame to extend from, -1 for the end (extend_video mode)")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "save the effective settings back to the config file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	addr := GetServerAddr()
	if addr == "" {
		return fmt.Errorf("no server address configured; use --server or 'wanctl config set-server'")
	}

	genSettings := applyGenerateFlags(cmd, store.Load())
	if genSave {
		if err := store.Save(genSettings); err != nil {
			return err
		}
	}

	media, err := gallery.NewMediaStore(filepath.Join(dataDir(), "gallery"))
	if err != nil {
		return err
	}
	history, err := gallery.NewHistoryStore(filepath.Join(dataDir(), "history.json"))
	if err != nil {
		return err
	}

	orch := orchestrator.New(history, media, logger)
	defer orch.Close()

	states := orch.Subscribe()
	orch.SubmitGeneration(addr, genSettings)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case sig := <-sigChan:
			fmt.Printf("\nReceived %v, cancelling job...\n", sig)
			orch.CancelRunningJob()

		case state := <-states:
			switch state.Phase {
			case orchestrator.PhaseSubmitting:
				fmt.Println(state.Message)

			case orchestrator.PhaseRunning:
				if state.Progress != nil {
					fmt.Printf("Job %s: %s (%.0f%%)\n", state.JobID, state.Status, *state.Progress*100)
				} else {
					fmt.Printf("Job %s: %s\n", state.JobID, state.Status)
				}

			case orchestrator.PhaseIdle:
				fmt.Println("Job cancelled")
				return nil

			case orchestrator.PhaseCompleted:
				renderCompleted(state)
				return nil

			case orchestrator.PhaseFailed:
				if state.CanRetry && state.JobID != "" {
					return fmt.Errorf("%s (retry with 'wanctl jobs retry %s')", state.Message, state.JobID)
				}
				return fmt.Errorf("%s", state.Message)
			}
		}
	}
}

func renderCompleted(state orchestrator.RunState) {
	if IsJSONOutput() {
		output, _ := json.MarshalIndent(map[string]interface{}{
			"jobId":         state.JobID,
			"savedLocators": state.SavedLocators,
		}, "", "  ")
		fmt.Println(string(output))
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Saved Asset")
	for i, locator := range state.SavedLocators {
		table.Append(fmt.Sprintf("%d", i+1), locator)
	}
	table.Render()
	fmt.Printf("\nGeneration completed: job %s, %d assets saved\n", state.JobID, len(state.SavedLocators))
}

// applyGenerateFlags overlays flags the user actually set onto the
// stored settings snapshot
func applyGenerateFlags(cmd *cobra.Command, s models.GenerationSettings) models.GenerationSettings {
	if cmd.Flags().Changed("model") {
		s.SelectedModel = models.ParseModelType(genModel)
		if !models.ModeSupportedByModel(s.SelectedMode, s.SelectedModel) {
			s.SelectedMode = models.DefaultModeForModel(s.SelectedModel)
		}
	}

	changed := cmd.Flags().Changed
	if changed("mode") {
		// an explicitly requested mode is kept even if incompatible;
		// payload building rejects it with the reason
		s.SelectedMode = models.ParseGenerationMode(genMode)
	}
	if changed("source-image") {
		s.ModeInputs.SourceImagePath = genSourceImage
	}
	if changed("mask-image") {
		s.ModeInputs.MaskPath = genMaskImage
	}
	if changed("source-video") {
		s.ModeInputs.SourceVideoPath = genSourceVideo
	}
	if changed("extend-seconds") {
		s.ModeInputs.ExtendSeconds = genExtendSeconds
	}
	if changed("extend-from-frame") {
		s.ModeInputs.ExtendFromFrame = genExtendFromFrame
	}

	switch s.SelectedModel {
	case models.ModelLTX2:
		o := &s.Ltx2
		if changed("prompt") {
			o.Prompt = genPrompt
		}
		if changed("negative-prompt") {
			o.NegativePrompt = genNegativePrompt
		}
		if changed("width") {
			o.Width = genWidth
		}
		if changed("height") {
			o.Height = genHeight
		}
		if changed("steps") {
			o.Steps = genSteps
		}
		if changed("seed") {
			o.Seed = genSeed
			o.RandomizeSeed = false
		}
		if changed("frames") {
			o.Frames = genFrames
		}
		if changed("fps") {
			o.FPS = genFPS
		}
		if changed("cfg-scale") {
			o.CfgScale = genCfgScale
		}

	case models.ModelFluxKlein9b:
		o := &s.Flux
		if changed("prompt") {
			o.Prompt = genPrompt
		}
		if changed("negative-prompt") {
			o.NegativePrompt = genNegativePrompt
		}
		if changed("width") {
			o.Width = genWidth
		}
		if changed("height") {
			o.Height = genHeight
		}
		if changed("steps") {
			o.Steps = genSteps
		}
		if changed("seed") {
			o.Seed = genSeed
			o.RandomizeSeed = false
		}
		if changed("guidance") {
			o.Guidance = genGuidance
		}
		if changed("num-images") {
			o.NumImages = genNumImages
		}

	case models.ModelAceStep15:
		o := &s.Ace
		if changed("prompt") {
			o.Prompt = genPrompt
		}
		if changed("negative-prompt") {
			o.NegativePrompt = genNegativePrompt
		}
		if changed("width") {
			o.Width = genWidth
		}
		if changed("height") {
			o.Height = genHeight
		}
		if changed("steps") {
			o.Steps = genSteps
		}
		if changed("seed") {
			o.Seed = genSeed
		}
		if changed("fps") {
			o.FPS = genFPS
		}
		if changed("guidance") {
			o.Guidance = genGuidance
		}
		if changed("duration") {
			o.DurationSeconds = genDuration
		}
	}
	return s
}
