package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"skribbl/internal/logging"
	"skribbl/internal/service"
	"skribbl/session"
)

var (
	transcribeSpeakers int
	transcribeClipsDir string
	transcribeOutput   string
	transcribeLanguage string
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <self-audio> <others-audio>",
	Short: "Transcribe a two-track meeting and name the speakers",
	Long: `Transcribe your own track and the others track, diarize the others track,
match anonymous speakers against the enrolled library and print one merged
transcript ordered by time:

  [HH:MM:SS] Speaker: text

Speakers that match no profile keep their SPEAKER_NN label. Use
--export-clips to save a short clip per speaker for later enrollment.

Examples:
  skribbl transcribe me.wav others.wav
  skribbl transcribe me.wav others.wav --speakers 3 -o meeting.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runTranscribe,
}

func init() {
	f := transcribeCmd.Flags()
	f.IntVarP(&transcribeSpeakers, "speakers", "n", 0, "number of speakers on the others track (0 = auto)")
	f.StringVar(&transcribeClipsDir, "export-clips", "", "write one clip per anonymous speaker to this directory")
	f.StringVarP(&transcribeOutput, "output", "o", "", "write the transcript to a file instead of stdout")
	f.StringVarP(&transcribeLanguage, "language", "l", "", "spoken language (overrides config)")
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	eng := newEngines(cfg, log)
	defer eng.close()

	language := cfg.Language
	if transcribeLanguage != "" {
		language = transcribeLanguage
	}

	svc := service.NewTranscriptionService(
		eng.transcriber,
		eng.diarizer,
		eng.embedder,
		openStore(eng.embedder),
		service.Options{
			SelfLabel:         cfg.SelfSpeaker,
			SelfLabelExplicit: cfg.SelfSpeakerExplicit,
			Language:          language,
			NumSpeakers:       cfg.NumSpeakers,
			SampleRate:        cfg.SampleRate,
			Threshold:         &cfg.SimilarityThreshold,
		},
		logging.WithComponent(log, "service"),
	)

	res, err := svc.Run(cmd.Context(), service.Request{
		SelfAudio:   args[0],
		OthersAudio: args[1],
		NumSpeakers: transcribeSpeakers,
		ClipsDir:    transcribeClipsDir,
	})
	if err != nil {
		return err
	}

	if transcribeOutput == "" {
		if err := session.Render(cmd.OutOrStdout(), res.Segments); err != nil {
			return err
		}
	} else if err := writeTranscript(transcribeOutput, res.Segments); err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	if transcribeOutput != "" {
		printSuccess(errOut, "Transcript written to %s", transcribeOutput)
	}
	if len(res.Clips) > 0 {
		labels := make([]string, 0, len(res.Clips))
		for label := range res.Clips {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		fmt.Fprintln(errOut, "Speaker clips:")
		for _, label := range labels {
			fmt.Fprintf(errOut, "  %s: %s\n", label, res.Clips[label])
		}
		printHint(errOut, "Enroll a clip with: skribbl enroll <name> <clip>")
	}
	return nil
}

func writeTranscript(path string, segments []session.Segment) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript file: %w", err)
	}
	if err := session.Render(f, segments); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
