package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"skribbl/models"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the voice library and model cache",
	Long: `Inspect the profile directory for orphaned or unreadable artifacts and
report which configured models are available locally. Exits 1 when the
library has problems.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	store := openStore(nil)

	fmt.Fprintf(out, "Voice profiles (%s):\n", store.Dir())
	problems := store.Verify()
	if err := store.LoadAll(); err != nil {
		return err
	}
	if len(problems) == 0 {
		printSuccess(out, "%d speaker(s), no problems", store.Count())
	}
	for _, p := range problems {
		fmt.Fprintf(out, "  ✗ %s: %s\n", p.Name, p.Reason)
	}
	if len(problems) > 0 {
		printHint(out, "Remove a broken profile with: skribbl delete <name>")
	}

	mgr := newModelManager(cfg, log)
	fmt.Fprintf(out, "Models (%s):\n", mgr.Dir())
	for _, id := range []string{cfg.WhisperModel, cfg.SegmentationModel, cfg.EmbeddingModel, cfg.VADModel} {
		switch {
		case models.GetModelByID(id) == nil:
			fmt.Fprintf(out, "  ✗ %s: unknown model\n", id)
		case mgr.IsDownloaded(id):
			printSuccess(out, "%s", id)
		default:
			fmt.Fprintf(out, "  - %s: not downloaded (fetched on first use)\n", id)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d profile problem(s) found", len(problems))
	}
	return nil
}
