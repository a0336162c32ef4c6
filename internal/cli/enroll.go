package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"skribbl/internal/apperr"
	"skribbl/voiceprint"
)

var enrollForce bool

var enrollCmd = &cobra.Command{
	Use:   "enroll <name> <audio-file>",
	Short: "Enroll a speaker from a voice sample",
	Long: `Compute a voice embedding from an audio sample and store it under the
given name. 10 to 30 seconds of clean speech from one person works best.

If the speaker already exists you are asked before the profile is replaced.

Examples:
  skribbl enroll Alice samples/alice.wav
  skribbl enroll Bob bob.mp3 --force`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	enrollCmd.Flags().BoolVarP(&enrollForce, "force", "f", false, "overwrite an existing profile without asking")
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name, audioPath := args[0], args[1]
	out := cmd.OutOrStdout()

	eng := newEngines(cfg, log)
	defer eng.close()

	store := openStore(eng.embedder)
	if err := store.LoadAll(); err != nil {
		return err
	}
	enroller := voiceprint.NewEnroller(store)
	if err := enroller.Validate(name, audioPath); err != nil {
		return err
	}

	overwrite := enrollForce
	if !overwrite && enroller.NeedsConfirmation(name) {
		if !confirm(cmd, fmt.Sprintf("Speaker '%s' already enrolled. Overwrite? (y/N): ", name)) {
			fmt.Fprintln(out, "Enrollment cancelled.")
			return apperr.Cancelled("enrollment cancelled")
		}
		overwrite = true
	}

	if err := enroller.CheckDim(name, eng.embedder.Dim()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Enrolling %s from %s...\n", name, audioPath)
	profile, err := enroller.Enroll(cmd.Context(), name, audioPath, overwrite)
	if err != nil {
		return err
	}

	printSuccess(out, "Successfully enrolled: %s", profile.Name)
	fmt.Fprintf(out, "  Audio file:  %s\n", profile.SourcePath)
	fmt.Fprintf(out, "  Enrolled at: %s\n", profile.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Embedding:   %d dimensions\n", profile.Dim())
	return nil
}
