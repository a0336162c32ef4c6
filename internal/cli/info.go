package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"skribbl/internal/apperr"
	"skribbl/voiceprint"
)

var infoOutput string

var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show details of an enrolled speaker",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoOutput, "output", "o", FormatTable, "output format (table, json, yaml)")
	rootCmd.AddCommand(infoCmd)
}

type speakerDetail struct {
	voiceprint.VoiceProfile `yaml:",inline"`
	Dim                     int     `json:"dim" yaml:"dim"`
	Mean                    float64 `json:"mean" yaml:"mean"`
	Std                     float64 `json:"std" yaml:"std"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	if err := checkFormat(infoOutput); err != nil {
		return err
	}
	name := args[0]
	store, err := loadStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	profile, ok := store.Get(name)
	if !ok {
		if names := store.ListNames(); len(names) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Enrolled speakers: %s\n", strings.Join(names, ", "))
		}
		return apperr.NotFound("speaker", name)
	}

	detail := speakerDetail{VoiceProfile: *profile, Dim: profile.Dim()}
	detail.Mean, detail.Std = stat.PopMeanStdDev(toFloat64(profile.Embedding), nil)

	if infoOutput != FormatTable {
		return writeStructured(out, infoOutput, detail)
	}

	fmt.Fprintf(out, "Speaker: %s\n", profile.Name)
	fmt.Fprintf(out, "  ID:              %s\n", profile.ID)
	fmt.Fprintf(out, "  Enrollment file: %s\n", profile.SourcePath)
	fmt.Fprintf(out, "  Enrolled at:     %s\n", profile.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if profile.Model != "" {
		fmt.Fprintf(out, "  Model:           %s\n", profile.Model)
	}
	fmt.Fprintf(out, "  Embedding:       %d dimensions\n", detail.Dim)
	fmt.Fprintf(out, "  Mean:            %.4f\n", detail.Mean)
	fmt.Fprintf(out, "  Std:             %.4f\n", detail.Std)
	return nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
