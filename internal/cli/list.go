package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"speakers", "ls"},
	Short:   "List enrolled speakers",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", FormatTable, "output format (table, json, yaml)")
	rootCmd.AddCommand(listCmd)
}

// speakerSummary is the structured form of one list row.
type speakerSummary struct {
	Name       string `json:"name" yaml:"name"`
	EnrolledAt string `json:"enrolled_at" yaml:"enrolled_at"`
	Dim        int    `json:"dim" yaml:"dim"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
}

func runList(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(listOutput); err != nil {
		return err
	}
	store, err := loadStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	profiles := store.Profiles()
	summaries := make([]speakerSummary, len(profiles))
	for i, p := range profiles {
		summaries[i] = speakerSummary{
			Name:       p.Name,
			EnrolledAt: p.CreatedAt.Local().Format("2006-01-02 15:04"),
			Dim:        p.Dim(),
			Model:      p.Model,
		}
	}

	if listOutput != FormatTable {
		return writeStructured(out, listOutput, summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No speakers enrolled yet.")
		printHint(out, "Enroll one with: skribbl enroll <name> <audio-file>")
		return nil
	}

	fmt.Fprintf(out, "Enrolled speakers (%d):\n", len(summaries))
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{s.Name, s.EnrolledAt, strconv.Itoa(s.Dim)}
	}
	renderTable(out, []string{"NAME", "ENROLLED", "DIM"}, rows)
	return nil
}
