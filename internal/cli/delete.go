package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"skribbl/internal/apperr"
	"skribbl/voiceprint"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete an enrolled speaker",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	store, err := loadStore()
	if err != nil {
		return err
	}
	_, loaded := store.Get(name)
	broken := !loaded && hasProblem(store.Verify(), name)
	if !loaded && !broken {
		return apperr.NotFound("speaker", name)
	}

	if !deleteYes && !confirm(cmd, fmt.Sprintf("Delete speaker '%s'? This cannot be undone. (y/N): ", name)) {
		fmt.Fprintln(out, "Deletion cancelled.")
		return nil
	}

	if broken {
		if _, err := store.Purge(name); err != nil {
			return err
		}
		printSuccess(out, "Removed broken profile: %s", name)
		return nil
	}

	deleted, err := store.Delete(name)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("speaker", name)
	}
	printSuccess(out, "Deleted speaker: %s", name)
	return nil
}

func hasProblem(problems []voiceprint.Problem, name string) bool {
	for _, p := range problems {
		if p.Name == name {
			return true
		}
	}
	return false
}
