package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"skribbl/internal/logging"
	"skribbl/models"
)

var modelsOutput string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage downloaded models",
	Long: `List and download the Whisper, segmentation, speaker embedding and VAD
models skribbl runs on. Models are otherwise fetched on first use.`,
}

var modelsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List known models and their local status",
	Args:    cobra.NoArgs,
	RunE:    runModelsList,
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download [model-id...]",
	Short: "Download models (default: the configured ones)",
	Long: `Download models ahead of time. Without arguments the models named in the
configuration are fetched. Gated downloads use the configured auth token.

Examples:
  skribbl models download
  skribbl models download whisper-tiny.en silero-vad`,
	RunE: runModelsDownload,
}

func init() {
	modelsListCmd.Flags().StringVarP(&modelsOutput, "output", "o", FormatTable, "output format (table, json, yaml)")
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDownloadCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsList(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(modelsOutput); err != nil {
		return err
	}
	states := newModelManager(cfg, log).States()
	out := cmd.OutOrStdout()

	if modelsOutput != FormatTable {
		return writeStructured(out, modelsOutput, states)
	}

	active := configuredModels()
	rows := make([][]string, len(states))
	for i, s := range states {
		id := s.ID
		if active[s.ID] {
			id += " *"
		}
		rows[i] = []string{id, string(s.Engine), s.Size, string(s.Status)}
	}
	renderTable(out, []string{"ID", "ENGINE", "SIZE", "STATUS"}, rows)
	printHint(out, "* configured")
	return nil
}

func runModelsDownload(cmd *cobra.Command, args []string) error {
	ids := args
	if len(ids) == 0 {
		ids = []string{cfg.WhisperModel, cfg.SegmentationModel, cfg.EmbeddingModel, cfg.VADModel}
	}
	for _, id := range ids {
		if models.GetModelByID(id) == nil {
			return fmt.Errorf("unknown model: %s", id)
		}
	}

	errOut := cmd.ErrOrStderr()
	mgr := models.NewManager(cfg.ModelsDir, logging.WithComponent(log, "models"),
		models.WithAuthToken(cfg.AuthToken),
		models.WithProgress(func(id string, p float64) {
			fmt.Fprintf(errOut, "  %s: %5.1f%%\n", id, p)
		}),
	)

	for _, id := range ids {
		if mgr.IsDownloaded(id) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already downloaded\n", id)
			continue
		}
		path, err := mgr.Ensure(cmd.Context(), id)
		if err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "Downloaded %s to %s", id, path)
	}
	return nil
}

func configuredModels() map[string]bool {
	return map[string]bool{
		cfg.WhisperModel:      true,
		cfg.SegmentationModel: true,
		cfg.EmbeddingModel:    true,
		cfg.VADModel:          true,
	}
}
