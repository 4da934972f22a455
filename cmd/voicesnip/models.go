package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"voicesnip/internal/config"
	"voicesnip/internal/models"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List whisper models and their cache state",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openModels()
			if err != nil {
				return err
			}
			listModels(cmd.OutOrStdout(), mgr)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <model>",
		Short: "Remove every cached build of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openModels()
			if err != nil {
				return err
			}
			n, err := deleteModel(mgr, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d file(s) of %s\n", n, args[0])
			return nil
		},
	})
	return cmd
}

func openModels() (*models.Manager, error) {
	dir, err := config.ModelsDir()
	if err != nil {
		return nil, err
	}
	return models.NewManager(dir, nil)
}

func listModels(w io.Writer, mgr *models.Manager) {
	fmt.Fprintf(w, "cache: %s\n", mgr.ModelsDir())
	for _, info := range models.Registry {
		mark := " "
		if mgr.IsDownloaded(info) {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-10s %-8s %5d MB  %s\n", mark, info.Name, info.Precision, info.Size/(1024*1024), info.Filename)
	}
}

// deleteModel удаляет скачанные файлы модели всех точностей.
func deleteModel(mgr *models.Manager, name string) (int, error) {
	if !models.IsKnown(name) {
		return 0, fmt.Errorf("unknown model %q", name)
	}
	removed := 0
	for _, prec := range []models.Precision{models.PrecisionInt8, models.PrecisionFloat16} {
		info, ok := models.Lookup(name, prec)
		if !ok || !mgr.IsDownloaded(info) {
			continue
		}
		if err := mgr.Delete(info); err != nil {
			return removed, fmt.Errorf("delete %s: %w", info.Filename, err)
		}
		removed++
	}
	return removed, nil
}
