package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"embedkit/internal/embeddings"

	"github.com/spf13/cobra"
)

var modelsFormat string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List local sentence-transformers models",
	Long: `List the models the sentence-transformers provider can load.

Model names in configuration are matched loosely: "all-MiniLM-L6-v2",
"MiniLM-L6-v2" and "Qdrant/all-MiniLM-L6-v2-onnx" all select the same model.
Use "embedkit models resolve <name>" to check what a name maps to.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeModels(cmd.OutOrStdout(), embeddings.SupportedLocalModels(), modelsFormat)
	},
}

var modelsResolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Print the canonical model identifier for a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := embeddings.ResolveLocalModel(args[0])
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), id)

		return err
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsResolveCmd)
	modelsCmd.Flags().StringVar(&modelsFormat, "format", "text", "Output format (text, json)")
}

type modelInfo struct {
	ID          string `json:"id"`
	Dimensions  int    `json:"dimensions"`
	Description string `json:"description"`
}

func writeModels(w io.Writer, models []embeddings.LocalModel, format string) error {
	switch format {
	case "json":
		out := make([]modelInfo, 0, len(models))
		for _, m := range models {
			out = append(out, modelInfo{ID: string(m.ID), Dimensions: m.Dimensions, Description: m.Description})
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(out)
	case "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tDIMS\tDESCRIPTION")

		for _, m := range models {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", m.ID, m.Dimensions, m.Description)
		}

		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
	}
}
