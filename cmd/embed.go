package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"embedkit/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const previewValues = 6

var (
	embedFile     string
	embedProvider string
	embedSets     []string
	embedFormat   string
)

var embedCmd = &cobra.Command{
	Use:   "embed [text...]",
	Short: "Embed texts with the configured provider",
	Long: `Embed texts with the configured provider and print the vectors.

Texts come from the arguments, from --file (one text per line), or from
stdin when it is piped.

Examples:
  embedkit embed "hello world" "goodbye world"
  embedkit embed --file notes.txt --format json
  cat notes.txt | embedkit embed --provider sentence-transformers --set normalize_embeddings=true
  embedkit embed "hello" --provider openai --set model=text-embedding-3-large`,
	RunE: runEmbedCommand,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().StringVarP(&embedFile, "file", "f", "", "Read texts from a file, one per line")
	embedCmd.Flags().StringVarP(&embedProvider, "provider", "p", "", "Provider to use instead of the configured one")
	embedCmd.Flags().StringArrayVar(&embedSets, "set", nil, "Provider option as key=value (repeatable)")
	embedCmd.Flags().StringVar(&embedFormat, "format", "text", "Output format (text, json)")
}

func runEmbedCommand(cmd *cobra.Command, args []string) error {
	if embedFormat != "text" && embedFormat != "json" {
		return fmt.Errorf("unsupported format: %s (supported: text, json)", embedFormat)
	}

	texts, err := readInputs(args, embedFile, os.Stdin, term.IsTerminal(int(os.Stdin.Fd())))
	if err != nil {
		return err
	}

	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	provider, name, err := createProvider(cfg, embedProvider, embedSets)
	if err != nil {
		return err
	}
	defer closeProvider(provider)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	vectors, err := provider.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed texts: %w", err)
	}

	resp := server.EmbedResponse{Provider: name, Data: make([]server.EmbeddingData, len(vectors))}
	for i, vector := range vectors {
		resp.Data[i] = server.EmbeddingData{Index: i, Embedding: vector}
	}

	if embedFormat == "json" {
		return writeEmbeddingsJSON(cmd.OutOrStdout(), resp)
	}

	return writeEmbeddingsText(cmd.OutOrStdout(), texts, resp)
}

// readInputs picks texts from args, then file, then a piped stdin.
func readInputs(args []string, file string, stdin io.Reader, stdinIsTerminal bool) ([]string, error) {
	if len(args) > 0 && file != "" {
		return nil, fmt.Errorf("pass texts as arguments or with --file, not both")
	}

	if len(args) > 0 {
		return args, nil
	}

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()

		return readLines(f)
	}

	if !stdinIsTerminal {
		return readLines(stdin)
	}

	return nil, fmt.Errorf("no input texts: pass them as arguments, with --file, or on stdin")
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return lines, nil
}

func writeEmbeddingsJSON(w io.Writer, resp server.EmbedResponse) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(resp)
}

func writeEmbeddingsText(w io.Writer, texts []string, resp server.EmbedResponse) error {
	if len(resp.Data) == 0 {
		_, err := fmt.Fprintln(w, "No texts to embed")

		return err
	}

	for i, data := range resp.Data {
		preview := make([]string, 0, previewValues)
		for _, v := range data.Embedding[:min(previewValues, len(data.Embedding))] {
			preview = append(preview, fmt.Sprintf("%.4f", v))
		}

		if len(data.Embedding) > previewValues {
			preview = append(preview, "...")
		}

		if _, err := fmt.Fprintf(w, "%d. %s\n   dims=%d [%s]\n",
			data.Index+1, truncate(texts[i], 60), len(data.Embedding), strings.Join(preview, ", ")); err != nil {
			return err
		}
	}

	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-3]) + "..."
}
