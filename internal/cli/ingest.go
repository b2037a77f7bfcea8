package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
)

var (
	ingestModule string
	ingestJSON   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a PDF or DOCX file into a module",
	Long: `Extracts the text of a PDF or DOCX file page by page, splits it into
overlapping chunks and replaces the module's chunk set.
The source file is copied, never moved.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestModule, "module", "m", "", "module name (default: demo)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	src := args[0]
	tmp, err := copyToTemp(src)
	if err != nil {
		return err
	}
	// Ingest relocates the temp copy; removal only matters on early failures.
	defer func() { _ = os.Remove(tmp) }()

	res, err := svc.Ingest.Ingest(context.Background(), ingestuc.Upload{
		Files:      []ingestuc.File{{Filename: filepath.Base(src), Path: tmp}},
		ModuleName: ingestModule,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Ingested %s into module %q: %d pages, %d chunks\n",
		filepath.Base(src), res.ModuleName, res.Pages, res.Chunks)
	for _, p := range res.ChunkFilePaths {
		cmd.Printf("  %s\n", p)
	}
	return nil
}

func copyToTemp(src string) (string, error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.CreateTemp("", "docqactl-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Name(), nil
}
