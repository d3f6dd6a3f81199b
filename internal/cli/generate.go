package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wedding-appgen/internal/generator"
	"wedding-appgen/internal/models"
)

var (
	requestPath string
	outDir      string
	noLedger    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one app from a questionnaire JSON file",
	Long: `Generate reads a questionnaire submission from a JSON file, builds the
app and prints the path of the resulting zip archive. The archive is kept.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&requestPath, "request", "r", "", "path to the questionnaire JSON (required)")
	generateCmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for the archive (default: output_dir from config)")
	generateCmd.Flags().BoolVar(&noLedger, "no-ledger", false, "do not record the generation in the ledger")
	_ = generateCmd.MarkFlagRequired("request")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	req, err := readRequest(requestPath)
	if err != nil {
		return err
	}
	if err := generator.ValidateSubmission(req); err != nil {
		return err
	}

	dir := cfg.OutputDir
	if outDir != "" {
		dir = outDir
	}

	var gen *generator.Generator
	if noLedger {
		gen, err = newGenerator(dir, nil)
	} else {
		ledger, lerr := openLedger()
		if lerr != nil {
			return fmt.Errorf("failed to open ledger: %w", lerr)
		}
		defer ledger.Close()
		gen, err = newGenerator(dir, ledger)
	}
	if err != nil {
		return err
	}

	res, err := gen.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.ArchivePath)
	return nil
}

func readRequest(path string) (*models.GenerationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	var req models.GenerationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request %s: %w", path, err)
	}
	return &req, nil
}
