package cli

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mmynk/splitbill/internal/config"
	"github.com/mmynk/splitbill/internal/ingest"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/models"
)

func newParseCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract items from recognized receipt text",
		Long: `Extract line items, tax and service amounts from receipt text that an
OCR step already produced. Tax and service amounts found on the receipt are
converted into rates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, cfg)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Receipt text file")
	cmd.Flags().String("backend", "", "Ingestion backend (default from config)")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	cmd.Flags().Bool("metrics", false, "Print ingestion metrics to stderr")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type parseOutput struct {
	Items       []models.Item `json:"items"`
	Tax         float64       `json:"tax"`
	Service     float64       `json:"service"`
	TaxRate     float64       `json:"tax_rate"`
	ServiceRate float64       `json:"service_rate"`
}

func runParse(cmd *cobra.Command, cfg *config.Config) error {
	path, _ := cmd.Flags().GetString("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read receipt %s: %w", path, err)
	}

	backend, _ := cmd.Flags().GetString("backend")
	if backend == "" {
		backend = cfg.Ingest.Backend
	}

	receipt, err := ingest.NewRegistry().Extract(cmd.Context(), backend, data)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	withMetrics, _ := cmd.Flags().GetBool("metrics")
	if withMetrics {
		metrics.New(reg).ObserveIngest(backend, len(receipt.Items))
	}

	rates := receipt.Rates()
	out := parseOutput{
		Items:       receipt.Items,
		Tax:         receipt.Tax,
		Service:     receipt.Service,
		TaxRate:     rates.Tax,
		ServiceRate: rates.Service,
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		err = writeJSON(cmd.OutOrStdout(), out)
	} else {
		err = writeParseTable(cmd.OutOrStdout(), receipt, rates)
	}
	if err != nil {
		return err
	}
	if withMetrics {
		return writeMetrics(cmd.ErrOrStderr(), reg)
	}
	return nil
}
