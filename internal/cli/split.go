package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/config"
	"github.com/mmynk/splitbill/internal/ingest"
	"github.com/mmynk/splitbill/internal/metrics"
)

func newSplitCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Compute each person's share of a bill file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, cfg)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Bill file (TOML)")
	cmd.Flags().Float64("tax", 0, "Tax rate in percent (overrides bill and config)")
	cmd.Flags().Float64("service", 0, "Service rate in percent (overrides bill and config)")
	cmd.Flags().String("tax-base", "", "Tax base: subtotal_and_service or subtotal")
	cmd.Flags().String("stale", "", "Stale assignee policy: exclude or redistribute")
	cmd.Flags().String("payer", "", "Person ID who paid; prints who owes them")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	cmd.Flags().Bool("metrics", false, "Print allocation metrics to stderr")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runSplit(cmd *cobra.Command, cfg *config.Config) error {
	path, _ := cmd.Flags().GetString("file")
	bill, err := loadBill(path)
	if err != nil {
		return err
	}

	rates := cfg.DefaultRates()
	if bill.TaxRate != nil {
		rates.Tax = *bill.TaxRate
	}
	if bill.ServiceRate != nil {
		rates.Service = *bill.ServiceRate
	}
	if cmd.Flags().Changed("tax") {
		rates.Tax, _ = cmd.Flags().GetFloat64("tax")
	}
	if cmd.Flags().Changed("service") {
		rates.Service, _ = cmd.Flags().GetFloat64("service")
	}

	policies := *cfg
	if v, _ := cmd.Flags().GetString("tax-base"); v != "" {
		policies.Calculator.TaxBase = v
	}
	if v, _ := cmd.Flags().GetString("stale"); v != "" {
		policies.Calculator.StalePolicy = v
	}
	opts, err := policies.CalculatorOptions()
	if err != nil {
		return err
	}

	var rec *metrics.Recorder
	reg := prometheus.NewRegistry()
	if withMetrics, _ := cmd.Flags().GetBool("metrics"); withMetrics {
		rec = metrics.New(reg)
	}

	items := ingest.Normalize(bill.items())
	start := time.Now()
	res := calculator.Compute(items, bill.People, bill.assignments(), rates, opts...)
	rec.ObserveAllocation(start, res.UnassignedSubtotal)
	slog.Debug("Computed allocation",
		"items", len(items),
		"people", len(bill.People),
		"assigned_subtotal", res.AssignedSubtotal,
		"grand_total", res.GrandTotal,
	)

	payer, _ := cmd.Flags().GetString("payer")
	if payer == "" {
		payer = bill.Payer
	}
	var debts []calculator.DebtEdge
	if payer != "" {
		if debts, err = calculator.Settle(res, payer); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		err = writeJSON(out, splitOutput{Result: res.Rounded(), Debts: roundDebts(debts)})
	} else {
		err = writeSplitTable(out, res.Rounded(), roundDebts(debts), policies.Calculator)
	}
	if err != nil {
		return err
	}

	if rec != nil {
		if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

type splitOutput struct {
	calculator.Result
	Debts []calculator.DebtEdge `json:"debts,omitempty"`
}

func roundDebts(debts []calculator.DebtEdge) []calculator.DebtEdge {
	out := make([]calculator.DebtEdge, len(debts))
	for i, d := range debts {
		d.Amount = calculator.Round2(d.Amount)
		out[i] = d
	}
	return out
}

func taxBaseLabel(c config.CalculatorConfig) string {
	if c.TaxBase == config.TaxBaseSubtotal {
		return "subtotal"
	}
	return "subtotal + service"
}
