package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/config"
	"github.com/mmynk/splitbill/internal/ingest"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeSplitTable expects an already rounded result.
func writeSplitTable(w io.Writer, r calculator.Result, debts []calculator.DebtEdge, policy config.CalculatorConfig) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Assigned subtotal\t%.2f\n", r.AssignedSubtotal)
	fmt.Fprintf(tw, "Service (%g%%)\t%.2f\n", r.ServiceRate, r.TotalServiceAmount)
	fmt.Fprintf(tw, "Tax (%g%% on %s)\t%.2f\n", r.TaxRate, taxBaseLabel(policy), r.TotalTaxAmount)
	fmt.Fprintf(tw, "Grand total\t%.2f\n", r.GrandTotal)
	if r.UnassignedSubtotal != 0 {
		fmt.Fprintf(tw, "Unassigned items subtotal\t%.2f\n", r.UnassignedSubtotal)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "PERSON\tSUBTOTAL\tSERVICE\tTAX\tTOTAL")
	for _, p := range r.People {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\n", p.Name, p.Subtotal, p.ServiceShare, p.TaxShare, p.Total)
		for _, c := range p.Items {
			fmt.Fprintf(tw, "  %s (%dx)\t%.2f\t\t\t\n", c.ItemName, c.Quantity, c.Share)
		}
	}

	if len(debts) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "FROM\tTO\tAMOUNT")
		for _, d := range debts {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\n", personName(r, d.From), personName(r, d.To), d.Amount)
		}
	}
	return tw.Flush()
}

func writeParseTable(w io.Writer, receipt *ingest.Receipt, rates calculator.Rates) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE")
	for _, item := range receipt.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", item.ID, item.Name, item.Units(), item.Price)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Service\t%.2f\t(%.4g%%)\n", receipt.Service, rates.Service)
	fmt.Fprintf(tw, "Tax\t%.2f\t(%.4g%%)\n", receipt.Tax, rates.Tax)
	return tw.Flush()
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func personName(r calculator.Result, id string) string {
	if p, ok := r.Person(id); ok && p.Name != "" {
		return p.Name
	}
	return id
}
