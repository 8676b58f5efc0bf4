package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mmynk/splitbill/internal/models"
)

// TextBackend is the registry name of TextExtractor.
const TextBackend = "text"

var (
	pricePattern   = regexp.MustCompile(`\d+[.,]\d{2}`)
	trailingSymbol = regexp.MustCompile(`[.$€£¥]*$`)

	// Summary lines that are never items. Lines starting with a tax or
	// service word are skipped too, even when that word is only a prefix
	// ("taxi fare").
	skipPrefixes = []string{
		"total", "subtotal", "balance", "change", "cash", "amount due",
		"tax", "vat", "gst", "service",
	}

	// A tax or service amount line names the charge as a whole word.
	taxLine     = regexp.MustCompile(`^(tax|vat|gst)(\s|:|\(|\d|$)`)
	serviceLine = regexp.MustCompile(`^service(\s|:|\(|\d|$)`)
)

// TextExtractor parses receipt text that an OCR step already recognized.
type TextExtractor struct{}

// ExtractReceipt parses image as UTF-8 receipt text.
func (TextExtractor) ExtractReceipt(ctx context.Context, image []byte) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, ErrEmptyInput
	}
	return ParseLines(string(image)), nil
}

// ParseLines extracts items from receipt text, one candidate per line.
//
// The last price-looking number on a line is its price and the rest of the
// line is its name. Total/subtotal/change lines are skipped; tax and service
// lines are read as absolute amounts.
func ParseLines(text string) *Receipt {
	receipt := &Receipt{Items: []models.Item{}}
	for index, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		prices := pricePattern.FindAllString(line, -1)
		lower := strings.ToLower(line)

		switch {
		case taxLine.MatchString(lower):
			if len(prices) > 0 {
				receipt.Tax += ParsePrice(prices[len(prices)-1])
			}
			continue
		case serviceLine.MatchString(lower):
			if len(prices) > 0 {
				receipt.Service += ParsePrice(prices[len(prices)-1])
			}
			continue
		case hasAnyPrefix(lower, skipPrefixes):
			continue
		}

		if len(prices) == 0 {
			continue
		}
		priceStr := prices[len(prices)-1]
		name := strings.TrimSpace(strings.Replace(line, priceStr, "", 1))
		name = strings.TrimSpace(trailingSymbol.ReplaceAllString(name, ""))
		if name == "" {
			continue
		}

		receipt.Items = append(receipt.Items, models.Item{
			ID:       fmt.Sprintf("item-%d", index),
			Name:     name,
			Price:    ParsePrice(priceStr),
			Quantity: 1,
		})
	}

	slog.Debug("Parsed receipt text",
		"items", len(receipt.Items),
		"tax", receipt.Tax,
		"service", receipt.Service,
	)
	return receipt
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
