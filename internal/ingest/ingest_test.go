package ingest

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/mmynk/splitbill/internal/models"
)

const sampleReceipt = `WARUNG SEDERHANA
Nasi Goreng 25.00
Es Teh Manis      8,50
2 x Sate Ayam 15.00 30.00
Voucher $
SUBTOTAL 63.50
Service 5% 3.18
Tax 10% 6.67
TOTAL 73.35
Cash 100.00
Change 26.65
Thank you!
`

func TestParseLines(t *testing.T) {
	r := ParseLines(sampleReceipt)

	want := []models.Item{
		{ID: "item-1", Name: "Nasi Goreng", Price: 25, Quantity: 1},
		{ID: "item-2", Name: "Es Teh Manis", Price: 8.5, Quantity: 1},
		{ID: "item-3", Name: "2 x Sate Ayam 15.00", Price: 30, Quantity: 1},
	}
	if !slices.Equal(r.Items, want) {
		t.Errorf("Items = %+v\nwant %+v", r.Items, want)
	}
	if r.Tax != 6.67 {
		t.Errorf("Tax = %v, want 6.67", r.Tax)
	}
	if r.Service != 3.18 {
		t.Errorf("Service = %v, want 3.18", r.Service)
	}
}

func TestParseLinesEmpty(t *testing.T) {
	r := ParseLines("\n\n   \nno prices here\n")
	if r.Items == nil || len(r.Items) != 0 {
		t.Errorf("Items = %#v, want empty slice", r.Items)
	}
}

func TestParseLinesStripsTrailingSymbols(t *testing.T) {
	r := ParseLines("Coffee $ 4.50\nBagel.... 3.25")
	if len(r.Items) != 2 {
		t.Fatalf("Items = %+v", r.Items)
	}
	if r.Items[0].Name != "Coffee" || r.Items[1].Name != "Bagel" {
		t.Errorf("names = %q, %q", r.Items[0].Name, r.Items[1].Name)
	}
}

func TestParseLinesLongLine(t *testing.T) {
	junk := strings.Repeat("x", 70*1024)
	text := "Soup 4.00\n" + junk + "\nSteak 20.00\nTax 2.40\n"

	r, err := TextExtractor{}.ExtractReceipt(context.Background(), []byte(text))
	if err != nil {
		t.Fatalf("ExtractReceipt() error = %v", err)
	}
	if len(r.Items) != 2 || r.Items[1].Name != "Steak" {
		t.Errorf("Items = %+v, want Soup and Steak", r.Items)
	}
	if r.Tax != 2.4 {
		t.Errorf("Tax = %v, want 2.4", r.Tax)
	}
}

func TestParseLinesChargeKeywords(t *testing.T) {
	text := `Taxi fare 12.00
Tax-free water 3.00
Services rendered 9.00
VAT: 1.50
GST(6%) 0.60
Service charge 2.00
Noodles 8.00
`
	r := ParseLines(text)

	if math.Abs(r.Tax-2.1) > 1e-9 {
		t.Errorf("Tax = %v, want 2.10", r.Tax)
	}
	if r.Service != 2 {
		t.Errorf("Service = %v, want 2", r.Service)
	}
	// Lines that only start with a charge word are still not items.
	if len(r.Items) != 1 || r.Items[0].Name != "Noodles" {
		t.Errorf("Items = %+v, want only Noodles", r.Items)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.50", 12.5},
		{"12,50", 12.5},
		{"1,250.00", 1250},
		{" 7.00 ", 7},
		{"-3.25", -3.25},
		{"abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParsePrice(tt.in); got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	in := []models.Item{
		{ID: "a", Name: "Ok", Price: 4, Quantity: 2},
		{Name: "No ID", Price: math.NaN(), Quantity: 0},
		{ID: "c", Name: "Inf", Price: math.Inf(1), Quantity: -3},
	}
	out := Normalize(in)

	if out[0] != in[0] {
		t.Errorf("valid item changed: %+v", out[0])
	}
	if out[1].ID == "" || out[1].Price != 0 || out[1].Quantity != 1 {
		t.Errorf("normalized item = %+v", out[1])
	}
	if out[2].Price != 0 || out[2].Quantity != 1 {
		t.Errorf("normalized item = %+v", out[2])
	}
	if in[1].ID != "" {
		t.Error("Normalize mutated its input")
	}
}

func TestRatesFromAmounts(t *testing.T) {
	tests := []struct {
		name                   string
		tax, service, subtotal float64
		wantTax, wantService   float64
	}{
		{"tax on subtotal plus service", 1050, 500, 10000, 10, 5},
		{"no service", 100, 0, 1000, 10, 0},
		{"zero subtotal", 100, 0, 0, 0, 0},
		{"nothing charged", 0, 0, 500, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RatesFromAmounts(tt.tax, tt.service, tt.subtotal)
			if math.Abs(got.Tax-tt.wantTax) > 1e-9 || math.Abs(got.Service-tt.wantService) > 1e-9 {
				t.Errorf("RatesFromAmounts() = %+v, want tax %v service %v", got, tt.wantTax, tt.wantService)
			}
		})
	}
}

func TestReceiptRates(t *testing.T) {
	r := &Receipt{
		Items:   []models.Item{{ID: "1", Price: 5000, Quantity: 2}},
		Tax:     1050,
		Service: 500,
	}
	got := r.Rates()
	if math.Abs(got.Tax-10) > 1e-9 || math.Abs(got.Service-5) > 1e-9 {
		t.Errorf("Rates() = %+v", got)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	t.Run("text backend is built in", func(t *testing.T) {
		r, err := reg.Extract(ctx, TextBackend, []byte("Soup 4.00\n"))
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(r.Items) != 1 || r.Items[0].Price != 4 {
			t.Errorf("Items = %+v", r.Items)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := reg.Extract(ctx, "vision", nil)
		if !errors.Is(err, ErrUnknownBackend) {
			t.Errorf("error = %v, want ErrUnknownBackend", err)
		}
	})

	t.Run("custom backend is normalized", func(t *testing.T) {
		reg.Register("fake", ExtractorFunc(func(ctx context.Context, image []byte) (*Receipt, error) {
			return &Receipt{Items: []models.Item{{Name: "Mystery", Price: 3}}}, nil
		}))
		r, err := reg.Extract(ctx, "fake", []byte("x"))
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if r.Items[0].ID == "" || r.Items[0].Quantity != 1 {
			t.Errorf("item not normalized: %+v", r.Items[0])
		}
		if names := reg.Names(); !slices.Equal(names, []string{"fake", "text"}) {
			t.Errorf("Names() = %v", names)
		}
	})

	t.Run("backend errors are wrapped", func(t *testing.T) {
		_, err := reg.Extract(ctx, TextBackend, nil)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("error = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := reg.Extract(cctx, TextBackend, []byte("Soup 4.00"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}
