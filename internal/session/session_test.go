package session

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/models"
)

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionWalkthrough(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(Options{Metrics: metrics.New(reg)})
	ctx := context.Background()

	if s.Step() != StepUpload {
		t.Fatalf("Step() = %s, want upload", s.Step())
	}
	if s.Rates() != DefaultRates {
		t.Errorf("Rates() = %+v, want defaults", s.Rates())
	}

	mustNoErr(t, s.Upload([]byte("Steak 100.00\nWine 50.00\n")))
	mustNoErr(t, s.Process(ctx))
	if s.Step() != StepEdit {
		t.Fatalf("Step() = %s, want edit", s.Step())
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("Items() = %+v", items)
	}
	steak, wine := items[0], items[1]

	mustNoErr(t, s.EditItem(steak.ID, "Wagyu", 10000))
	mustNoErr(t, s.EditItem(wine.ID, "Wine", 5000))
	mustNoErr(t, s.SetTaxRate(10))
	mustNoErr(t, s.SetServiceRate(5))
	mustNoErr(t, s.ToPeople())

	a, err := s.AddPerson("  Alice ")
	mustNoErr(t, err)
	if a.Name != "Alice" {
		t.Errorf("person name = %q, want trimmed", a.Name)
	}
	b, err := s.AddPerson("Bob")
	mustNoErr(t, err)
	if _, err := s.AddPerson("   "); !errors.Is(err, models.ErrEmptyName) {
		t.Errorf("AddPerson(blank) error = %v, want ErrEmptyName", err)
	}

	mustNoErr(t, s.StartSplitting())
	for _, id := range []string{a.ID, b.ID} {
		added, err := s.Toggle(steak.ID, id)
		mustNoErr(t, err)
		if !added {
			t.Errorf("Toggle(%s) should add", id)
		}
	}
	if got := s.UnassignedCount(); got != 1 {
		t.Errorf("UnassignedCount() = %d, want 1", got)
	}

	mustNoErr(t, s.ToSummary())
	res, err := s.Summary()
	mustNoErr(t, err)

	if math.Abs(res.GrandTotal-11550) > 1e-9 {
		t.Errorf("GrandTotal = %v, want 11550", res.GrandTotal)
	}
	if math.Abs(res.UnassignedSubtotal-5000) > 1e-9 {
		t.Errorf("UnassignedSubtotal = %v, want 5000", res.UnassignedSubtotal)
	}
	alice, _ := res.Person(a.ID)
	if math.Abs(alice.Total-5775) > 1e-9 {
		t.Errorf("Alice total = %v, want 5775", alice.Total)
	}

	if n, err := testutil.GatherAndCount(reg, "splitbill_allocations_total"); err != nil || n != 1 {
		t.Errorf("allocations metric count = %d, err %v", n, err)
	}
}

func TestSessionInvalidTransitions(t *testing.T) {
	s := New(Options{})

	if err := s.ToPeople(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ToPeople() in upload = %v, want ErrInvalidTransition", err)
	}
	if _, err := s.Toggle("x", "y"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Toggle() in upload = %v, want ErrInvalidTransition", err)
	}
	if _, err := s.Summary(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Summary() in upload = %v, want ErrInvalidTransition", err)
	}

	mustNoErr(t, s.Upload(nil))
	if err := s.Process(context.Background()); err == nil {
		t.Error("Process() with empty input should fail")
	}
	if s.Step() != StepProcessing {
		t.Errorf("Step() after failed Process = %s, want processing", s.Step())
	}

	mustNoErr(t, s.ItemsFound(nil))
	mustNoErr(t, s.ToPeople())
	if err := s.StartSplitting(); !errors.Is(err, ErrNoPeople) {
		t.Errorf("StartSplitting() with no people = %v, want ErrNoPeople", err)
	}
}

func TestSessionEditStep(t *testing.T) {
	s := New(Options{})
	mustNoErr(t, s.Upload([]byte("x")))
	mustNoErr(t, s.ItemsFound([]models.Item{{Name: "Soup", Price: 4, Quantity: 0}}))

	items := s.Items()
	if items[0].ID == "" || items[0].Quantity != 1 {
		t.Errorf("items not normalized: %+v", items[0])
	}

	manual, err := s.AddItem("", 0)
	mustNoErr(t, err)
	if manual.Name != models.DefaultItemName {
		t.Errorf("manual item name = %q", manual.Name)
	}

	if err := s.EditItem("missing", "x", 1); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("EditItem(missing) = %v, want ErrItemNotFound", err)
	}
	mustNoErr(t, s.RemoveItem(manual.ID))
	if len(s.Items()) != 1 {
		t.Errorf("Items() after remove = %+v", s.Items())
	}

	mustNoErr(t, s.SetTaxRate(-5))
	mustNoErr(t, s.SetServiceRate(-1))
	if r := s.Rates(); r.Tax != 0 || r.Service != 0 {
		t.Errorf("negative rates not clamped: %+v", r)
	}
}

func TestSessionRemovePersonDropsAssignments(t *testing.T) {
	s := New(Options{})
	mustNoErr(t, s.Upload([]byte("x")))
	mustNoErr(t, s.ItemsFound([]models.Item{{ID: "1", Name: "Platter", Price: 30, Quantity: 1}}))
	mustNoErr(t, s.ToPeople())
	a, _ := s.AddPerson("Alice")
	b, _ := s.AddPerson("Bob")
	mustNoErr(t, s.StartSplitting())
	s.Toggle("1", a.ID)
	s.Toggle("1", b.ID)

	mustNoErr(t, s.Back())
	if s.Step() != StepPeople {
		t.Fatalf("Step() after Back = %s, want people", s.Step())
	}
	mustNoErr(t, s.RemovePerson(b.ID))
	if got := s.Assignments()["1"]; len(got) != 1 || got[0] != a.ID {
		t.Errorf("assignments after remove = %v", got)
	}
}

func TestSessionReceiptAmountsBecomeRates(t *testing.T) {
	s := New(Options{})
	mustNoErr(t, s.Upload([]byte("Steak 100.00\nService 5.00\nTax 10.50\n")))
	mustNoErr(t, s.Process(context.Background()))

	r := s.Rates()
	if math.Abs(r.Service-5) > 1e-9 || math.Abs(r.Tax-10) > 1e-9 {
		t.Errorf("Rates() = %+v, want tax 10 service 5", r)
	}
}

func TestSessionReset(t *testing.T) {
	custom := calculator.Rates{Tax: 7, Service: 0}
	s := New(Options{Rates: &custom})
	mustNoErr(t, s.Upload([]byte("x")))
	mustNoErr(t, s.ItemsFound([]models.Item{{ID: "1", Price: 1}}))
	mustNoErr(t, s.SetTaxRate(20))

	s.Reset()
	if s.Step() != StepUpload || len(s.Items()) != 0 || s.Rates() != custom {
		t.Errorf("Reset() left step=%s items=%v rates=%+v", s.Step(), s.Items(), s.Rates())
	}
}

func TestSessionBack(t *testing.T) {
	s := New(Options{})
	if err := s.Back(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Back() in upload = %v, want ErrInvalidTransition", err)
	}
	mustNoErr(t, s.Upload([]byte("x")))
	if err := s.Back(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Back() in processing = %v, want ErrInvalidTransition", err)
	}
	mustNoErr(t, s.ItemsFound(nil))
	mustNoErr(t, s.ToPeople())
	mustNoErr(t, s.Back())
	if s.Step() != StepEdit {
		t.Errorf("Step() = %s, want edit", s.Step())
	}
}
