package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func testModel() Model {
	return Model{
		Invoice: Invoice{
			Number:   "INV-2024-001",
			Status:   "finalized",
			IssuedAt: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			Currency: "EUR",
			Total:    1250.50,
		},
		Client: Party{
			Name:       "Acme GmbH",
			TaxID:      "DE 123 456 789",
			Address:    "Hauptstrasse 1",
			City:       "Berlin",
			PostalCode: "10115",
			Email:      "billing@acme.example",
		},
		Issuer: &Party{
			Name:       "Factura SARL",
			TaxID:      "FR 987 654 321",
			Address:    "1 Rue de la Paix",
			City:       "Paris",
			PostalCode: "75002",
			Email:      "hello@factura.example",
			Website:    "factura.example",
		},
	}
}

func TestGenerate(t *testing.T) {
	t.Run("Produces PDF", func(t *testing.T) {
		data, err := Generate(testModel())
		if err != nil {
			t.Fatalf("failed to generate document: %v", err)
		}
		if len(data) == 0 {
			t.Fatal("expected non-empty output")
		}
		if !bytes.HasPrefix(data, []byte("%PDF")) {
			t.Error("expected output to start with PDF header")
		}
	})

	t.Run("Deterministic Output", func(t *testing.T) {
		model := testModel()
		first, err := Generate(model)
		if err != nil {
			t.Fatalf("failed to generate document: %v", err)
		}
		second, err := Generate(model)
		if err != nil {
			t.Fatalf("failed to generate document: %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Error("identical snapshots must render byte-identical documents")
		}
	})

	t.Run("Without Issuer", func(t *testing.T) {
		model := testModel()
		model.Issuer = nil
		data, err := Generate(model)
		if err != nil {
			t.Fatalf("failed to generate without issuer: %v", err)
		}

		withIssuer, err := Generate(testModel())
		if err != nil {
			t.Fatalf("failed to generate with issuer: %v", err)
		}
		if bytes.Equal(data, withIssuer) {
			t.Error("omitting the issuer must change the document")
		}
	})

	t.Run("All Statuses", func(t *testing.T) {
		for _, status := range []string{"draft", "finalized", "paid", "cancelled", "unknown"} {
			model := testModel()
			model.Invoice.Status = status
			if _, err := Generate(model); err != nil {
				t.Errorf("failed to generate document for status %s: %v", status, err)
			}
		}
	})
}

func TestFormatAmount(t *testing.T) {
	t.Run("Known Currency", func(t *testing.T) {
		got := FormatAmount("USD", 1234.56)
		if got == "" {
			t.Fatal("expected formatted amount")
		}
		if !strings.Contains(got, "1,234.56") {
			t.Errorf("expected grouped amount, got %q", got)
		}
	})

	t.Run("Unknown Currency Falls Back", func(t *testing.T) {
		got := FormatAmount("ZZZ", 12.5)
		if got != "ZZZ 12.50" {
			t.Errorf("expected fallback format, got %q", got)
		}
	})
}

func TestFilename(t *testing.T) {
	tests := []struct {
		number string
		want   string
	}{
		{"INV-2024-001", "invoice-INV-2024-001.pdf"},
		{"INV/2024 001", "invoice-INV_2024_001.pdf"},
		{"a..b_c", "invoice-a..b_c.pdf"},
	}
	for _, tt := range tests {
		if got := Filename(tt.number); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.number, got, tt.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel("finalized"); got != "FINALIZED" {
		t.Errorf("expected FINALIZED, got %q", got)
	}
}
