package services

import (
	"bytes"
	"testing"

	apperrors "factura/pkg/errors"
)

func TestDocumentService_RenderInvoice(t *testing.T) {
	db := setupTestDB(t)
	invoices := NewInvoiceService(db)
	companies := NewCompanyService(db)
	service := NewDocumentService(invoices, companies)

	client := createTestCompany(t, db, "tenant-a", "Acme", false)
	invoice, err := invoices.Create("tenant-a", client.ID, "INV-DOC-1", "EUR", 100)
	if err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}

	t.Run("Without Issuer", func(t *testing.T) {
		data, filename, err := service.RenderInvoice("tenant-a", invoice.ID)
		if err != nil {
			t.Fatalf("failed to render: %v", err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF")) {
			t.Error("expected PDF output")
		}
		if filename != "invoice-INV-DOC-1.pdf" {
			t.Errorf("unexpected filename %q", filename)
		}
	})

	t.Run("With Issuer", func(t *testing.T) {
		createTestCompany(t, db, "tenant-a", "Issuer Co", true)

		data, _, err := service.RenderInvoice("tenant-a", invoice.ID)
		if err != nil {
			t.Fatalf("failed to render: %v", err)
		}
		if len(data) == 0 {
			t.Fatal("expected non-empty output")
		}
	})

	t.Run("Repeatable For Same State", func(t *testing.T) {
		first, _, err := service.RenderInvoice("tenant-a", invoice.ID)
		if err != nil {
			t.Fatalf("failed to render: %v", err)
		}
		second, _, err := service.RenderInvoice("tenant-a", invoice.ID)
		if err != nil {
			t.Fatalf("failed to render: %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Error("unchanged invoice must render byte-identical documents")
		}
	})

	t.Run("Foreign Tenant", func(t *testing.T) {
		_, _, err := service.RenderInvoice("tenant-b", invoice.ID)
		wantCode(t, err, apperrors.CodeForbidden)
	})

	t.Run("Unknown Invoice", func(t *testing.T) {
		_, _, err := service.RenderInvoice("tenant-a", 99999)
		wantCode(t, err, apperrors.CodeNotFound)
	})
}
