// Package packslip turns customer-supplied shipping spreadsheets into
// rendered packing-slip documents.
//
// # Quick Start
//
// Create a service, process an upload, and render the resulting kits:
//
//	svc := packslip.NewService()
//	defer svc.Close()
//
//	result, err := svc.ProcessFile("GEORGIA_BAPTIST", fileBytes, "upload.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	batch, err := svc.RenderBatch(ctx, result.Kits)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("slips.pdf", batch.Artifact, 0644)
//
// # Pipeline
//
// Processing follows a fixed sequence per upload:
//
//  1. Strategy resolution by customer code (Registry)
//  2. Tabular ingestion (CSV via encoding/csv, XLSX via excelize)
//  3. Customer-specific parse, validate, and kit generation (Strategy)
//  4. Concurrent per-kit rendering through a pooled headless Chrome
//     instance (go-rod), bounded by a FIFO concurrency limiter
//  5. Deterministic merge of the rendered documents (pdfcpu or ZIP)
//
// Validation is a gate: kits are never generated from an upload whose
// global validation failed, even though kit generation independently
// re-checks each row so that a partially bad file still yields the
// good rows.
//
// # Customers
//
// Each customer ships with hard-coded business rules implemented as a
// Strategy: column schemas, sub-format detection, quantity grammars,
// branding, and shipping rules. See GeorgiaBaptist, HHGlobal, and
// InquireEd for the three supported schemas.
package packslip
