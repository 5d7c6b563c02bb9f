package packslip

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestHHGlobal() *HHGlobal {
	s := NewHHGlobal()
	s.now = func() time.Time { return fixedNow }
	return s
}

func hhRow(overrides Row) Row {
	row := Row{
		"Shipment too":    "Acme Seed Co",
		"Recipient Email": "ops@acmeseed.example",
		"Address":         "100 Field Rd",
		"City":            "Des Moines",
		"State":           "IA",
		"Zip":             "50309",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

// ---------------------------------------------------------------------------
// TestHHGlobal_ParseFile - Format acceptance
// ---------------------------------------------------------------------------

func TestHHGlobal_ParseFile(t *testing.T) {
	t.Parallel()

	s := newTestHHGlobal()

	t.Run("csv accepted", func(t *testing.T) {
		t.Parallel()

		data := "Address,City,State,Zip\n100 Field Rd,Des Moines,IA,50309\n"
		parsed, err := s.ParseFile([]byte(data), "orders.csv")
		if err != nil {
			t.Fatalf("ParseFile() error = %v", err)
		}
		if parsed.Meta.CustomerCode != "HH_GLOBAL" {
			t.Errorf("CustomerCode = %q", parsed.Meta.CustomerCode)
		}
	})

	t.Run("unsupported extension rejected", func(t *testing.T) {
		t.Parallel()

		_, err := s.ParseFile([]byte("x"), "orders.pdf")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFile() error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("legacy xls rejected", func(t *testing.T) {
		t.Parallel()

		// BIFF workbooks can't be read; reject them up front instead of
		// failing deep inside the workbook reader.
		_, err := s.ParseFile([]byte("x"), "orders.xls")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFile() error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("empty file rejected", func(t *testing.T) {
		t.Parallel()

		_, err := s.ParseFile([]byte("Address,City,State,Zip\n"), "orders.csv")
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("ParseFile() error = %v, want ErrEmptyInput", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestHHGlobal_ValidateData - File-level column check aborts early
// ---------------------------------------------------------------------------

func TestHHGlobal_ValidateData(t *testing.T) {
	t.Parallel()

	s := newTestHHGlobal()

	t.Run("missing columns reported once", func(t *testing.T) {
		t.Parallel()

		parsed := &ParsedData{
			Rows: []Row{hhRow(nil), hhRow(nil)},
			Meta: Metadata{Columns: []string{"Address", "City"}},
		}

		result := s.ValidateData(parsed)
		if result.Valid {
			t.Error("expected invalid result")
		}
		if len(result.Errors) != 2 {
			t.Fatalf("Errors = %v, want exactly the two missing columns", result.Errors)
		}
		if !strings.Contains(result.Errors[0], "Missing required column: State") {
			t.Errorf("Errors[0] = %q", result.Errors[0])
		}
		if result.ValidRows != 0 {
			t.Errorf("ValidRows = %d, want 0 (validation aborted)", result.ValidRows)
		}
	})

	t.Run("row without items invalid", func(t *testing.T) {
		t.Parallel()

		parsed := &ParsedData{
			Rows: []Row{hhRow(nil)},
			Meta: Metadata{Columns: []string{"Address", "City", "State", "Zip"}},
		}

		result := s.ValidateData(parsed)
		if result.Valid {
			t.Error("expected invalid result for itemless row")
		}
		if !strings.Contains(result.Errors[0], "No items found") {
			t.Errorf("Errors[0] = %q", result.Errors[0])
		}
	})

	t.Run("seed guide quantity satisfies item check", func(t *testing.T) {
		t.Parallel()

		parsed := &ParsedData{
			Rows: []Row{hhRow(Row{"Iowa Seed Guide 6F0425377": "24"})},
			Meta: Metadata{Columns: []string{"Address", "City", "State", "Zip", "Iowa Seed Guide 6F0425377"}},
		}

		if result := s.ValidateData(parsed); !result.Valid {
			t.Errorf("expected valid result, errors: %v", result.Errors)
		}
	})
}

// ---------------------------------------------------------------------------
// TestHHGlobal_GenerateKits - Items, SKUs, carton math
// ---------------------------------------------------------------------------

func TestHHGlobal_GenerateKits(t *testing.T) {
	t.Parallel()

	s := newTestHHGlobal()

	parsed := &ParsedData{
		Rows: []Row{hhRow(Row{
			"Iowa Seed Guide 6F0425377":     "100",
			"National Seed Guide 6F0425387": "20",
			"One Pager #1":                  "Planting Calendar",
			"One Pager #1 QC Number":        "QC881",
			"One Pager #2":                  "Soil Guide",
		})},
	}

	kits, skipped := s.GenerateKits(parsed)
	if len(kits) != 1 || len(skipped) != 0 {
		t.Fatalf("kits=%d skipped=%d", len(kits), len(skipped))
	}

	kit := kits[0]
	if len(kit.Items) != 4 {
		t.Fatalf("got %d items, want 4", len(kit.Items))
	}

	// Seed guides first, in column-list order, with SKU from header.
	if kit.Items[0].SKU != "6F0425377" || kit.Items[0].Category != "seed-guide" {
		t.Errorf("Items[0] = %+v", kit.Items[0])
	}
	if state, _ := kit.Items[0].Props["state"].(string); state != "Iowa" {
		t.Errorf("Items[0].Props[state] = %v", kit.Items[0].Props["state"])
	}
	if kit.Items[1].SKU != "6F0425387" {
		t.Errorf("Items[1] = %+v", kit.Items[1])
	}

	// One-pagers after seed guides; QC number becomes SKU when present.
	if kit.Items[2].SKU != "QC881" || kit.Items[2].Name != "Planting Calendar" || kit.Items[2].Quantity != 1 {
		t.Errorf("Items[2] = %+v", kit.Items[2])
	}
	if kit.Items[3].SKU != "OP-2" || kit.Items[3].Category != "collateral" {
		t.Errorf("Items[3] = %+v", kit.Items[3])
	}

	// 122 units at 50/carton = 3 cartons, below the skip-pack threshold.
	if cartons, _ := kit.Meta.Custom["estimatedCartons"].(int); cartons != 3 {
		t.Errorf("estimatedCartons = %v, want 3", kit.Meta.Custom["estimatedCartons"])
	}
	if kit.Meta.ShippingMethod != "FedEx Ground" {
		t.Errorf("ShippingMethod = %q", kit.Meta.ShippingMethod)
	}
	if kit.Meta.OrderReference != "E03339361" {
		t.Errorf("OrderReference = %q", kit.Meta.OrderReference)
	}
	if kit.Recipient.Name != "Acme Seed Co" || kit.Recipient.Address.Country != "USA" {
		t.Errorf("Recipient = %+v", kit.Recipient)
	}
}

func TestHHGlobal_SkipPackThreshold(t *testing.T) {
	t.Parallel()

	s := newTestHHGlobal()

	// 600 units = 12 cartons: at the threshold, skip pack applies.
	parsed := &ParsedData{
		Rows: []Row{hhRow(Row{"Iowa Seed Guide 6F0425377": "600"})},
	}

	kits, _ := s.GenerateKits(parsed)
	if len(kits) != 1 {
		t.Fatalf("got %d kits", len(kits))
	}

	kit := kits[0]
	if kit.Meta.ShippingMethod != "Skip Pack - Email Weights" {
		t.Errorf("ShippingMethod = %q", kit.Meta.ShippingMethod)
	}

	rules := s.ShippingRules(&kit)
	if !rules.SpecialHandling {
		t.Error("skip-pack shipments should require special handling")
	}

	found := false
	for _, inst := range rules.Instructions {
		if strings.Contains(inst, "SKIP PACK AND EMAIL WEIGHTS") {
			found = true
		}
	}
	if !found {
		t.Errorf("Instructions missing skip-pack line: %v", rules.Instructions)
	}
}

func TestHHGlobal_UnknownRecipientFallback(t *testing.T) {
	t.Parallel()

	s := newTestHHGlobal()
	row := hhRow(Row{"Iowa Seed Guide 6F0425377": "1"})
	row["Shipment too"] = ""

	kits, _ := s.GenerateKits(&ParsedData{Rows: []Row{row}})
	if len(kits) != 1 {
		t.Fatalf("got %d kits", len(kits))
	}
	if kits[0].Recipient.Name != "Unknown Recipient" {
		t.Errorf("Recipient.Name = %q", kits[0].Recipient.Name)
	}
}

// ---------------------------------------------------------------------------
// TestHHGlobal_BlindShipInstructions - Blind-ship lines always present
// ---------------------------------------------------------------------------

func TestHHGlobal_BlindShipInstructions(t *testing.T) {
	t.Parallel()

	s := newTestHHGlobal()
	rules := s.ShippingRules(&Kit{Meta: KitMeta{Custom: map[string]any{"skipPack": false}}})

	joined := strings.Join(rules.Instructions, "\n")
	if !strings.Contains(joined, "SHIP IN THE NAME OF HH GLOBAL, OR BLIND") {
		t.Errorf("missing blind-ship line: %v", rules.Instructions)
	}
	if !strings.Contains(joined, "DO NOT SHOW WALLACE GRAPHICS AS THE SHIPPER") {
		t.Errorf("missing shipper suppression line: %v", rules.Instructions)
	}

	branding := s.CustomizeTemplate(&Kit{})
	if branding.CompanyName != "HH Global" || !branding.OverrideCompany {
		t.Errorf("Branding = %+v", branding)
	}
}
