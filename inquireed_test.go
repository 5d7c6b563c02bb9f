package packslip

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestInquireEd() *InquireEd {
	s := NewInquireEd()
	s.now = func() time.Time { return fixedNow }
	return s
}

func ieBaseRow(overrides Row) Row {
	row := Row{
		"District or School":     "Springfield USD",
		"Dock?":                  "Yes",
		"Paved Path?":            "Yes",
		"Receiving Days":         "M-F",
		"Receiving Hours":        "8 AM - 3 PM",
		"Delivery Address":       "742 Evergreen Terrace\nSpringfield, IL 62701",
		"Shipping Contact Name":  "Edna Krabappel",
		"Shipping Contact Email": "edna@springfield.example",
		"Shipping Contact Phone": "555-0134",
		"Appointment Required?":  "No",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func ieColumns(extra ...string) []string {
	return append(append([]string(nil), ieBaseColumns...), extra...)
}

// ---------------------------------------------------------------------------
// TestInquireEd_DetectFileType - PM/TE classification
// ---------------------------------------------------------------------------

func TestInquireEd_DetectFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		columns []string
		want    string
	}{
		{
			name:    "pm by indicator column",
			columns: ieColumns("Total Number of Boxes Ordered", "IND-IJ-PM-NAVIG-EN-0100"),
			want:    "pm",
		},
		{
			name:    "pm by delivery notes indicator",
			columns: ieColumns("Delivery Notes", "IND-IJ-PM-NAVIG-SP-0100"),
			want:    "pm",
		},
		{
			name:    "te by indicator column",
			columns: ieColumns("Total Number of TEs Ordered", "IND-IJ-TE-NAVIG-0100"),
			want:    "te",
		},
		{
			name:    "pm by sku pattern fallback",
			columns: ieColumns("IND-IJ-PM-ECON-EN-1500"),
			want:    "pm",
		},
		{
			name:    "te by sku pattern fallback",
			columns: ieColumns("IND-IJ-TE-ECON-1500"),
			want:    "te",
		},
		{
			name:    "missing base column",
			columns: []string{"District or School", "IND-IJ-PM-NAVIG-EN-0100"},
			want:    "",
		},
		{
			name:    "no indicators at all",
			columns: ieColumns(),
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ieDetectFileType(tt.columns); got != tt.want {
				t.Errorf("ieDetectFileType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInquireEd_ParseFileUnrecognized(t *testing.T) {
	t.Parallel()

	s := newTestInquireEd()
	data := "District or School,Something\nSpringfield,1\n"
	_, err := s.ParseFile([]byte(data), "orders.csv")
	if !errors.Is(err, ErrUnrecognizedFormat) {
		t.Errorf("ParseFile() error = %v, want ErrUnrecognizedFormat", err)
	}
}

// ---------------------------------------------------------------------------
// TestInquireEd_ParseProductCell - Quantity grammars
// ---------------------------------------------------------------------------

func TestInquireEd_ParseProductCell(t *testing.T) {
	t.Parallel()

	s := newTestInquireEd()

	tests := []struct {
		name         string
		value        string
		fileType     string
		wantQty      int
		wantGrade    string
		wantSticker  bool
		needsSticker bool
	}{
		{
			name: "pm quantity with kindergarten grade", value: "2, k", fileType: "pm",
			wantQty: 2, wantGrade: "K",
		},
		{
			name: "pm quantity with numeric grade", value: "3, 1", fileType: "pm",
			wantQty: 3, wantGrade: "1",
		},
		{
			name: "pm KG collapses to K", value: "5, KG", fileType: "pm",
			wantQty: 5, wantGrade: "K",
		},
		{
			name: "pm bare number fallback", value: "7", fileType: "pm",
			wantQty: 7,
		},
		{
			name: "pm invalid format dropped", value: "invalid format", fileType: "pm",
			wantQty: 0,
		},
		{
			name: "te no sticker", value: "30, No Sticker", fileType: "te",
			wantQty: 30, wantSticker: true, needsSticker: false,
		},
		{
			name: "te needs sticker with grade", value: "26, Needs Sticker: 4", fileType: "te",
			wantQty: 26, wantGrade: "4", wantSticker: true, needsSticker: true,
		},
		{
			name: "te bare number assumes no sticker", value: "12", fileType: "te",
			wantQty: 12, wantSticker: true, needsSticker: false,
		},
		{
			name: "te invalid format dropped", value: "lots", fileType: "te",
			wantQty: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := s.parseProductCell("IND-IJ-TEST", tt.value, tt.fileType)
			if got.Quantity != tt.wantQty {
				t.Errorf("Quantity = %d, want %d", got.Quantity, tt.wantQty)
			}
			if got.GradeLevel != tt.wantGrade {
				t.Errorf("GradeLevel = %q, want %q", got.GradeLevel, tt.wantGrade)
			}
			if got.HasSticker != tt.wantSticker || got.NeedsSticker != tt.needsSticker {
				t.Errorf("sticker = (%v,%v), want (%v,%v)",
					got.HasSticker, got.NeedsSticker, tt.wantSticker, tt.needsSticker)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInquireEd_ValidateData - Contact fields, email, dates, products
// ---------------------------------------------------------------------------

func TestInquireEd_ValidateData(t *testing.T) {
	t.Parallel()

	s := newTestInquireEd()
	columns := ieColumns("Total Number of Boxes Ordered", "IND-IJ-PM-NAVIG-EN-0100")

	tests := []struct {
		name      string
		row       Row
		wantValid bool
		wantErr   string
	}{
		{
			name:      "valid pm row",
			row:       ieBaseRow(Row{"IND-IJ-PM-NAVIG-EN-0100": "2, K"}),
			wantValid: true,
		},
		{
			name:      "missing district",
			row:       ieBaseRow(Row{"District or School": "", "IND-IJ-PM-NAVIG-EN-0100": "2, K"}),
			wantValid: false,
			wantErr:   "Missing required field: District or School",
		},
		{
			name:      "bad email",
			row:       ieBaseRow(Row{"Shipping Contact Email": "not-an-email", "IND-IJ-PM-NAVIG-EN-0100": "2, K"}),
			wantValid: false,
			wantErr:   "Invalid email format",
		},
		{
			name:      "no products",
			row:       ieBaseRow(nil),
			wantValid: false,
			wantErr:   "No products found",
		},
		{
			name: "bad delivery date",
			row: ieBaseRow(Row{
				"IND-IJ-PM-NAVIG-EN-0100":          "2, K",
				"Fall 2025 Earliest Delivery Date": "sometime in fall",
			}),
			wantValid: false,
			wantErr:   "Invalid delivery date format",
		},
		{
			name: "valid delivery date",
			row: ieBaseRow(Row{
				"IND-IJ-PM-NAVIG-EN-0100":          "2, K",
				"Fall 2025 Earliest Delivery Date": "09/15/2025",
			}),
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed := &ParsedData{
				Rows: []Row{tt.row},
				Meta: Metadata{Columns: columns, FileType: "pm"},
			}

			result := s.ValidateData(parsed)
			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v; errors: %v", result.Valid, tt.wantValid, result.Errors)
			}
			if tt.wantErr != "" {
				found := false
				for _, e := range result.Errors {
					if strings.Contains(e, tt.wantErr) {
						found = true
					}
				}
				if !found {
					t.Errorf("errors %v missing %q", result.Errors, tt.wantErr)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInquireEd_GenerateKits - Catalog lookup and delivery metadata
// ---------------------------------------------------------------------------

func TestInquireEd_GenerateKits(t *testing.T) {
	t.Parallel()

	s := newTestInquireEd()
	columns := ieColumns("Total Number of Boxes Ordered", "IND-IJ-PM-NAVIG-EN-0100", "IND-IJ-PM-ECON-SP-1500")

	parsed := &ParsedData{
		Rows: []Row{ieBaseRow(Row{
			"IND-IJ-PM-NAVIG-EN-0100":       "2, K",
			"IND-IJ-PM-ECON-SP-1500":        "4, 5",
			"Total Number of Boxes Ordered": "6",
		})},
		Meta: Metadata{Columns: columns, FileType: "pm"},
	}

	kits, skipped := s.GenerateKits(parsed)
	if len(kits) != 1 || len(skipped) != 0 {
		t.Fatalf("kits=%d skipped=%d %v", len(kits), len(skipped), skipped)
	}

	kit := kits[0]
	if kit.Recipient.Company != "Springfield USD" || kit.Recipient.Name != "Edna Krabappel" {
		t.Errorf("Recipient = %+v", kit.Recipient)
	}
	if kit.Recipient.Address.City != "Springfield" || kit.Recipient.Address.State != "IL" || kit.Recipient.Address.ZipCode != "62701" {
		t.Errorf("Address = %+v", kit.Recipient.Address)
	}

	if len(kit.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(kit.Items))
	}
	if kit.Items[0].Name != "Navigating School (English)" {
		t.Errorf("Items[0].Name = %q", kit.Items[0].Name)
	}
	if kit.Items[0].Description != "Navigating School (English) (Grade K)" {
		t.Errorf("Items[0].Description = %q", kit.Items[0].Description)
	}
	if kit.Items[0].Category != "Printed Materials (English)" {
		t.Errorf("Items[0].Category = %q", kit.Items[0].Category)
	}
	if kit.Items[1].Quantity != 4 {
		t.Errorf("Items[1].Quantity = %d", kit.Items[1].Quantity)
	}

	if boxes, _ := kit.Meta.Custom["totalBoxes"].(int); boxes != 6 {
		t.Errorf("totalBoxes = %v", kit.Meta.Custom["totalBoxes"])
	}
}

func TestInquireEd_GenerateKitsTE(t *testing.T) {
	t.Parallel()

	s := newTestInquireEd()
	columns := ieColumns("Total Number of TEs Ordered", "IND-IJ-TE-NAVIG-0100")

	parsed := &ParsedData{
		Rows: []Row{ieBaseRow(Row{
			"IND-IJ-TE-NAVIG-0100":        "26, Needs Sticker: 4",
			"Total Number of TEs Ordered": "26",
			"Dock?":                       "No",
			"Appointment Required?":       "Yes",
		})},
		Meta: Metadata{Columns: columns, FileType: "te"},
	}

	kits, _ := s.GenerateKits(parsed)
	if len(kits) != 1 {
		t.Fatalf("got %d kits", len(kits))
	}

	kit := kits[0]
	if kit.Items[0].Description != "Navigating School (Grade 4) - Needs Sticker" {
		t.Errorf("Description = %q", kit.Items[0].Description)
	}

	if len(kit.Meta.SpecialInstructions) < 2 {
		t.Fatalf("SpecialInstructions = %v", kit.Meta.SpecialInstructions)
	}
	if kit.Meta.SpecialInstructions[0] != "APPOINTMENT REQUIRED" || kit.Meta.SpecialInstructions[1] != "NO LOADING DOCK" {
		t.Errorf("SpecialInstructions = %v", kit.Meta.SpecialInstructions)
	}

	rules := s.ShippingRules(&kit)
	if !rules.SpecialHandling {
		t.Error("appointment-required delivery should need special handling")
	}
	if rules.Method != "GROUND" {
		t.Errorf("Method = %q", rules.Method)
	}
}

// ---------------------------------------------------------------------------
// TestInquireEd_ParseAddress - Multi-line address splitting
// ---------------------------------------------------------------------------

func TestInquireEd_ParseAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Address
	}{
		{
			name: "two lines with city state zip",
			in:   "742 Evergreen Terrace\nSpringfield, IL 62701",
			want: Address{Street: "742 Evergreen Terrace", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"},
		},
		{
			name: "three lines keep street2",
			in:   "100 Main St\nBuilding B\nSpringfield, IL 62701-1234",
			want: Address{Street: "100 Main St", Street2: "Building B", City: "Springfield", State: "IL", ZipCode: "62701-1234", Country: "US"},
		},
		{
			name: "unparseable last line becomes city",
			in:   "100 Main St\nSomewhere",
			want: Address{Street: "100 Main St", City: "Somewhere", Country: "US"},
		},
		{
			name: "single line doubles as street and city",
			in:   "100 Main St",
			want: Address{Street: "100 Main St", City: "100 Main St", Country: "US"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ieParseAddress(tt.in); got != tt.want {
				t.Errorf("ieParseAddress() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInquireEd_DeliveryDefaults
// ---------------------------------------------------------------------------

func TestInquireEd_DeliveryDefaults(t *testing.T) {
	t.Parallel()

	s := newTestInquireEd()
	row := ieBaseRow(Row{"Receiving Days": "", "Receiving Hours": ""})

	delivery := s.deliveryInfo(row)
	if delivery.ReceivingDays != "M-F" {
		t.Errorf("ReceivingDays = %q, want M-F", delivery.ReceivingDays)
	}
	if delivery.ReceivingHours != "8 AM - 4 PM" {
		t.Errorf("ReceivingHours = %q, want default", delivery.ReceivingHours)
	}
}

// ---------------------------------------------------------------------------
// TestInquireEd_LoadCatalog - CSV catalog override
// ---------------------------------------------------------------------------

func TestInquireEd_LoadCatalog(t *testing.T) {
	t.Parallel()

	s := newTestInquireEd()

	csv := "SKU,Description,Category\n" +
		"IND-IJ-PM-CUSTOM-EN-9900,Custom Unit (English),Printed Materials (English)\n" +
		",missing sku,skipped\n"
	if err := s.LoadCatalog([]byte(csv)); err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	if len(s.catalog) != 1 {
		t.Fatalf("catalog has %d entries, want 1", len(s.catalog))
	}
	product, ok := s.catalog["IND-IJ-PM-CUSTOM-EN-9900"]
	if !ok || product.Description != "Custom Unit (English)" {
		t.Errorf("catalog entry = %+v", product)
	}

	if err := s.LoadCatalog([]byte("SKU,Description\nX,Y\n")); !errors.Is(err, ErrUnrecognizedFormat) {
		t.Errorf("missing column error = %v, want ErrUnrecognizedFormat", err)
	}
	if err := s.LoadCatalog([]byte("SKU,Description,Category\n,no sku,x\n")); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty catalog error = %v, want ErrEmptyInput", err)
	}
}
