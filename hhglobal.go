package packslip

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/wallacegraphics/packslip/internal/tabular"
)

// HH Global blind-ships seed guide kits on behalf of its own clients:
// slips must show HH Global as the shipper and never mention the
// printer. Item columns are positional in the export: one column per
// state seed guide (SKU embedded in the header) plus up to three
// free-form one-pager slots.
var (
	hhRequiredColumns = []string{"Address", "City", "State", "Zip"}

	hhSeedGuideColumns = []string{
		"Alabama Seed Guide 6F0425372",
		"Arkansas Seed Guide 6F0425373",
		"Colorado Seed Guide 6F0425386",
		"Georgia Seed Guide 6F0425374",
		"Illinois Seed Guide 6F0425375",
		"Indiana Seed Guide 6F0425376",
		"Iowa Seed Guide 6F0425377",
		"Kansas Seed Guide 6F0425378",
		"Kentucky Seed Guide 6F0425379",
		"Minnesota Seed Guide 6F0425380",
		"Missouri Seed Guide 6F0425381",
		"Nebraska Seed Guide 6F0425382",
		"Ohio Seed Guide 6F0425383",
		"Tennessee Seed Guide 6F0425384",
		"National Seed Guide 6F0425387",
	}

	hhSKUPattern       = regexp.MustCompile(`([A-Z0-9]+)$`)
	hhSeedGuidePattern = regexp.MustCompile(`\s+Seed Guide\b`)
)

const (
	hhOnePagerSlots = 3

	// Carton math and the carrier cutover. A shipment estimated past
	// the carton threshold skips standard FedEx Ground and gets weighed
	// at the dock instead.
	hhUnitsPerCarton   = 50
	hhCartonThreshold  = 12
	hhReferenceNumber  = "E03339361"
	hhCarrierName      = "FedEx"
	hhCarrierAccount   = "339434972"
	hhCarrierService   = "Ground"
	hhStandardShipping = "FedEx Ground"
	hhSkipPackShipping = "Skip Pack - Email Weights"
)

// HHGlobal implements the HH Global seed guide schema.
type HHGlobal struct {
	now func() time.Time
}

// NewHHGlobal creates the HH Global strategy.
func NewHHGlobal() *HHGlobal {
	return &HHGlobal{now: time.Now}
}

func (s *HHGlobal) Code() string        { return "HH_GLOBAL" }
func (s *HHGlobal) DisplayName() string { return "HH Global" }

// ParseFile decodes a CSV or Excel upload.
func (s *HHGlobal) ParseFile(data []byte, filename string) (*ParsedData, error) {
	var table *tabular.Table
	var err error

	switch ext := fileExtension(filename); ext {
	case "csv", "":
		table, err = tabular.Ingest(data)
	case "xlsx":
		table, err = tabular.IngestXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return &ParsedData{
		Rows: table.Rows,
		Meta: Metadata{
			TotalRows:    len(table.Rows),
			Columns:      table.Columns,
			CustomerCode: s.Code(),
			UploadedAt:   s.now(),
		},
	}, nil
}

// ValidateData checks the address columns exist at the file level, then
// requires each row to carry an address and at least one item.
func (s *HHGlobal) ValidateData(parsed *ParsedData) *ValidationResult {
	result := newValidation(len(parsed.Rows))

	// A missing address column breaks every row the same way; report it
	// once and stop instead of repeating it per row.
	var missing []string
	for _, col := range hhRequiredColumns {
		if !hasColumn(parsed.Meta.Columns, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		result.Valid = false
		for _, col := range missing {
			result.Errors = append(result.Errors, fmt.Sprintf("Missing required column: %s", col))
		}
		return result
	}

	for i, row := range parsed.Rows {
		rowErrs := s.validateRow(row)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, prefixRowErrors(i+1, rowErrs)...)
		} else {
			result.ValidRows++
		}
	}

	return finishValidation(result)
}

func (s *HHGlobal) validateRow(row Row) []string {
	errs := missingFields(row, hhRequiredColumns)
	if !s.hasAnyItems(row) {
		errs = append(errs, "No items found: at least one seed guide or one pager is required")
	}
	return errs
}

func (s *HHGlobal) hasAnyItems(row Row) bool {
	for _, col := range hhSeedGuideColumns {
		if parseQuantity(row[col]) > 0 {
			return true
		}
	}
	for slot := 1; slot <= hhOnePagerSlots; slot++ {
		if cleanString(row[fmt.Sprintf("One Pager #%d", slot)]) != "" {
			return true
		}
	}
	return false
}

// GenerateKits builds one blind-ship kit per valid row.
func (s *HHGlobal) GenerateKits(parsed *ParsedData) ([]Kit, []RowError) {
	var kits []Kit
	var skipped []RowError
	timestamp := s.now()

	for i, row := range parsed.Rows {
		if rowErrs := s.validateRow(row); len(rowErrs) > 0 {
			skipped = append(skipped, RowError{Row: i + 1, Err: errors.New(rowErrs[0])})
			continue
		}
		kits = append(kits, s.buildKit(row, i, timestamp))
	}

	return kits, skipped
}

func (s *HHGlobal) buildKit(row Row, rowIndex int, ts time.Time) Kit {
	id := kitID(s.Code(), rowIndex, ts)
	items := s.buildItems(id, row)

	kit := Kit{
		ID:           id,
		CustomerCode: s.Code(),
		Recipient: Recipient{
			Name:  s.recipientName(row),
			Email: cleanString(row["Recipient Email"]),
			Address: Address{
				Street:  cleanString(row["Address"]),
				City:    cleanString(row["City"]),
				State:   cleanString(row["State"]),
				ZipCode: cleanString(row["Zip"]),
				Country: "USA",
			},
		},
		Items: items,
	}

	totalQuantity := kit.TotalQuantity()
	cartons := int(math.Ceil(float64(totalQuantity) / float64(hhUnitsPerCarton)))
	skipPack := cartons >= hhCartonThreshold

	method := hhStandardShipping
	if skipPack {
		method = hhSkipPackShipping
	}

	kit.Meta = KitMeta{
		OriginalRowIndex:    rowIndex,
		OrderReference:      hhReferenceNumber,
		ShippingMethod:      method,
		SpecialInstructions: s.specialInstructions(skipPack),
		Custom: map[string]any{
			"estimatedCartons": cartons,
			"skipPack":         skipPack,
		},
	}

	kit.Shipping = &ShipmentInfo{
		Service:      method,
		PackageCount: cartons,
		Account:      hhCarrierAccount,
	}

	return kit
}

func (s *HHGlobal) recipientName(row Row) string {
	if name := cleanString(row["Shipment too"]); name != "" {
		return name
	}
	return "Unknown Recipient"
}

// buildItems collects seed guides in column order, then one-pager slots.
func (s *HHGlobal) buildItems(id string, row Row) []KitItem {
	var items []KitItem

	for _, col := range hhSeedGuideColumns {
		quantity := parseQuantity(row[col])
		if quantity <= 0 {
			continue
		}
		sku := ""
		if m := hhSKUPattern.FindStringSubmatch(col); m != nil {
			sku = m[1]
		}
		state := hhStateName(col)
		items = append(items, KitItem{
			ID:          itemID(id, len(items)),
			SKU:         sku,
			Name:        col,
			Description: fmt.Sprintf("%s seed guide", state),
			Quantity:    quantity,
			Category:    "seed-guide",
			Props:       map[string]any{"state": state, "region": state},
		})
	}

	for slot := 1; slot <= hhOnePagerSlots; slot++ {
		name := cleanString(row[fmt.Sprintf("One Pager #%d", slot)])
		if name == "" {
			continue
		}
		sku := cleanString(row[fmt.Sprintf("One Pager #%d QC Number", slot)])
		if sku == "" {
			sku = fmt.Sprintf("OP-%d", slot)
		}
		items = append(items, KitItem{
			ID:          itemID(id, len(items)),
			SKU:         sku,
			Name:        name,
			Description: "One pager collateral sheet",
			Quantity:    1,
			Category:    "collateral",
			Props:       map[string]any{"slot": slot},
		})
	}

	return items
}

// hhStateName extracts the state/region prefix from a seed guide column.
func hhStateName(column string) string {
	if idx := hhSeedGuidePattern.FindStringIndex(column); idx != nil {
		return column[:idx[0]]
	}
	return column
}

// CustomizeTemplate brands slips for the blind-ship arrangement: the
// client's name replaces the printer's everywhere on the slip.
func (s *HHGlobal) CustomizeTemplate(_ *Kit) Branding {
	return Branding{
		CompanyName:     "HH Global",
		OverrideCompany: true,
		Colors:          &BrandColors{Primary: "#003057", Secondary: "#6b7280"},
		FooterText:      fmt.Sprintf("Reference #%s", hhReferenceNumber),
	}
}

// ShippingRules applies the carton-threshold carrier decision.
func (s *HHGlobal) ShippingRules(kit *Kit) ShippingRules {
	skipPack := false
	if kit.Meta.Custom != nil {
		skipPack, _ = kit.Meta.Custom["skipPack"].(bool)
	}

	method := hhStandardShipping
	if skipPack {
		method = hhSkipPackShipping
	}

	return ShippingRules{
		Method:          method,
		SpecialHandling: skipPack,
		Instructions:    s.specialInstructions(skipPack),
	}
}

func (s *HHGlobal) specialInstructions(skipPack bool) []string {
	instructions := []string{
		"SHIP IN THE NAME OF HH GLOBAL, OR BLIND",
		"DO NOT SHOW WALLACE GRAPHICS AS THE SHIPPER",
		fmt.Sprintf("Reference #1: %s", hhReferenceNumber),
		fmt.Sprintf("Carrier: %s %s, Account %s", hhCarrierName, hhCarrierService, hhCarrierAccount),
		"Treat each row as a separate shipment with its own packing slip",
		"Label seed guides by version so they can be verified at receiving",
	}
	if skipPack {
		instructions = append(instructions, "PLEASE SKIP PACK AND EMAIL WEIGHTS AND DIMS TO TRACY")
	}
	return instructions
}

func (s *HHGlobal) UploadInstructions() UploadInstructions {
	return UploadInstructions{
		AcceptedFormats: []string{"csv", "xlsx"},
		MaxFileSize:     maxUploadSize,
		RequiredColumns: append([]string(nil), hhRequiredColumns...),
		SampleNotes: []string{
			"One column per state seed guide; the cell value is the quantity",
			"Up to three one-pager slots: 'One Pager #N' and 'One Pager #N QC Number'",
			"Every row needs at least one seed guide or one pager",
		},
	}
}
