package packslip

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wallacegraphics/packslip/internal/tabular"
)

// InquireEd ships Inquiry Journeys curriculum kits to school districts.
// Two export shapes exist: PM orders (printed student materials, cell
// format "qty, grade") and TE orders (teacher editions, cell format
// "qty, No Sticker" or "qty, Needs Sticker: grade"). The SKU is the
// column header itself.
const (
	ieFileTypePM = "pm"
	ieFileTypeTE = "te"
)

// ieBaseColumns must all be present for either export shape.
var ieBaseColumns = []string{
	"District or School",
	"Dock?",
	"Paved Path?",
	"Receiving Days",
	"Receiving Hours",
	"Delivery Address",
	"Shipping Contact Name",
	"Shipping Contact Email",
	"Shipping Contact Phone",
	"Appointment Required?",
}

var ieRequiredFields = []string{
	"District or School",
	"Delivery Address",
	"Shipping Contact Name",
	"Shipping Contact Email",
}

// ieNonSKUColumns never hold product cells.
var ieNonSKUColumns = map[string]bool{
	"District or School":               true,
	"Dock?":                            true,
	"Paved Path?":                      true,
	"Receiving Days":                   true,
	"Receiving Hours":                  true,
	"Delivery Address":                 true,
	"Shipping Contact Name":            true,
	"Shipping Contact Email":           true,
	"Shipping Contact Phone":           true,
	"Appointment Required?":            true,
	"Delivery Notes":                   true,
	"Total Number of Boxes Ordered":    true,
	"Total Number of TEs Ordered":      true,
	"Fall 2025 Earliest Delivery Date": true,
}

var (
	iePMSKUPattern = regexp.MustCompile(`^IND-IJ-PM-[A-Z]+-[A-Z]{2}-\d{4}$`)
	ieTESKUPattern = regexp.MustCompile(`^IND-IJ-TE-[A-Z]+-\d{4}$`)

	// "2, K" / "3, 1" / "4, 5th"
	ieGradePattern = regexp.MustCompile(`^(\d+),\s*([KkGg]|\d+|[A-Za-z]+\d*|\d*[A-Za-z]+)$`)
	// "26, No Sticker" / "26, Needs Sticker: 4"
	ieStickerPattern = regexp.MustCompile(`^(\d+),\s*(No Sticker|Needs Sticker:\s*([KkGg]|\d+|[A-Za-z]+\d*|\d*[A-Za-z]+))$`)
	ieLeadingNumber  = regexp.MustCompile(`^(\d+)`)

	ieDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`),
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`),
	}

	ieCityStateZip = regexp.MustCompile(`^(.+),\s*([A-Z]{2})\s+(\d{5}(?:-\d{4})?)$`)
)

const (
	ieDefaultReceivingDays  = "M-F"
	ieDefaultReceivingHours = "8 AM - 4 PM"
)

// ieProductOrder is one parsed product cell.
type ieProductOrder struct {
	SKU          string
	Quantity     int
	GradeLevel   string
	HasSticker   bool // sticker info present (TE rows)
	NeedsSticker bool
}

// ieDelivery is the dock/appointment detail used for shipping rules.
type ieDelivery struct {
	HasDock              bool
	HasPavedPath         bool
	ReceivingDays        string
	ReceivingHours       string
	DeliveryNotes        string
	EarliestDeliveryDate string
	AppointmentRequired  bool
}

// InquireEd implements the InquireEd curriculum order schema.
type InquireEd struct {
	now     func() time.Time
	catalog map[string]ieProduct
}

// NewInquireEd creates the InquireEd strategy with the built-in SKU
// catalog.
func NewInquireEd() *InquireEd {
	return &InquireEd{now: time.Now, catalog: ieCatalog}
}

func (s *InquireEd) Code() string        { return "INQUIRE_ED" }
func (s *InquireEd) DisplayName() string { return "InquireEd" }

// ParseFile decodes a CSV upload and classifies it as a PM or TE order
// export. Classification uses summary-column indicators first and SKU
// header patterns as a tiebreaker.
func (s *InquireEd) ParseFile(data []byte, filename string) (*ParsedData, error) {
	if ext := fileExtension(filename); ext != "" && ext != "csv" {
		return nil, fmt.Errorf("%w: %q (expected .csv)", ErrUnsupportedFormat, ext)
	}

	table, err := tabular.Ingest(data)
	if err != nil {
		return nil, err
	}

	fileType := ieDetectFileType(table.Columns)
	if fileType == "" {
		return nil, fmt.Errorf("%w: expected PM Orders or TE Orders export", ErrUnrecognizedFormat)
	}

	return &ParsedData{
		Rows: table.Rows,
		Meta: Metadata{
			TotalRows:    len(table.Rows),
			Columns:      table.Columns,
			CustomerCode: s.Code(),
			UploadedAt:   s.now(),
			FileType:     fileType,
		},
	}, nil
}

func ieDetectFileType(columns []string) string {
	for _, base := range ieBaseColumns {
		if !hasColumn(columns, base) {
			return ""
		}
	}

	var pmIndicator, teIndicator, pmSKUs, teSKUs bool
	for _, col := range columns {
		if strings.Contains(col, "Total Number of Boxes Ordered") || strings.Contains(col, "Delivery Notes") {
			pmIndicator = true
		}
		if strings.Contains(col, "Total Number of TEs Ordered") {
			teIndicator = true
		}
		if iePMSKUPattern.MatchString(col) {
			pmSKUs = true
		}
		if ieTESKUPattern.MatchString(col) {
			teSKUs = true
		}
	}

	switch {
	case pmIndicator && (pmSKUs || !teSKUs):
		return ieFileTypePM
	case teIndicator && (teSKUs || !pmSKUs):
		return ieFileTypeTE
	case pmSKUs && !teSKUs:
		return ieFileTypePM
	case teSKUs && !pmSKUs:
		return ieFileTypeTE
	}
	return ""
}

// ValidateData checks contact fields, email and date formats, and that
// every row orders at least one product.
func (s *InquireEd) ValidateData(parsed *ParsedData) *ValidationResult {
	result := newValidation(len(parsed.Rows))

	rowsWithoutProducts := 0
	for i, row := range parsed.Rows {
		products := s.extractProducts(row, parsed.Meta.Columns, parsed.Meta.FileType)
		if len(products) == 0 {
			rowsWithoutProducts++
		}

		rowErrs := s.validateRow(row, products)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, prefixRowErrors(i+1, rowErrs)...)
		} else {
			result.ValidRows++
		}
	}

	if rowsWithoutProducts > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d rows have no products", rowsWithoutProducts))
	}

	return finishValidation(result)
}

func (s *InquireEd) validateRow(row Row, products []ieProductOrder) []string {
	errs := missingFields(row, ieRequiredFields)

	if email := cleanString(row["Shipping Contact Email"]); email != "" && !validEmail(email) {
		errs = append(errs, fmt.Sprintf("Invalid email format: %s", email))
	}

	if len(products) == 0 {
		errs = append(errs, "No products found")
	}

	if date := cleanString(row["Fall 2025 Earliest Delivery Date"]); date != "" {
		valid := false
		for _, pattern := range ieDatePatterns {
			if pattern.MatchString(date) {
				valid = true
				break
			}
		}
		if !valid {
			errs = append(errs, fmt.Sprintf("Invalid delivery date format: %s", date))
		}
	}

	return errs
}

// GenerateKits builds one kit per valid row.
func (s *InquireEd) GenerateKits(parsed *ParsedData) ([]Kit, []RowError) {
	var kits []Kit
	var skipped []RowError
	timestamp := s.now()

	for i, row := range parsed.Rows {
		products := s.extractProducts(row, parsed.Meta.Columns, parsed.Meta.FileType)
		if rowErrs := s.validateRow(row, products); len(rowErrs) > 0 {
			skipped = append(skipped, RowError{Row: i + 1, Err: errors.New(rowErrs[0])})
			continue
		}
		kits = append(kits, s.buildKit(row, products, parsed.Meta.FileType, i, timestamp))
	}

	return kits, skipped
}

// extractProducts parses every product cell of a row. Columns are
// walked in header order so item order is deterministic. A cell whose
// grammar does not parse contributes quantity 0 and is dropped.
func (s *InquireEd) extractProducts(row Row, columns []string, fileType string) []ieProductOrder {
	var products []ieProductOrder
	for _, col := range columns {
		if col == "" || ieNonSKUColumns[col] {
			continue
		}
		value := cleanString(row[col])
		if value == "" {
			continue
		}
		product := s.parseProductCell(col, value, fileType)
		if product.Quantity > 0 {
			products = append(products, product)
		}
	}
	return products
}

func (s *InquireEd) parseProductCell(sku, value, fileType string) ieProductOrder {
	product := ieProductOrder{SKU: sku}

	if fileType == ieFileTypePM {
		if m := ieGradePattern.FindStringSubmatch(value); m != nil {
			product.Quantity = parseQuantity(m[1])
			product.GradeLevel = ieNormalizeGrade(m[2])
		} else if m := ieLeadingNumber.FindStringSubmatch(value); m != nil {
			product.Quantity = parseQuantity(m[1])
		}
		return product
	}

	if m := ieStickerPattern.FindStringSubmatch(value); m != nil {
		product.Quantity = parseQuantity(m[1])
		product.HasSticker = true
		product.NeedsSticker = m[2] != "No Sticker"
		if product.NeedsSticker && m[3] != "" {
			product.GradeLevel = ieNormalizeGrade(m[3])
		}
	} else if m := ieLeadingNumber.FindStringSubmatch(value); m != nil {
		product.Quantity = parseQuantity(m[1])
		product.HasSticker = true
	}
	return product
}

// ieNormalizeGrade collapses kindergarten spellings to "K"; everything
// else is uppercased as-is.
func ieNormalizeGrade(grade string) string {
	normalized := strings.ToUpper(strings.TrimSpace(grade))
	if normalized == "KG" {
		return "K"
	}
	return normalized
}

func (s *InquireEd) buildKit(row Row, products []ieProductOrder, fileType string, rowIndex int, ts time.Time) Kit {
	id := kitID(s.Code(), rowIndex, ts)
	delivery := s.deliveryInfo(row)
	schoolDistrict := cleanString(row["District or School"])

	kit := Kit{
		ID:           id,
		CustomerCode: s.Code(),
		Recipient: Recipient{
			Name:    cleanString(row["Shipping Contact Name"]),
			Company: schoolDistrict,
			Email:   cleanString(row["Shipping Contact Email"]),
			Phone:   cleanString(row["Shipping Contact Phone"]),
			Address: ieParseAddress(cleanString(row["Delivery Address"])),
		},
		Items: s.buildItems(id, products),
		Meta: KitMeta{
			OriginalRowIndex:    rowIndex,
			OrderReference:      schoolDistrict,
			ShippingMethod:      "GROUND",
			SpecialInstructions: s.kitInstructions(delivery),
			Custom: map[string]any{
				"fileType":     fileType,
				"deliveryInfo": delivery,
			},
		},
	}

	if fileType == ieFileTypePM {
		kit.Meta.Custom["totalBoxes"] = parseQuantity(row["Total Number of Boxes Ordered"])
	} else {
		kit.Meta.Custom["totalTEs"] = parseQuantity(row["Total Number of TEs Ordered"])
	}

	kit.Shipping = &ShipmentInfo{
		Service:      "GROUND",
		PackageCount: 1,
		Residential:  false,
	}

	return kit
}

func (s *InquireEd) deliveryInfo(row Row) ieDelivery {
	delivery := ieDelivery{
		HasDock:              strings.EqualFold(cleanString(row["Dock?"]), "yes"),
		HasPavedPath:         strings.EqualFold(cleanString(row["Paved Path?"]), "yes"),
		ReceivingDays:        cleanString(row["Receiving Days"]),
		ReceivingHours:       cleanString(row["Receiving Hours"]),
		DeliveryNotes:        cleanString(row["Delivery Notes"]),
		EarliestDeliveryDate: cleanString(row["Fall 2025 Earliest Delivery Date"]),
		AppointmentRequired:  strings.EqualFold(cleanString(row["Appointment Required?"]), "yes"),
	}
	if delivery.ReceivingDays == "" {
		delivery.ReceivingDays = ieDefaultReceivingDays
	}
	if delivery.ReceivingHours == "" {
		delivery.ReceivingHours = ieDefaultReceivingHours
	}
	return delivery
}

// ieParseAddress splits a multi-line delivery address. The last line is
// matched as "City, ST 12345"; when it doesn't match, the whole line
// becomes the city and state/zip stay empty.
func ieParseAddress(address string) Address {
	var lines []string
	for _, line := range strings.Split(address, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	result := Address{Country: "US"}
	if len(lines) == 0 {
		return result
	}

	result.Street = lines[0]
	if len(lines) > 2 {
		result.Street2 = lines[1]
	}

	lastLine := lines[len(lines)-1]
	if m := ieCityStateZip.FindStringSubmatch(lastLine); m != nil {
		result.City = strings.TrimSpace(m[1])
		result.State = m[2]
		result.ZipCode = m[3]
	} else {
		result.City = lastLine
	}

	return result
}

func (s *InquireEd) buildItems(id string, products []ieProductOrder) []KitItem {
	items := make([]KitItem, 0, len(products))
	for i, product := range products {
		info, known := s.catalog[product.SKU]

		name := product.SKU
		category := "Educational Materials"
		if known {
			name = info.Description
			category = info.Category
		}

		description := name
		if product.GradeLevel != "" {
			description += fmt.Sprintf(" (Grade %s)", product.GradeLevel)
		}
		if product.HasSticker {
			if product.NeedsSticker {
				description += " - Needs Sticker"
			} else {
				description += " - No Sticker"
			}
		}

		items = append(items, KitItem{
			ID:          itemID(id, i),
			SKU:         product.SKU,
			Name:        name,
			Description: description,
			Quantity:    product.Quantity,
			Category:    category,
			Props: map[string]any{
				"gradeLevel":   product.GradeLevel,
				"needsSticker": product.NeedsSticker,
			},
		})
	}
	return items
}

func (s *InquireEd) kitInstructions(delivery ieDelivery) []string {
	var instructions []string
	if delivery.AppointmentRequired {
		instructions = append(instructions, "APPOINTMENT REQUIRED")
	}
	if !delivery.HasDock {
		instructions = append(instructions, "NO LOADING DOCK")
	}
	if delivery.DeliveryNotes != "" {
		instructions = append(instructions, delivery.DeliveryNotes)
	}
	return instructions
}

// CustomizeTemplate brands slips with InquireEd identity.
func (s *InquireEd) CustomizeTemplate(_ *Kit) Branding {
	return Branding{
		CompanyName:     "InquireEd",
		OverrideCompany: true,
		LogoURL:         "/assets/logos/inquire-ed.png",
		Colors:          &BrandColors{Primary: "#2563eb", Secondary: "#64748b"},
		FooterText:      "InquireEd Educational Materials",
	}
}

// ShippingRules folds the delivery constraints into handling
// instructions. Appointment-required or dockless destinations get
// special handling.
func (s *InquireEd) ShippingRules(kit *Kit) ShippingRules {
	delivery, _ := kit.Meta.Custom["deliveryInfo"].(ieDelivery)

	var instructions []string
	if delivery.AppointmentRequired {
		instructions = append(instructions, "APPOINTMENT REQUIRED - Call before delivery")
	}
	if !delivery.HasDock {
		instructions = append(instructions, "NO LOADING DOCK - Manual unloading required")
	}
	if !delivery.HasPavedPath {
		instructions = append(instructions, "NO PAVED PATH - Consider delivery method")
	}
	if delivery.ReceivingHours != "" {
		instructions = append(instructions, fmt.Sprintf("Receiving Hours: %s", delivery.ReceivingHours))
	}
	if delivery.ReceivingDays != "" {
		instructions = append(instructions, fmt.Sprintf("Receiving Days: %s", delivery.ReceivingDays))
	}
	if delivery.DeliveryNotes != "" {
		instructions = append(instructions, fmt.Sprintf("Special Notes: %s", delivery.DeliveryNotes))
	}
	if delivery.EarliestDeliveryDate != "" {
		instructions = append(instructions, fmt.Sprintf("Earliest Delivery: %s", delivery.EarliestDeliveryDate))
	}

	return ShippingRules{
		Method:          "GROUND",
		SpecialHandling: delivery.AppointmentRequired || !delivery.HasDock,
		Instructions:    instructions,
	}
}

func (s *InquireEd) UploadInstructions() UploadInstructions {
	return UploadInstructions{
		AcceptedFormats: []string{"csv"},
		MaxFileSize:     maxUploadSize,
		RequiredColumns: append([]string(nil), ieRequiredFields...),
		SampleNotes: []string{
			"Upload either the PM Orders or the TE Orders export, not both",
			`PM quantity format: "2, K" (quantity 2, grade K)`,
			`TE quantity format: "30, No Sticker" or "28, Needs Sticker: K"`,
			"Delivery dates and appointment requirements are processed automatically",
		},
	}
}
