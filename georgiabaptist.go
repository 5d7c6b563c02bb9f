package packslip

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/wallacegraphics/packslip/internal/tabular"
)

// Georgia Baptist ships mission-board collateral from two distinct
// mailing-list exports: a UPS shipping export and a PO-box postal
// export. Both share the recipient column skeleton; the sub-format is
// detected from signature columns unique to each export.
const (
	gbFileTypeUPS   = "ups"
	gbFileTypePOBox = "pobox"
)

var (
	gbUPSSignature   = []string{"RCOMPANY", "RADDRESS", "BCOMPANY", "SERVICE", "WEIGHT"}
	gbPOBoxSignature = []string{"DP", "CHKDGT", "CRRT", "DPV", "URBANNAME"}

	gbRequiredColumns = []string{"COMPANY", "FULLNAME", "DELADDR", "CITY", "STATE", "ZIPCODE"}

	gbZipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// gbCategories maps each product category to its quantity column and
// catalog identity. Order here is the order items appear on the slip,
// regardless of source column order, so render output is stable.
var gbCategories = []struct {
	Key    string
	Column string
	SKU    string
	Name   string
	Desc   string
}{
	{"posters-eng", "PostersEng", "GB-POSTER-ENG", "Posters (English)", "Posters in English"},
	{"posters-spa", "PostersSPA", "GB-POSTER-SPA", "Posters (Spanish)", "Posters in Spanish"},
	{"guides-eng", "GuidesENG", "GB-GUIDE-ENG", "Guides (English)", "Guides in English"},
	{"guides-spa", "GuidesSPA", "GB-GUIDE-SPA", "Guides (Spanish)", "Guides in Spanish"},
	{"inserts", "Inserts", "GB-INSERT", "Inserts", "Inserts"},
	{"cards", "Card", "GB-CARD", "Cards", "Cards"},
	{"envelopes", "Envelopes", "GB-ENVELOPE", "Envelopes", "Envelopes"},
}

// GeorgiaBaptist implements the Georgia Baptist Mission Board schema.
type GeorgiaBaptist struct {
	now func() time.Time
}

// NewGeorgiaBaptist creates the Georgia Baptist strategy.
func NewGeorgiaBaptist() *GeorgiaBaptist {
	return &GeorgiaBaptist{now: time.Now}
}

func (s *GeorgiaBaptist) Code() string        { return "GEORGIA_BAPTIST" }
func (s *GeorgiaBaptist) DisplayName() string { return "Georgia Baptist" }

// ParseFile decodes a CSV upload and classifies it as the UPS or PO-box
// export. UPS signature columns win when present; a file matching
// neither signature set fails with ErrUnrecognizedFormat.
func (s *GeorgiaBaptist) ParseFile(data []byte, filename string) (*ParsedData, error) {
	if ext := fileExtension(filename); ext != "" && ext != "csv" {
		return nil, fmt.Errorf("%w: %q (expected .csv)", ErrUnsupportedFormat, ext)
	}

	table, err := tabular.Ingest(data)
	if err != nil {
		return nil, err
	}

	fileType := gbDetectFileType(table.Columns)
	if fileType == "" {
		return nil, fmt.Errorf("%w: expected UPS or POBOX export", ErrUnrecognizedFormat)
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

func gbDetectFileType(columns []string) string {
	for _, col := range gbUPSSignature {
		if hasColumn(columns, col) {
			return gbFileTypeUPS
		}
	}
	for _, col := range gbPOBoxSignature {
		if hasColumn(columns, col) {
			return gbFileTypePOBox
		}
	}
	return ""
}

// ValidateData checks recipient fields and ZIP code shape per row.
func (s *GeorgiaBaptist) ValidateData(parsed *ParsedData) *ValidationResult {
	result := newValidation(len(parsed.Rows))

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

func (s *GeorgiaBaptist) validateRow(row Row) []string {
	errs := missingFields(row, gbRequiredColumns)
	if zip := cleanString(row["ZIPCODE"]); zip != "" && !gbZipPattern.MatchString(zip) {
		errs = append(errs, fmt.Sprintf("Invalid ZIP code format: %s", zip))
	}
	return errs
}

// GenerateKits builds one kit per valid row. Rows whose product
// quantities are all zero would yield an empty kit and are skipped.
func (s *GeorgiaBaptist) GenerateKits(parsed *ParsedData) ([]Kit, []RowError) {
	var kits []Kit
	var skipped []RowError
	timestamp := s.now()

	for i, row := range parsed.Rows {
		if rowErrs := s.validateRow(row); len(rowErrs) > 0 {
			skipped = append(skipped, RowError{Row: i + 1, Err: errors.New(rowErrs[0])})
			continue
		}

		kit := s.buildKit(row, parsed.Meta.FileType, i, timestamp)
		if len(kit.Items) == 0 {
			skipped = append(skipped, RowError{Row: i + 1, Err: errors.New("no items: all product quantities are zero")})
			continue
		}
		kits = append(kits, kit)
	}

	return kits, skipped
}

func (s *GeorgiaBaptist) buildKit(row Row, fileType string, rowIndex int, ts time.Time) Kit {
	id := kitID(s.Code(), rowIndex, ts)
	isUPS := fileType == gbFileTypeUPS

	kit := Kit{
		ID:           id,
		CustomerCode: s.Code(),
		Recipient: Recipient{
			Name:    cleanString(row["FULLNAME"]),
			Company: cleanString(row["COMPANY"]),
			Address: Address{
				Street:  cleanString(row["DELADDR"]),
				Street2: cleanString(row["ALTRNT2ADD"]),
				City:    cleanString(row["CITY"]),
				State:   cleanString(row["STATE"]),
				ZipCode: cleanString(row["ZIPCODE"]),
				Country: "US",
			},
		},
		Items: s.buildItems(id, row),
		Meta: KitMeta{
			OriginalRowIndex:    rowIndex,
			ShippingMethod:      "MAIL",
			SpecialInstructions: nil,
			Custom:              map[string]any{"fileType": fileType},
		},
	}

	shipping := &ShipmentInfo{
		Service:      "MAIL",
		PackageCount: 1,
		Residential:  cleanString(row["RESIDENTAL"]) == "Y",
	}

	if isUPS {
		shipping.Service = cleanString(row["SERVICE"])
		shipping.Weight = parseDecimal(row["WEIGHT"])
		shipping.PackageCount = parseQuantity(row["PKG"])
		shipping.Account = cleanString(row["ACCOUNT"])

		kit.Meta.ShippingMethod = shipping.Service
		kit.Meta.OrderReference = cleanString(row["RFRNC1"])
		kit.Meta.SequenceNumber = cleanString(row["Seq"])
		kit.Meta.Custom["reference1"] = cleanString(row["RFRNC1"])
		kit.Meta.Custom["reference2"] = cleanString(row["RFRNC2"])
		kit.Meta.Custom["dimensions"] = map[string]float64{
			"length": parseDecimal(row["LENGTH"]),
			"width":  parseDecimal(row["WIDTH"]),
			"height": parseDecimal(row["HEIGHT"]),
		}

		if cleanString(row["RCOMPANY"]) != "" {
			kit.Sender = &Party{
				Company: "WALLACE GRAPHICS",
				Address: Address{Street: "2450 Meadowbrook Pkwy", City: "Duluth", State: "GA", ZipCode: "30096"},
			}
		}
		if cleanString(row["BCOMPANY"]) != "" {
			kit.Billing = &Party{
				Company: cleanString(row["BCOMPANY"]),
				Address: Address{
					Street:  cleanString(row["BADDRESS"]),
					City:    cleanString(row["BCITY"]),
					State:   cleanString(row["BSTATE"]),
					ZipCode: cleanString(row["BZIP"]),
				},
			}
		}
	} else {
		kit.Meta.SequenceNumber = cleanString(row["SEQ"])
	}

	kit.Shipping = shipping
	return kit
}

// buildItems emits items in the fixed gbCategories order, omitting
// zero-quantity categories.
func (s *GeorgiaBaptist) buildItems(id string, row Row) []KitItem {
	var items []KitItem
	for _, cat := range gbCategories {
		quantity := parseQuantity(row[cat.Column])
		if quantity <= 0 {
			continue
		}
		items = append(items, KitItem{
			ID:          itemID(id, len(items)),
			SKU:         cat.SKU,
			Name:        cat.Name,
			Description: cat.Desc,
			Quantity:    quantity,
			Category:    cat.Key,
			Props:       map[string]any{},
		})
	}
	return items
}

// CustomizeTemplate brands slips for the mission board.
func (s *GeorgiaBaptist) CustomizeTemplate(_ *Kit) Branding {
	return Branding{
		CompanyName:     "Georgia Baptist Mission Board",
		OverrideCompany: true,
		Colors:          &BrandColors{Primary: "#1e40af", Secondary: "#64748b"},
		FooterText:      "Georgia Baptist Mission Board - Sharing the Gospel",
	}
}

// ShippingRules flags residential deliveries for special handling.
func (s *GeorgiaBaptist) ShippingRules(kit *Kit) ShippingRules {
	residential := kit.Shipping != nil && kit.Shipping.Residential

	method := "GROUND"
	if kit.Shipping != nil && kit.Shipping.Service != "" {
		method = kit.Shipping.Service
	}

	instructions := []string{"Commercial delivery"}
	if residential {
		instructions = []string{"Residential delivery", "Signature may be required"}
	}

	return ShippingRules{
		Method:          method,
		SpecialHandling: residential,
		Instructions:    instructions,
	}
}

func (s *GeorgiaBaptist) UploadInstructions() UploadInstructions {
	return UploadInstructions{
		AcceptedFormats: []string{"csv"},
		MaxFileSize:     maxUploadSize,
		RequiredColumns: append([]string(nil), gbRequiredColumns...),
		SampleNotes: []string{
			"Upload either the UPS export or the PO-box export",
			"Product quantity columns: PostersEng, PostersSPA, GuidesENG, GuidesSPA, Inserts, Card, Envelopes",
			"Rows with all quantities zero are skipped",
		},
	}
}
