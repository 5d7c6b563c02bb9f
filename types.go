package packslip

import (
	"time"

	"github.com/wallacegraphics/packslip/internal/tabular"
)

// Row is one ingested spreadsheet row, keyed by header column name.
type Row = tabular.Row

// Metadata describes an ingested upload.
type Metadata struct {
	TotalRows    int
	Columns      []string // header order, unique
	CustomerCode string
	UploadedAt   time.Time
	FileType     string // customer sub-format ("ups", "pobox", "pm", "te"); empty if single-format
}

// ParsedData is the output of Strategy.ParseFile. It is owned by the
// request that produced it and is not mutated afterwards.
type ParsedData struct {
	Rows []Row
	Meta Metadata
}

// ValidationResult is the outcome of Strategy.ValidateData.
// Valid holds iff Errors is empty and at least one row validated.
type ValidationResult struct {
	Valid     bool
	Errors    []string
	Warnings  []string
	ValidRows int
	TotalRows int
}

// Address is a postal address block.
type Address struct {
	Street  string
	Street2 string
	City    string
	State   string
	ZipCode string
	Country string
}

// Recipient identifies who a kit ships to.
type Recipient struct {
	Name    string
	Company string
	Email   string
	Phone   string
	Address Address
}

// Party is a non-recipient address block (sender or billing).
type Party struct {
	Company string
	Address Address
}

// ShipmentInfo carries carrier-level shipping detail for one kit.
type ShipmentInfo struct {
	Service      string
	Weight       float64
	PackageCount int
	Residential  bool
	Account      string
}

// KitItem is one line item within a kit.
type KitItem struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Quantity    int
	Category    string
	Props       map[string]any
}

// KitMeta holds provenance and free-form kit metadata.
type KitMeta struct {
	OriginalRowIndex    int
	OrderReference      string
	SequenceNumber      string
	ShippingMethod      string
	SpecialInstructions []string
	Custom              map[string]any
}

// Kit is the canonical shippable unit: one recipient, one set of items,
// derived from one input row. Kits returned by GenerateKits always have
// at least one item; rows that would produce an empty kit are skipped.
// The kit ID is deterministic (customer code + date + row index), so
// re-processing the same upload on the same day yields identical IDs.
type Kit struct {
	ID           string
	CustomerCode string
	Recipient    Recipient
	Sender       *Party
	Billing      *Party
	Shipping     *ShipmentInfo
	Items        []KitItem
	Meta         KitMeta
}

// TotalQuantity sums item quantities across the kit.
func (k *Kit) TotalQuantity() int {
	total := 0
	for _, item := range k.Items {
		total += item.Quantity
	}
	return total
}

// BrandColors is an optional primary/secondary color pair.
type BrandColors struct {
	Primary   string
	Secondary string
}

// Branding is the per-kit template customization derived by a Strategy.
// It is computed on demand and never persisted.
type Branding struct {
	CompanyName     string
	OverrideCompany bool // blind-ship: replace the printer's identity
	LogoURL         string
	Colors          *BrandColors
	FooterText      string
}

// ShippingRules is the shipping decision a Strategy makes for one kit.
type ShippingRules struct {
	Method          string
	SpecialHandling bool
	Instructions    []string
}

// UploadInstructions is the static capability descriptor a customer
// exposes to the upload UI.
type UploadInstructions struct {
	AcceptedFormats []string
	MaxFileSize     int64
	RequiredColumns []string
	SampleNotes     []string
}

// Descriptor pairs a registered customer with its upload instructions.
type Descriptor struct {
	CustomerCode string
	DisplayName  string
	Instructions UploadInstructions
}

// RowError records why one input row was skipped during kit generation.
type RowError struct {
	Row int // 1-based row number
	Err error
}

// CompanyInfo is the printer's identity rendered in the slip header.
type CompanyInfo struct {
	Name         string
	AddressLine  string
	JobReference string
}
