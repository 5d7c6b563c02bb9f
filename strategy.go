package packslip

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Strategy is the per-customer capability set: parsing the customer's
// column schema, validating it, generating kits, and deciding branding
// and shipping rules. Implementations are pure business logic; all
// shared I/O lives in the Service and the ingestor.
type Strategy interface {
	// Code is the registry key, matched case-insensitively.
	Code() string
	DisplayName() string

	// ParseFile decodes an upload into customer-shaped rows. It fails
	// with ErrUnsupportedFormat for unknown extensions,
	// ErrUnrecognizedFormat when no sub-format signature matches, and
	// ErrEmptyInput for files with zero data rows.
	ParseFile(data []byte, filename string) (*ParsedData, error)

	// ValidateData applies required-field and grammar checks per row.
	// Error strings are labeled with the 1-based row number. A file
	// where no row validates is invalid even without row errors.
	ValidateData(parsed *ParsedData) *ValidationResult

	// GenerateKits builds one kit per row that independently passes the
	// same per-row checks ValidateData uses. Failing rows are returned
	// as RowErrors, not kits: partial success is expected.
	GenerateKits(parsed *ParsedData) ([]Kit, []RowError)

	// CustomizeTemplate derives the slip branding for one kit.
	CustomizeTemplate(kit *Kit) Branding

	// ShippingRules derives the shipping decision for one kit.
	ShippingRules(kit *Kit) ShippingRules

	// UploadInstructions describes the expected upload for the UI.
	UploadInstructions() UploadInstructions
}

// maxUploadSize is the advertised upload limit (enforced upstream).
const maxUploadSize = 10 << 20

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// kitID derives the deterministic kit identifier: customer code, upload
// date, and 1-padded row index. Identical uploads on the same day
// produce identical IDs, which keeps re-renders idempotent.
func kitID(customerCode string, rowIndex int, ts time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", customerCode, ts.Format("20060102"), rowIndex)
}

// itemID derives the identifier of the itemIndex-th item of a kit.
func itemID(kitID string, itemIndex int) string {
	return fmt.Sprintf("%s-item-%03d", kitID, itemIndex)
}

// cleanString trims whitespace and surrounding double quotes.
func cleanString(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		value = value[1 : len(value)-1]
	}
	return strings.TrimSpace(value)
}

// parseQuantity extracts a non-negative integer quantity from a cell.
// Currency/thousands punctuation is tolerated; anything unparseable is 0.
func parseQuantity(value string) int {
	f := parseDecimal(value)
	if f < 0 {
		return 0
	}
	return int(math.Floor(f))
}

// parseDecimal extracts a float from a cell, 0 when unparseable.
func parseDecimal(value string) float64 {
	cleaned := strings.NewReplacer(",", "", "$", "", "%", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// missingFields returns one error string per required field that is
// absent or blank in the row.
func missingFields(row Row, required []string) []string {
	var errs []string
	for _, field := range required {
		if cleanString(row[field]) == "" {
			errs = append(errs, fmt.Sprintf("Missing required field: %s", field))
		}
	}
	return errs
}

// newValidation seeds a ValidationResult for totalRows rows.
func newValidation(totalRows int) *ValidationResult {
	return &ValidationResult{Valid: true, TotalRows: totalRows}
}

// finishValidation applies the cross-row invariants: any error
// invalidates the file, and so does a file where no row validated.
func finishValidation(result *ValidationResult) *ValidationResult {
	if result.ValidRows == 0 {
		result.Valid = false
		if len(result.Errors) == 0 {
			result.Errors = append(result.Errors, "No valid rows found in the uploaded file")
		}
	}
	if len(result.Errors) > 0 {
		result.Valid = false
	}
	return result
}

// prefixRowErrors labels per-row error strings with the 1-based row number.
func prefixRowErrors(rowNumber int, errs []string) []string {
	labeled := make([]string, len(errs))
	for i, e := range errs {
		labeled[i] = fmt.Sprintf("Row %d: %s", rowNumber, e)
	}
	return labeled
}

// fileExtension returns the lowercased extension without the dot.
func fileExtension(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// hasColumn reports whether name appears in the header columns.
func hasColumn(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}
