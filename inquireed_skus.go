package packslip

import (
	"fmt"

	"github.com/wallacegraphics/packslip/internal/tabular"
)

// ieProduct is one entry in the InquireEd SKU catalog.
type ieProduct struct {
	SKU         string
	Description string
	Category    string
}

// InquireEd product categories.
const (
	ieCategoryPMEnglish = "Printed Materials (English)"
	ieCategoryPMSpanish = "Printed Materials (Spanish)"
	ieCategoryTE        = "Printed Teacher Editions"
)

// ieCatalog is the built-in InquireEd SKU lookup: one Inquiry Journeys
// unit per grade band, in English and Spanish student editions plus a
// teacher edition. Unknown SKUs still produce items; the catalog only
// supplies names and categories.
var ieCatalog = map[string]ieProduct{
	"IND-IJ-PM-NAVIG-EN-0100":  {"IND-IJ-PM-NAVIG-EN-0100", "Navigating School (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-MYTEAM-EN-0200": {"IND-IJ-PM-MYTEAM-EN-0200", "My Team and Self (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-PASTF-EN-0300":  {"IND-IJ-PM-PASTF-EN-0300", "Past, Present, and Future (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-FAMLF-EN-0400":  {"IND-IJ-PM-FAMLF-EN-0400", "Families Near and Far (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-LOCAT-EN-0500":  {"IND-IJ-PM-LOCAT-EN-0500", "Our Special Location (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-CIVIC-EN-0600":  {"IND-IJ-PM-CIVIC-EN-0600", "Civic Engagement (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-NEEDS-EN-0700":  {"IND-IJ-PM-NEEDS-EN-0700", "Meeting Needs and Wants (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-LAND-EN-0800":   {"IND-IJ-PM-LAND-EN-0800", "Our Changing Landscape (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-INNOV-EN-0900":  {"IND-IJ-PM-INNOV-EN-0900", "Innovation (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-GLOBAL-EN-1000": {"IND-IJ-PM-GLOBAL-EN-1000", "Global Connections (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-MIGRA-EN-1100":  {"IND-IJ-PM-MIGRA-EN-1100", "Migration and Movement (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-CIVRT-EN-1200":  {"IND-IJ-PM-CIVRT-EN-1200", "The 20th Century Civil Rights Movement (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-NATRES-EN-1300": {"IND-IJ-PM-NATRES-EN-1300", "Natural Resources of the US (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-OURST-EN-1400":  {"IND-IJ-PM-OURST-EN-1400", "Our State and Region (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-ECON-EN-1500":   {"IND-IJ-PM-ECON-EN-1500", "Economic Choices (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-NATAM-EN-1600":  {"IND-IJ-PM-NATAM-EN-1600", "Native America (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-COLO-EN-1700":   {"IND-IJ-PM-COLO-EN-1700", "The Colonial Era (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-AMREV-EN-1800":  {"IND-IJ-PM-AMREV-EN-1800", "The American Revolution (English)", ieCategoryPMEnglish},
	"IND-IJ-PM-RIGHTS-EN-1900": {"IND-IJ-PM-RIGHTS-EN-1900", "Rights and Responsibilities (English)", ieCategoryPMEnglish},

	"IND-IJ-PM-NAVIG-SP-0100":  {"IND-IJ-PM-NAVIG-SP-0100", "Navigating School (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-MYTEAM-SP-0200": {"IND-IJ-PM-MYTEAM-SP-0200", "My Team and Self (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-PASTF-SP-0300":  {"IND-IJ-PM-PASTF-SP-0300", "Past, Present, and Future (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-FAMLF-SP-0400":  {"IND-IJ-PM-FAMLF-SP-0400", "Families Near and Far (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-LOCAT-SP-0500":  {"IND-IJ-PM-LOCAT-SP-0500", "Our Special Location (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-CIVIC-SP-0600":  {"IND-IJ-PM-CIVIC-SP-0600", "Civic Engagement (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-NEEDS-SP-0700":  {"IND-IJ-PM-NEEDS-SP-0700", "Meeting Needs and Wants (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-LAND-SP-0800":   {"IND-IJ-PM-LAND-SP-0800", "Our Changing Landscape (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-INNOV-SP-0900":  {"IND-IJ-PM-INNOV-SP-0900", "Innovation (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-GLOBAL-SP-1000": {"IND-IJ-PM-GLOBAL-SP-1000", "Global Connections (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-MIGRA-SP-1100":  {"IND-IJ-PM-MIGRA-SP-1100", "Migration and Movement (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-CIVRT-SP-1200":  {"IND-IJ-PM-CIVRT-SP-1200", "The 20th Century Civil Rights Movement (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-NATRES-SP-1300": {"IND-IJ-PM-NATRES-SP-1300", "Natural Resources of the US (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-OURST-SP-1400":  {"IND-IJ-PM-OURST-SP-1400", "Our State and Region (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-ECON-SP-1500":   {"IND-IJ-PM-ECON-SP-1500", "Economic Choices (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-NATAM-SP-1600":  {"IND-IJ-PM-NATAM-SP-1600", "Native America (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-COLO-SP-1700":   {"IND-IJ-PM-COLO-SP-1700", "The Colonial Era (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-AMREV-SP-1800":  {"IND-IJ-PM-AMREV-SP-1800", "The American Revolution (Spanish)", ieCategoryPMSpanish},
	"IND-IJ-PM-RIGHTS-SP-1900": {"IND-IJ-PM-RIGHTS-SP-1900", "Rights and Responsibilities (Spanish)", ieCategoryPMSpanish},

	"IND-IJ-TE-NAVIG-0100":  {"IND-IJ-TE-NAVIG-0100", "Navigating School", ieCategoryTE},
	"IND-IJ-TE-MYTEAM-0200": {"IND-IJ-TE-MYTEAM-0200", "My Team and Self", ieCategoryTE},
	"IND-IJ-TE-PASTF-0300":  {"IND-IJ-TE-PASTF-0300", "Past, Present, and Future", ieCategoryTE},
	"IND-IJ-TE-FAMLF-0400":  {"IND-IJ-TE-FAMLF-0400", "Families Near and Far", ieCategoryTE},
	"IND-IJ-TE-LOCAT-0500":  {"IND-IJ-TE-LOCAT-0500", "Our Special Location", ieCategoryTE},
	"IND-IJ-TE-CIVIC-0600":  {"IND-IJ-TE-CIVIC-0600", "Civic Engagement", ieCategoryTE},
	"IND-IJ-TE-NEEDS-0700":  {"IND-IJ-TE-NEEDS-0700", "Meeting Needs and Wants", ieCategoryTE},
	"IND-IJ-TE-LAND-0800":   {"IND-IJ-TE-LAND-0800", "Our Changing Landscape", ieCategoryTE},
	"IND-IJ-TE-INNOV-0900":  {"IND-IJ-TE-INNOV-0900", "Innovation", ieCategoryTE},
	"IND-IJ-TE-GLOBAL-1000": {"IND-IJ-TE-GLOBAL-1000", "Global Connections", ieCategoryTE},
	"IND-IJ-TE-MIGRA-1100":  {"IND-IJ-TE-MIGRA-1100", "Migration and Movement", ieCategoryTE},
	"IND-IJ-TE-CIVRT-1200":  {"IND-IJ-TE-CIVRT-1200", "The 20th Century Civil Rights Movement", ieCategoryTE},
	"IND-IJ-TE-NATRES-1300": {"IND-IJ-TE-NATRES-1300", "Natural Resources of the US", ieCategoryTE},
	"IND-IJ-TE-OURST-1400":  {"IND-IJ-TE-OURST-1400", "Our State and Region", ieCategoryTE},
	"IND-IJ-TE-ECON-1500":   {"IND-IJ-TE-ECON-1500", "Economic Choices", ieCategoryTE},
	"IND-IJ-TE-NATAM-1600":  {"IND-IJ-TE-NATAM-1600", "Native America", ieCategoryTE},
	"IND-IJ-TE-COLO-1700":   {"IND-IJ-TE-COLO-1700", "The Colonial Era", ieCategoryTE},
	"IND-IJ-TE-AMREV-1800":  {"IND-IJ-TE-AMREV-1800", "The American Revolution", ieCategoryTE},
	"IND-IJ-TE-RIGHTS-1900": {"IND-IJ-TE-RIGHTS-1900", "Rights and Responsibilities", ieCategoryTE},
}

// LoadCatalog replaces the built-in SKU catalog with a CSV override.
// The file needs SKU, Description, and Category columns; rows without a
// SKU are skipped.
func (s *InquireEd) LoadCatalog(data []byte) error {
	table, err := tabular.Ingest(data)
	if err != nil {
		return fmt.Errorf("loading SKU catalog: %w", err)
	}
	for _, col := range []string{"SKU", "Description", "Category"} {
		if !hasColumn(table.Columns, col) {
			return fmt.Errorf("%w: SKU catalog needs a %s column", ErrUnrecognizedFormat, col)
		}
	}

	catalog := make(map[string]ieProduct, len(table.Rows))
	for _, row := range table.Rows {
		sku := cleanString(row["SKU"])
		if sku == "" {
			continue
		}
		catalog[sku] = ieProduct{
			SKU:         sku,
			Description: cleanString(row["Description"]),
			Category:    cleanString(row["Category"]),
		}
	}
	if len(catalog) == 0 {
		return fmt.Errorf("%w: SKU catalog has no usable rows", ErrEmptyInput)
	}

	s.catalog = catalog
	return nil
}
