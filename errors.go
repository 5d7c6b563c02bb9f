package packslip

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wallacegraphics/packslip/internal/tabular"
)

// Sentinel errors for upload processing.
var (
	// ErrEmptyInput is an alias for the ingestor's empty-file error so
	// callers can match it without importing internal/tabular.
	ErrEmptyInput = tabular.ErrEmptyInput

	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrUnrecognizedFormat = errors.New("unrecognized file format")
	ErrUnknownCustomer    = errors.New("unknown customer code")

	// Rendering errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrRender         = errors.New("rendering failed")
	ErrRenderTimeout  = errors.New("rendering timed out")

	// Merge errors.
	ErrNoDocuments = errors.New("no documents to merge")
	ErrMerge       = errors.New("document merge failed")
)

// ValidationError reports a failed global validation. It carries the full
// per-row error list so callers can surface every violation at once.
type ValidationError struct {
	Result *ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Result.Errors, "; "))
}
