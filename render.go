package packslip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/wallacegraphics/packslip/internal/fileutil"
)

// engine abstracts the browser process so the pool can be tested
// without Chrome.
type engine interface {
	NewPage() (enginePage, error)
	Restart() error
	Close() error
}

// enginePage is one browser tab capable of rendering HTML to PDF.
type enginePage interface {
	Render(ctx context.Context, html string) ([]byte, error)
	Reset() error
	Close() error
}

// Compile-time interface checks
var (
	_ engine     = (*rodEngine)(nil)
	_ enginePage = (*rodPage)(nil)
)

// PDF page dimensions in inches (US Letter format). Margins are zero;
// the slip template controls its own padding via @page CSS.
const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one page is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser tabs to limit memory.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// DefaultRenderTimeout bounds a single slip render.
const DefaultRenderTimeout = 30 * time.Second

// ResolvePoolSize determines the page pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}

// rodEngine owns the headless Chrome process via go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodEngine struct {
	mu      sync.Mutex
	browser *rod.Browser
	timeout time.Duration
}

func newRodEngine(timeout time.Duration) *rodEngine {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	return &rodEngine{timeout: timeout}
}

// connectLocked lazily launches and connects the browser.
// Callers must hold e.mu.
func (e *rodEngine) connectLocked() error {
	if e.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	e.browser = browser
	return nil
}

// NewPage opens a blank tab, connecting the browser on first use.
func (e *rodEngine) NewPage() (enginePage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.connectLocked(); err != nil {
		return nil, err
	}

	page, err := e.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	return &rodPage{page: page, timeout: e.timeout}, nil
}

// Restart tears down the browser so the next NewPage relaunches it.
func (e *rodEngine) Restart() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	e.browser = nil
	return err
}

// Close releases browser resources.
func (e *rodEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	e.browser = nil
	return err
}

// rodPage renders HTML through one Chrome tab.
type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

// Render writes the HTML to a temp file, navigates the tab to it, and
// prints the loaded document to PDF. Timeouts surface as
// ErrRenderTimeout so callers can distinguish slow renders from broken
// ones.
func (p *rodPage) Render(ctx context.Context, html string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, context.DeadlineExceeded)
		}
	}

	if err := p.page.Navigate("file://" + tmpPath); err != nil {
		return nil, fmt.Errorf("%w: navigating: %v", ErrRender, err)
	}

	if err := p.page.Timeout(timeout).WaitLoad(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, err)
		}
		return nil, fmt.Errorf("%w: waiting for load: %v", ErrRender, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := p.page.PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(paperWidthInches),
		PaperHeight:       floatPtr(paperHeightInches),
		MarginTop:         floatPtr(0),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(0),
		MarginRight:       floatPtr(0),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrRender, err)
	}

	return pdf, nil
}

// Reset navigates back to a blank page so the tab can be reused.
func (p *rodPage) Reset() error {
	return p.page.Navigate("about:blank")
}

// Close closes the tab.
func (p *rodPage) Close() error {
	return p.page.Close()
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// PagePool reuses browser tabs across renders. Pages are created
// lazily, reset and pooled after successful renders, and closed (never
// pooled) after failed ones, since a failed render can leave a tab in
// an unknown state.
//
// When page creation fails the pool assumes the browser died, relaunches
// it once, and retries. The generation counter makes the relaunch
// single-flight: concurrent acquirers that observed the same dead
// browser share one restart instead of stampeding it.
type PagePool struct {
	eng engine
	max int
	log *slog.Logger

	mu   sync.Mutex
	idle []enginePage
	gen  uint64

	relaunchMu sync.Mutex
}

// NewPagePool creates a pool holding at most max idle pages.
func NewPagePool(eng engine, max int, log *slog.Logger) *PagePool {
	if max < 1 {
		max = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &PagePool{eng: eng, max: max, log: log}
}

// Render acquires a page, renders the HTML, and returns the page to
// the pool. On render failure the page is closed instead of pooled.
func (p *PagePool) Render(ctx context.Context, html string) ([]byte, error) {
	page, err := p.acquire()
	if err != nil {
		return nil, err
	}

	pdf, err := page.Render(ctx, html)
	if err != nil {
		_ = page.Close()
		return nil, err
	}

	p.release(page)
	return pdf, nil
}

func (p *PagePool) acquire() (enginePage, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		page := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return page, nil
	}
	gen := p.gen
	p.mu.Unlock()

	page, err := p.eng.NewPage()
	if err == nil {
		return page, nil
	}

	p.log.Warn("page creation failed, relaunching browser", "error", err)
	if rerr := p.relaunch(gen); rerr != nil {
		return nil, rerr
	}

	// Exactly one retry after a relaunch; a second failure is fatal.
	page, err = p.eng.NewPage()
	if err != nil {
		return nil, err
	}
	return page, nil
}

// relaunch restarts the engine unless another goroutine already did so
// for the same observed generation.
func (p *PagePool) relaunch(observedGen uint64) error {
	p.relaunchMu.Lock()
	defer p.relaunchMu.Unlock()

	p.mu.Lock()
	if p.gen != observedGen {
		// Someone else relaunched while we waited.
		p.mu.Unlock()
		return nil
	}
	idle := p.idle
	p.idle = nil
	p.gen++
	p.mu.Unlock()

	// Idle pages belong to the dead browser; drop them.
	for _, page := range idle {
		_ = page.Close()
	}

	if err := p.eng.Restart(); err != nil {
		return fmt.Errorf("%w: relaunching browser: %v", ErrBrowserConnect, err)
	}
	return nil
}

func (p *PagePool) release(page enginePage) {
	if err := page.Reset(); err != nil {
		_ = page.Close()
		return
	}

	p.mu.Lock()
	if len(p.idle) < p.max {
		p.idle = append(p.idle, page)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	_ = page.Close()
}

// Close closes all idle pages and the underlying engine.
func (p *PagePool) Close() error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var errs []error
	for _, page := range idle {
		if err := page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.eng.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// idleCount reports pooled pages; used by tests.
func (p *PagePool) idleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}
