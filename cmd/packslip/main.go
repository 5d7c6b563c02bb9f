package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/wallacegraphics/packslip"
	"github.com/wallacegraphics/packslip/internal/config"
	"github.com/wallacegraphics/packslip/internal/fileutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	flags, args, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if flags.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, a ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", a...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	if err := run(flags, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(flags *cliFlags, args []string) error {
	if flags.version {
		fmt.Println("packslip", Version)
		return nil
	}

	log := newLogger(flags)

	cfg := config.Default()
	if flags.config != "" {
		loaded, err := config.Load(flags.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlagOverrides(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if flags.verbose {
		if dump, err := cfg.Dump(); err == nil {
			log.Debug("effective configuration", "config", string(dump))
		}
	}

	svc, err := newService(cfg, flags, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	if flags.list {
		return listCustomers(svc)
	}

	if flags.customer == "" {
		return errors.New("missing required flag: --customer")
	}
	if len(args) != 1 {
		return errors.New("usage: packslip -c <customer> [flags] <input.csv|xlsx>")
	}

	inputPath := args[0]
	if !fileutil.FileExists(inputPath) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	data, err := os.ReadFile(inputPath) // #nosec G304 -- input path is user-provided
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	result, err := svc.ProcessFile(flags.customer, data, filepath.Base(inputPath))
	if err != nil {
		var verr *packslip.ValidationError
		if errors.As(err, &verr) {
			printValidation(verr.Result)
		}
		return err
	}

	if !flags.quiet {
		fmt.Fprintf(os.Stderr, "Generated %d kits from %d rows (%d skipped)\n",
			len(result.Kits), result.Meta.TotalRows, len(result.Skipped))
	}

	batch, err := svc.RenderBatch(context.Background(), result.Kits)
	if err != nil {
		return err
	}
	for _, failure := range batch.Failed {
		fmt.Fprintf(os.Stderr, "warning: kit %s failed to render: %v\n", failure.KitID, failure.Err)
	}

	outPath := flags.output
	if outPath == "" {
		outPath = defaultOutputPath(inputPath, batch.ContentType)
	}
	if err := os.WriteFile(outPath, batch.Artifact, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}

	if !flags.quiet {
		fmt.Printf("Created %s (%d slips)\n", outPath, batch.Rendered)
	}
	return nil
}

func newLogger(flags *cliFlags) *slog.Logger {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	if flags.quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func applyFlagOverrides(cfg *config.Config, flags *cliFlags) {
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	if flags.poolSize > 0 {
		cfg.PoolSize = flags.poolSize
	}
	if flags.timeout != "" {
		cfg.RenderTimeout = flags.timeout
	}
	if flags.zip {
		cfg.Output = config.OutputZIP
	}
}

func newService(cfg *config.Config, flags *cliFlags, log *slog.Logger) (*packslip.Service, error) {
	opts := []packslip.Option{
		packslip.WithLogger(log),
		packslip.WithLimit(cfg.Workers),
		packslip.WithPoolSize(cfg.PoolSize),
	}
	if flags.catalog != "" {
		data, err := os.ReadFile(flags.catalog) // #nosec G304 -- catalog path is user-provided
		if err != nil {
			return nil, fmt.Errorf("reading SKU catalog: %w", err)
		}
		ie := packslip.NewInquireEd()
		if err := ie.LoadCatalog(data); err != nil {
			return nil, err
		}
		opts = append(opts, packslip.WithStrategy(ie))
	}
	if d := cfg.Timeout(); d > 0 {
		opts = append(opts, packslip.WithRenderTimeout(d))
	}
	if strings.EqualFold(cfg.Output, config.OutputZIP) {
		opts = append(opts, packslip.WithMerger(packslip.NewZIPMerger()))
	}
	if cfg.Company != (config.CompanyConfig{}) {
		company := packslip.DefaultCompany
		if cfg.Company.Name != "" {
			company.Name = cfg.Company.Name
		}
		if cfg.Company.AddressLine != "" {
			company.AddressLine = cfg.Company.AddressLine
		}
		if cfg.Company.JobNumber != "" {
			company.JobReference = cfg.Company.JobNumber
		}
		opts = append(opts, packslip.WithCompany(company))
	}
	return packslip.NewService(opts...), nil
}

func listCustomers(svc *packslip.Service) error {
	for _, d := range svc.Descriptors() {
		fmt.Printf("%-18s %s (formats: %s)\n",
			d.CustomerCode, d.DisplayName, strings.Join(d.Instructions.AcceptedFormats, ", "))
	}
	return nil
}

func printValidation(result *packslip.ValidationResult) {
	fmt.Fprintf(os.Stderr, "Validation failed: %d/%d rows valid\n", result.ValidRows, result.TotalRows)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  error: %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
	}
}

func defaultOutputPath(inputPath, contentType string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	if contentType == "application/zip" {
		return base + "-slips-" + time.Now().Format("20060102") + ".zip"
	}
	return base + "-slips-" + time.Now().Format("20060102") + ".pdf"
}
