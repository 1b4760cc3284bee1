package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/ramkansal/tagscout/internal/discovery"
	"github.com/ramkansal/tagscout/internal/output"
	"github.com/ramkansal/tagscout/internal/server"
	"github.com/ramkansal/tagscout/pkg/plugin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

var version = "1.0.0"

// flags holds all parsed CLI options.
type flags struct {
	// Target
	url     string
	targets []string
	file    string

	// Request
	timeout          time.Duration
	fetcher          string
	userAgent        string
	headers          []string
	proxy            string
	maxResponseSize  int
	disableRedirects bool
	concurrency      int

	// Output
	output  string
	json    bool
	verbose bool
	noColor bool

	// Modes
	configFile  string
	serve       string
	listVendors bool
	showVersion bool

	set *pflag.FlagSet
}

func main() {
	enableANSI()

	f, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fatal("%v", err)
	}

	if f.showVersion {
		fmt.Printf("tagscout v%s\n", version)
		os.Exit(0)
	}
	if f.noColor {
		pterm.DisableColor()
	}

	cfg, err := buildConfig(f)
	if err != nil {
		fatal("%v", err)
	}

	logger := newLogger(cfg.LogLevel, f.verbose)
	engine := discovery.New(cfg, discovery.WithLogger(logger))
	defer engine.Close()

	if f.listVendors {
		listVendors(engine)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	registerSignals(sig)
	go func() {
		<-sig
		fmt.Fprintf(os.Stderr, "\n%s Interrupt received, stopping...\n", pterm.Yellow("!"))
		cancel()
	}()

	if f.serve != "" {
		serve(ctx, engine, f.serve, logger)
		return
	}

	if len(f.targets) == 0 && f.file == "" {
		printUsage(f.set)
		os.Exit(1)
	}

	if len(f.targets) > 1 && f.file == "" {
		runBatch(ctx, engine, f)
		return
	}
	run(ctx, engine, f)
}

// batchEntry is one element of the --json array printed for several targets.
type batchEntry struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
	*plugin.DiscoveryResult
}

func runBatch(ctx context.Context, engine *discovery.Engine, f *flags) {
	if f.output != "" {
		fatal("--output supports a single target")
	}
	if err := engine.Init(); err != nil {
		fatal("initialization failed: %v", err)
	}

	var spinner *pterm.SpinnerPrinter
	if !f.json {
		spinner, _ = pterm.DefaultSpinner.Start(fmt.Sprintf("Scanning %d targets (%s)", len(f.targets), engine.FetcherName()))
	}
	batch := engine.DiscoverAll(ctx, f.targets, f.concurrency)
	if spinner != nil {
		spinner.Success(fmt.Sprintf("Scanned %d targets", len(batch)))
	}

	if f.json {
		entries := make([]batchEntry, len(batch))
		for i, b := range batch {
			entries[i] = batchEntry{URL: b.URL, DiscoveryResult: b.Result}
			if b.Err != nil {
				entries[i].Error = b.Err.Error()
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(entries); err != nil {
			fatal("encode result: %v", err)
		}
		return
	}

	for _, b := range batch {
		render(b.Result, b.URL, f.verbose)
	}
}

func run(ctx context.Context, engine *discovery.Engine, f *flags) {
	var (
		result *plugin.DiscoveryResult
		target string
	)

	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			fatal("read %s: %v", f.file, err)
		}
		target = f.file
		result = engine.DiscoverHTML(string(data), f.url)
	} else {
		target = f.targets[0]
		if err := engine.Init(); err != nil {
			fatal("initialization failed: %v", err)
		}

		var spinner *pterm.SpinnerPrinter
		if !f.json {
			spinner, _ = pterm.DefaultSpinner.Start(fmt.Sprintf("Fetching %s (%s)", target, engine.FetcherName()))
		}

		var err error
		result, err = engine.Discover(ctx, target)
		if spinner != nil {
			switch {
			case err != nil:
				spinner.Fail(err.Error())
			case len(result.Scripts) == 0:
				spinner.Warning("Nothing detected")
			default:
				spinner.Success(fmt.Sprintf("Found %d vendor(s)", len(result.Scripts)))
			}
		}
		if errors.Is(err, discovery.ErrInvalidInput) {
			fatal("%v", err)
		}
	}

	if f.json {
		if err := output.EncodeJSON(os.Stdout, result); err != nil {
			fatal("encode result: %v", err)
		}
	} else {
		render(result, target, f.verbose)
	}

	if f.output != "" {
		w := output.ForPath(f.output, target)
		if err := w.Write(result); err != nil {
			fatal("failed to write output: %v", err)
		}
		if !f.json {
			pterm.Info.Printfln("Saved %s output to %s", w.Name(), f.output)
		}
	}
}

func serve(ctx context.Context, engine *discovery.Engine, addr string, logger zerolog.Logger) {
	if err := engine.Init(); err != nil {
		fatal("initialization failed: %v", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewHandler(engine, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Str("fetcher", engine.FetcherName()).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("server: %v", err)
	}
}

// ---------- Rendering ----------

func render(result *plugin.DiscoveryResult, target string, verbose bool) {
	printBanner()
	pterm.Printfln("  %s %s", pterm.Cyan("Target:"), target)
	pterm.Printfln("  %s %s\n", pterm.Gray("Fetched:"), result.FetchedAt.Format(time.RFC3339))

	if len(result.Scripts) > 0 {
		data := pterm.TableData{{"Vendor", "Category", "Body code", "ID"}}
		for _, s := range result.Scripts {
			body := "-"
			if s.BodyCode != "" {
				body = "yes"
			}
			data = append(data, []string{s.Name, categoryLabel(s.Category), body, s.ID})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
	}

	if verbose {
		for _, s := range result.Scripts {
			pterm.DefaultBox.WithTitle(s.Name).Println(s.ScriptCode)
			if s.BodyCode != "" {
				pterm.DefaultBox.WithTitle(s.Name + " (body)").Println(s.BodyCode)
			}
		}
	}

	for _, w := range result.Warnings {
		pterm.Warning.Println(w)
	}
}

func categoryLabel(c plugin.Category) string {
	switch c {
	case plugin.CategoryStrictlyNecessary:
		return pterm.Green(string(c))
	case plugin.CategoryFunctionality:
		return pterm.Cyan(string(c))
	case plugin.CategoryTrackingPerformance:
		return pterm.Yellow(string(c))
	case plugin.CategoryTargetingAdvertising:
		return pterm.Red(string(c))
	}
	return string(c)
}

func listVendors(engine *discovery.Engine) {
	data := pterm.TableData{{"Vendor", "Category"}}
	for _, p := range engine.Registry().Patterns() {
		data = append(data, []string{p.Name, categoryLabel(p.Category)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// ---------- Flag parsing ----------

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := pflag.NewFlagSet("tagscout", pflag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }
	f.set = fs

	fs.StringVarP(&f.url, "url", "u", "", "target URL to scan")
	fs.StringVar(&f.file, "file", "", "scan a local HTML file instead of fetching (--url sets its base URL)")

	fs.DurationVarP(&f.timeout, "timeout", "t", 15*time.Second, "hard upper bound on the page fetch")
	fs.StringVarP(&f.fetcher, "fetcher", "f", "http", "fetcher mode: http, browser")
	fs.StringVar(&f.userAgent, "user-agent", "", "custom user-agent string")
	fs.StringArrayVarP(&f.headers, "header", "H", nil, `custom header in "Key: Value" format (repeatable)`)
	fs.StringVar(&f.proxy, "proxy", "", "http/socks5 proxy to use")
	fs.IntVar(&f.maxResponseSize, "max-response-size", 5<<20, "maximum response size to read in bytes")
	fs.BoolVar(&f.disableRedirects, "disable-redirects", false, "disable following redirects")
	fs.IntVar(&f.concurrency, "concurrency", discovery.DefaultConcurrency, "parallel fetches when several targets are given")

	fs.StringVarP(&f.output, "output", "o", "", "save the result to a file (.json for JSON, otherwise text)")
	fs.BoolVar(&f.json, "json", false, "print the result as JSON on stdout")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "print snippets and debug logs")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")

	fs.StringVarP(&f.configFile, "config", "c", "", "path to a YAML configuration file")
	fs.StringVar(&f.serve, "serve", "", "serve the discovery API on this address (e.g. :8080)")
	fs.BoolVar(&f.listVendors, "list-vendors", false, "list the vendors tagscout can detect")
	fs.BoolVarP(&f.showVersion, "version", "V", false, "show version")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Bare args are additional targets.
	targets := append([]string{f.url}, fs.Args()...)
	f.targets = lo.Uniq(lo.Compact(lo.Map(targets, func(t string, _ int) string {
		return strings.TrimSpace(t)
	})))
	if f.url == "" && len(f.targets) > 0 {
		f.url = f.targets[0]
	}
	return f, nil
}

// buildConfig layers flags over the config file over defaults. Only flags
// the user actually set override file values.
func buildConfig(f *flags) (*discovery.Config, error) {
	cfg := discovery.DefaultConfig()
	if f.configFile != "" {
		loaded, err := discovery.LoadConfig(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := f.set.Changed
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("fetcher") {
		cfg.FetcherMode = discovery.FetcherMode(strings.ToLower(f.fetcher))
	}
	if changed("user-agent") {
		cfg.UserAgent = f.userAgent
	}
	if changed("header") {
		cfg.CustomHeaders = append(cfg.CustomHeaders, f.headers...)
	}
	if changed("proxy") {
		cfg.Proxy = f.proxy
	}
	if changed("max-response-size") {
		cfg.MaxResponseSize = f.maxResponseSize
	}
	if changed("disable-redirects") {
		cfg.DisableRedirects = f.disableRedirects
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string, verbose bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().Timestamp().Logger()
}

// ---------- Help / banner ----------

func printUsage(fs *pflag.FlagSet) {
	printBanner()
	fmt.Print(`
USAGE:
  tagscout [flags] <url> [url...]
  tagscout -u example.com --json
  tagscout --file page.html -u https://example.com
  tagscout --serve :8080

FLAGS:
`)
	fmt.Println(fs.FlagUsages())
}

func printBanner() {
	pterm.DefaultHeader.WithFullWidth(false).Println("tagscout v" + version)
	pterm.Println(pterm.Gray("  Third-party script discovery for consent banners"))
}

func fatal(format string, args ...interface{}) {
	pterm.Error.Println(fmt.Sprintf(format, args...))
	os.Exit(1)
}
