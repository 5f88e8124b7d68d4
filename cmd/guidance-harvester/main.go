package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gxpseeker/guidance-harvester/pkg/batch"
	"github.com/gxpseeker/guidance-harvester/pkg/catalog"
	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/extract"
	"github.com/gxpseeker/guidance-harvester/pkg/fetch"
	"github.com/gxpseeker/guidance-harvester/pkg/importer"
	applog "github.com/gxpseeker/guidance-harvester/pkg/log"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/pipeline"
	"github.com/gxpseeker/guidance-harvester/pkg/translate"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

var version = "dev"

const usageText = `Usage: guidance-harvester <command> [flags]

Commands:
  crawl          Run one source's crawl and write its CSV batch
  import         Import a CSV batch into the catalog
  list-sources   List configured and supported sources
  validate       Validate the configuration file
  version        Print the version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "crawl":
		runCrawl(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "list-sources":
		runListSources(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", os.Args[1], usageText)
		os.Exit(2)
	}
}

// loadConfig reads and validates the YAML configuration, logging warnings.
func loadConfig(path string, log *logrus.Logger) *config.AppConfig {
	log.Infof("Loading configuration from %s", path)
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Read config file '%s' error: %v", path, err)
	}
	var appCfg config.AppConfig
	if err := yaml.Unmarshal(yamlFile, &appCfg); err != nil {
		log.Fatalf("Parse config file '%s' error: %v", path, err)
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	return &appCfg
}

// signalContext returns a context canceled on SIGINT/SIGTERM. A second signal
// forces exit.
func signalContext(log *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancel()
		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()
	return ctx, cancel
}

func runCrawl(args []string) {
	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	configFlag := fs.String("config", "config.yaml", "Path to YAML config file")
	sourceFlag := fs.String("source", "", "Source id to crawl (required)")
	logLevelFlag := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	outputFlag := fs.String("output", "", "Output directory override for the CSV batch")
	noTranslateFlag := fs.Bool("no-translate", false, "Skip translation (Chinese fields stay empty)")
	fs.Parse(args)

	log := applog.New(*logLevelFlag)
	appCfg := loadConfig(*configFlag, log)

	if *sourceFlag == "" {
		log.Fatal("Error: -source flag is required.")
	}
	srcCfg, ok := appCfg.Sources[*sourceFlag]
	if !ok {
		log.Fatalf("Error: source %q not found in config file '%s'", *sourceFlag, *configFlag)
	}
	srcWarnings, err := srcCfg.Validate()
	if err != nil {
		log.Fatalf("Source '%s' configuration error: %v", *sourceFlag, err)
	}
	for _, w := range srcWarnings {
		log.Warnf("[%s] %s", *sourceFlag, w)
	}
	appCfg.Sources[*sourceFlag] = srcCfg

	ctx, cancel := signalContext(log)
	defer cancel()

	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(httpClient, log)
	robots := fetch.NewRobotsGate(fetcher, srcCfg.EffectiveUserAgent(*appCfg), appCfg.RespectRobots, log)
	limiter := fetch.NewRateLimiter(srcCfg.DelayPerItem, log)

	var translator translate.Translator
	if *noTranslateFlag {
		log.Info("Translation disabled by flag.")
	} else {
		apiKey := os.Getenv(appCfg.Translator.APIKeyEnv)
		if apiKey == "" {
			log.Fatalf("Translation requires the %s environment variable (or pass -no-translate)", appCfg.Translator.APIKeyEnv)
		}
		translator = translate.NewQwenClient(appCfg.Translator, apiKey, nil)
	}

	progress := func(done, total int, title string) {
		log.Infof("[%d/%d] %s", done, total, title)
	}
	runner := pipeline.NewRunner(appCfg, fetcher, robots, limiter, translator, progress, log)

	b, summary, err := runner.Run(ctx, *sourceFlag)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Crawl cancelled gracefully.")
			os.Exit(0)
		}
		log.WithField("error_category", utils.CategorizeError(err)).Fatalf("Crawl failed: %v", err)
	}

	outputDir := appCfg.OutputDir
	if *outputFlag != "" {
		outputDir = *outputFlag
	}
	path, err := batch.WriteFile(outputDir, b)
	if err != nil {
		log.Fatalf("Writing batch CSV failed: %v", err)
	}

	log.Infof("Wrote %d records to %s (translated ok: %d, failed: %d, skipped: %d)",
		summary.Processed, path, summary.TranslatedOK, summary.TranslationFailed, summary.Skipped)
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configFlag := fs.String("config", "config.yaml", "Path to YAML config file")
	sourceFlag := fs.String("source", "", "Source id the CSV was produced for (required)")
	csvFlag := fs.String("csv", "", "CSV batch path (default: conventional path under output_dir)")
	orgFlag := fs.String("org", "", "Organization name override (default: source's org_name)")
	logLevelFlag := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	fs.Parse(args)

	log := applog.New(*logLevelFlag)
	appCfg := loadConfig(*configFlag, log)

	if *sourceFlag == "" {
		log.Fatal("Error: -source flag is required.")
	}
	srcCfg, ok := appCfg.Sources[*sourceFlag]
	if !ok {
		log.Fatalf("Error: source %q not found in config file '%s'", *sourceFlag, *configFlag)
	}

	orgName := srcCfg.OrgName
	if *orgFlag != "" {
		orgName = *orgFlag
	}
	if orgName == "" {
		log.Fatalf("Error: no organization name; set sources.%s.org_name or pass -org", *sourceFlag)
	}

	csvPath := *csvFlag
	if csvPath == "" {
		csvPath = batch.OutputPath(appCfg.OutputDir, *sourceFlag)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("Open batch CSV '%s' error: %v", csvPath, err)
	}
	records, err := batch.Read(f, *sourceFlag)
	f.Close()
	if err != nil {
		log.Fatalf("Read batch CSV '%s' error: %v", csvPath, err)
	}
	log.Infof("Loaded %d records from %s", len(records), csvPath)

	store, err := catalog.NewBadgerStore(appCfg.StateDir, logrus.NewEntry(log))
	if err != nil {
		log.Fatalf("Failed to initialize catalog DB: %v", err)
	}
	defer store.Close()

	im, err := importer.New(store, appCfg.Import, log)
	if err != nil {
		log.Fatalf("Failed to initialize importer: %v", err)
	}

	res, err := im.ImportBatch(&models.Batch{SourceID: *sourceFlag, Records: records}, orgName)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Infof("Import into %q complete: created %d, updated %d, skipped %d",
		res.OrgName, res.Created, res.Updated, res.Skipped)
}

func runListSources(args []string) {
	fs := flag.NewFlagSet("list-sources", flag.ExitOnError)
	configFlag := fs.String("config", "config.yaml", "Path to YAML config file")
	fs.Parse(args)

	log := applog.New("error")
	appCfg := loadConfig(*configFlag, log)

	configured := make([]string, 0, len(appCfg.Sources))
	for id := range appCfg.Sources {
		configured = append(configured, id)
	}
	sort.Strings(configured)

	fmt.Println("Configured sources:")
	for _, id := range configured {
		fmt.Printf("  %-8s org: %s\n", id, appCfg.Sources[id].OrgName)
	}
	fmt.Printf("Supported source ids: %v\n", extract.KnownSources())
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFlag := fs.String("config", "config.yaml", "Path to YAML config file")
	fs.Parse(args)

	log := applog.New("info")
	appCfg := loadConfig(*configFlag, log)

	for id, srcCfg := range appCfg.Sources {
		warnings, err := srcCfg.Validate()
		if err != nil {
			log.Fatalf("Source '%s' configuration error: %v", id, err)
		}
		for _, w := range warnings {
			log.Warnf("[%s] %s", id, w)
		}
	}
	log.Infof("Configuration OK: %d sources", len(appCfg.Sources))
}
