package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vscodl/pkg/config"
	vscoerrors "vscodl/pkg/errors"
	"vscodl/pkg/logger"
	"vscodl/pkg/scraper"
	"vscodl/pkg/ui"
	"vscodl/pkg/vsco"
)

var (
	// Fetch command flags
	outputDir    string
	host         string
	concurrency  int
	saveMetadata bool
	listOnly     bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <username>",
	Short: "Download the images of a VSCO profile",
	Long: `Download every image of a VSCO profile.

Images are saved as <id>.jpg in a folder named after the user inside the
output directory. Images already present there are skipped, so running the
command again only fetches what is new.`,
	Example: `  # Download with default settings
  vscodl fetch someone

  # Same thing, fetch is the default command
  vscodl someone

  # Eight workers, metadata sidecars, custom directory
  vscodl fetch someone --concurrency 8 --metadata --output ./photos

  # Print the profile's images as YAML without downloading
  vscodl fetch someone --list`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addFetchFlags(fetchCmd)

	// The root command accepts the same flags so "vscodl <username>" works
	addFetchFlags(rootCmd)
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !isKnownCommand(args[0]) {
			return runFetch(cmd, args[:1])
		}
		return cmd.Help()
	}
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default ./downloads)")
	cmd.Flags().StringVar(&host, "host", "", "content host (default https://vsco.co)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "concurrent downloads, 0 downloads one at a time")
	cmd.Flags().BoolVarP(&saveMetadata, "metadata", "m", false, "save a JSON metadata file next to each image")
	cmd.Flags().BoolVarP(&listOnly, "list", "l", false, "print the image listing as YAML instead of downloading")
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}

// commandFlags collects the flags the user actually set
func commandFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed
	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("host") {
		flags["host"] = host
	}
	if changed("concurrency") {
		flags["concurrency"] = concurrency
	}
	if changed("metadata") {
		flags["metadata"] = saveMetadata
	}
	if changed("log-level") {
		flags["log-level"] = logLevel
	}
	return flags
}

func runFetch(cmd *cobra.Command, args []string) error {
	username := vsco.SanitizeUsername(args[0])
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}

	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("vscodl starting")

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := scraper.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %w", err)
	}

	if listOnly {
		images, err := s.List(ctx, username)
		if err != nil {
			return describe(username, err)
		}
		return writeListing(cmd.OutOrStdout(), username, images)
	}

	ui.PrintInfo("Target Profile", "@"+username)
	ui.PrintInfo("Output", s.OutputDir(username))

	progress := ui.NewProgressDisplay(username, cfg.Logging.Level == "debug")
	s.SetReporter(progress)

	result, err := s.Download(ctx, username)
	if result == nil {
		return describe(username, err)
	}
	if err != nil {
		logger.WithError(err).WithField("username", username).Warn("some images failed")
		return fmt.Errorf("%d of %d images could not be saved", result.Failed, result.Total-result.Skipped)
	}

	logger.WithFields(map[string]interface{}{
		"username": username,
		"saved":    result.Saved,
	}).Info("download completed")
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// describe turns loader errors into messages a user can act on
func describe(username string, err error) error {
	switch {
	case vscoerrors.IsInvalidProfile(err):
		return fmt.Errorf("profile @%s does not exist", username)
	case vscoerrors.IsMalformedPage(err):
		return fmt.Errorf("could not read the gallery page of @%s, the site layout may have changed: %w", username, err)
	default:
		return err
	}
}

// listing is the YAML document printed by --list
type listing struct {
	Profile string        `yaml:"profile"`
	Count   int           `yaml:"count"`
	Images  []listedImage `yaml:"images"`
}

type listedImage struct {
	ID          string `yaml:"id"`
	URL         string `yaml:"url"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	CapturedAt  string `yaml:"captured_at,omitempty"`
	Description string `yaml:"description,omitempty"`
	Permalink   string `yaml:"permalink,omitempty"`
	Source      string `yaml:"source"`
	Video       bool   `yaml:"video,omitempty"`
}

func writeListing(w io.Writer, username string, images vsco.Images) error {
	doc := listing{
		Profile: username,
		Count:   len(images),
		Images:  make([]listedImage, 0, len(images)),
	}
	for _, img := range images {
		entry := listedImage{
			ID:          img.ID,
			URL:         img.URL(),
			Width:       img.Width,
			Height:      img.Height,
			Description: img.Description,
			Permalink:   img.Permalink,
			Source:      string(img.Source),
			Video:       img.IsVideo,
		}
		if img.CaptureDateMs > 0 {
			entry.CapturedAt = time.UnixMilli(img.CaptureDateMs).UTC().Format(time.RFC3339)
		}
		doc.Images = append(doc.Images, entry)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}
	return enc.Close()
}
