package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/parkspot-mcp/internal/config"
	"github.com/ironsheep/parkspot-mcp/internal/imaging"
	"github.com/ironsheep/parkspot-mcp/internal/occupancy"
	"github.com/ironsheep/parkspot-mcp/internal/server"
	"github.com/ironsheep/parkspot-mcp/internal/slots"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var cmd string
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "--version", "-v", "version":
		fmt.Printf("parkspot-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		printHelp()
		return
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Debug() {
		log.Printf("Parkspot MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}

	switch cmd {
	case "check":
		err = a.check(os.Args[2:])
	case "watch":
		err = a.watch(os.Args[2:])
	case "", "serve":
		srv := server.New(server.Options{
			Store:     a.store,
			ImagePath: cfg.ImagePath,
			Detector:  a.detector,
			Style:     &a.style,
			Cache:     a.cache,
			Version:   Version,
			Debug:     cfg.Debug(),
		})
		err = srv.Run()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printHelp()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printHelp() {
	fmt.Println("parkspot-mcp - parking space occupancy from a lot image")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  parkspot-mcp [serve]                 Run the MCP server on stdin/stdout")
	fmt.Println("  parkspot-mcp check [-out f.png] [image]  Classify slots once and exit")
	fmt.Println("  parkspot-mcp watch [image]           Reclassify until interrupted")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  PARKSPOT_IMAGE=carParkImg.png         Lot image")
	fmt.Println("  PARKSPOT_SLOTS_FILE=CarParkPos.json   Slot layout file")
	fmt.Println("  PARKSPOT_SLOT_WIDTH=107               Slot box width")
	fmt.Println("  PARKSPOT_SLOT_HEIGHT=48               Slot box height")
	fmt.Println("  PARKSPOT_THRESHOLD=900                Pixels at which a slot is occupied")
	fmt.Println("  PARKSPOT_WATCH_INTERVAL=1s            Watch polling interval")
	fmt.Println("  PARKSPOT_MAX_HASH_DISTANCE=-1         Skip near-identical frames when >= 0")
	fmt.Println("  PARKSPOT_FREE_COLOR=#00FF00           Outline colour of free slots")
	fmt.Println("  PARKSPOT_OCCUPIED_COLOR=#FF0000       Outline colour of occupied slots")
	fmt.Println("  PARKSPOT_LOG_LEVEL=debug              Enable debug logging")
	fmt.Println()
	fmt.Println("In serve mode the server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

// app bundles the components shared by every command.
type app struct {
	cfg      *config.Config
	cache    *imaging.ImageCache
	store    *slots.Store
	detector *occupancy.Detector
	style    occupancy.Style
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := slots.Open(cfg.SlotsFile, slots.Size{Width: cfg.SlotWidth, Height: cfg.SlotHeight})
	if err != nil {
		return nil, err
	}
	style, err := occupancy.ParseStyle(cfg.FreeColor, cfg.OccupiedColor)
	if err != nil {
		return nil, err
	}
	detector := occupancy.NewDetector()
	detector.Threshold = cfg.Threshold

	return &app{
		cfg:      cfg,
		cache:    imaging.NewImageCache(),
		store:    store,
		detector: detector,
		style:    style,
	}, nil
}

// imageArg returns the image named on the command line, or the configured one.
func (a *app) imageArg(fs *flag.FlagSet) string {
	if fs.NArg() > 0 {
		return fs.Arg(0)
	}
	return a.cfg.ImagePath
}

func (a *app) check(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	out := fs.String("out", "", "Write the annotated frame to this PNG file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := a.imageArg(fs)

	img, err := a.cache.Load(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	report, _, err := a.detector.Check(img, a.store.Layout())
	if err != nil {
		return err
	}

	if *out != "" {
		if err := writePNG(*out, occupancy.Annotate(img, report, a.style)); err != nil {
			return err
		}
	}

	fmt.Println(report.Summary())
	fmt.Printf("Empty spots: %d\n", report.Free)
	fmt.Printf("Occupied spots: %d\n", report.Occupied)
	return nil
}

func (a *app) watch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := occupancy.NewMonitor(a.cache, a.store, a.detector, a.imageArg(fs), a.cfg.WatchInterval)
	m.MaxHashDistance = a.cfg.MaxHashDistance
	m.Debug = a.cfg.Debug()

	report, err := m.Run(ctx)
	if err != nil {
		return err
	}
	if report == nil {
		return errors.New("no frame was processed")
	}

	fmt.Println("Program finished")
	fmt.Printf("Empty spots: %d\n", report.Free)
	fmt.Printf("Occupied spots: %d\n", report.Occupied)
	return nil
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
