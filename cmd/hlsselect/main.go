// The hlsselect command filters the variant streams of an HLS master playlist
// against player constraints and prints or serves the matches.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/agleyzer/hlsselect/internal/attribute"
	"github.com/agleyzer/hlsselect/internal/config"
	"github.com/agleyzer/hlsselect/internal/parser"
	"github.com/agleyzer/hlsselect/internal/render"
	"github.com/agleyzer/hlsselect/internal/selector"
	"github.com/agleyzer/hlsselect/internal/server"
	"github.com/agleyzer/hlsselect/internal/source"
	"github.com/agleyzer/hlsselect/internal/variant"
)

const (
	version = "1.0.0"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errEmptyPlaylist = errors.New("empty playlist")

type cli struct {
	Verbose bool `short:"v" help:"Enable verbose logging."`
	Version bool `help:"Show version and exit."`

	Select selectCmd `cmd:"" default:"withargs" help:"Print the variants that satisfy the constraints (default)."`
	Serve  serveCmd  `cmd:"" help:"Serve filtered selections of the manifest over HTTP."`
}

// selection holds the flags shared by every command.
type selection struct {
	Manifest string `arg:"" optional:"" help:"URL or path of the master playlist."`
	URI      string `name:"uri" help:"URL or path of the master playlist (alternative to the argument)."`

	AudioGroup      *string `name:"audio-group" help:"Keep variants whose AUDIO group equals this id." placeholder:"ID"`
	AudioChannels   *uint32 `name:"audio-channels" help:"Keep variants whose audio group has a rendition with this many channels." placeholder:"N"`
	MaxBandwidth    *uint64 `name:"max-bandwidth" help:"Keep variants with BANDWIDTH at most this value." placeholder:"BPS"`
	Resolution      string  `name:"resolution" help:"Keep variants with exactly this resolution." placeholder:"WxH"`
	SortByBandwidth bool    `name:"sort-by-bandwidth" help:"Order the result by descending bandwidth."`
	ExcludeIFrames  bool    `name:"exclude-iframes" help:"Drop I-frame only variants."`
	AbsoluteURIs    bool    `name:"absolute-uris" help:"Resolve variant and rendition URIs against the manifest location."`

	Config  string        `name:"config" type:"path" help:"YAML file with named selection profiles." placeholder:"FILE"`
	Profile string        `name:"profile" help:"Profile from --config to start from. Explicit flags override it." placeholder:"NAME"`
	Timeout time.Duration `name:"timeout" default:"30s" help:"Timeout for fetching a remote manifest."`
}

type selectCmd struct {
	Selection selection `embed:""`

	Best   bool   `name:"best" help:"Print only the highest-bandwidth match."`
	Format string `name:"format" short:"f" default:"text" enum:"text,json,m3u8" help:"Output format (${enum})."`
}

type serveCmd struct {
	Selection selection `embed:""`

	Port int `name:"port" short:"p" default:"8080" help:"HTTP server port."`
}

// app carries what every command needs at run time.
type app struct {
	ctx      context.Context
	logger   *slog.Logger
	stdout   io.Writer
	useColor bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var c cli
	k, err := kong.New(&c,
		kong.Name("hlsselect"),
		kong.Description("HLS variant selector v"+version),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		panic(err)
	}

	kctx, err := k.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if c.Version {
		fmt.Fprintf(stdout, "hlsselect v%s\n", version)
		return exitOK
	}

	// Setup logger
	logLevel := slog.LevelInfo
	if c.Verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	a := &app{
		ctx:      ctx,
		logger:   logger,
		stdout:   stdout,
		useColor: isTerminal(stdout),
	}

	if err := kctx.Run(a); err != nil {
		logger.Error("application error", "error", err)

		var perr *parser.Error
		if errors.As(err, &perr) {
			return exitUsage
		}
		return exitError
	}

	return exitOK
}

func (c *selectCmd) Run(a *app) error {
	pl, opts, err := c.Selection.load(a)
	if err != nil {
		return err
	}

	selected := selectVariants(pl, opts, c.Best)

	a.logger.Debug("selected variants", "matched", len(selected), "total", len(pl.Variants))

	format, err := render.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	return render.Write(a.stdout, format, pl, selected, a.useColor)
}

func (c *serveCmd) Run(a *app) error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}

	pl, opts, err := c.Selection.load(a)
	if err != nil {
		return err
	}

	srv := server.New(pl, opts, c.Port, a.logger)

	a.logger.Info("selection endpoints ready",
		"playlist", fmt.Sprintf("http://localhost:%d/playlist.m3u8", c.Port),
		"variants", fmt.Sprintf("http://localhost:%d/variants", c.Port),
		"health", fmt.Sprintf("http://localhost:%d/health", c.Port),
	)

	// Start server (blocks until shutdown)
	return srv.Start(a.ctx)
}

// selectVariants applies opts to pl. With best set only the top match, if
// any, is kept.
func selectVariants(pl *variant.Playlist, opts selector.Options, best bool) []*variant.Variant {
	if !best {
		return selector.Select(pl, opts)
	}
	if v, ok := selector.Best(pl, opts); ok {
		return []*variant.Variant{v}
	}
	return nil
}

// load fetches and parses the manifest and assembles the selection options.
func (s *selection) load(a *app) (*variant.Playlist, selector.Options, error) {
	uri, err := s.manifestURI()
	if err != nil {
		return nil, selector.Options{}, err
	}

	opts, err := s.options()
	if err != nil {
		return nil, selector.Options{}, err
	}

	a.logger.Debug("fetching manifest", "uri", uri)
	text, err := source.NewLoader(s.Timeout).Load(a.ctx, uri)
	if err != nil {
		return nil, selector.Options{}, err
	}

	pl, err := parser.Parse(text)
	if err != nil {
		return nil, selector.Options{}, fmt.Errorf("parse %s: %w", uri, err)
	}
	if pl.Empty() {
		return nil, selector.Options{}, fmt.Errorf("%s: %w", uri, errEmptyPlaylist)
	}

	a.logger.Debug("parsed manifest",
		"variants", len(pl.Variants),
		"groups", len(pl.Renditions),
		"version", pl.Version,
	)

	if s.AbsoluteURIs {
		pl, err = absolutize(pl, uri)
		if err != nil {
			return nil, selector.Options{}, err
		}
	}

	return pl, opts, nil
}

func (s *selection) manifestURI() (string, error) {
	switch {
	case s.Manifest != "" && s.URI != "" && s.Manifest != s.URI:
		return "", fmt.Errorf("manifest given both as argument and --uri")
	case s.Manifest != "":
		return s.Manifest, nil
	case s.URI != "":
		return s.URI, nil
	default:
		return "", fmt.Errorf("manifest URL or path is required")
	}
}

// options starts from the selected profile, if any, and applies the flags
// that were given explicitly.
func (s *selection) options() (selector.Options, error) {
	var opts selector.Options

	if s.Profile != "" {
		if s.Config == "" {
			return opts, fmt.Errorf("--profile requires --config")
		}
		cfg, err := config.Load(s.Config)
		if err != nil {
			return opts, err
		}
		p, err := cfg.Profile(s.Profile)
		if err != nil {
			return opts, err
		}
		if opts, err = p.Options(); err != nil {
			return opts, err
		}
	} else if s.Config != "" {
		// still validate the file so mistakes surface early
		if _, err := config.Load(s.Config); err != nil {
			return opts, err
		}
	}

	if s.AudioGroup != nil {
		opts.AudioGroup = s.AudioGroup
	}
	if s.AudioChannels != nil {
		opts.AudioChannels = s.AudioChannels
	}
	if s.MaxBandwidth != nil {
		opts.MaxBandwidth = s.MaxBandwidth
	}
	if s.Resolution != "" {
		r, err := attribute.ParseResolution(s.Resolution)
		if err != nil {
			return opts, err
		}
		opts.Resolution = &r
	}
	if s.SortByBandwidth {
		opts.SortByBandwidth = true
	}
	if s.ExcludeIFrames {
		opts.ExcludeIFrames = true
	}

	return opts, nil
}

// absolutize returns a copy of pl with every variant and rendition URI
// resolved against base.
func absolutize(pl *variant.Playlist, base string) (*variant.Playlist, error) {
	out := variant.New()
	out.Version = pl.Version
	out.IndependentSegments = pl.IndependentSegments

	for _, v := range pl.Variants {
		cp := *v
		uri, err := source.ResolveURL(base, v.URI)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", v.Line, err)
		}
		cp.URI = uri
		out.Variants = append(out.Variants, &cp)
	}

	for id, group := range pl.Renditions {
		for _, r := range group {
			cp := *r
			if r.URI != "" {
				uri, err := source.ResolveURL(base, r.URI)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", r.Line, err)
				}
				cp.URI = uri
			}
			out.Renditions[id] = append(out.Renditions[id], &cp)
		}
	}

	return out, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
