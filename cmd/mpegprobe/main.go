package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sunfish-shogi/bufseekio"

	"github.com/dgorgone/nlayer"
	"github.com/dgorgone/nlayer/internal/config"
	"github.com/dgorgone/nlayer/internal/logger"
	"github.com/dgorgone/nlayer/pkg/version"
)

func main() {
	var (
		configPath  string
		input       string
		forwardOnly bool
		dumpFrames  int
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "configs/default.yaml", "Path to configuration file")
	flag.StringVar(&input, "input", "", "Stream to probe (overrides config; - for stdin)")
	flag.BoolVar(&forwardOnly, "forward", false, "Treat the input as forward-only")
	flag.IntVar(&dumpFrames, "dump", -1, "Print the first N frames (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if input != "" {
		cfg.Probe.Input = input
	}
	if forwardOnly {
		cfg.Probe.ForwardOnly = true
	}
	if dumpFrames >= 0 {
		cfg.Probe.DumpFrames = dumpFrames
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.WithError(err).Error("metrics listener failed")
			}
		}()
	}

	src, closer, err := openInput(&cfg.Probe)
	if err != nil {
		log.WithError(err).Error("failed to open input")
		os.Exit(1)
	}
	defer closer()

	reader, err := nlayer.New(src, nlayer.WithLogger(log))
	if err != nil {
		log.WithError(err).Error("failed to open mpeg stream")
		os.Exit(1)
	}

	printSummary(reader)

	if n := cfg.Probe.DumpFrames; n > 0 {
		if err := dump(reader, n); err != nil {
			log.WithError(err).Error("frame dump failed")
			os.Exit(1)
		}
	}

	if err := reader.ReadToEnd(); err != nil {
		log.WithError(err).Error("scan failed")
		os.Exit(1)
	}

	if total := reader.SampleCount(); total >= 0 {
		fmt.Printf("total samples: %d\n", total)
		fmt.Printf("duration:      %v\n", reader.Duration())
	}
	fmt.Printf("tag bytes:     %d\n", reader.TagBytes())
}

// openInput opens the configured stream, wrapping file inputs in a buffered
// ReadSeeker. Stdin is always forward-only.
func openInput(cfg *config.ProbeConfig) (io.Reader, func(), error) {
	if cfg.Input == "-" {
		return nlayer.ForwardOnly(os.Stdin), func() {}, nil
	}
	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, nil, err
	}
	var src io.Reader = bufseekio.NewReadSeeker(f, cfg.BufferSize, 4)
	if cfg.ForwardOnly {
		src = nlayer.ForwardOnly(src)
	}
	return src, func() { f.Close() }, nil
}

func printSummary(r *nlayer.Reader) {
	fmt.Printf("sample rate:   %d Hz\n", r.SampleRate())
	fmt.Printf("channels:      %d\n", r.Channels())
	fmt.Printf("seekable:      %v\n", r.CanSeek())
	if info := r.VBRInfo(); info != nil {
		kind := "Info"
		if info.VBR {
			kind = "VBR"
		}
		fmt.Printf("side info:     %s, %d frames, %d bytes", kind, info.FrameCount, info.ByteCount)
		if info.Encoder != "" {
			fmt.Printf(", encoder %s", info.Encoder)
		}
		fmt.Println()
	}
}

func dump(r *nlayer.Reader, n int) error {
	for i := 0; i < n; i++ {
		f, err := r.NextFrame()
		if err != nil {
			return err
		}
		if f == nil {
			break
		}
		fmt.Printf("frame %5d  offset=%-10d len=%-5d samples=%-5d offsetSamples=%-10d %s %s %d Hz %d kbps\n",
			f.Number, f.Offset, f.Length, f.SampleCount(), f.SampleOffset,
			f.Version, f.Layer, f.SampleRate, f.BitRate/1000)
	}
	return nil
}
