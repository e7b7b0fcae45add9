/*
DESCRIPTION
  meteorcore is the reference decoder executable: it streams a recorded
  hard-bit file (one bit per byte, as sliced after Viterbi and
  differential decoding) through the full CADU/VCDU/space-packet/MSU-MR
  pipeline and writes per-APID greyscale strips, PNG renders and the
  visible RGB composite to an output directory.

LICENSE
  Provided as-is for the meteorcore project.
*/

// Package main is the file-driven batch front end for the meteorcore
// decode pipeline.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/skywave-sdr/meteorcore/codec/msumr"
	"github.com/skywave-sdr/meteorcore/config"
	"github.com/skywave-sdr/meteorcore/imagesink"
	"github.com/skywave-sdr/meteorcore/pipeline"
)

// Current software version.
const version = "v1.0.2"

// Logging configuration.
const (
	logMaxSize   = 200 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logSuppress  = true
)

// Exit codes.
const (
	exitOK = iota
	exitBadInput
	exitDecodeFailure
)

// Composite channel assignment: red and green are the two visible
// channels, blue the near-infrared.
const (
	redAPID   = 65
	greenAPID = 66
	blueAPID  = 64
)

const readChunk = 1 << 16

func main() {
	os.Exit(run())
}

func run() int {
	var (
		showVersion = flag.Bool("version", false, "show version")
		inPath      = flag.String("in", "", "input file of hard bits, one bit per byte")
		outDir      = flag.String("out", "output", "output directory for strips and images")
		apidList    = flag.String("apids", config.DefaultTargetAPIDs, "comma-separated imagery APIDs to decode")
		rawDir      = flag.String("raw-dir", "", "if set, append every space packet payload to <raw-dir>/<apid>.bin")
		caduPath    = flag.String("cadu-file", "", "if set, record every locked CADU to this file")
		logPath     = flag.String("log", "", "log file path (default <out>/meteorcore.log)")
		verbosity   = flag.Int("verbosity", int(logging.Info), "log verbosity level")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		return exitOK
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create output directory: %v\n", err)
		return exitBadInput
	}

	if *logPath == "" {
		*logPath = filepath.Join(*outDir, "meteorcore.log")
	}
	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(*verbosity), io.MultiWriter(fileLog, os.Stderr), logSuppress)

	apids, err := parseAPIDs(*apidList)
	if err != nil {
		log.Error("bad -apids flag", "error", err.Error())
		return exitBadInput
	}

	if *inPath == "" {
		log.Error("no input file; -in is required")
		return exitBadInput
	}
	in, err := os.Open(*inPath)
	if err != nil {
		log.Error("cannot open input", "error", err.Error())
		return exitBadInput
	}
	defer in.Close()

	cfg := &config.Config{
		Logger:      log,
		LogLevel:    int8(*verbosity),
		TargetAPIDs: apids,
	}

	// Per-APID strip files receive rows as they complete, so row memory
	// stays bounded for arbitrarily long passes.
	sink := imagesink.New(log)
	stripPaths := make(map[int]string)
	for _, apid := range apids {
		path := filepath.Join(*outDir, fmt.Sprintf("apid%d.raw", apid))
		f, err := os.Create(path)
		if err != nil {
			log.Error("cannot create strip file", "path", path, "error", err.Error())
			return exitBadInput
		}
		defer f.Close()
		sink.Register(apid, f, cfg.RowPoolElements)
		stripPaths[apid] = path
	}

	var opts []pipeline.Option
	if *rawDir != "" {
		dump, err := newRawDumper(*rawDir, log)
		if err != nil {
			log.Error("cannot create raw dump directory", "error", err.Error())
			return exitBadInput
		}
		defer dump.close()
		opts = append(opts, pipeline.WithPacketTap(dump.write))
	}
	if *caduPath != "" {
		f, err := os.Create(*caduPath)
		if err != nil {
			log.Error("cannot create CADU record file", "error", err.Error())
			return exitBadInput
		}
		opts = append(opts, pipeline.WithCADUTee(f))
	}

	p, err := pipeline.New(cfg, sink, opts...)
	if err != nil {
		log.Error("cannot build pipeline", "error", err.Error())
		return exitBadInput
	}

	log.Info("decoding", "in", *inPath, "out", *outDir, "apids", apids, "version", version)

	buf := make([]byte, readChunk)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if _, werr := p.Write(buf[:n]); werr != nil {
				log.Error("input is not a hard-bit stream", "error", werr.Error())
				return exitBadInput
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Error("read failed", "error", err.Error())
			return exitBadInput
		}
	}

	if err := p.Close(); err != nil {
		log.Error("pipeline close failed", "error", err.Error())
		return exitDecodeFailure
	}
	if err := sink.Close(); err != nil {
		log.Error("row sink close failed", "error", err.Error())
		return exitDecodeFailure
	}

	s := p.Stats()
	log.Info("pass complete",
		"caduLocks", s.CADULocks,
		"framesCorrected", s.FramesCorrected,
		"framesDropped", s.FramesDropped,
		"segmentsDecoded", s.SegmentsDecoded,
		"segmentsDropped", s.SegmentsDropped,
		"routerDrops", s.RouterDrops,
	)
	if s.FramesCorrected == 0 {
		log.Error("no frame survived Reed-Solomon correction")
		return exitDecodeFailure
	}

	if err := renderImages(*outDir, stripPaths, log); err != nil {
		log.Error("image render failed", "error", err.Error())
		return exitDecodeFailure
	}
	return exitOK
}

func parseAPIDs(list string) ([]int, error) {
	var apids []int
	for _, f := range strings.Split(list, ",") {
		a, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("bad APID %q: %w", f, err)
		}
		apids = append(apids, a)
	}
	return apids, nil
}

// renderImages turns each accumulated strip file into a PNG, plus the
// RGB composite when all three of its channels decoded any rows.
func renderImages(outDir string, stripPaths map[int]string, log logging.Logger) error {
	grays := make(map[int]int) // APID to row count, for the log.
	for apid, path := range stripPaths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading strip %s: %w", path, err)
		}
		if len(raw) == 0 {
			log.Info("no rows decoded for APID", "apid", apid)
			continue
		}
		img, err := imagesink.Gray(raw, msumr.ImageWidth)
		if err != nil {
			return fmt.Errorf("strip for APID %d: %w", apid, err)
		}
		if err := writePNG(filepath.Join(outDir, fmt.Sprintf("pic%d.png", apid)), img); err != nil {
			return err
		}
		grays[apid] = img.Rect.Dy()
		log.Info("wrote channel image", "apid", apid, "rows", img.Rect.Dy())
	}

	if grays[redAPID] == 0 || grays[greenAPID] == 0 || grays[blueAPID] == 0 {
		return nil
	}
	load := func(apid int) (*image.Gray, error) {
		raw, err := os.ReadFile(stripPaths[apid])
		if err != nil {
			return nil, err
		}
		return imagesink.Gray(raw, msumr.ImageWidth)
	}
	r, err := load(redAPID)
	if err != nil {
		return err
	}
	g, err := load(greenAPID)
	if err != nil {
		return err
	}
	b, err := load(blueAPID)
	if err != nil {
		return err
	}
	rgb := imagesink.Composite(r, g, b)
	if err := writePNG(filepath.Join(outDir, "composite_rgb.png"), rgb); err != nil {
		return err
	}
	log.Info("wrote RGB composite", "rows", rgb.Rect.Dy())
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
