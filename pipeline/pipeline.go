/*
NAME
  pipeline.go

DESCRIPTION
  pipeline.go wires the full decode chain: hard bits through CADU
  framing, derandomization and Reed-Solomon correction, VCDU parsing,
  space-packet reassembly, APID routing and MSU-MR scan-line decoding,
  with an optional BER estimator tap at the Viterbi boundary.

LICENSE
  Provided as-is for the meteorcore project.
*/

// Package pipeline assembles the meteorcore decode stages into one
// push-driven chain fed with hard bits and emitting image rows.
package pipeline

import (
	"io"

	"github.com/ausocean/utils/ioext"
	"github.com/pkg/errors"

	"github.com/skywave-sdr/meteorcore/ber"
	"github.com/skywave-sdr/meteorcore/bitstream"
	"github.com/skywave-sdr/meteorcore/ccsds"
	"github.com/skywave-sdr/meteorcore/codec/msumr"
	"github.com/skywave-sdr/meteorcore/config"
)

// TelemetryAPID carries MSU-MR housekeeping rather than imagery; its
// packets are logged, never decoded as segments.
const TelemetryAPID = 70

// Stats is a snapshot of the pipeline's observability counters.
type Stats struct {
	CADULocks       uint64
	FramesCorrected uint64
	FramesDropped   uint64
	RouterDrops     uint64
	SegmentsDecoded uint64
	SegmentsDropped uint64
}

// Pipeline is one decode chain instance. Feed it hard bits via Write;
// rows arrive at the msumr.RowSink given to New. A Pipeline is not safe
// for concurrent use.
type Pipeline struct {
	cfg config.Config

	bits     *bitstream.Writer
	framer   *ccsds.Framer
	frameDec *ccsds.FrameDecoder
	asm      *ccsds.Assembler
	router   *ccsds.Router
	decoders []*msumr.Decoder
	est      *ber.Estimator

	caduTee io.WriteCloser
	tap     func(ccsds.Packet)
}

// Option adjusts optional pipeline wiring.
type Option func(*Pipeline)

// WithCADUTee copies every locked CADU to w alongside normal decoding,
// so a pass can be re-run from the recorded frames later. w is closed by
// Pipeline.Close.
func WithCADUTee(w io.WriteCloser) Option {
	return func(p *Pipeline) { p.caduTee = w }
}

// WithPacketTap invokes tap for every reassembled space packet of any
// APID before routing. Used for raw per-APID packet dumps.
func WithPacketTap(tap func(ccsds.Packet)) Option {
	return func(p *Pipeline) { p.tap = tap }
}

// New builds a Pipeline per cfg, delivering image rows to rows. cfg is
// validated and defaulted in place.
func New(cfg *config.Config, rows msumr.RowSink, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "pipeline: invalid config")
	}
	log := cfg.Logger
	log.SetLevel(cfg.LogLevel)

	p := &Pipeline{cfg: *cfg}

	p.router = ccsds.NewRouter(log)
	for _, apid := range cfg.TargetAPIDs {
		dec := msumr.NewDecoder(apid, rows, log)
		p.decoders = append(p.decoders, dec)
		p.router.Register(apid, dec)
	}
	p.router.Register(TelemetryAPID, telemetrySink{log: log})

	for _, opt := range opts {
		opt(p)
	}

	var sink ccsds.PacketSink = p.router
	if p.tap != nil {
		sink = tapSink{tap: p.tap, next: p.router}
	}
	p.asm = ccsds.NewAssembler(sink)
	p.frameDec = ccsds.NewFrameDecoder(p.asm, log)

	var framerDst io.Writer = p.frameDec
	if p.caduTee != nil {
		framerDst = ioext.MultiWriteCloser(nopCloser{p.frameDec}, p.caduTee)
	}
	p.framer = ccsds.NewFramer(cfg.CADULength, framerDst, log)
	p.bits = bitstream.NewWriter(p.framer)

	p.est = ber.New(cfg.BERPoly0, cfg.BERPoly1, cfg.BEREstWindow, cfg.BERErasureEps, cfg.BERScale)

	log.Info("pipeline: wired", "apids", cfg.TargetAPIDs, "caduLength", cfg.CADULength)
	return p, nil
}

// Write feeds hard bits (one per byte, value 0 or 1) into the chain.
func (p *Pipeline) Write(bits []byte) (int, error) {
	return p.bits.Write(bits)
}

// BER returns the estimator tap. Callers at the Viterbi boundary feed
// it soft samples and decoded bits; the pipeline itself never does.
func (p *Pipeline) BER() *ber.Estimator { return p.est }

// Flush emits any in-progress partial scan lines. Call at end of input.
func (p *Pipeline) Flush() error {
	for _, dec := range p.decoders {
		if err := dec.Flush(); err != nil {
			return errors.Wrap(err, "pipeline: flushing channel")
		}
	}
	return nil
}

// Close flushes partial state and closes any tee writer. The row sink
// is owned by the caller and is not closed here.
func (p *Pipeline) Close() error {
	err := p.Flush()
	if p.caduTee != nil {
		if cerr := p.caduTee.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Stats snapshots the per-stage counters.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		CADULocks:       p.framer.Locks(),
		FramesCorrected: p.frameDec.Corrected(),
		FramesDropped:   p.frameDec.Dropped(),
		RouterDrops:     p.router.Drops(),
	}
	for _, dec := range p.decoders {
		s.SegmentsDecoded += dec.Segments()
		s.SegmentsDropped += dec.Dropped()
	}
	return s
}
