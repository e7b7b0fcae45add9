/*
NAME
  sinks.go

DESCRIPTION
  sinks.go holds the small adapter sinks the pipeline wires between its
  main stages: the telemetry logger for APID 70, the packet tap, and the
  closer shim letting the frame decoder sit inside a MultiWriteCloser.

LICENSE
  Provided as-is for the meteorcore project.
*/

package pipeline

import (
	"io"

	"github.com/ausocean/utils/logging"

	"github.com/skywave-sdr/meteorcore/ccsds"
)

// telemetrySink logs the embedded timestamp of APID 70 housekeeping
// packets and otherwise discards them.
type telemetrySink struct {
	log logging.Logger
}

func (s telemetrySink) WritePacket(p ccsds.Packet) error {
	ts, err := ccsds.ParseTime(p.Payload)
	if err != nil {
		s.log.Debug("pipeline: telemetry packet without timestamp", "error", err)
		return nil
	}
	s.log.Debug("pipeline: telemetry packet", "apid", p.Header.APID, "time", ts)
	return nil
}

// tapSink invokes a callback for every packet, then forwards it.
type tapSink struct {
	tap  func(ccsds.Packet)
	next ccsds.PacketSink
}

func (s tapSink) WritePacket(p ccsds.Packet) error {
	s.tap(p)
	return s.next.WritePacket(p)
}

// nopCloser adapts an io.Writer stage into the io.WriteCloser shape
// ioext.MultiWriteCloser requires.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
