/*
NAME
  apid.go

DESCRIPTION
  apid.go routes reassembled CCSDS space packets to per-APID destinations.

LICENSE
  Provided as-is for the meteorcore project.
*/

package ccsds

import "github.com/ausocean/utils/logging"

// Router dispatches packets to the sink registered for their APID,
// dropping (and counting) anything unregistered. It implements PacketSink
// so it can sit directly at the end of an Assembler chain.
type Router struct {
	log   logging.Logger
	sinks map[int]PacketSink
	drops uint64
}

// NewRouter returns an empty Router.
func NewRouter(log logging.Logger) *Router {
	return &Router{log: log, sinks: make(map[int]PacketSink)}
}

// Register arranges for packets with the given APID to be forwarded to
// dst. A second Register call for the same APID replaces the prior sink.
func (r *Router) Register(apid int, dst PacketSink) {
	r.sinks[apid] = dst
}

// Drops returns the number of packets seen for an APID with no registered
// sink.
func (r *Router) Drops() uint64 { return r.drops }

// WritePacket implements PacketSink.
func (r *Router) WritePacket(p Packet) error {
	dst, ok := r.sinks[p.Header.APID]
	if !ok {
		r.drops++
		if r.log != nil {
			r.log.Debug("ccsds: no sink registered for APID", "apid", p.Header.APID)
		}
		return nil
	}
	return dst.WritePacket(p)
}
