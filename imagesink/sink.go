/*
NAME
  sink.go

DESCRIPTION
  sink.go provides the bounded per-APID image row sink. Each registered
  APID gets a pool-buffered sender with its own output routine, so the
  decode pipeline never retains completed rows in-core and a slow
  destination cannot stall the decode path beyond the pool's capacity.

LICENSE
  Provided as-is for the meteorcore project.
*/

// Package imagesink delivers decoded MSU-MR image rows to per-APID
// destinations with bounded buffering, and provides greyscale strip and
// RGB composite helpers for turning accumulated rows into images.
package imagesink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"
)

// Pool sizing for row senders. A row is ImageWidth bytes; the element
// size leaves headroom so the pool never needs to grow an allocation.
const (
	poolElementSize  = 2048
	poolReadTimeout  = 10 * time.Millisecond
	poolWriteTimeout = 5 * time.Second
)

// DefaultPoolElements bounds how many rows a sender may hold in flight.
const DefaultPoolElements = 256

// Sink fans decoded rows out to one rowSender per registered APID. Rows
// for unregistered APIDs are counted and dropped. Register all APIDs
// before the first WriteRow; Close stops every sender and waits for
// buffered rows to drain.
type Sink struct {
	log     logging.Logger
	senders map[int]*rowSender
	drops   uint64
}

// New returns an empty Sink.
func New(log logging.Logger) *Sink {
	return &Sink{log: log, senders: make(map[int]*rowSender)}
}

// Register arranges for rows with the given APID to be written to dst,
// buffering up to elems rows. elems <= 0 selects DefaultPoolElements.
func (s *Sink) Register(apid int, dst io.Writer, elems int) {
	if elems <= 0 {
		elems = DefaultPoolElements
	}
	s.senders[apid] = newRowSender(apid, dst, pool.NewBuffer(elems, poolElementSize, poolWriteTimeout), s.log)
}

// Drops returns the number of rows seen for an APID with no registered
// destination.
func (s *Sink) Drops() uint64 { return s.drops }

// WriteRow implements msumr.RowSink. The row is copied into the
// sender's pool before return.
func (s *Sink) WriteRow(apid int, row []byte) error {
	snd, ok := s.senders[apid]
	if !ok {
		s.drops++
		if s.log != nil {
			s.log.Debug("imagesink: no destination for APID", "apid", apid)
		}
		return nil
	}
	return snd.write(row)
}

// Close stops every sender, draining buffered rows to their
// destinations first.
func (s *Sink) Close() error {
	var firstErr error
	for _, snd := range s.senders {
		if err := snd.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// rowSender owns one APID's destination writer and drains its pool
// buffer on a dedicated routine.
type rowSender struct {
	apid int
	dst  io.Writer
	pool *pool.Buffer
	log  logging.Logger
	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	syncErr error // First destination write failure, reported on close.
}

func newRowSender(apid int, dst io.Writer, rb *pool.Buffer, log logging.Logger) *rowSender {
	s := &rowSender{
		apid: apid,
		dst:  dst,
		pool: rb,
		log:  log,
		done: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.output()
	return s
}

// output drains the pool buffer to the destination until closed, then
// flushes whatever is still queued.
func (s *rowSender) output() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			s.drain()
			return
		default:
			chunk, err := s.pool.Next(poolReadTimeout)
			switch err {
			case nil, io.EOF:
			case pool.ErrTimeout:
				continue
			default:
				if s.log != nil {
					s.log.Error("imagesink: unexpected pool read error", "apid", s.apid, "error", err.Error())
				}
				continue
			}
			if chunk == nil {
				continue
			}
			s.writeChunk(chunk)
		}
	}
}

// drain empties any rows still buffered at close time.
func (s *rowSender) drain() {
	for {
		chunk, err := s.pool.Next(poolReadTimeout)
		if err != nil || chunk == nil {
			return
		}
		s.writeChunk(chunk)
	}
}

func (s *rowSender) writeChunk(chunk *pool.Chunk) {
	_, err := s.dst.Write(chunk.Bytes())
	if err != nil {
		if s.log != nil {
			s.log.Warning("imagesink: failed row write", "apid", s.apid, "error", err.Error())
		}
		s.mu.Lock()
		if s.syncErr == nil {
			s.syncErr = err
		}
		s.mu.Unlock()
	}
	chunk.Close()
}

func (s *rowSender) write(row []byte) error {
	n, err := s.pool.Write(row)
	if err != nil {
		return fmt.Errorf("imagesink: buffering row for APID %d (wrote %d): %w", s.apid, n, err)
	}
	s.pool.Flush()
	return nil
}

func (s *rowSender) close() error {
	close(s.done)
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncErr
}
