/*
DESCRIPTION
  rawdump.go appends every reassembled space packet payload to a
  per-APID file, a nearly free debugging aid for comparing against other
  decoders.

LICENSE
  Provided as-is for the meteorcore project.
*/

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ausocean/utils/logging"

	"github.com/skywave-sdr/meteorcore/ccsds"
)

// rawDumper lazily opens one append-mode file per APID seen.
type rawDumper struct {
	dir   string
	log   logging.Logger
	files map[int]*os.File
}

func newRawDumper(dir string, log logging.Logger) (*rawDumper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	return &rawDumper{dir: dir, log: log, files: make(map[int]*os.File)}, nil
}

// write is the pipeline packet tap.
func (d *rawDumper) write(p ccsds.Packet) {
	f, ok := d.files[p.Header.APID]
	if !ok {
		path := filepath.Join(d.dir, fmt.Sprintf("%d.bin", p.Header.APID))
		var err error
		f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			d.log.Warning("raw dump: cannot open file", "path", path, "error", err.Error())
			return
		}
		d.files[p.Header.APID] = f
	}
	if _, err := f.Write(p.Payload); err != nil {
		d.log.Warning("raw dump: write failed", "apid", p.Header.APID, "error", err.Error())
	}
}

func (d *rawDumper) close() {
	for _, f := range d.files {
		f.Close()
	}
}
