/*
DESCRIPTION
  config.go contains the configuration settings for the meteorcore decode
  pipeline.

LICENSE
  Provided as-is for the meteorcore project.
*/

// Package config contains the configuration settings for the meteorcore
// CCSDS/LRPT decode pipeline.
package config

import (
	"github.com/ausocean/utils/logging"
)

// CADU length enum. The wire-level unit handed to the framer is always the
// full CADU including its 4-byte ASM; the RS stage only ever sees the
// 1020-byte post-ASM payload.
const (
	// CADU1024 is the standard Meteor-M2 LRPT CADU length (4-byte ASM + 1020
	// bytes of coded VCDU).
	CADU1024 = 1024
)

// Default tunables.
const (
	DefaultCADULength   = CADU1024
	DefaultTargetAPIDs  = "64,65,66" // MSU-MR visible/IR channels.
	DefaultBEREstWindow = 4096       // Soft samples per BER estimate, must be even.
	DefaultBERScale     = 2.5
)

// Config provides parameters relevant to a Pipeline instance. A new Config
// must be passed to the constructor. Default values for unset fields are
// applied by Validate.
type Config struct {
	// Logger holds an implementation of the Logger interface used throughout
	// the pipeline. This must be set; Validate does not default it.
	Logger logging.Logger

	// LogLevel is the pipeline logging verbosity level. Valid values are
	// logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal.
	LogLevel int8

	// CADULength is the total CADU length in bytes, including the 4-byte ASM.
	// Only CADU1024 is meaningful for Meteor-M2 LRPT; the field exists so the
	// framer's length is not a hardcoded literal in pipeline wiring.
	CADULength int

	// TargetAPIDs lists the MSU-MR imagery APIDs to reassemble into rows.
	// Values outside [60,70) are rejected by Validate. APID 70 (telemetry)
	// is never treated as imagery even if listed here.
	TargetAPIDs []int

	// BEREstWindow is the number of scored soft samples (two per decoded bit)
	// accumulated before the BER estimator emits a new ratio. Must be even;
	// Validate defaults it.
	BEREstWindow int

	// BERScale scales the raw error ratio into the reported BER value.
	BERScale float64

	// BERPoly0, BERPoly1 are the convolutional encoder's two generator
	// polynomials used by the BER estimator to re-encode hard-decided bits.
	// A negative value signals output inversion for that polynomial, mirroring
	// the "negation signalling output inversion" convention from the CORE's
	// BER estimator contract.
	BERPoly0, BERPoly1 int

	// BERErasureEps marks soft samples with |s| <= eps as erasures, excluded
	// from the BER accumulation.
	BERErasureEps float64

	// RowPoolElements bounds how many completed image rows each per-APID
	// imagesink sender may hold in flight before its destination must
	// drain. Zero selects imagesink.DefaultPoolElements.
	RowPoolElements int
}

// Validate checks Config fields for sane defaults, filling in anything left
// zero-valued and reporting the first structural error found.
func (c *Config) Validate() error {
	if c.CADULength == 0 {
		c.logDefault("CADULength", DefaultCADULength)
		c.CADULength = DefaultCADULength
	}
	if len(c.TargetAPIDs) == 0 {
		c.logDefault("TargetAPIDs", DefaultTargetAPIDs)
		c.TargetAPIDs = []int{64, 65, 66}
	}
	for _, a := range c.TargetAPIDs {
		if a < 60 || a >= 70 {
			return errInvalidAPID(a)
		}
	}
	if c.BEREstWindow == 0 {
		c.logDefault("BEREstWindow", DefaultBEREstWindow)
		c.BEREstWindow = DefaultBEREstWindow
	}
	if c.BEREstWindow%2 != 0 {
		return errOddWindow(c.BEREstWindow)
	}
	if c.BERScale == 0 {
		c.BERScale = DefaultBERScale
	}
	return nil
}

func (c *Config) logDefault(name string, def interface{}) {
	if c.Logger != nil {
		c.Logger.Info(name+" bad or unset, defaulting", name, def)
	}
}
