/*
NAME
  time.go

DESCRIPTION
  time.go decodes the CCSDS day-segmented time code embedded in MSU-MR
  segment headers and APID 70 telemetry payloads. Dropped from the
  distilled operation list but named in its glossary and present in
  original_source/find_cadu_frames.py's parse_ccsds_time_full_raw_utc.

LICENSE
  Provided as-is for the meteorcore project.
*/

package ccsds

import (
	"fmt"
	"time"
)

// meteorEpochDays is the Meteor-M2 day count's offset from the Unix epoch
// (1970-01-01), in days.
const meteorEpochDays = 11322

// TimeLen is the number of bytes a day-segmented timestamp occupies.
const TimeLen = 8

// ParseTime decodes an 8-byte CCSDS day-segmented timestamp (2-byte day
// count since the Meteor epoch, 4-byte milliseconds of day, 2-byte
// microseconds of millisecond) into a UTC time.Time.
func ParseTime(data []byte) (time.Time, error) {
	if len(data) < TimeLen {
		return time.Time{}, fmt.Errorf("ccsds: need %d bytes for timestamp, got %d", TimeLen, len(data))
	}

	days := int(data[0])<<8 | int(data[1])
	msOfDay := uint32(data[2])<<24 | uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5])
	usOfMs := int(data[6])<<8 | int(data[7])

	totalDays := meteorEpochDays + days
	d := time.Duration(totalDays) * 24 * time.Hour
	d += time.Duration(msOfDay) * time.Millisecond
	d += time.Duration(usOfMs) * time.Microsecond

	return time.Unix(0, 0).UTC().Add(d), nil
}
