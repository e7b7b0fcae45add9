package config

import "fmt"

func errInvalidAPID(apid int) error {
	return fmt.Errorf("config: target APID %d outside MSU-MR imagery range [60,70)", apid)
}

func errOddWindow(w int) error {
	return fmt.Errorf("config: BEREstWindow %d must be even", w)
}
