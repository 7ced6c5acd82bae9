//go:build !linux && !darwin

package sysinfo

import "errors"

func physicalMemory() (uint64, error) {
	return 0, errors.New("memory size not available on this platform")
}
