// Package sysinfo sizes the host so `arecon check` can suggest a target
// concurrency ceiling.
package sysinfo

import (
	"runtime"
)

// Profile is a coarse host size class.
type Profile string

const (
	ProfileLow    Profile = "low"    // ≤2GB RAM or ≤2 cores
	ProfileMedium Profile = "medium" // ≤6GB RAM, ≤4 cores
	ProfileHigh   Profile = "high"   // ≤16GB RAM, ≤8 cores
	ProfileLarge  Profile = "large"
)

var profileOrder = []Profile{ProfileLow, ProfileMedium, ProfileHigh, ProfileLarge}

// assumedMemoryMB stands in when the platform cannot report its memory.
const assumedMemoryMB = 4096

// Host describes the machine running the scans.
type Host struct {
	TotalMemoryMB int64
	// MemoryAssumed is set when TotalMemoryMB is assumedMemoryMB rather
	// than a measurement.
	MemoryAssumed bool
	NumCPU        int
	Profile       Profile
}

// Detect returns the current host's size.
func Detect() *Host {
	return newHost(runtime.NumCPU(), physicalMemory)
}

func newHost(cpus int, memory func() (uint64, error)) *Host {
	h := &Host{NumCPU: cpus, TotalMemoryMB: assumedMemoryMB, MemoryAssumed: true}
	if b, err := memory(); err == nil && b > 0 {
		h.TotalMemoryMB = int64(b >> 20)
		h.MemoryAssumed = false
	}
	h.Profile = profileFor(h.TotalMemoryMB, h.NumCPU)
	return h
}

// profileFor takes the more restrictive of the memory and CPU classes.
func profileFor(memoryMB int64, cpus int) Profile {
	var mem, cpu int
	switch {
	case memoryMB <= 2048:
		mem = 0
	case memoryMB <= 6144:
		mem = 1
	case memoryMB <= 16384:
		mem = 2
	default:
		mem = 3
	}
	switch {
	case cpus <= 2:
		cpu = 0
	case cpus <= 4:
		cpu = 1
	case cpus <= 8:
		cpu = 2
	default:
		cpu = 3
	}
	return profileOrder[min(mem, cpu)]
}

// SuggestedConcurrency is the number of parallel target pipelines the host
// should sustain. Each pipeline may run nmap -sV -O or a 50-thread
// brute-forcer, so the ceiling stays well below the core count.
func (h *Host) SuggestedConcurrency() int {
	switch h.Profile {
	case ProfileLow:
		return 1
	case ProfileMedium:
		return 2
	case ProfileHigh:
		return 5
	default:
		return 10
	}
}
