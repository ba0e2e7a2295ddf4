//go:build !linux

package core

// On non-Linux platforms this build carries no per-thread CPU time source;
// platformThreadCPUTime stays nil and sampleThreadCPUTime reports
// unavailable.
