// Package ack holds the acknowledgment signal shared between the supervisor
// and whatever listens for the operator.
package ack

import "sync"

// Flag is a one-shot, level-triggered acknowledgment. Any number of Set calls
// before a Consume count as a single acknowledgment.
type Flag struct {
	mu  sync.Mutex
	set bool
}

// Set raises the flag.
func (f *Flag) Set() {
	f.mu.Lock()
	f.set = true
	f.mu.Unlock()
}

// Consume reports whether the flag was raised and clears it in the same step.
func (f *Flag) Consume() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	got := f.set
	f.set = false
	return got
}

// Pending reports whether the flag is raised without clearing it.
func (f *Flag) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}
