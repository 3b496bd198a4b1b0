package services

import "sync"

// Fence tags outgoing requests with increasing sequence numbers and only lets the
// response of the most recently issued request be published.
type Fence struct {
	mu     sync.Mutex
	issued uint64
}

// Issue returns the sequence number for a new request
func (f *Fence) Issue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
	return f.issued
}

// Latest returns the most recently issued sequence number
func (f *Fence) Latest() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issued
}

// Commit runs publish if seq is still the latest issued request and reports whether it did.
// No request can be issued while publish runs.
func (f *Fence) Commit(seq uint64, publish func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.issued {
		return false
	}
	publish()
	return true
}
