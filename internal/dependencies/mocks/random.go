package mocks

import (
	"fmt"

	"github.com/mkerrigan/roomrelay/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing. It returns
// queued results first, then falls back to deterministic sequential IDs so
// tests that mint many connection IDs stay collision-free.
type MockRandom struct {
	StringResults []string
	index         int
	fallback      int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// String returns the next queued result, or a deterministic unique string if
// the queue is exhausted
func (r *MockRandom) String(length int, alphabet string) string {
	if r.index < len(r.StringResults) {
		result := r.StringResults[r.index]
		r.index++
		return result
	}
	r.fallback++
	return fmt.Sprintf("mock%04d", r.fallback)
}

// QueueString adds values to the result queue
func (r *MockRandom) QueueString(values ...string) {
	r.StringResults = append(r.StringResults, values...)
}
