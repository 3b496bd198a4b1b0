package view

import (
	"fmt"
	"strings"
	"sync"
)

// View identifies one of the mutually exclusive screens
type View int

// Views in display order
const (
	Businesses View = iota
	Upload
	Training
	Recommendations
	Metrics
)

var names = []string{"Businesses", "Upload", "Training", "Recommendations", "Metrics"}

// All returns every view in display order
func All() []View {
	return []View{Businesses, Upload, Training, Recommendations, Metrics}
}

func (v View) String() string {
	if v < 0 || int(v) >= len(names) {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return names[v]
}

// Valid reports whether v is one of the five views
func (v View) Valid() bool {
	return v >= Businesses && v <= Metrics
}

// Parse resolves a view by case-insensitive name
func Parse(name string) (View, error) {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return View(i), nil
		}
	}
	return 0, fmt.Errorf("unknown view %q", name)
}

// Router holds the active view. Switching only changes the selection; requests started
// from the previous view keep running.
type Router struct {
	mu     sync.RWMutex
	active View
}

// NewRouter starts on the business list
func NewRouter() *Router {
	return &Router{active: Businesses}
}

// Active returns the selected view
func (r *Router) Active() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Select makes v active
func (r *Router) Select(v View) error {
	if !v.Valid() {
		return fmt.Errorf("unknown view %d", int(v))
	}
	r.mu.Lock()
	r.active = v
	r.mu.Unlock()
	return nil
}

// SelectIndex makes the i-th view (zero-based) active
func (r *Router) SelectIndex(i int) error {
	return r.Select(View(i))
}

// Next activates the following view, wrapping around
func (r *Router) Next() View {
	return r.step(1)
}

// Prev activates the preceding view, wrapping around
func (r *Router) Prev() View {
	return r.step(-1)
}

func (r *Router) step(delta int) View {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(names)
	r.active = View((int(r.active) + delta + n) % n)
	return r.active
}
