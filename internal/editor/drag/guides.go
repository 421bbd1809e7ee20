package drag

import (
	"sync"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/document"
)

// GuideState is what the canvas overlay renders.
type GuideState struct {
	Owner document.TextSlot
	X     bool
	Y     bool
}

// Guides is the center-line overlay shared by every controller on one surface.
// Only the element currently being dragged may show guides.
type Guides struct {
	mu        sync.Mutex
	state     GuideState
	listeners []func(GuideState)
}

func NewGuides() *Guides {
	return &Guides{}
}

func (g *Guides) State() GuideState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// OnChange registers fn for every visible change of the overlay.
func (g *Guides) OnChange(fn func(GuideState)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

func (g *Guides) show(owner document.TextSlot, x, y bool) {
	g.swap(GuideState{Owner: owner, X: x, Y: y}, nil)
}

// clear hides the guides if owner still holds them.
func (g *Guides) clear(owner document.TextSlot) {
	g.swap(GuideState{}, func(cur GuideState) bool { return cur.Owner == owner })
}

// swap replaces the state when when is nil or accepts the current state.
// Listeners run outside the lock.
func (g *Guides) swap(next GuideState, when func(GuideState) bool) {
	g.mu.Lock()
	if (when != nil && !when(g.state)) || g.state == next {
		g.mu.Unlock()
		return
	}
	g.state = next
	fns := append([]func(GuideState){}, g.listeners...)
	g.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
