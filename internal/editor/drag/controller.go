// Package drag turns pointer drags of cover text elements into snapped position commits.
package drag

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/document"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/snap"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

var (
	ErrNotDragging     = errors.New("no drag in progress")
	ErrAlreadyDragging = errors.New("drag already in progress")
	ErrNonFinite       = errors.New("non-finite drag position")
)

// Committer receives the final position of a drag. *document.Model satisfies it.
type Committer interface {
	Set(field document.Field, value any) error
}

// Controller tracks one draggable element. Moves only touch the transient render
// position and the shared guides; the document sees a single write at Stop.
type Controller struct {
	slot         document.TextSlot
	frame        snap.Frame
	guides       *Guides
	target       Committer
	abandonAfter time.Duration
	logger       *zap.Logger

	mu     sync.Mutex
	state  State
	origin models.Position
	render models.Position
	size   snap.Size
	timer  *time.Timer
	gen    uint64
}

type Option func(*Controller)

// WithAbandonAfter cancels a drag that sees no event for d. Zero disables it.
func WithAbandonAfter(d time.Duration) Option {
	return func(c *Controller) { c.abandonAfter = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(slot document.TextSlot, frame snap.Frame, guides *Guides, target Committer, opts ...Option) *Controller {
	c := &Controller{
		slot:   slot,
		frame:  frame,
		guides: guides,
		target: target,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.guides == nil {
		c.guides = NewGuides()
	}
	return c
}

func (c *Controller) Slot() document.TextSlot { return c.slot }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Position is where the element is rendered right now.
func (c *Controller) Position() models.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render
}

// Reset places the element at pos without committing, e.g. after the document was reloaded.
func (c *Controller) Reset(pos models.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Idle {
		c.render = pos
	}
}

// Start begins a drag from the element's committed position.
func (c *Controller) Start(from models.Position, size snap.Size) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Dragging {
		return ErrAlreadyDragging
	}
	c.state = Dragging
	c.origin = from
	c.render = from
	c.size = size
	c.armLocked()
	return nil
}

// Move snaps the pointer position and shows the guides that fired.
func (c *Controller) Move(x, y float64) (snap.Result, error) {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return snap.Result{}, ErrNotDragging
	}
	res := c.frame.Snap(x, y, c.size)
	if res.Finite() {
		c.render = models.Position{X: res.X, Y: res.Y}
	}
	c.armLocked()
	c.mu.Unlock()

	c.guides.show(c.slot, res.GuideX, res.GuideY)
	return res, nil
}

// Stop snaps the drop position, commits it and returns to Idle.
// A non-finite drop cancels the drag instead.
func (c *Controller) Stop(x, y float64) (models.Position, error) {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return models.Position{}, ErrNotDragging
	}
	res := c.frame.Snap(x, y, c.size)
	if !res.Finite() {
		c.endLocked(c.origin)
		c.mu.Unlock()
		c.guides.clear(c.slot)
		return models.Position{}, fmt.Errorf("%w: (%v, %v)", ErrNonFinite, x, y)
	}
	pos := models.Position{X: res.X, Y: res.Y}
	c.endLocked(pos)
	c.mu.Unlock()

	c.guides.clear(c.slot)
	if err := c.target.Set(document.PositionField(c.slot), pos); err != nil {
		return pos, fmt.Errorf("commit %s position: %w", c.slot, err)
	}
	return pos, nil
}

// Cancel abandons the drag without committing; the element snaps back.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return
	}
	c.endLocked(c.origin)
	c.mu.Unlock()
	c.guides.clear(c.slot)
}

func (c *Controller) endLocked(render models.Position) {
	c.state = Idle
	c.render = render
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) armLocked() {
	if c.abandonAfter <= 0 {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.abandonAfter, func() { c.abandon(gen) })
}

func (c *Controller) abandon(gen uint64) {
	c.mu.Lock()
	if c.state != Dragging || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.endLocked(c.origin)
	c.mu.Unlock()

	c.guides.clear(c.slot)
	c.logger.Debug("drag abandoned", zap.String("element", string(c.slot)))
}

// Set is the three text controllers of one surface sharing a frame and guides.
type Set struct {
	Guides      *Guides
	controllers map[document.TextSlot]*Controller
}

func NewSet(frame snap.Frame, target Committer, opts ...Option) *Set {
	s := &Set{Guides: NewGuides(), controllers: map[document.TextSlot]*Controller{}}
	for _, slot := range document.Slots {
		s.controllers[slot] = New(slot, frame, s.Guides, target, opts...)
	}
	return s
}

func (s *Set) Get(slot document.TextSlot) *Controller {
	return s.controllers[slot]
}

// Sync places idle controllers at the positions stored in cover.
func (s *Set) Sync(cover models.CoverData) {
	els := cover.Front.Text.Elements()
	for slot, c := range s.controllers {
		if el, ok := els[string(slot)]; ok {
			c.Reset(el.Position)
		}
	}
}

// CancelAll abandons any drag in progress.
func (s *Set) CancelAll() {
	for _, c := range s.controllers {
		c.Cancel()
	}
}
