// Package reveal tracks the one-shot reveal of content sections as they
// scroll into view.
//
// Each observed element moves from Unrevealed to Revealed the first time it
// is reported at or above the visibility threshold, and is then unobserved.
// There is no way back.
package reveal

import (
	"strconv"
	"sync"

	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
)

const (
	// MarkerClass selects the elements to observe.
	MarkerClass = "content-section"
	// VisibleClass is added on reveal and drives the CSS transition.
	VisibleClass = "visible"
	// IDAttribute carries the id entries refer to.
	IDAttribute = "data-reveal-id"
)

// DefaultThreshold is the fraction of an element that must be in view.
const DefaultThreshold = 0.1

// Options mirror the visibility watcher settings.
type Options struct {
	Threshold  float64
	RootMargin string
}

// DefaultOptions returns a 10% threshold with no margin.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, RootMargin: "0px"}
}

// State of one observed element.
type State int

const (
	Unrevealed State = iota
	Revealed
)

func (s State) String() string {
	if s == Revealed {
		return "revealed"
	}
	return "unrevealed"
}

// Entry reports how much of an element is in view.
type Entry struct {
	ID    string  `json:"id"`
	Ratio float64 `json:"ratio"`
}

type target struct {
	node  *html.Node
	state State
}

// Observer holds the reveal state of one page load.
type Observer struct {
	mu      sync.Mutex
	opts    Options
	targets map[string]*target
	order   []string
	next    int
}

// NewObserver returns an observer with opts. A non-positive threshold
// falls back to DefaultThreshold.
func NewObserver(opts Options) *Observer {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = DefaultThreshold
	}
	if opts.RootMargin == "" {
		opts.RootMargin = "0px"
	}
	return &Observer{opts: opts, targets: make(map[string]*target)}
}

// Options returns the effective options.
func (o *Observer) Options() Options { return o.opts }

// Observe registers every element under root carrying MarkerClass that is
// not already observed or visible, stamping it with IDAttribute. It returns
// the number of newly observed elements. Elements added to the tree later
// need another call.
func (o *Observer) Observe(root *html.Node) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	added := 0
	for _, n := range dom.ByClass(root, MarkerClass) {
		if dom.HasClass(n, VisibleClass) {
			continue
		}
		if id, ok := dom.Attr(n, IDAttribute); ok {
			if _, known := o.targets[id]; known {
				continue
			}
		}
		o.next++
		id := "r" + strconv.Itoa(o.next)
		dom.SetAttr(n, IDAttribute, id)
		o.targets[id] = &target{node: n}
		o.order = append(o.order, id)
		added++
	}
	return added
}

// Intersect applies a batch of entries and returns the ids revealed by it,
// in entry order. Entries for unknown or already revealed elements, and
// entries below the threshold, change nothing.
func (o *Observer) Intersect(entries []Entry) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var revealed []string
	for _, e := range entries {
		t, ok := o.targets[e.ID]
		if !ok || t.state == Revealed {
			continue
		}
		if e.Ratio <= 0 || e.Ratio < o.opts.Threshold {
			continue
		}
		t.state = Revealed
		if t.node != nil {
			dom.AddClass(t.node, VisibleClass)
			// unobserve
			t.node = nil
		}
		revealed = append(revealed, e.ID)
	}
	return revealed
}

// State returns the state of id.
func (o *Observer) State(id string) (State, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.targets[id]
	if !ok {
		return Unrevealed, false
	}
	return t.state, true
}

// Pending returns the ids still being watched, in registration order.
func (o *Observer) Pending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for _, id := range o.order {
		if o.targets[id].state == Unrevealed {
			out = append(out, id)
		}
	}
	return out
}

// Len returns how many elements have been observed in total.
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.order)
}
