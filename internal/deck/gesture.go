package deck

import (
	"fmt"
	"time"
)

// Gesture tuning constants. Distances are in logical pixels.
const (
	// CommitThreshold is the horizontal distance a drag must exceed
	// (strictly) at release for the swipe to commit.
	CommitThreshold = 70.0

	// DragScale amplifies finger movement so the card leads the touch.
	DragScale = 1.1

	// MaxRotationDeg caps the card tilt during a drag.
	MaxRotationDeg = 12.0

	// rotationPerPixel converts horizontal displacement to tilt.
	rotationPerPixel = 0.1

	// FlyOutDistance is how far a committed card travels off screen.
	FlyOutDistance = 800.0

	// FlyOutDuration is the fly-out animation length.
	FlyOutDuration = 600 * time.Millisecond

	// SnapBackDuration is the return animation length for an aborted drag.
	SnapBackDuration = 250 * time.Millisecond

	// verticalOverrideRatio and verticalOverrideMin detect a vertical
	// scroll: once |dy| > ratio*|dx| and |dy| > min, the gesture is handed
	// back to the scroll view and the card snaps home.
	verticalOverrideRatio = 1.8
	verticalOverrideMin   = 15.0
)

// Direction is a committed swipe direction.
type Direction string

const (
	// DirectionLeft rejects the top card.
	DirectionLeft Direction = "left"

	// DirectionRight accepts the top card.
	DirectionRight Direction = "right"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionLeft || d == DirectionRight
}

// GesturePhase is the swipe recognizer's state.
type GesturePhase int

const (
	// GestureNeutral means no touch is active and the card is at rest.
	GestureNeutral GesturePhase = iota

	// GestureDragging means a touch is moving the top card.
	GestureDragging

	// GestureSnappingBack means an uncommitted drag is animating home.
	GestureSnappingBack

	// GestureCommitted means the swipe decision has been made.
	GestureCommitted

	// GestureFlyingOut means a committed card is animating off screen.
	GestureFlyingOut
)

// String returns the lower-case phase name.
func (p GesturePhase) String() string {
	switch p {
	case GestureNeutral:
		return "neutral"
	case GestureDragging:
		return "dragging"
	case GestureSnappingBack:
		return "snapping_back"
	case GestureCommitted:
		return "committed"
	case GestureFlyingOut:
		return "flying_out"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Transform describes how the client should render the top card.
type Transform struct {
	TranslateX float64       `json:"translate_x"`
	TranslateY float64       `json:"translate_y"`
	Rotation   float64       `json:"rotation"`
	Duration   time.Duration `json:"duration_ms"`
}

// Outcome is the result of ending a gesture.
type Outcome struct {
	// Committed is true when the drag crossed the commit threshold or an
	// explicit control was used.
	Committed bool

	// Direction is set when Committed is true.
	Direction Direction

	// Scrolling is true when the gesture was recognized as a vertical
	// scroll and handed back to the scroll container.
	Scrolling bool

	// Transform is the fly-out or snap-back animation target.
	Transform Transform
}

// Recognizer turns raw drag input into swipe decisions for the top card.
//
// Recognizer is not safe for concurrent use; the owning Session serializes
// access.
type Recognizer struct {
	phase     GesturePhase
	dx        float64
	dy        float64
	direction Direction
}

// NewRecognizer returns a recognizer in the neutral state.
func NewRecognizer() *Recognizer {
	return &Recognizer{phase: GestureNeutral}
}

// Phase returns the current gesture phase.
func (r *Recognizer) Phase() GesturePhase {
	return r.phase
}

// Begin starts a drag. A touch that lands while a previous card is still
// animating is ignored until Settle.
func (r *Recognizer) Begin() bool {
	if r.phase != GestureNeutral {
		return false
	}
	r.phase = GestureDragging
	r.dx = 0
	r.dy = 0
	return true
}

// Move updates the drag with the total displacement since Begin and
// returns the card transform to render. If the movement is recognized as a
// vertical scroll the drag is abandoned and the card snaps home.
func (r *Recognizer) Move(dx, dy float64) Transform {
	if r.phase != GestureDragging {
		return Transform{}
	}

	if abs(dy) > verticalOverrideRatio*abs(dx) && abs(dy) > verticalOverrideMin {
		r.phase = GestureSnappingBack
		r.dx = 0
		r.dy = 0
		return Transform{Duration: SnapBackDuration}
	}

	r.dx = dx
	r.dy = dy
	return Transform{
		TranslateX: dx * DragScale,
		TranslateY: dy * DragScale,
		Rotation:   clamp(dx*rotationPerPixel, -MaxRotationDeg, MaxRotationDeg),
	}
}

// Release ends the drag and decides the outcome. The threshold comparison
// is strict: a drag that stops exactly at the threshold snaps back.
func (r *Recognizer) Release() Outcome {
	switch r.phase {
	case GestureDragging:
		// decided below
	case GestureSnappingBack:
		r.phase = GestureNeutral
		return Outcome{Scrolling: true, Transform: Transform{Duration: SnapBackDuration}}
	default:
		return Outcome{}
	}

	if abs(r.dx) > CommitThreshold {
		dir := DirectionRight
		fly := FlyOutDistance
		if r.dx < 0 {
			dir = DirectionLeft
			fly = -FlyOutDistance
		}
		r.phase = GestureCommitted
		r.direction = dir
		return Outcome{
			Committed: true,
			Direction: dir,
			Transform: Transform{
				TranslateX: fly,
				TranslateY: r.dy * DragScale,
				Rotation:   clamp(fly*rotationPerPixel, -MaxRotationDeg, MaxRotationDeg),
				Duration:   FlyOutDuration,
			},
		}
	}

	r.phase = GestureSnappingBack
	r.dx = 0
	r.dy = 0
	return Outcome{Transform: Transform{Duration: SnapBackDuration}}
}

// Cancel handles a touch-cancel event. It behaves exactly like Release:
// a drag past the threshold still commits.
func (r *Recognizer) Cancel() Outcome {
	return r.Release()
}

// CommitExplicit short-circuits the gesture for the accept/reject buttons.
// It only fires from rest; taps during an animation are dropped.
func (r *Recognizer) CommitExplicit(dir Direction) (Outcome, bool) {
	if r.phase != GestureNeutral || !dir.Valid() {
		return Outcome{}, false
	}
	fly := FlyOutDistance
	if dir == DirectionLeft {
		fly = -FlyOutDistance
	}
	r.phase = GestureCommitted
	r.direction = dir
	return Outcome{
		Committed: true,
		Direction: dir,
		Transform: Transform{
			TranslateX: fly,
			Rotation:   clamp(fly*rotationPerPixel, -MaxRotationDeg, MaxRotationDeg),
			Duration:   FlyOutDuration,
		},
	}, true
}

// FlyOut starts the off-screen animation after a commit has been handled.
func (r *Recognizer) FlyOut() {
	if r.phase == GestureCommitted {
		r.phase = GestureFlyingOut
	}
}

// Settle marks the current animation as finished and returns the
// recognizer to neutral.
func (r *Recognizer) Settle() {
	if r.phase == GestureFlyingOut || r.phase == GestureSnappingBack {
		r.phase = GestureNeutral
		r.dx = 0
		r.dy = 0
		r.direction = ""
	}
}

// Direction returns the committed direction while the card is committed or
// flying out.
func (r *Recognizer) Direction() Direction {
	return r.direction
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
