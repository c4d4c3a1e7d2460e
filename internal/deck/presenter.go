package deck

import "github.com/nishipippi/kiga-ers/internal/domain"

// StackSize is the number of cards visible at once: the interactive top
// card plus one peeking behind it.
const StackSize = 2

// Per-position styling for the non-top cards. Prominence decreases
// strictly with depth.
const (
	stackScaleStep   = 0.05
	stackOffsetYStep = 12.0
	stackOpacityStep = 0.25
)

// CardView is one rendered card in the visible stack.
type CardView struct {
	Paper    *domain.Paper `json:"paper"`
	Position int           `json:"position"`
	Scale    float64       `json:"scale"`
	OffsetY  float64       `json:"offset_y"`
	Opacity  float64       `json:"opacity"`
	Rotation float64       `json:"rotation"`

	// Interactive is true only for the top card; cards behind it ignore
	// touch input.
	Interactive bool `json:"interactive"`
}

// Stack derives the visible card stack from the result set and the read
// cursor. It is a pure projection: it never mutates either input.
//
// The returned slice is empty when the cursor has consumed every fetched
// card; with a fetch still possible that is the transient "preparing more
// papers" state, not an error.
func Stack(rs *ResultSet, cursor int) []CardView {
	papers := rs.Slice(cursor, cursor+StackSize)
	views := make([]CardView, 0, len(papers))
	for i, p := range papers {
		views = append(views, CardView{
			Paper:       p,
			Position:    i,
			Scale:       1 - stackScaleStep*float64(i),
			OffsetY:     stackOffsetYStep * float64(i),
			Opacity:     1 - stackOpacityStep*float64(i),
			Rotation:    0,
			Interactive: i == 0,
		})
	}
	return views
}
