// Package analysis provides shared technical-analysis types used by the
// indicator and pattern-detection packages.
package analysis

// Direction represents the expected price direction of a pattern or breakout.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// Level represents a support or resistance line segment attached to a
// detected pattern, expressed in (bar index, price) coordinates.
type Level struct {
	Type       LevelType
	StartIndex int
	EndIndex   int
	StartPrice float64
	EndPrice   float64
	Source     string
}

// LevelType represents the type of price level.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
	LevelNeckline   LevelType = "neckline"
)
