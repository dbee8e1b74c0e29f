package scenario

import "github.com/google/uuid"

// DefaultSideColor is used for units whose side is not in the scenario.
const DefaultSideColor = "black"

// Side is a faction. Units refer to sides by name.
type Side struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	TotalScore float64 `json:"totalScore"`
	SideColor  string  `json:"sideColor"`
}

// NewSide creates a side with a fresh id.
func NewSide(name, color string) *Side {
	return &Side{ID: uuid.New().String(), Name: name, SideColor: color}
}
