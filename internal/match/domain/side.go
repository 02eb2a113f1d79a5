package domain

// Side identifies one of the two competing sides of a match.
type Side string

const (
	// SideA is the first side.
	SideA Side = "A"
	// SideB is the second side.
	SideB Side = "B"
)

// IsValid reports whether the side is one of the two match sides.
func (s Side) IsValid() bool {
	return s == SideA || s == SideB
}

// Other returns the opposing side.
func (s Side) Other() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	panic("domain: side " + string(s) + " has no opposite")
}
