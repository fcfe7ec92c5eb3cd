package model

const (
	ConsistentColor   = "#22c55e"
	InconsistentColor = "#ef4444"
)

// VerdictColor is the display colour of an edge with the given verdict.
func VerdictColor(isConsistent bool) string {
	if isConsistent {
		return ConsistentColor
	}
	return InconsistentColor
}
