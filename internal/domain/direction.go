package domain

var directions = map[string]bool{"TD": true, "TB": true, "LR": true, "RL": true, "BT": true}

// ValidDirection reports whether d is a flowchart direction.
func ValidDirection(d string) bool {
	return directions[d]
}
