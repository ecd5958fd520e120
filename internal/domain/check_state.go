package domain

// CheckState is the tri-state checkbox value of a node.
type CheckState uint8

// CheckState values.
const (
	Unchecked CheckState = iota
	Checked
	Indeterminate
)

// CheckStateOf converts a boolean checkbox value into a CheckState.
func CheckStateOf(checked bool) CheckState {
	if checked {
		return Checked
	}
	return Unchecked
}

// String returns the canonical lower-case name of the state.
func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Unchecked:
		return "unchecked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// IsChecked reports whether the state is fully checked.
func (s CheckState) IsChecked() bool {
	return s == Checked
}

// commonChecked folds sibling states: the shared value when all agree, else Indeterminate.
// An empty set folds to Unchecked.
func commonChecked(nodes []*Node) CheckState {
	if len(nodes) == 0 {
		return Unchecked
	}
	state := nodes[0].checked
	for _, node := range nodes[1:] {
		if node.checked != state {
			return Indeterminate
		}
	}
	return state
}

// CommonChecked folds the current states of nodes without recursing.
func CommonChecked(nodes []*Node) CheckState {
	return commonChecked(nodes)
}
