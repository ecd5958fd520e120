package app

// TreeConfig holds the presentation and behavior options of one tree.
// Only DecoupleChildFromParent changes how checked state propagates; the
// other flags gate front-end affordances.
type TreeConfig struct {
	HasCheckbox             bool
	HasAllCheckBox          bool
	HasFilter               bool
	HasCollapseExpand       bool
	HasAdd                  bool
	HasEdit                 bool
	HasDelete               bool
	DecoupleChildFromParent bool
	MaxHeight               int
	MaxWidth                int
}

// DefaultTreeConfig returns the stock option set.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		HasAllCheckBox: true,
		HasAdd:         true,
		HasEdit:        true,
		HasDelete:      true,
		MaxHeight:      500,
		MaxWidth:       240,
	}
}

// HasDivider reports whether a divider separates the header from the items.
func (c TreeConfig) HasDivider() bool {
	return c.HasFilter || c.HasAllCheckBox || c.HasCollapseExpand
}
