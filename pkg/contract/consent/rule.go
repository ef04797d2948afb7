package consent

// BlockRule gates a tracking script behind one or more consent categories.
// Rules are created when an integration is activated and never mutated.
type BlockRule struct {
	// Pattern is matched case-sensitively against buffered output, or compared
	// with the registration handle when ScriptTag is set.
	Pattern string

	// Categories lists the consent a visitor must grant, in canonical order.
	Categories []Category

	// Stage is the lifecycle point whose output the rule applies to.
	Stage Stage

	// Priority orders the rule's filter among other filters on the same stage.
	Priority int

	// ScriptTag marks a rule that matches a script registration handle
	// instead of buffered output.
	ScriptTag bool

	// Source names the integration that contributed the rule.
	Source string
}

// Key returns the rule identity.
func (r BlockRule) Key() string {
	return string(r.Stage) + "|" + r.Pattern
}

// CategoryList returns the comma joined categories.
func (r BlockRule) CategoryList() string {
	return JoinCategories(r.Categories)
}
