package consent

const (
	// StageEarlyHead runs first inside the document head.
	StageEarlyHead Stage = "early-head"

	// StageLateHead runs last inside the document head.
	StageLateHead Stage = "late-head"

	// StageFooter runs just before the closing body tag.
	StageFooter Stage = "footer"
)

// Stage is a named point in the page render lifecycle where callbacks may
// emit or rewrite output.
type Stage string

// OrderedStages defines the render order.
var OrderedStages = []Stage{
	StageEarlyHead,
	StageLateHead,
	StageFooter,
}

// Valid reports whether s is a known render stage.
func (s Stage) Valid() bool {
	for _, st := range OrderedStages {
		if st == s {
			return true
		}
	}
	return false
}

// InHead reports whether the stage renders inside the document head.
func (s Stage) InHead() bool {
	return s == StageEarlyHead || s == StageLateHead
}

func (s Stage) String() string {
	return string(s)
}
