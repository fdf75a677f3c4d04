package analysis

// Analyze runs the fixed pass sequence of spec.md §4.4 over c's already
// loaded Ops/Labels/Equates, populating frame shape, call prototypes,
// branch targets, save-register marks and condition sources. c must be
// freshly loaded (via Reset then the caller's own procedure load) before
// each call.
func (c *Context) Analyze() error {
	passes := []func() error{
		c.runFrameClassification,
		c.runCallAndBranchResolution,
		c.runFinalization,
		c.runFlowAnalysis,
		c.collectCallArgs,
		c.runSaveConfirmation,
	}
	for _, pass := range passes {
		if err := pass(); err != nil {
			return err
		}
	}
	return nil
}
