package policy

// EmbargoStatus is the outcome of comparing a policy start date against the
// batch reference date.
type EmbargoStatus struct {
	HasEmbargo bool
	LiftDate   *Date // set only when HasEmbargo is true
}

// EvaluateEmbargo computes the embargo status of a single policy. A policy
// with no start date, or a start date on or before the reference date, is not
// embargoed. A start date strictly after the reference date denotes an active
// embargo lifting on that date.
func EvaluateEmbargo(start *Date, ref Date) EmbargoStatus {
	if start == nil || !start.After(ref) {
		return EmbargoStatus{}
	}
	return EmbargoStatus{HasEmbargo: true, LiftDate: start}
}
