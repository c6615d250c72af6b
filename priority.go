package etwtrace

// Priority is the execution priority level the caller runs at. Provider
// registration is only valid at PassiveLevel.
type Priority uint8

//nolint:golint,stylecheck // Names mirror the IRQL levels they stand for.
const (
	PassiveLevel Priority = iota
	APCLevel
	DispatchLevel
)

// PriorityFunc reports the priority of the calling context.
type PriorityFunc func() Priority

func passivePriority() Priority { return PassiveLevel }
