package campaign

import "fmt"

// DataConsistencyError indicates a contract violation on the observation
// log: mismatched row counts, empty appends, or inconsistent dimensions.
// It is never silently recovered.
type DataConsistencyError struct {
	Reason string
}

func (e *DataConsistencyError) Error() string {
	return "data consistency violation: " + e.Reason
}

// StateError indicates a lifecycle operation in the wrong campaign state
type StateError struct {
	State State
	Op    string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.State)
}
