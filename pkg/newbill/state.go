package newbill

// State is a step of the new bill workflow.
type State int

const (
	Idle State = iota
	FileSelected
	Uploading
	Uploaded
	Submitting
	Completed
	Rejected // invalid file picked
	Failed   // upload or submission failed
)

var stateNames = map[State]string{
	Idle:         "idle",
	FileSelected: "file_selected",
	Uploading:    "uploading",
	Uploaded:     "uploaded",
	Submitting:   "submitting",
	Completed:    "completed",
	Rejected:     "rejected",
	Failed:       "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
