package wizard

import "strconv"

// Step is a wizard screen. The zero value is not a valid step.
type Step int

const (
	StepSelectFile Step = iota + 1
	StepEnterDetails
	StepReviewAndSubmit
)

// Steps lists the wizard steps in display order.
var Steps = []Step{StepSelectFile, StepEnterDetails, StepReviewAndSubmit}

// Valid reports whether s is one of the three wizard steps.
func (s Step) Valid() bool {
	return s >= StepSelectFile && s <= StepReviewAndSubmit
}

// Title is the progress-bar label for the step.
func (s Step) Title() string {
	switch s {
	case StepSelectFile:
		return "Upload File"
	case StepEnterDetails:
		return "Add Details"
	case StepReviewAndSubmit:
		return "Preview & Submit"
	default:
		return ""
	}
}

// Completed reports whether s is behind current in the flow.
func (s Step) Completed(current Step) bool {
	return current > s
}

func (s Step) String() string {
	switch s {
	case StepSelectFile:
		return "select_file"
	case StepEnterDetails:
		return "enter_details"
	case StepReviewAndSubmit:
		return "review_and_submit"
	default:
		return "step(" + strconv.Itoa(int(s)) + ")"
	}
}

// Event is a user action or outcome that may move the wizard.
type Event int

const (
	EventPDFSelected Event = iota + 1
	EventFileRejected
	EventBack
	EventNext
	EventSubmitFailed
)

func (e Event) String() string {
	switch e {
	case EventPDFSelected:
		return "pdf_selected"
	case EventFileRejected:
		return "file_rejected"
	case EventBack:
		return "back"
	case EventNext:
		return "next"
	case EventSubmitFailed:
		return "submit_failed"
	default:
		return "event(" + strconv.Itoa(int(e)) + ")"
	}
}

// Transition returns the step that follows s after ev. Pairs without a
// transition leave the step unchanged.
func Transition(s Step, ev Event) Step {
	switch s {
	case StepSelectFile:
		if ev == EventPDFSelected {
			return StepEnterDetails
		}
	case StepEnterDetails:
		switch ev {
		case EventBack:
			return StepSelectFile
		case EventNext:
			return StepReviewAndSubmit
		}
	case StepReviewAndSubmit:
		if ev == EventBack {
			return StepEnterDetails
		}
	}
	return s
}
