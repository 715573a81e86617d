package wizard

import "testing"

func TestTransition(t *testing.T) {
	tests := []struct {
		name string
		from Step
		ev   Event
		want Step
	}{
		{name: "pdf advances", from: StepSelectFile, ev: EventPDFSelected, want: StepEnterDetails},
		{name: "rejected stays", from: StepSelectFile, ev: EventFileRejected, want: StepSelectFile},
		{name: "no back from first", from: StepSelectFile, ev: EventBack, want: StepSelectFile},
		{name: "no skip from first", from: StepSelectFile, ev: EventNext, want: StepSelectFile},
		{name: "details back", from: StepEnterDetails, ev: EventBack, want: StepSelectFile},
		{name: "details next", from: StepEnterDetails, ev: EventNext, want: StepReviewAndSubmit},
		{name: "pdf on details stays", from: StepEnterDetails, ev: EventPDFSelected, want: StepEnterDetails},
		{name: "review back", from: StepReviewAndSubmit, ev: EventBack, want: StepEnterDetails},
		{name: "review next stays", from: StepReviewAndSubmit, ev: EventNext, want: StepReviewAndSubmit},
		{name: "submit failure stays", from: StepReviewAndSubmit, ev: EventSubmitFailed, want: StepReviewAndSubmit},
		{name: "pdf on review stays", from: StepReviewAndSubmit, ev: EventPDFSelected, want: StepReviewAndSubmit},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Transition(tt.from, tt.ev); got != tt.want {
				t.Fatalf("Transition(%s, %s) = %s, want %s", tt.from, tt.ev, got, tt.want)
			}
		})
	}
}

func TestStepTitles(t *testing.T) {
	want := []string{"Upload File", "Add Details", "Preview & Submit"}
	for i, s := range Steps {
		if s.Title() != want[i] {
			t.Fatalf("step %d title = %q, want %q", s, s.Title(), want[i])
		}
	}
	if !StepSelectFile.Completed(StepEnterDetails) {
		t.Fatalf("expected step 1 completed while on step 2")
	}
	if StepEnterDetails.Completed(StepEnterDetails) {
		t.Fatalf("current step must not be completed")
	}
	if Step(0).Valid() || Step(4).Valid() {
		t.Fatalf("out of range steps must be invalid")
	}
}

func TestValidUnit(t *testing.T) {
	for _, u := range []string{"", "1", "2", "3", "4", "5"} {
		if !ValidUnit(u) {
			t.Fatalf("expected %q to be valid", u)
		}
	}
	for _, u := range []string{"0", "6", "one", " 3"} {
		if ValidUnit(u) {
			t.Fatalf("expected %q to be invalid", u)
		}
	}
}

func TestKindOf(t *testing.T) {
	upErr := &UploadError{Message: "Too large"}
	if KindOf(upErr) != KindUpload {
		t.Fatalf("UploadError should be KindUpload")
	}
	if KindOf(nil) != KindNone {
		t.Fatalf("nil should be KindNone")
	}
	if KindOf(ErrSubmitInProgress) != KindBusy {
		t.Fatalf("in-progress should be KindBusy")
	}
}
