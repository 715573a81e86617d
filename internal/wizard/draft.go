package wizard

import "strings"

// Units is the closed set offered by the unit selector.
var Units = []string{"1", "2", "3", "4", "5"}

// Draft is the in-progress upload. Empty strings mean "unset".
type Draft struct {
	File        *File
	Title       string
	Subject     string
	Faculty     string
	Description string
	Unit        string
	Sem         string
}

// Details are the step-two form fields.
type Details struct {
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Faculty     string `json:"faculty"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Sem         string `json:"sem"`
}

// NewDraft builds a draft from a file and form fields.
func NewDraft(f *File, d Details) Draft {
	draft := Draft{File: f}
	draft.apply(d)
	return draft
}

// Details returns the form fields of the draft.
func (d Draft) Details() Details {
	return Details{
		Title:       d.Title,
		Subject:     d.Subject,
		Faculty:     d.Faculty,
		Description: d.Description,
		Unit:        d.Unit,
		Sem:         d.Sem,
	}
}

// MissingFields names the required text fields that are still empty.
func (d Draft) MissingFields() []string {
	var missing []string
	if d.Title == "" {
		missing = append(missing, "title")
	}
	if d.Subject == "" {
		missing = append(missing, "subject")
	}
	if d.Unit == "" {
		missing = append(missing, "unit")
	}
	if d.Description == "" {
		missing = append(missing, "description")
	}
	return missing
}

// ValidUnit reports whether u is empty or one of Units.
func ValidUnit(u string) bool {
	if u == "" {
		return true
	}
	for _, allowed := range Units {
		if u == allowed {
			return true
		}
	}
	return false
}

func (d *Draft) apply(in Details) {
	d.Title = in.Title
	d.Subject = in.Subject
	d.Faculty = in.Faculty
	d.Description = in.Description
	d.Unit = strings.TrimSpace(in.Unit)
	d.Sem = in.Sem
}

// Review is what the final step shows before submitting.
type Review struct {
	FileName    string
	PageCount   int
	Excerpt     string
	Title       string
	Subject     string
	Faculty     string
	Unit        string
	Sem         string
	Description string
}
