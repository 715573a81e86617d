package uploads

import (
	"time"

	"notes-upload/internal/wizard"
)

// StateResponse is the outward-facing wizard state.
type StateResponse struct {
	ID         string          `json:"id"`
	Step       int             `json:"step"`
	StepTitle  string          `json:"stepTitle"`
	Steps      []StepResponse  `json:"steps"`
	DragActive bool            `json:"dragActive"`
	Draft      wizard.Details  `json:"draft"`
	File       *FileResponse   `json:"file,omitempty"`
	Toasts     []ToastResponse `json:"toasts"`
	Redirect   string          `json:"redirect,omitempty"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// StepResponse drives the progress indicator.
type StepResponse struct {
	Step      int    `json:"step"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
}

type FileResponse struct {
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	PageCount int    `json:"pageCount,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
}

type ToastResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Position    string `json:"position"`
	AutoCloseMs int64  `json:"autoCloseMs"`
}

func toResponse(st State) StateResponse {
	rec := st.Record
	resp := StateResponse{
		ID:        rec.ID,
		Step:      int(rec.Step),
		StepTitle: rec.Step.Title(),
		Draft:     rec.Details,
		Toasts:    make([]ToastResponse, 0, len(st.Toasts)),
		Redirect:  st.Redirect,
		UpdatedAt: rec.UpdatedAt,
	}
	for _, s := range wizard.Steps {
		resp.Steps = append(resp.Steps, StepResponse{
			Step:      int(s),
			Title:     s.Title(),
			Completed: s.Completed(rec.Step),
			Current:   s == rec.Step,
		})
	}
	if f := rec.File; f != nil {
		resp.File = &FileResponse{
			Name:      f.Name,
			MimeType:  f.MimeType,
			SizeBytes: f.SizeBytes,
			PageCount: f.PageCount,
			Excerpt:   f.Excerpt,
		}
	}
	for _, n := range st.Toasts {
		resp.Toasts = append(resp.Toasts, ToastResponse{
			Type:        string(n.Level),
			Message:     n.Message,
			Position:    n.Position,
			AutoCloseMs: n.AutoClose.Milliseconds(),
		})
	}
	return resp
}
