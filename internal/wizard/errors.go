package wizard

import "errors"

var (
	ErrMissingFile      = errors.New("no file attached")
	ErrMissingFields    = errors.New("required fields are empty")
	ErrMalformedSession = errors.New("session is missing or malformed")
	ErrUploadFailed     = errors.New("upload failed")
	ErrSubmitInProgress = errors.New("submit already in progress")
	ErrInvalidUnit      = errors.New("unit must be one of 1-5")
	ErrDiscarded        = errors.New("wizard discarded")
)

// Fallback shown when the backend gives no message.
const FallbackUploadMessage = "File might be too large to upload"

// User-facing notification texts.
const (
	MessageMissingFile      = "Please upload a file"
	MessageMissingFields    = "Please fill all the fields"
	MessageMalformedSession = "Your session has expired, please sign in again"
	MessageNotPDF           = "Only PDF files can be uploaded"
)

// UploadError is a failed notes POST. Message is what the user was shown.
type UploadError struct {
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return "upload failed: " + e.Message
	}
	return "upload failed: " + e.Message + ": " + e.Err.Error()
}

func (e *UploadError) Unwrap() error { return e.Err }

// Is makes every UploadError match ErrUploadFailed.
func (e *UploadError) Is(target error) bool { return target == ErrUploadFailed }

// Kind classifies submit failures.
type Kind int

const (
	KindNone Kind = iota
	KindMissingFile
	KindMissingFields
	KindMalformedSession
	KindUpload
	KindBusy
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindMissingFile:
		return "missing_file"
	case KindMissingFields:
		return "missing_fields"
	case KindMalformedSession:
		return "malformed_session"
	case KindUpload:
		return "upload_failed"
	case KindBusy:
		return "in_progress"
	default:
		return "other"
	}
}

// KindOf maps an error returned by Submit to its Kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingFile):
		return KindMissingFile
	case errors.Is(err, ErrMissingFields):
		return KindMissingFields
	case errors.Is(err, ErrMalformedSession):
		return KindMalformedSession
	case errors.Is(err, ErrUploadFailed):
		return KindUpload
	case errors.Is(err, ErrSubmitInProgress):
		return KindBusy
	default:
		return KindOther
	}
}
