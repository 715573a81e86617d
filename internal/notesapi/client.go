package notesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"notes-upload/internal/shared/telemetry"
)

const addNotesPath = "/notes/addNotes"

// AddNotesRequest is one notes submission. File is streamed as the "file" part.
type AddNotesRequest struct {
	FileName    string
	FileType    string
	File        io.Reader
	Title       string
	Sem         string
	UserID      string
	Subject     string
	Unit        string
	Format      string
	Description string
	Faculty     string
}

// Client posts notes to the notes backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for baseURL. A zero timeout leaves the
// request bounded only by ctx.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid BACKEND_URL %q: %w", base, err)
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// WithHTTPClient swaps the underlying transport client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// AddNotes sends req as multipart/form-data with a bearer token. A 2xx
// response body is returned as-is; other statuses yield an *APIError.
func (c *Client) AddNotes(ctx context.Context, token string, req AddNotesRequest) (json.RawMessage, error) {
	if req.File == nil {
		return nil, errors.New("notesapi: file is required")
	}
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, fmt.Errorf("notesapi: encode form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+addNotesPath, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		telemetry.Error("notesapi.add_notes.transport_failed", map[string]any{
			"err":       err.Error(),
			"file_name": req.FileName,
		})
		return nil, fmt.Errorf("notesapi: post %s: %w", addNotesPath, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("notesapi: read response: %w", err)
	}

	fields := map[string]any{
		"status":      resp.StatusCode,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
		"file_name":   req.FileName,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: messageFromBody(raw), Body: raw}
		fields["message"] = apiErr.Message
		telemetry.Error("notesapi.add_notes.failed", fields)
		return nil, apiErr
	}
	telemetry.Info("notesapi.add_notes.ok", fields)
	return json.RawMessage(raw), nil
}

// formFields lists the text parts in the order the backend expects them.
func formFields(req AddNotesRequest) [][2]string {
	return [][2]string{
		{"title", req.Title},
		{"sem", req.Sem},
		{"userId", req.UserID},
		{"subject", req.Subject},
		{"unit", req.Unit},
		{"format", req.Format},
		{"description", req.Description},
		{"faculty", req.Faculty},
	}
}

func encodeForm(req AddNotesRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fileType := req.FileType
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(req.FileName)))
	h.Set("Content-Type", fileType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return nil, "", fmt.Errorf("copy file: %w", err)
	}

	for _, kv := range formFields(req) {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
