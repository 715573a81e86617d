package uploads

import "errors"

var (
	ErrNotFound     = errors.New("upload not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrFileTooLarge = errors.New("file too large")
)
