package domain

// Result is the envelope returned by every consumer-facing operation:
// either Data on success, or Error (with an optional HTTP-like Status) on failure.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Status  int    `json:"status,omitempty"`
}

// Ok wraps a successful payload
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: &data}
}

// Fail wraps an error with its status
func Fail[T any](err error, status int) Result[T] {
	return Result[T]{Success: false, Error: err.Error(), Status: status}
}
