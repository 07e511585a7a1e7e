package transport

// ErrorResponse is the uniform error body. Message stays short and never
// carries internal detail.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
