package transport

// TaskCreateRequest is the POST /tasks body. Status defaults to pending.
type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// TaskUpdateRequest is the PATCH /tasks/{id} body. Only fields present in the
// payload are applied.
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}
