package handler

// ErrorResponse is the envelope of every API error.
type ErrorResponse struct {
	Detail string `json:"detail" example:"Transaction not found"`
}
