package response

// Response is the envelope every endpoint answers with.
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success wraps a payload in the success envelope.
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Message wraps a plain confirmation text, for endpoints with no payload.
func Message(statusCode int, msg string) Response {
	return Success(statusCode, map[string]string{"message": msg})
}

// Error wraps an error message in the error envelope.
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}
