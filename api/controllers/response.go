package controllers

// APIResponse is the uniform JSON envelope for all API endpoints.
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"ok"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse wraps list results with paging metadata.
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"ok"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse builds a status-0 envelope.
func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: 0, Msg: msg, Data: data}
}

// SuccessPaginatedResponse builds a status-0 envelope with paging metadata.
func SuccessPaginatedResponse(msg string, data interface{}, total int64, page, size int) *PaginatedResponse {
	return &PaginatedResponse{Status: 0, Msg: msg, Data: data, Total: total, Page: page, Size: size}
}

// BadRequestResponse builds a validation failure envelope.
func BadRequestResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: 400, Msg: msg, Data: data}
}

// NotFoundResponse builds a missing-resource envelope.
func NotFoundResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: 404, Msg: msg, Data: data}
}

// ConflictResponse builds a duplicate-resource envelope.
func ConflictResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: 409, Msg: msg, Data: data}
}

// InternalErrorResponse builds a server failure envelope. The error is logged
// by the caller; only the message reaches the client.
func InternalErrorResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: 500, Msg: msg, Data: data}
}
