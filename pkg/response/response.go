package response

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Status  int         `json:"status"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// ProxyErrorBody is the body the proxy answers with when the upstream call
// cannot be made or fails.
type ProxyErrorBody struct {
	Error    string          `json:"error"`
	Message  string          `json:"message"`
	EnvCheck map[string]bool `json:"env_check,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func Success(w http.ResponseWriter, data interface{}, message string) {

	JSON(w, http.StatusOK, APIResponse{
		Status:  http.StatusOK,
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, statusCode int, message string, errs interface{}) {
	JSON(w, statusCode, APIResponse{
		Status:  statusCode,
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

// Raw writes an already encoded JSON document unchanged.
func Raw(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}

// Plain writes v as JSON without the APIResponse envelope.
func Plain(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// ProxyError answers 500 with {error, message}.
func ProxyError(w http.ResponseWriter, action string, err error, envCheck map[string]bool) {
	Plain(w, http.StatusInternalServerError, ProxyErrorBody{
		Error:    "Failed to " + action,
		Message:  err.Error(),
		EnvCheck: envCheck,
	})
}
