package helpers

import (
	"encoding/json"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Response: общий конверт ответов API.
type Response struct {
	Status     string `json:"status"`
	Token      string `json:"token,omitempty"`
	ResetToken string `json:"resetToken,omitempty"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		return
	}
}

func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Response{Status: StatusSuccess, Data: data})
}

func Error(w http.ResponseWriter, status int, errMsg string) {
	JSON(w, status, Response{Status: StatusFail, Error: errMsg})
}
