package httpapi

import (
	"net/http"
)

type apiErrorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code string, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	writeJSON(w, status, apiErrorBody{Error: apiError{Code: code, Message: message, Details: details}})
}

// UCP acknowledgement envelope returned to webhook senders.

type ackBody struct {
	Message ackMessage `json:"message"`
	Error   *ackError  `json:"error,omitempty"`
}

type ackMessage struct {
	Ack ackStatus `json:"ack"`
}

type ackStatus struct {
	Status string `json:"status"`
}

type ackError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeACK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, ackBody{Message: ackMessage{Ack: ackStatus{Status: "ACK"}}})
}

func writeNACK(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, ackBody{
		Message: ackMessage{Ack: ackStatus{Status: "NACK"}},
		Error:   &ackError{Type: "INTERNAL-ERROR", Code: "500", Message: message},
	})
}
