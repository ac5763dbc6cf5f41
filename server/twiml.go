package server

import (
	"encoding/xml"
	"net/http"
)

// twimlResponse is the minimal TwiML document Twilio expects back from a
// messaging webhook.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func writeTwiML(w http.ResponseWriter, message string) {
	body, err := xml.MarshalIndent(twimlResponse{Message: message}, "", "  ")
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(body)
	w.Write([]byte("\n"))
}
