package types

// EmailData is the normalized payload handed to the message dispatcher.
// Optional fields are dropped by each provider before the vendor call.
type EmailData struct {
	To      string   `json:"to"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}
