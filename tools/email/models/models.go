package models

// Message is one transactional email.
type Message struct {
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	ToEmail     string `json:"to_email"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"html_content"`
}
