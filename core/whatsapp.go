package core

import (
	"net/url"
	"strings"
)

// WhatsAppLink builds a wa.me link with a prefilled message.
// Numbers with at most 11 digits are assumed Brazilian and get the 55 country code.
func WhatsAppLink(phone, message string) string {
	digits := DigitsOnly(phone)
	if len(digits) <= 11 {
		digits = "55" + digits
	}
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}
