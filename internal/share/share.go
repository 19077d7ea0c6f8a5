// Package share builds WhatsApp hand-off links for finished reports.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrEmptyAddress indicates no destination number was resolved.
var ErrEmptyAddress = errors.New("share destination number is empty")

// Contact is a named WhatsApp destination.
type Contact struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// MessageText composes the message accompanying the shared report.
func MessageText(branchName, date string) string {
	branchName = strings.TrimSpace(branchName)
	if branchName == "" {
		branchName = "the branch"
	}
	return fmt.Sprintf("Shortage report for %s dated %s is ready.", branchName, date)
}

// WhatsAppLink builds a wa.me deep link carrying the report message.
// The number keeps digits only, so formatted input like "+966 5x xxx"
// still resolves.
func WhatsAppLink(number, branchName, date string) (string, error) {
	digits := digitsOnly(number)
	if digits == "" {
		return "", ErrEmptyAddress
	}
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(MessageText(branchName, date)), nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
