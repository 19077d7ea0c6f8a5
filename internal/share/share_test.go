package share

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestWhatsAppLink(t *testing.T) {
	link, err := WhatsAppLink("+966 50 123 4567", "Riyadh Exit 9", "2025-03-14")
	if err != nil {
		t.Fatalf("WhatsAppLink failed: %v", err)
	}
	if !strings.HasPrefix(link, "https://wa.me/966501234567?text=") {
		t.Errorf("link = %q, want wa.me prefix with digits-only number", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	text := u.Query().Get("text")
	if !strings.Contains(text, "Riyadh Exit 9") || !strings.Contains(text, "2025-03-14") {
		t.Errorf("message text = %q, missing branch or date", text)
	}
}

func TestWhatsAppLinkEmptyNumber(t *testing.T) {
	for _, number := range []string{"", "   ", "+- ()"} {
		if _, err := WhatsAppLink(number, "Dammam", "2025-03-14"); !errors.Is(err, ErrEmptyAddress) {
			t.Errorf("number %q: err = %v, want ErrEmptyAddress", number, err)
		}
	}
}

func TestMessageTextBlankBranch(t *testing.T) {
	got := MessageText("  ", "2025-03-14")
	if !strings.Contains(got, "the branch") {
		t.Errorf("message = %q, want placeholder branch name", got)
	}
}
