package gate

import (
	"strings"

	"github.com/Sentinel-Gate/awaymail/internal/config"
	"github.com/Sentinel-Gate/awaymail/internal/domain/resolve"
	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
)

// BuildMail assembles the forwarded mail from the resolved parties and the
// chat body. A template that is empty in s yields a nil body variant.
func BuildMail(recipient, sender resolve.Identity, s config.Settings, body string) outbound.Mail {
	return outbound.Mail{
		ToName:    recipient.Name,
		ToEmail:   recipient.Email,
		FromName:  sender.Name,
		FromEmail: sender.Email,
		Subject:   s.Subject,
		PlainBody: render(s.PlainBody, body),
		HTMLBody:  render(s.HTMLBody, body),
	}
}

func render(tmpl, body string) *string {
	if tmpl == "" {
		return nil
	}
	out := strings.ReplaceAll(tmpl, config.BodyPlaceholder, body)
	return &out
}
