// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// InviteEmailData holds the values rendered into an invite email.
type InviteEmailData struct {
	SiteName        string
	InviterName     string
	GroupName       string
	InviteLink      string
	PersonalMessage string // plain text; escaped by the template
	ExpiresIn       string // e.g. "7 days"
}

// BuildInviteEmail renders the group invitation with HTML and text bodies.
// To is left for the caller.
func BuildInviteEmail(data InviteEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("You're invited to join %s on %s", data.GroupName, data.SiteName),
		TextBody: buildInviteText(data),
		HTMLBody: buildInviteHTML(data),
	}
}

func buildInviteText(data InviteEmailData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s has invited you to join %s on %s.\n\n", data.InviterName, data.GroupName, data.SiteName)
	if data.PersonalMessage != "" {
		fmt.Fprintf(&buf, "\"%s\"\n\n", data.PersonalMessage)
	}
	buf.WriteString("Accept the invitation:\n")
	buf.WriteString(data.InviteLink + "\n\n")
	if data.ExpiresIn != "" {
		fmt.Fprintf(&buf, "This invitation expires in %s.\n\n", data.ExpiresIn)
	}
	buf.WriteString("If you weren't expecting this, you can safely ignore this email.\n")
	return buf.String()
}

var inviteHTML = template.Must(template.New("invite").Parse(inviteHTMLTemplate))

func buildInviteHTML(data InviteEmailData) string {
	var buf bytes.Buffer
	_ = inviteHTML.Execute(&buf, data)
	return buf.String()
}

const inviteHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Group Invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 600px; background-color: #ffffff; border: 1px solid #eeeeee; border-radius: 10px;">
          <tr>
            <td style="padding: 28px 32px 8px;">
              <h2 style="margin: 0; color: #3b82f6; letter-spacing: 0.5px;">{{.SiteName}} GROUP INVITATION</h2>
            </td>
          </tr>
          <tr>
            <td style="padding: 8px 32px; color: #374151; font-size: 15px; line-height: 1.5;">
              <p>Hello,</p>
              <p><strong>{{.InviterName}}</strong> has invited you to join <strong>{{.GroupName}}</strong>.</p>
              {{- if .PersonalMessage}}
              <p style="padding: 10px; background: #f9f9f9; border-left: 4px solid #3b82f6;">{{.PersonalMessage}}</p>
              {{- end}}
            </td>
          </tr>
          <tr>
            <td align="center" style="padding: 24px 32px;">
              <a href="{{.InviteLink}}" style="background: #3b82f6; color: #ffffff; padding: 12px 24px; text-decoration: none; border-radius: 5px; font-weight: bold;">JOIN GROUP</a>
            </td>
          </tr>
          <tr>
            <td style="padding: 8px 32px 28px; font-size: 12px; color: #666666;">
              {{- if .ExpiresIn}}
              <p>This invitation expires in {{.ExpiresIn}}.</p>
              {{- end}}
              <p>If you weren't expecting this, you can safely ignore this email.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`
