package emails

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary   = "#4F46E5"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
)

// EmailLayout wraps content in the shared HTML shell.
func EmailLayout(contentHTML string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>TeamHub</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 24px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 24px; margin: 0 0 20px 0; }
    .button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 32px; text-decoration: none; border-radius: 6px; font-weight: 600; }
    .footer-text { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr><td class="content-body" style="padding: 48px;">%s</td></tr>
          <tr><td align="center" style="padding: 0 48px 32px 48px;"><p class="footer-text">© %d TeamHub. All rights reserved.</p></td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, themeBgBody, themeTextMain, themePrimary, themeTextMuted, themeWhite, contentHTML, year)
}

func invitationContent(in Invite) string {
	expiry := "in 7 days"
	if !in.ExpiresAt.IsZero() {
		expiry = "on " + in.ExpiresAt.UTC().Format("January 2, 2006")
	}
	return fmt.Sprintf(`
    <h1>You've been invited to join %s</h1>
    <p>You have been invited to join <strong>%s</strong> on TeamHub as <strong>%s</strong>.</p>
    <center>
      <a href="%s" class="button">Accept invitation</a>
    </center>
    <p style="margin-top:20px;font-size:14px;color:#666;">
      This invitation expires %s. If you were not expecting it, you can ignore this email.
    </p>
`, html.EscapeString(in.OrgName), html.EscapeString(in.OrgName), html.EscapeString(in.Role), html.EscapeString(in.Link), expiry)
}
