package service

import (
    "fmt"
    "io"
    "log"

    "gopkg.in/gomail.v2"

    "eventia/internal/config"
    "eventia/internal/model"
)

// SMTPNotifier sends mail through an SMTP relay using gomail.  One
// dialer is reused; gomail opens a fresh connection per send, which is
// fine for the low volume of confirmations and reminders.
type SMTPNotifier struct {
    dialer *gomail.Dialer
    from   string
}

// LogNotifier is the fallback used when SMTP is not configured: it
// prints the message to the process log so local development still shows
// what would have been sent.
type LogNotifier struct{}

// NewNotifier picks the SMTP implementation when the config carries an
// SMTP host, and the log fallback otherwise.
func NewNotifier(cfg config.Config) Notifier {
    if cfg.SMTPHost == "" {
        log.Println("smtp config missing; falling back to log-only notifier")
        return LogNotifier{}
    }
    return &SMTPNotifier{
        dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
        from:   cfg.EmailFrom,
    }
}

// Send delivers one email.  html may be empty, in which case a minimal
// HTML alternative is derived from the text body.
func (n *SMTPNotifier) Send(to, subject, text, html string, attachments []Attachment) error {
    m := gomail.NewMessage()
    m.SetHeader("From", n.from)
    m.SetHeader("To", to)
    m.SetHeader("Subject", subject)
    m.SetBody("text/plain", text)
    if html == "" {
        html = "<p>" + text + "</p>"
    }
    m.AddAlternative("text/html", html)
    for _, a := range attachments {
        content := a.Content
        m.Attach(a.Filename,
            gomail.SetCopyFunc(func(w io.Writer) error {
                _, err := w.Write(content)
                return err
            }),
            gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
        )
    }
    return n.dialer.DialAndSend(m)
}

// Send logs the message instead of delivering it.
func (LogNotifier) Send(to, subject, text, _ string, _ []Attachment) error {
    log.Printf("[email mock] to=%s subject=%q\n%s", to, subject, text)
    return nil
}

// ConfirmationEmail renders the booking confirmation subject and bodies.
func ConfirmationEmail(u model.User, ev model.Event, b model.Booking) (subject, text, html string) {
    name := u.Name
    if name == "" {
        name = "there"
    }
    total := float64(b.TotalPriceCents) / 100
    subject = "Booking confirmed"
    text = fmt.Sprintf("Your booking for %s is confirmed. Qty: %d, total: %.2f",
        ev.Title, b.Quantity, total)
    html = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; color: #222;">
  <h2 style="margin-bottom:8px;">Booking confirmed</h2>
  <p style="margin:4px 0;">Hi %s,</p>
  <p style="margin:4px 0;">Your booking is confirmed.</p>
  <ul style="padding-left:16px;">
    <li><strong>Event:</strong> %s</li>
    <li><strong>When:</strong> %s - %s</li>
    <li><strong>Where:</strong> %s</li>
    <li><strong>Tickets:</strong> %d</li>
    <li><strong>Total:</strong> %.2f</li>
  </ul>
  <p style="margin:4px 0;">Add it to your calendar with the attached invite.</p>
  <p style="margin:12px 0 0 0;">Thanks for booking with Eventia.</p>
</div>`,
        name, ev.Title,
        ev.StartTime.UTC().Format("Jan 2, 2006 15:04 MST"),
        ev.EndTime.UTC().Format("Jan 2, 2006 15:04 MST"),
        ev.Location, b.Quantity, total)
    return subject, text, html
}

// ReminderEmail renders the event reminder subject and bodies.
func ReminderEmail(name string, ev model.Event, b model.Booking) (subject, text, html string) {
    if name == "" {
        name = "there"
    }
    subject = fmt.Sprintf("Reminder: %s starts soon", ev.Title)
    text = fmt.Sprintf("Your event %s starts at %s. You have %d ticket(s).",
        ev.Title, ev.StartTime.UTC().Format("Jan 2, 2006 15:04 MST"), b.Quantity)
    html = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; color: #222;">
  <h2 style="margin-bottom:8px;">Your event starts soon</h2>
  <p style="margin:4px 0;">Hi %s,</p>
  <ul style="padding-left:16px;">
    <li><strong>Event:</strong> %s</li>
    <li><strong>When:</strong> %s</li>
    <li><strong>Where:</strong> %s</li>
    <li><strong>Tickets:</strong> %d</li>
  </ul>
  <p style="margin:12px 0 0 0;">See you there!</p>
</div>`,
        name, ev.Title,
        ev.StartTime.UTC().Format("Jan 2, 2006 15:04 MST"),
        ev.Location, b.Quantity)
    return subject, text, html
}
