package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"cleanservice/internal/domain"
)

var layout = template.Must(template.New("layout").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<h2>{{.Heading}}</h2>
{{.Body}}
<p style="color:#6b7280;font-size:12px">This is an automated message from the cleaning service team.</p>
</body></html>`))

var bodies = template.Must(template.New("bodies").Parse(`
{{define "booking_verification"}}
<p>Hi {{.Booking.Name}},</p>
<p>Thanks for booking <strong>{{.Booking.ServiceType}}</strong> on {{.Booking.PreferredDate}} at {{.Booking.PreferredTime}}.</p>
<p>Please confirm your email address within 24 hours:</p>
<p><a href="{{.URL}}">Verify my booking</a></p>
{{end}}
{{define "booking_confirmation"}}
<p>Hi {{.Booking.Name}},</p>
<p>Your booking #{{.Booking.ID}} for <strong>{{.Booking.ServiceType}}</strong> is confirmed.</p>
<p>Date: {{.Booking.PreferredDate}}<br>Time: {{.Booking.PreferredTime}}<br>Address: {{.Booking.Address}}</p>
{{end}}
{{define "new_customer_alert"}}
<p>A new customer has registered.</p>
<p>Name: {{.User.Name}}<br>Email: {{.User.Email}}<br>Phone: {{.User.Phone}}</p>
{{end}}
{{define "new_booking_alert"}}
<p>Booking #{{.Booking.ID}} was placed by {{.Booking.Name}} ({{.Booking.Email}}).</p>
<p>Service: {{.Booking.ServiceType}}<br>Date: {{.Booking.PreferredDate}} {{.Booking.PreferredTime}}</p>
{{end}}
{{define "staff_verification"}}
<p>Hi {{.Staff.Name}},</p>
<p>Please verify your email address to continue your application:</p>
<p><a href="{{.URL}}">Verify my email</a></p>
{{end}}
{{define "staff_approval"}}
<p>Hi {{.Staff.Name}},</p>
{{if eq .Staff.ApprovalStatus "approved"}}<p>Your application has been approved. You can now sign in.</p>
{{else}}<p>Unfortunately your application was not approved.{{if .Staff.RejectionReason}} Reason: {{.Staff.RejectionReason}}{{end}}</p>{{end}}
{{end}}
{{define "assignment"}}
<p>You have a new assignment for booking #{{.Booking.ID}}.</p>
<p>Service: {{.Booking.ServiceType}}<br>Date: {{.Booking.PreferredDate}} {{.Booking.PreferredTime}}<br>Address: {{.Booking.Address}}</p>
{{end}}
`))

type templateData struct {
	Booking *domain.Booking
	User    *domain.User
	Staff   *domain.Staff
	URL     string
}

func render(kind Kind, to, subject string, data templateData) (Message, error) {
	var body bytes.Buffer
	if err := bodies.ExecuteTemplate(&body, string(kind), data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", kind, err)
	}
	var page bytes.Buffer
	err := layout.Execute(&page, struct {
		Heading string
		Body    template.HTML
	}{Heading: subject, Body: template.HTML(body.String())})
	if err != nil {
		return Message{}, fmt.Errorf("render %s layout: %w", kind, err)
	}
	return Message{To: to, Subject: subject, HTML: page.String(), Kind: kind}, nil
}

func BookingVerification(b *domain.Booking, verifyURL string) (Message, error) {
	return render(KindBookingVerification, b.Email, "Please verify your booking", templateData{Booking: b, URL: verifyURL})
}

func BookingConfirmation(b *domain.Booking) (Message, error) {
	return render(KindBookingConfirmation, b.Email, "Your booking is confirmed", templateData{Booking: b})
}

func NewCustomerAlert(adminEmail string, u *domain.User) (Message, error) {
	return render(KindNewCustomerAlert, adminEmail, "New customer registered", templateData{User: u})
}

func NewBookingAlert(adminEmail string, b *domain.Booking) (Message, error) {
	return render(KindNewBookingAlert, adminEmail, fmt.Sprintf("New booking #%d", b.ID), templateData{Booking: b})
}

func StaffVerification(s *domain.Staff, verifyURL string) (Message, error) {
	return render(KindStaffVerification, s.Email, "Verify your email", templateData{Staff: s, URL: verifyURL})
}

func StaffApprovalDecision(s *domain.Staff) (Message, error) {
	subject := "Your application was not approved"
	if s.ApprovalStatus == domain.ApprovalApproved {
		subject = "Your application has been approved"
	}
	return render(KindStaffApproval, s.Email, subject, templateData{Staff: s})
}

func AssignmentNotice(to string, b *domain.Booking) (Message, error) {
	return render(KindAssignment, to, "New assignment", templateData{Booking: b})
}
