package mailer

import (
	"bytes"
	"html/template"

	"github.com/creostudios/backend/pkg/models"
)

var otpTmpl = template.Must(template.New("otp").Parse(`<html>
  <body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
      <h1 style="color: #7c3aed; text-align: center;">Creo Studios</h1>
      <h2 style="color: #333;">Email Verification</h2>
      <p style="color: #555; font-size: 16px;">Hello!</p>
      <p style="color: #555; font-size: 16px;">Thank you for registering with Creo Studios. Your One-Time Password (OTP) is:</p>
      <div style="background-color: #7c3aed; color: white; font-size: 32px; font-weight: bold; text-align: center; padding: 20px; border-radius: 8px; letter-spacing: 8px; margin: 20px 0;">{{.Code}}</div>
      <p style="color: #555; font-size: 14px;">This OTP is valid for {{.ExpiryMinutes}} minutes.</p>
      <p style="color: #555; font-size: 14px;">If you didn't request this, please ignore this email.</p>
    </div>
  </body>
</html>`))

var statusTmpl = template.Must(template.New("status").Parse(`<html>
  <body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
      <h1 style="color: #7c3aed; text-align: center;">Creo Studios</h1>
      <p style="color: #555; font-size: 16px;">Hello {{.ClientName}},</p>
      <p style="color: #555; font-size: 16px;">Your {{.ServiceType}} request has been <strong>{{.Status}}</strong>.</p>
      {{if eq .Status "accepted"}}<p style="color: #555; font-size: 14px;">We will start working on your project right away.</p>{{end}}
      {{if eq .Status "rejected"}}<p style="color: #555; font-size: 14px;">Unfortunately we cannot take this project on at the moment.</p>{{end}}
    </div>
  </body>
</html>`))

var deliveryTmpl = template.Must(template.New("delivery").Parse(`<html>
  <body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
      <h1 style="color: #7c3aed; text-align: center;">Creo Studios</h1>
      <p style="color: #555; font-size: 16px;">Hello {{.ClientName}},</p>
      <p style="color: #555; font-size: 16px;">Your {{.ServiceType}} project has been delivered!</p>
      <ul style="color: #555; font-size: 14px;">
        {{if .DeliveryFileURL}}<li><a href="{{.DeliveryFileURL}}">Final deliverable</a></li>{{end}}
        {{if .DeliveryAPKURL}}<li><a href="{{.DeliveryAPKURL}}">APK download</a></li>{{end}}
        {{if .DeliveryGithubURL}}<li><a href="{{.DeliveryGithubURL}}">Source repository</a></li>{{end}}
        {{if .DeliveryDeployedURL}}<li><a href="{{.DeliveryDeployedURL}}">Live site</a></li>{{end}}
      </ul>
      {{if .DeliveryNotes}}<p style="color: #555; font-size: 14px;">{{.DeliveryNotes}}</p>{{end}}
    </div>
  </body>
</html>`))

func renderOTP(code string, expiryMinutes int) (string, error) {
	var buf bytes.Buffer
	err := otpTmpl.Execute(&buf, struct {
		Code          string
		ExpiryMinutes int
	}{code, expiryMinutes})
	return buf.String(), err
}

func renderStatus(app *models.Application) (string, error) {
	var buf bytes.Buffer
	err := statusTmpl.Execute(&buf, app)
	return buf.String(), err
}

func renderDelivery(app *models.Application) (string, error) {
	var buf bytes.Buffer
	err := deliveryTmpl.Execute(&buf, app)
	return buf.String(), err
}
