// Package sms dispatches one-time passcodes to phone numbers. Dispatch is
// best-effort: a failure never invalidates the issued code, the user can
// always request a resend.
package sms

import (
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Sender delivers an OTP code to a phone number.
type Sender interface {
	SendOTP(phone, code string) error
}

// TwilioSender sends codes over SMS via the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds a sender using the given account credentials.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

func (s *TwilioSender) SendOTP(phone, code string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf("Your MediTrack verification code is: %s\n\nThis code will expire in 10 minutes.", code))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}

// LogSender is the operational fallback when Twilio is not configured: the
// code is written to the server log instead of being sent.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) SendOTP(phone, code string) error {
	s.Logger.Info("OTP issued (SMS not configured)",
		zap.String("phone", phone),
		zap.String("code", code))
	return nil
}
