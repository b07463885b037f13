// file: service/sms.go

package service

import (
	"context"
	"go-trustbank/logger"

	"github.com/sirupsen/logrus"
)

// SMSSender is the out-of-band delivery channel for verification codes.
// Delivery failure is reported to the caller but never rolls back the
// verification record that was created for the code.
type SMSSender interface {
	Send(ctx context.Context, mobileNumber, message string) error
}

// LogSMSSender writes the message to the application log instead of a real
// gateway. Used in development and as the default provider.
type LogSMSSender struct{}

func NewLogSMSSender() *LogSMSSender {
	return &LogSMSSender{}
}

func (s *LogSMSSender) Send(ctx context.Context, mobileNumber, message string) error {
	logger.Log.WithFields(logrus.Fields{
		"mobile_number": mobileNumber,
		"message":       message,
	}).Info("SMS delivery (log provider)")
	return nil
}
