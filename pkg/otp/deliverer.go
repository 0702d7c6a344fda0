package otp

import (
	"context"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/request"
)

// Deliverer sends the code to the subject and returns a delivery proof
type Deliverer interface {
	Deliver(ctx context.Context, subject string, code string) (string, error)
}

type logDeliverer struct {
	logger diag.Logger
}

func (d *logDeliverer) Deliver(ctx context.Context, subject string, code string) (string, error) {
	proof := "log-" + uuid.NewV4().String()
	d.logger.
		WithData(diag.MsgData{"subject": subject, "code": code}).
		Info(ctx, "One-time code delivered (%v)", proof)
	return proof, nil
}

// NewLogDeliverer creates a deliverer that writes codes to the log.
// For dev environments only
func NewLogDeliverer() Deliverer {
	return &logDeliverer{logger: logger}
}

type gatewayMessage struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

type gatewayReceipt struct {
	MessageID string `json:"messageId"`
}

type gatewayDeliverer struct {
	url   string
	token string
}

func (d *gatewayDeliverer) Deliver(ctx context.Context, subject string, code string) (string, error) {
	var receipt gatewayReceipt
	err := request.Do(ctx,
		request.PostJSON(d.url, gatewayMessage{
			Recipient: subject,
			Message:   "Your confirmation code is " + code,
		}),
		request.WithHeader("Authorization", "Bearer "+d.token),
	).DecodeJSON(&receipt)
	if err != nil {
		return "", errors.Wrap(err, "Gateway rejected the message")
	}
	if receipt.MessageID == "" {
		return "", errors.New("Gateway did not return message id")
	}
	return receipt.MessageID, nil
}

// NewGatewayDeliverer creates a deliverer that posts codes to a messaging gateway
func NewGatewayDeliverer(url string, token string) Deliverer {
	return &gatewayDeliverer{url: url, token: token}
}
