// internal/provider/whatsapp.go
package provider

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
)

// SenderInterface is the outbound leg of the Meta Graph API. The access token
// is passed per call: tokens belong to tenants, not to the client.
type SenderInterface interface {
	SendText(ctx context.Context, phoneNumberID, to, body, accessToken string) (string, error)
	SendTemplate(ctx context.Context, phoneNumberID, to, templateName, languageCode, accessToken string) (string, error)
}

type WhatsAppClient struct {
	http   *resty.Client
	logger *zap.Logger
}

type sendRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textPayload     `json:"text,omitempty"`
	Template         *templatePayload `json:"template,omitempty"`
}

type textPayload struct {
	Body string `json:"body"`
}

type templatePayload struct {
	Name     string `json:"name"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func NewWhatsAppClient(baseURL string, logger *zap.Logger) *WhatsAppClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WhatsAppClient{http: client, logger: logger}
}

func (c *WhatsAppClient) SendText(ctx context.Context, phoneNumberID, to, body, accessToken string) (string, error) {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textPayload{Body: body},
	}
	return c.send(ctx, phoneNumberID, accessToken, req)
}

func (c *WhatsAppClient) SendTemplate(ctx context.Context, phoneNumberID, to, templateName, languageCode, accessToken string) (string, error) {
	tpl := &templatePayload{Name: templateName}
	tpl.Language.Code = languageCode
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template:         tpl,
	}
	return c.send(ctx, phoneNumberID, accessToken, req)
}

func (c *WhatsAppClient) send(ctx context.Context, phoneNumberID, accessToken string, body sendRequest) (string, error) {
	var result sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(body).
		SetResult(&result).
		Post("/" + phoneNumberID + "/messages")
	if err != nil {
		return "", appErrors.NewProviderAPIError(0, err.Error())
	}

	if resp.IsError() {
		c.logger.Warn("provider send rejected",
			zap.String("phone_number_id", phoneNumberID),
			zap.Int("status_code", resp.StatusCode()),
		)
		// Provider error body is surfaced verbatim to the caller. No retry.
		return "", appErrors.NewProviderAPIError(resp.StatusCode(), string(resp.Body()))
	}

	if len(result.Messages) == 0 || result.Messages[0].ID == "" {
		return "", appErrors.NewProviderAPIError(resp.StatusCode(), "response carries no message id")
	}

	c.logger.Info("provider send accepted",
		zap.String("phone_number_id", phoneNumberID),
		zap.String("provider_message_id", result.Messages[0].ID),
	)
	return result.Messages[0].ID, nil
}

var _ SenderInterface = (*WhatsAppClient)(nil)
