package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"go-digistore/internal/models"
)

const defaultAPIURL = "https://api.telegram.org"

// Client represents a Telegram bot client
type Client struct {
	Token   string
	ChatID  string
	BaseURL string
}

// New creates a new Telegram client
func New(token, chatID string) *Client {
	return &Client{
		Token:   token,
		ChatID:  chatID,
		BaseURL: defaultAPIURL,
	}
}

// Message represents a Telegram message payload
type Message struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the admin chat
func (c *Client) SendMessage(message string) error {
	if c.Token == "" || c.ChatID == "" {
		fmt.Printf("[MOCK TELEGRAM] %s\n", message)
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.BaseURL, c.Token)

	payload := Message{
		ChatID:    c.ChatID,
		Text:      message,
		ParseMode: "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// SendManualOrderAlert asks admins to check for a bank transfer
func (c *Client) SendManualOrderAlert(o *models.Order) error {
	account := "-"
	if m := o.ManualMethod; m != nil {
		account = fmt.Sprintf("%s %s (%s)", m.ProviderName, m.AccountNumber, m.AccountName)
	}
	text := fmt.Sprintf(
		"<b>🧾 New manual payment order</b>\n\n"+
			"<b>Order:</b> <code>%s</code>\n"+
			"<b>Customer:</b> %s (%s)\n"+
			"<b>Amount:</b> %s\n"+
			"<b>Transfer to:</b> %s\n\n"+
			"Confirm or reject it from the admin panel once the transfer is checked.",
		o.ID,
		html.EscapeString(o.CustomerName),
		html.EscapeString(o.CustomerEmail),
		models.FormatRupiah(o.TotalAmount),
		html.EscapeString(account),
	)
	return c.SendMessage(text)
}
