package fcm

import (
	"context"
	"fmt"
	"log"

	"go-digistore/internal/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// AdminTopic is the FCM topic the admin app subscribes to
const AdminTopic = "admin-orders"

// Client handles FCM notifications
type Client struct {
	app *firebase.App
	cfg *config.Config
}

// New creates a new FCM client
func New(cfg *config.Config) *Client {
	if cfg.FirebaseCredentialsFile == "" {
		log.Println("⚠ FCM: FirebaseCredentialsFile not set, notifications disabled")
		return &Client{cfg: cfg}
	}

	opt := option.WithCredentialsFile(cfg.FirebaseCredentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("⚠ FCM: Failed to initialize Firebase app: %v", err)
		return &Client{cfg: cfg}
	}

	log.Println("✓ FCM: Firebase initialized successfully")
	return &Client{
		app: app,
		cfg: cfg,
	}
}

// Enabled reports whether Firebase was initialized
func (c *Client) Enabled() bool {
	return c != nil && c.app != nil
}

// SendToTopic pushes a notification to every device subscribed to topic
func (c *Client) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error {
	if !c.Enabled() {
		log.Printf("[MOCK FCM] Topic: %s | %s: %s", topic, title, body)
		return nil
	}
	if topic == "" {
		return fmt.Errorf("FCM: empty topic")
	}

	client, err := c.app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("FCM: error getting messaging client: %v", err)
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Topic: topic,
	}

	response, err := client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("FCM: error sending message: %v", err)
	}

	log.Printf("✓ FCM: Successfully sent message: %s", response)
	return nil
}
