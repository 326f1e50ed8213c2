package notification

import (
	"context"
	"fmt"

	"nutrisync/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type firebaseService struct {
	client *messaging.Client
}

// NewFirebaseService creates a new Firebase notification service instance
func NewFirebaseService(ctx context.Context, credentialsPath string) (service.NotificationService, error) {
	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &firebaseService{
		client: client,
	}, nil
}

// SendSyncFailureNotice notifies a user that a queued diary change was
// dropped after exhausting its retries. Delivery goes through the user's
// personal topic so every signed-in device receives it.
func (s *firebaseService) SendSyncFailureNotice(ctx context.Context, userID, operationType, date string) error {
	message := &messaging.Message{
		Topic: fmt.Sprintf("sync-failures-%s", userID),
		Notification: &messaging.Notification{
			Title: "Diary change not saved",
			Body:  fmt.Sprintf("A %s change for %s could not be synced. Please re-apply it.", operationType, date),
		},
		Data: map[string]string{
			"operationType": operationType,
			"date":          date,
		},
	}

	_, err := s.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send sync failure notice: %w", err)
	}

	return nil
}
