// Package dispatch is the single write path for producing a notification:
// durable store record first, best-effort live push second. A push failure
// never rolls back or blocks the durable write.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"freshkeeper/internal/db"
	"freshkeeper/internal/registry"
)

// ErrRecipientNotFound is returned when the dispatch target is not in the
// recipient directory. It surfaces to the producer, never to a push-channel
// consumer.
var ErrRecipientNotFound = errors.New("recipient not found")

// Pusher is the live-delivery side of a dispatch. *registry.Registry
// implements it.
type Pusher interface {
	Send(recipientID int64, event registry.Event)
}

// RecipientDirectory resolves dispatch targets. *db.UserStore implements
// it.
type RecipientDirectory interface {
	Exists(ctx context.Context, id int64) (bool, error)
	GetByEmail(ctx context.Context, email string) (*db.User, error)
}

type Dispatcher struct {
	store      *db.NotificationStore
	pusher     Pusher
	recipients RecipientDirectory

	// adminEmail designates who receives complaint notifications.
	adminEmail string
}

func New(store *db.NotificationStore, pusher Pusher, recipients RecipientDirectory, adminEmail string) *Dispatcher {
	return &Dispatcher{
		store:      store,
		pusher:     pusher,
		recipients: recipients,
		adminEmail: adminEmail,
	}
}

// Dispatch durably records a notification and attempts live delivery. The
// store write and the push are two explicit sequential steps: a store
// failure propagates to the producer, a push failure is already handled
// (logged, channel evicted) inside the registry.
func (d *Dispatcher) Dispatch(ctx context.Context, recipientID int64, kind, title, message string, payload any) (*db.Notification, error) {
	exists, err := d.recipients.Exists(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if !exists {
		return nil, ErrRecipientNotFound
	}

	var encoded json.RawMessage
	if payload != nil {
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
	}

	record, err := d.store.Create(ctx, recipientID, kind, title, message, encoded)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		slog.Error("failed to serialize notification for push", "error", err, "notification_id", record.ID)
		return record, nil
	}
	d.pusher.Send(recipientID, registry.Event{Name: "notification", Data: data})

	return record, nil
}

// NotifyLike targets the liked recipe's owner, not the liker.
func (d *Dispatcher) NotifyLike(ctx context.Context, ownerID int64, likerName, recipeTitle string) error {
	_, err := d.Dispatch(ctx, ownerID, db.KindLike,
		"New like on your recipe",
		fmt.Sprintf("%s liked your recipe '%s'", likerName, recipeTitle),
		map[string]string{"liker_name": likerName, "recipe_title": recipeTitle},
	)
	return err
}

// NotifyComplaint targets the administrative recipient configured via
// ADMIN_EMAIL, not the complainant.
func (d *Dispatcher) NotifyComplaint(ctx context.Context, complainantName, subject string) error {
	if d.adminEmail == "" {
		return errors.New("no administrative recipient configured")
	}
	admin, err := d.recipients.GetByEmail(ctx, d.adminEmail)
	if errors.Is(err, db.ErrNotFound) {
		return ErrRecipientNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve administrative recipient: %w", err)
	}

	_, err = d.Dispatch(ctx, admin.ID, db.KindComplaint,
		"New complaint filed",
		fmt.Sprintf("%s filed a complaint: %s", complainantName, subject),
		map[string]string{"complainant_name": complainantName, "subject": subject},
	)
	return err
}

// NotifyExpiringSoon targets the pantry item's owner.
func (d *Dispatcher) NotifyExpiringSoon(ctx context.Context, ownerID int64, ingredientName string, expirationDate time.Time) error {
	_, err := d.Dispatch(ctx, ownerID, db.KindExpiringSoon,
		"Ingredient expiring soon",
		fmt.Sprintf("'%s' expires on %s", ingredientName, expirationDate.Format("2006-01-02")),
		expirationPayload(ingredientName, expirationDate),
	)
	return err
}

// NotifyExpired targets the pantry item's owner.
func (d *Dispatcher) NotifyExpired(ctx context.Context, ownerID int64, ingredientName string, expirationDate time.Time) error {
	_, err := d.Dispatch(ctx, ownerID, db.KindExpired,
		"Ingredient expired",
		fmt.Sprintf("'%s' expired on %s", ingredientName, expirationDate.Format("2006-01-02")),
		expirationPayload(ingredientName, expirationDate),
	)
	return err
}

func expirationPayload(ingredientName string, expirationDate time.Time) map[string]any {
	return map[string]any{
		"ingredient_name": ingredientName,
		"expiration_date": expirationDate.UTC().Format(time.RFC3339),
	}
}
