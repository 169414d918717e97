package auth

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"recipe_backend/models"
)

// FirestoreDirectory resolves tokens against a Firestore collection with one
// document per user, keyed by user id.
type FirestoreDirectory struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreDirectory(client *firestore.Client, collection string) *FirestoreDirectory {
	return &FirestoreDirectory{client: client, collection: collection}
}

func (d *FirestoreDirectory) Lookup(ctx context.Context, token string) (*models.User, error) {
	iter := d.client.Collection(d.collection).Where("token", "==", token).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", doc.Ref.ID, err)
	}
	return &user, nil
}

// Put publishes user so its token is accepted.
func (d *FirestoreDirectory) Put(ctx context.Context, user *models.User) error {
	_, err := d.client.Collection(d.collection).Doc(strconv.FormatInt(user.ID, 10)).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to publish user %d: %w", user.ID, err)
	}
	return nil
}

// List returns every published user.
func (d *FirestoreDirectory) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	iter := d.client.Collection(d.collection).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		var user models.User
		if err := doc.DataTo(&user); err != nil {
			return nil, fmt.Errorf("failed to decode user %s: %w", doc.Ref.ID, err)
		}
		users = append(users, user)
	}
	return users, nil
}
