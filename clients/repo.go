package clients

import (
	"context"

	"github.com/jrsteele09/mcp-oauth-gateway/storage"
	"github.com/pkg/errors"
)

type Repo interface {
	Create(ctx context.Context, client *Client) error
	Get(ctx context.Context, clientID string) (*Client, error)
}

var _ Repo = (*StoreRepo)(nil)

// StoreRepo keeps clients in a storage.Store. Registrations never expire.
type StoreRepo struct {
	store storage.Store
}

func NewStoreRepo(store storage.Store) *StoreRepo {
	return &StoreRepo{store: store}
}

func (r *StoreRepo) Create(ctx context.Context, client *Client) error {
	if client.ID == "" {
		return errors.New("client id is required")
	}
	if err := storage.CreateJSON(ctx, r.store, storage.NamespaceClients, client.ID, client, 0); err != nil {
		return errors.Wrapf(err, "storing client %s", client.ID)
	}
	return nil
}

// Get returns storage.ErrNotFound (wrapped) for unknown clients.
func (r *StoreRepo) Get(ctx context.Context, clientID string) (*Client, error) {
	client, err := storage.GetJSON[Client](ctx, r.store, storage.NamespaceClients, clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading client %s", clientID)
	}
	return client, nil
}
