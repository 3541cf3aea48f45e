package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/mcp-oauth-gateway/clients"
	"github.com/jrsteele09/mcp-oauth-gateway/storage"
	"github.com/pkg/errors"
)

type InteractionRepo interface {
	Create(ctx context.Context, i *Interaction, ttl time.Duration) error
	Get(ctx context.Context, uid string) (*Interaction, error)
	// Take removes and returns the interaction so it completes at most once.
	Take(ctx context.Context, uid string) (*Interaction, error)
	Delete(ctx context.Context, uid string) error
}

type SessionRepo interface {
	Create(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type CodeRepo interface {
	Create(ctx context.Context, c *AuthorizationCode, ttl time.Duration) error
	// Take removes and returns the code so it is redeemed at most once.
	Take(ctx context.Context, code string) (*AuthorizationCode, error)
}

// NewStoreRepos builds every repository over a single storage.Store.
func NewStoreRepos(store storage.Store) Repos {
	return Repos{
		Clients:      clients.NewStoreRepo(store),
		Interactions: interactionStore{records[Interaction]{store, storage.NamespaceInteractions}},
		Sessions:     sessionStore{records[Session]{store, storage.NamespaceSessions}},
		Codes:        codeStore{records[AuthorizationCode]{store, storage.NamespaceCodes}},
	}
}

// records is a typed view of one storage namespace.
type records[T any] struct {
	store     storage.Store
	namespace string
}

func (r records[T]) create(ctx context.Context, key string, v *T, ttl time.Duration) error {
	if err := storage.CreateJSON(ctx, r.store, r.namespace, key, v, ttl); err != nil {
		return errors.Wrapf(err, "creating %s record", r.namespace)
	}
	return nil
}

func (r records[T]) get(ctx context.Context, key string) (*T, error) {
	v, err := storage.GetJSON[T](ctx, r.store, r.namespace, key)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s record", r.namespace)
	}
	return v, nil
}

func (r records[T]) take(ctx context.Context, key string) (*T, error) {
	v, err := storage.TakeJSON[T](ctx, r.store, r.namespace, key)
	if err != nil {
		return nil, errors.Wrapf(err, "taking %s record", r.namespace)
	}
	return v, nil
}

func (r records[T]) delete(ctx context.Context, key string) error {
	return errors.Wrapf(r.store.Delete(ctx, r.namespace, key), "deleting %s record", r.namespace)
}

type interactionStore struct{ records[Interaction] }

func (s interactionStore) Create(ctx context.Context, i *Interaction, ttl time.Duration) error {
	return s.create(ctx, i.UID, i, ttl)
}
func (s interactionStore) Get(ctx context.Context, uid string) (*Interaction, error) {
	return s.get(ctx, uid)
}
func (s interactionStore) Take(ctx context.Context, uid string) (*Interaction, error) {
	return s.take(ctx, uid)
}
func (s interactionStore) Delete(ctx context.Context, uid string) error {
	return s.delete(ctx, uid)
}

type sessionStore struct{ records[Session] }

func (s sessionStore) Create(ctx context.Context, sess *Session, ttl time.Duration) error {
	return s.create(ctx, sess.ID, sess, ttl)
}
func (s sessionStore) Get(ctx context.Context, id string) (*Session, error) {
	return s.get(ctx, id)
}
func (s sessionStore) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

type codeStore struct{ records[AuthorizationCode] }

func (s codeStore) Create(ctx context.Context, c *AuthorizationCode, ttl time.Duration) error {
	return s.create(ctx, c.Code, c, ttl)
}
func (s codeStore) Take(ctx context.Context, code string) (*AuthorizationCode, error) {
	return s.take(ctx, code)
}
