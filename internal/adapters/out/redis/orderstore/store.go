package orderstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// Store is the Redis implementation of ports.OrderStore.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix. Default is "warehouse".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Redis-backed order store.
//
// Example:
//
//	store := orderstore.NewStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    orderstore.WithPrefix("warehouse"),
//	)
func NewStore(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "warehouse",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) orderKey(id string) string   { return s.prefix + ":order:" + id }
func (s *Store) historyKey(id string) string { return s.prefix + ":order:" + id + ":history" }
func (s *Store) indexKey() string            { return s.prefix + ":orders" }

// Add stores a new order with its seeded history.
func (s *Store) Add(ctx context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	history := o.History()
	args := []any{o.ID().String(), len(history)}
	for _, change := range history {
		entry, err := encodeHistory(change)
		if err != nil {
			return err
		}
		args = append(args, entry)
	}
	fields, err := orderFields(o)
	if err != nil {
		return err
	}
	args = append(args, fields...)

	id := o.ID().String()
	created, err := addScript.Run(ctx, s.client,
		[]string{s.orderKey(id), s.historyKey(id), s.indexKey()}, args...).Int()
	if err != nil {
		return fmt.Errorf("redis add order: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("%w: %s", order.ErrOrderAlreadyExists, id)
	}
	return nil
}

// Get reads the order hash and its history in one MULTI/EXEC block.
func (s *Store) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var (
		fieldsCmd  *redis.MapStringStringCmd
		historyCmd *redis.StringSliceCmd
	)
	key := id.String()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fieldsCmd = pipe.HGetAll(ctx, s.orderKey(key))
		historyCmd = pipe.LRange(ctx, s.historyKey(key), 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis get order: %w", err)
	}

	fields := fieldsCmd.Val()
	if len(fields) == 0 {
		return nil, errs.NewObjectNotFoundError("order", key)
	}
	return decodeOrder(id, fields, historyCmd.Val())
}

// List returns every order in the id set. Each order is its own snapshot.
func (s *Store) List(ctx context.Context) ([]*order.Order, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list orders: %w", err)
	}

	orders := make([]*order.Order, 0, len(ids))
	for _, raw := range ids {
		id, parseErr := kernel.UUIDFromString(raw)
		if parseErr != nil {
			return nil, fmt.Errorf("order index holds %q: %w", raw, parseErr)
		}
		o, getErr := s.Get(ctx, id)
		if errors.Is(getErr, errs.ErrObjectNotFound) {
			continue
		}
		if getErr != nil {
			return nil, getErr
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateStatus runs the conditional write and returns the order as written.
func (s *Store) UpdateStatus(
	ctx context.Context,
	id kernel.UUID,
	expectedVersion uint64,
	newStatus order.Status,
	note string,
	actor kernel.Role,
) (*order.Order, error) {
	if err := errors.Join(id.Validate(), newStatus.Validate(), actor.Validate()); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	entry, err := encodeHistory(order.StatusChange{Status: newStatus, At: at, Notes: note, ActorRole: actor})
	if err != nil {
		return nil, err
	}
	milestoneField := ""
	if m, ok := newStatus.Milestone(); ok {
		milestoneField = milestonePrefix + string(m)
	}

	key := id.String()
	res, err := updateStatusScript.Run(ctx, s.client,
		[]string{s.orderKey(key), s.historyKey(key)},
		expectedVersion, newStatus.String(), entry, milestoneField, formatTime(at),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("redis update status: %w", err)
	}

	switch code, _ := res[0].(int64); code {
	case -1:
		return nil, errs.NewObjectNotFoundError("order", key)
	case 0:
		return nil, errs.NewVersionConflictError("order", key, expectedVersion)
	}
	return s.decodeReply(id, res)
}

// UpdateDetails overwrites the given descriptive fields in one script run.
func (s *Store) UpdateDetails(ctx context.Context, id kernel.UUID, u order.DetailsUpdate) (*order.Order, error) {
	if err := errors.Join(id.Validate(), u.Validate()); err != nil {
		return nil, err
	}
	fields, err := detailsFields(u)
	if err != nil {
		return nil, err
	}

	key := id.String()
	res, err := updateDetailsScript.Run(ctx, s.client,
		[]string{s.orderKey(key), s.historyKey(key)}, fields...).Slice()
	if err != nil {
		return nil, fmt.Errorf("redis update details: %w", err)
	}
	if code, _ := res[0].(int64); code == -1 {
		return nil, errs.NewObjectNotFoundError("order", key)
	}
	return s.decodeReply(id, res)
}

// Delete drops the order hash, its history and its index entry.
func (s *Store) Delete(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	key := id.String()
	removed, err := deleteScript.Run(ctx, s.client,
		[]string{s.orderKey(key), s.historyKey(key), s.indexKey()}, key).Int()
	if err != nil {
		return fmt.Errorf("redis delete order: %w", err)
	}
	if removed == 0 {
		return errs.NewObjectNotFoundError("order", key)
	}
	return nil
}

// decodeReply reads the {code, hash fields, history} reply of a write script.
func (s *Store) decodeReply(id kernel.UUID, res []any) (*order.Order, error) {
	if len(res) < 3 {
		return nil, fmt.Errorf("short script reply of %d elements", len(res))
	}
	fields, err := pairsToMap(res[1])
	if err != nil {
		return nil, err
	}
	history, err := toStrings(res[2])
	if err != nil {
		return nil, err
	}
	return decodeOrder(id, fields, history)
}

func pairsToMap(v any) (map[string]string, error) {
	flat, err := toStrings(v)
	if err != nil {
		return nil, err
	}
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("odd hash reply of %d elements", len(flat))
	}
	m := make(map[string]string, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		m[flat[i]] = flat[i+1]
	}
	return m, nil
}

func toStrings(v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected script reply %T", v)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		str, isStr := item.(string)
		if !isStr {
			return nil, fmt.Errorf("unexpected script reply element %T", item)
		}
		out = append(out, str)
	}
	return out, nil
}
