package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	authcore "github.com/pkalnins/authcore"
)

// ErrUnavailable wraps Redis transport failures. Callers matching
// authcore.ErrUserStoreUnavailable will also match errors wrapped here
// once they pass through the engine.
var ErrUnavailable = errors.New("user store redis unavailable")

type userRecord struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	PasswordHash string `json:"hashed_password"`
	Active       bool   `json:"is_active"`
	CreatedAt    int64  `json:"created_at"`
}

// Store implements authcore.UserStore on a Redis keyspace.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Store. An empty prefix defaults to "au".
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "au"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) userKey(username string) string {
	return s.prefix + ":user:" + username
}

func (s *Store) seqKey() string {
	return s.prefix + ":user_id_seq"
}

// CreateUser assigns the next user id and inserts the record, failing
// with authcore.ErrAccountExists when the username is taken.
func (s *Store) CreateUser(ctx context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	id, err := s.redis.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return authcore.UserRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	record := userRecord{
		ID:           id,
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: input.PasswordHash,
		Active:       input.Active,
		CreatedAt:    time.Now().Unix(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return authcore.UserRecord{}, err
	}

	created, err := s.redis.SetNX(ctx, s.userKey(input.Username), data, 0).Result()
	if err != nil {
		return authcore.UserRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !created {
		return authcore.UserRecord{}, authcore.ErrAccountExists
	}

	return toUserRecord(record), nil
}

// GetUserByUsername fetches one record, failing with
// authcore.ErrUserNotFound when the username is unknown.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (authcore.UserRecord, error) {
	data, err := s.redis.Get(ctx, s.userKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return authcore.UserRecord{}, authcore.ErrUserNotFound
		}
		return authcore.UserRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var record userRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return authcore.UserRecord{}, fmt.Errorf("corrupt user record for %q: %w", username, err)
	}

	return toUserRecord(record), nil
}

func toUserRecord(r userRecord) authcore.UserRecord {
	return authcore.UserRecord{
		UserID:       r.ID,
		Username:     r.Username,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PhoneNumber:  r.PhoneNumber,
		PasswordHash: r.PasswordHash,
		Active:       r.Active,
	}
}
