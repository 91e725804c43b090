package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"picture-catalog/internal/domain"
)

const pictureCachePrefix = "picture:"

// cachedPictureStore is a read-through cache in front of another PictureStore.
// Cache failures never fail a request; the backing store stays authoritative.
type cachedPictureStore struct {
	next  PictureStore
	redis *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCachedPictureStore(next PictureStore, client *redis.Client, ttl time.Duration, log zerolog.Logger) PictureStore {
	if client == nil {
		return next
	}
	return &cachedPictureStore{
		next:  next,
		redis: client,
		ttl:   ttl,
		log:   log,
	}
}

func (s *cachedPictureStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Picture, error) {
	key := pictureCachePrefix + id.String()

	if cached, err := s.redis.Get(ctx, key).Bytes(); err == nil {
		var picture domain.Picture
		if err := json.Unmarshal(cached, &picture); err == nil {
			return &picture, nil
		}
	} else if err != redis.Nil {
		s.log.Warn().Err(err).Str("picture_id", id.String()).Msg("picture cache read failed")
	}

	picture, err := s.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(picture); err == nil {
		_ = s.redis.Set(ctx, key, data, s.ttl).Err()
	}
	return picture, nil
}

func (s *cachedPictureStore) Save(ctx context.Context, picture *domain.Picture) error {
	if err := s.next.Save(ctx, picture); err != nil {
		return err
	}
	s.invalidate(ctx, picture.ID)
	return nil
}

func (s *cachedPictureStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *cachedPictureStore) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.redis.Del(ctx, pictureCachePrefix+id.String()).Err(); err != nil {
		s.log.Warn().Err(err).Str("picture_id", id.String()).Msg("picture cache invalidation failed")
	}
}
