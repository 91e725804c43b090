package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"picture-catalog/internal/domain"
)

// The memory stores back STORE_DRIVER=memory and the service tests. They copy
// on every read and write so callers never share state with the store.

type memoryPictureStore struct {
	mu       sync.RWMutex
	pictures map[uuid.UUID][]byte
}

func NewMemoryPictureStore() PictureStore {
	return &memoryPictureStore{pictures: make(map[uuid.UUID][]byte)}
}

func (s *memoryPictureStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.pictures[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrPictureNotFound
	}

	var picture domain.Picture
	if err := json.Unmarshal(data, &picture); err != nil {
		return nil, err
	}
	return &picture, nil
}

func (s *memoryPictureStore) Save(ctx context.Context, picture *domain.Picture) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := *picture
	stored.ObjectChanges = nil
	if picture.File != nil {
		f := *picture.File
		f.WebPath = ""
		stored.File = &f
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pictures[picture.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *memoryPictureStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pictures[id]; !ok {
		return domain.ErrPictureNotFound
	}
	delete(s.pictures, id)
	return nil
}

type memoryChangeRecordStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.ChangeRecord
}

func NewMemoryChangeRecordStore() ChangeRecordStore {
	return &memoryChangeRecordStore{records: make(map[uuid.UUID]domain.ChangeRecord)}
}

func (s *memoryChangeRecordStore) Create(ctx context.Context, records []*domain.ChangeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records[rec.ID] = copyRecord(*rec)
	}
	return nil
}

func (s *memoryChangeRecordStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.ChangeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[uuid.UUID]*domain.ChangeRecord, len(ids))
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			c := copyRecord(rec)
			byID[id] = &c
		}
	}
	return orderByIDs(ids, byID), nil
}

func (s *memoryChangeRecordStore) ListByPicture(ctx context.Context, pictureID uuid.UUID, status *domain.ChangeRecordStatus, params domain.PaginationParams) ([]domain.ChangeRecord, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	params.Validate()

	s.mu.RLock()
	var matched []domain.ChangeRecord
	for _, rec := range s.records {
		if rec.PictureID != pictureID {
			continue
		}
		if status != nil && rec.Status != *status {
			continue
		}
		matched = append(matched, copyRecord(rec))
	}
	s.mu.RUnlock()

	// Same order as the SQL store: newest first, id breaks ties.
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return bytes.Compare(matched[i].ID[:], matched[j].ID[:]) < 0
	})

	total := int64(len(matched))
	start := min(params.Offset(), len(matched))
	end := min(start+params.PageSize, len(matched))
	return matched[start:end], total, nil
}

func (s *memoryChangeRecordStore) UpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.ChangeRecordStatus, reviewerID uuid.UUID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok || rec.Status != domain.StatusProposed {
			continue
		}
		reviewer := reviewerID
		reviewedAt := at
		rec.Status = status
		rec.ReviewedBy = &reviewer
		rec.ReviewedAt = &reviewedAt
		s.records[id] = rec
	}
	return nil
}

func (s *memoryChangeRecordStore) DeleteByPicture(ctx context.Context, pictureID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if rec.PictureID == pictureID {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func copyRecord(rec domain.ChangeRecord) domain.ChangeRecord {
	rec.Value = slices.Clone(rec.Value)
	if rec.ReviewedBy != nil {
		id := *rec.ReviewedBy
		rec.ReviewedBy = &id
	}
	if rec.ReviewedAt != nil {
		t := *rec.ReviewedAt
		rec.ReviewedAt = &t
	}
	return rec
}

type memoryPlaceStore struct {
	mu     sync.RWMutex
	places map[uuid.UUID]*domain.Place
}

// NewMemoryPlaceStore seeds the store with places; the directory itself is
// managed elsewhere.
func NewMemoryPlaceStore(places ...domain.Place) PlaceStore {
	s := &memoryPlaceStore{places: make(map[uuid.UUID]*domain.Place)}
	for _, p := range places {
		p.PictureIDs = slices.Clone(p.PictureIDs)
		s.places[p.ID] = &p
	}
	return s
}

func (s *memoryPlaceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.places[id]
	if !ok {
		return nil, domain.ErrPlaceNotFound
	}
	out := *p
	out.PictureIDs = slices.Clone(p.PictureIDs)
	return &out, nil
}

func (s *memoryPlaceStore) AttachPicture(ctx context.Context, placeID, pictureID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.places[placeID]
	if !ok {
		return domain.ErrPlaceNotFound
	}
	if !slices.Contains(p.PictureIDs, pictureID) {
		p.PictureIDs = append(p.PictureIDs, pictureID)
	}
	return nil
}

func (s *memoryPlaceStore) DetachPicture(ctx context.Context, placeID, pictureID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.places[placeID]
	if !ok {
		return nil
	}
	p.PictureIDs = slices.DeleteFunc(p.PictureIDs, func(id uuid.UUID) bool { return id == pictureID })
	return nil
}

type memoryCatalogStore struct {
	catalogs map[uuid.UUID]domain.Catalog
}

func NewMemoryCatalogStore(catalogs ...domain.Catalog) CatalogStore {
	s := &memoryCatalogStore{catalogs: make(map[uuid.UUID]domain.Catalog)}
	for _, c := range catalogs {
		s.catalogs[c.ID] = c
	}
	return s
}

func (s *memoryCatalogStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := s.catalogs[id]
	if !ok {
		return nil, domain.ErrCatalogNotFound
	}
	return &c, nil
}

type memoryAuditLogRepository struct {
	mu   sync.RWMutex
	logs []domain.AuditLog
	now  func() time.Time
}

func NewMemoryAuditLogRepository() AuditLogRepository {
	return &memoryAuditLogRepository{now: time.Now}
}

func (r *memoryAuditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.CreatedAt = r.now().UTC()
	r.mu.Lock()
	r.logs = append(r.logs, *log)
	r.mu.Unlock()
	return nil
}

func (r *memoryAuditLogRepository) List(ctx context.Context, filter domain.AuditFilter, params domain.PaginationParams) ([]domain.AuditLog, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	params.Validate()

	r.mu.RLock()
	var matched []domain.AuditLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		if filter.Matches(r.logs[i]) {
			matched = append(matched, r.logs[i])
		}
	}
	r.mu.RUnlock()

	total := int64(len(matched))
	start := min(params.Offset(), len(matched))
	end := min(start+params.PageSize, len(matched))
	return matched[start:end], total, nil
}
