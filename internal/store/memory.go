package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"invpulse/pkg/contracts/domain"
)

type productKey struct {
	owner     string
	productID string
}

// MemoryStore keeps everything in maps. Reads return copies.
type MemoryStore struct {
	mu       sync.RWMutex
	uploads  map[string]domain.Upload
	products map[productKey]domain.StoredProduct
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		uploads:  make(map[string]domain.Upload),
		products: make(map[productKey]domain.StoredProduct),
		now:      time.Now,
	}
}

func (s *MemoryStore) CreateUpload(_ context.Context, upload domain.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[upload.ID] = upload
	return nil
}

func (s *MemoryStore) UpdateUploadStatus(_ context.Context, uploadID string, status domain.UploadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[uploadID]
	if !ok {
		return ErrUploadNotFound
	}
	u.Status = status
	s.uploads[uploadID] = u
	return nil
}

// ListUploads returns the owner's uploads, newest first
func (s *MemoryStore) ListUploads(_ context.Context, ownerID string) ([]domain.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Upload, 0)
	for _, u := range s.uploads {
		if u.OwnerID == ownerID {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b domain.Upload) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) ReplaceProducts(ctx context.Context, ownerID string, records []domain.ProductRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for _, rec := range records {
		key := productKey{owner: ownerID, productID: rec.ProductID}
		p, exists := s.products[key]
		if !exists {
			p = domain.StoredProduct{
				ID:        uuid.NewString(),
				OwnerID:   ownerID,
				ProductID: rec.ProductID,
				CreatedAt: now,
			}
		}
		p.Name = rec.Name
		p.OpeningInventory = rec.OpeningInventory
		p.ProcurementData = activeEntries(rec.ProcurementEntries)
		p.SalesData = activeEntries(rec.SalesEntries)
		p.UpdatedAt = now
		s.products[key] = p
	}
	return len(records), nil
}

// ListProducts returns the owner's products ordered by product ID
func (s *MemoryStore) ListProducts(_ context.Context, ownerID string) ([]domain.StoredProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StoredProduct, 0)
	for key, p := range s.products {
		if key.owner != ownerID {
			continue
		}
		p.ProcurementData = slices.Clone(p.ProcurementData)
		p.SalesData = slices.Clone(p.SalesData)
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.StoredProduct) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}
