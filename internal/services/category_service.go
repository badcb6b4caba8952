package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

const (
	categoriesKey = "all"
	// one entry for the full list plus one per kind
	categoryCacheEntries = 3
)

func kindKey(kind core.Kind) string {
	return "kind:" + string(kind)
}

// CategoryService manages the category list. Reads are served from a TTL
// cache that every write invalidates.
type CategoryService struct {
	store  storage.CategoryStore
	txs    storage.TransactionStore
	cache  *cache.LRUCache[[]core.Category]
	logger *log.Logger
	newID  func() string
}

// NewCategoryService creates the service. txs is used to refuse deleting a
// category that transactions still reference; it may be nil.
func NewCategoryService(store storage.CategoryStore, txs storage.TransactionStore, ttl time.Duration, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &CategoryService{
		store:  store,
		txs:    txs,
		cache:  cache.NewLRUCache[[]core.Category](categoryCacheEntries, ttl),
		logger: logger.WithComponent(log.ComponentCategory),
		newID:  uuid.NewString,
	}
}

// Cache exposes the list cache so it can be registered for cleanup.
func (s *CategoryService) Cache() *cache.LRUCache[[]core.Category] {
	return s.cache
}

// List returns all categories in insertion order.
func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	cats, err := s.cache.GetOrLoad(categoriesKey, func() ([]core.Category, error) {
		cats, err := s.store.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		return cats, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]core.Category(nil), cats...), nil
}

// ListByKind returns the categories of one kind, cached per kind.
func (s *CategoryService) ListByKind(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	cats, err := s.cache.GetOrLoad(kindKey(kind), func() ([]core.Category, error) {
		all, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]core.Category, 0, len(all))
		for _, c := range all {
			if c.Kind == kind {
				out = append(out, c)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]core.Category(nil), cats...), nil
}

// Create adds a category. Names are unique per kind, ignoring case.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.checkUnique(ctx, c); err != nil {
		return core.Category{}, err
	}
	c.ID = s.newID()

	if err := s.store.AppendCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.cache.Purge()

	s.logger.InfoContext(ctx, "Category created", log.FieldOperation, log.OpCreate, "id", c.ID, "name", c.Name, log.FieldKind, string(c.Kind))
	return c, nil
}

// Update replaces a category by id.
func (s *CategoryService) Update(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.checkUnique(ctx, c); err != nil {
		return core.Category{}, err
	}

	if err := s.store.ReplaceCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category %s: %w", c.ID, err)
	}
	s.cache.Purge()

	s.logger.InfoContext(ctx, "Category updated", log.FieldOperation, log.OpUpdate, "id", c.ID, "name", c.Name)
	return c, nil
}

// Delete removes a category that no transaction references.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if s.txs != nil {
		cats, err := s.List(ctx)
		if err != nil {
			return err
		}
		var target *core.Category
		for i := range cats {
			if cats[i].ID == id {
				target = &cats[i]
				break
			}
		}
		if target != nil {
			txs, err := s.txs.ListTransactions(ctx)
			if err != nil {
				return fmt.Errorf("list transactions: %w", err)
			}
			for _, tx := range txs {
				if tx.Kind == target.Kind && tx.Category == target.Name {
					return fmt.Errorf("delete category %q: %w", target.Name, ErrCategoryInUse)
				}
			}
		}
	}

	if err := s.store.RemoveCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	s.cache.Purge()

	s.logger.InfoContext(ctx, "Category deleted", log.FieldOperation, log.OpDelete, "id", id)
	return nil
}

func (s *CategoryService) checkUnique(ctx context.Context, c core.Category) error {
	cats, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, existing := range cats {
		if existing.ID != c.ID && existing.Kind == c.Kind && strings.EqualFold(existing.Name, c.Name) {
			return fmt.Errorf("%w: %s %q", ErrDuplicateCategory, c.Kind, c.Name)
		}
	}
	return nil
}
