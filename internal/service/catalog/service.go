package catalog

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Service управляет товарами и объявлениями витрины.
// Каждая операция заново читает документ каталога, кэша между запросами нет.
type Service struct {
	store  domain.CatalogStore
	logger *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(store domain.CatalogStore, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog-service")
	}
	return &Service{store: store, logger: logger}
}

// Catalog возвращает товары и объявления из свежего чтения документа.
func (s *Service) Catalog(ctx context.Context) domain.Catalog {
	return s.store.LoadCatalog(ctx)
}

// Products возвращает текущий список товаров.
func (s *Service) Products(ctx context.Context) []domain.Product {
	return s.store.LoadCatalog(ctx).Products
}

// Announcements возвращает текущий список объявлений.
func (s *Service) Announcements(ctx context.Context) []domain.Announcement {
	return s.store.LoadCatalog(ctx).Posts
}

// ProductByID ищет товар по идентификатору.
func (s *Service) ProductByID(ctx context.Context, id int64) (domain.Product, error) {
	product, ok := s.store.LoadCatalog(ctx).FindProduct(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return product, nil
}

// ProductByRef ищет товар по идентификатору в строковой форме (как он приходит из маршрута).
// Нечисловая ссылка не может совпасть ни с одним товаром и даёт ErrNotFound.
func (s *Service) ProductByRef(ctx context.Context, ref string) (domain.Product, error) {
	id, err := domain.ParseID(ref)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %q: %w", ref, domain.ErrNotFound)
	}
	return s.ProductByID(ctx, id)
}

// AddProduct проверяет поля, выделяет идентификатор и сохраняет новый товар.
func (s *Service) AddProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	product, err := validateProduct(in)
	if err != nil {
		return domain.Product{}, err
	}

	err = s.store.UpdateCatalog(ctx, func(c domain.Catalog) (domain.Catalog, error) {
		id, err := c.AllocateProductID()
		if err != nil {
			return c, err
		}
		product.ID = id
		c.Products = append(c.Products, product)
		return c, nil
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("add product: %w", err)
	}

	s.logger.WithFields(log.Fields{"product_id": product.ID, "name": product.Name}).Info("product added")
	return product, nil
}

// DeleteProduct удаляет товар. Заказы, уже созданные по нему, не затрагиваются.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	err := s.store.UpdateCatalog(ctx, func(c domain.Catalog) (domain.Catalog, error) {
		c.RememberIDs()
		kept, removed := removeByID(c.Products, id, domain.ProductID)
		if !removed {
			return c, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		c.Products = kept
		return c, nil
	})
	if err != nil {
		return err
	}

	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

// AddAnnouncement сохраняет новое объявление.
func (s *Service) AddAnnouncement(ctx context.Context, in domain.AnnouncementInput) (domain.Announcement, error) {
	post := domain.Announcement{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
		FileURL: strings.TrimSpace(in.FileURL),
	}
	if post.Title == "" {
		return domain.Announcement{}, domain.NewValidationError("title", "is required")
	}
	if post.Content == "" {
		return domain.Announcement{}, domain.NewValidationError("content", "is required")
	}

	err := s.store.UpdateCatalog(ctx, func(c domain.Catalog) (domain.Catalog, error) {
		id, err := c.AllocateAnnouncementID()
		if err != nil {
			return c, err
		}
		post.ID = id
		c.Posts = append(c.Posts, post)
		return c, nil
	})
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("add announcement: %w", err)
	}

	s.logger.WithField("post_id", post.ID).Info("announcement added")
	return post, nil
}

// DeleteAnnouncement удаляет объявление.
func (s *Service) DeleteAnnouncement(ctx context.Context, id int64) error {
	err := s.store.UpdateCatalog(ctx, func(c domain.Catalog) (domain.Catalog, error) {
		c.RememberIDs()
		kept, removed := removeByID(c.Posts, id, domain.AnnouncementID)
		if !removed {
			return c, fmt.Errorf("announcement %d: %w", id, domain.ErrNotFound)
		}
		c.Posts = kept
		return c, nil
	})
	if err != nil {
		return err
	}

	s.logger.WithField("post_id", id).Info("announcement deleted")
	return nil
}

func validateProduct(in domain.ProductInput) (domain.Product, error) {
	product := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
	}

	required := []struct{ field, value string }{
		{"name", product.Name},
		{"price", strings.TrimSpace(in.Price)},
		{"category", product.Category},
		{"description", product.Description},
	}
	for _, r := range required {
		if r.value == "" {
			return domain.Product{}, domain.NewValidationError(r.field, "is required")
		}
	}

	price, err := ParsePrice(in.Price)
	if err != nil {
		return domain.Product{}, err
	}
	product.Price = price

	if product.ImageURL == "" {
		product.ImageURL = domain.DefaultProductImageURL
	}
	return product, nil
}

// decimalPrice — цена в обычной десятичной записи. Hex, экспонента, Inf/NaN и
// разделители разрядов отклоняются, хотя strconv.ParseFloat их принимает.
var decimalPrice = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParsePrice разбирает цену: конечное неотрицательное десятичное число. -0 сохраняется как 0.
func ParsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if !decimalPrice.MatchString(raw) {
		return 0, domain.NewValidationError("price", "must be a decimal number")
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(price, 0) {
		return 0, domain.NewValidationError("price", "must be a decimal number")
	}
	if price < 0 {
		return 0, domain.NewValidationError("price", "must be non-negative")
	}
	if price == 0 {
		price = 0 // -0 == 0, отбрасываем знак
	}
	return price, nil
}

// removeByID возвращает новый срез без элемента с указанным id.
func removeByID[T any](items []T, id int64, idOf func(T) int64) ([]T, bool) {
	kept := make([]T, 0, len(items))
	removed := false
	for _, item := range items {
		if idOf(item) == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}
