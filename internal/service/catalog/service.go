package catalog

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"koperasi-storefront/internal/domain"
	productrepo "koperasi-storefront/internal/repository/product"
	"koperasi-storefront/internal/validate"
)

type productRepo interface {
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	ToggleAvailability(ctx context.Context, id string) (*domain.Product, error)
}

// ObjectStore holds product images.
type ObjectStore interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	PublicURL(ref string) string
}

// Service reads the menu and manages the catalog for admins.
type Service struct {
	repo     productRepo
	images   ObjectStore
	validate *validate.Validator
	logger   *log.Logger
}

func New(repo productRepo, images ObjectStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, images: images, validate: validate.New(), logger: logger}
}

// ProductInput is the admin product form. An empty ID creates a product.
type ProductInput struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"gt=0"`
	Category    string `json:"category" validate:"category"`
	IsAvailable *bool  `json:"isAvailable"`
}

// ImageUpload is a new image file submitted with the product form.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

// Menu returns available products grouped by category in menu order. Every
// category is present even when empty.
func (s *Service) Menu(ctx context.Context) ([]domain.CategoryGroup, error) {
	products, err := s.repo.List(ctx, productrepo.ListFilter{AvailableOnly: true})
	if err != nil {
		return nil, err
	}
	groups := make([]domain.CategoryGroup, 0, len(domain.Categories))
	index := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		index[c] = len(groups)
		groups = append(groups, domain.CategoryGroup{Category: c, Label: c.Label(), Products: []domain.Product{}})
	}
	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			continue
		}
		groups[i].Products = append(groups[i].Products, s.withURL(p))
	}
	return groups, nil
}

// Get returns one product with its public image URL.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := s.withURL(*p)
	return &out, nil
}

// ListAll returns every product, available or not, ordered by category.
func (s *Service) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx, productrepo.ListFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		out = append(out, s.withURL(p))
	}
	return out, nil
}

// Save creates or updates a product. A supplied image is uploaded before the
// record is written; without one the existing image reference is kept.
func (s *Service) Save(ctx context.Context, in ProductInput, image *ImageUpload) (*domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	category, _ := domain.ParseCategory(in.Category)

	var existing *domain.Product
	if in.ID != "" {
		var err error
		existing, err = s.repo.GetByID(ctx, in.ID)
		if err != nil {
			return nil, err
		}
	}

	p := domain.Product{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    category,
		IsAvailable: true,
	}
	if existing != nil {
		p.ImageRef = existing.ImageRef
		p.IsAvailable = existing.IsAvailable
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}

	if image != nil {
		ref, err := s.images.Upload(ctx, image.Body)
		if err != nil {
			s.logger.Printf("catalog: upload image file=%q error=%v", image.Filename, err)
			return nil, &domain.BackendWriteError{Op: "upload image", Err: err}
		}
		p.ImageRef = ref
	}

	var (
		saved *domain.Product
		err   error
	)
	if existing == nil {
		saved, err = s.repo.Create(ctx, p)
	} else {
		saved, err = s.repo.Update(ctx, p)
	}
	if err != nil {
		if image != nil {
			s.releaseImage(ctx, p.ImageRef)
		}
		return nil, &domain.BackendWriteError{Op: "save product", Err: err}
	}

	if existing != nil && image != nil && existing.ImageRef != "" && existing.ImageRef != saved.ImageRef {
		s.releaseImage(ctx, existing.ImageRef)
	}
	out := s.withURL(*saved)
	return &out, nil
}

// Delete removes the product. Failing to delete its image is logged and does
// not stop the record from being deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.ImageRef != "" {
		s.releaseImage(ctx, p.ImageRef)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return &domain.BackendWriteError{Op: "delete product", Err: err}
	}
	s.logger.Printf("catalog: deleted product id=%s", id)
	return nil
}

// ToggleAvailability flips the availability flag and nothing else.
func (s *Service) ToggleAvailability(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.ToggleAvailability(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.BackendWriteError{Op: "update availability", Err: err}
	}
	out := s.withURL(*p)
	return &out, nil
}

func (s *Service) releaseImage(ctx context.Context, ref string) {
	if err := s.images.Delete(ctx, ref); err != nil {
		s.logger.Printf("catalog: delete image ref=%s error=%v", ref, err)
	}
}

func (s *Service) withURL(p domain.Product) domain.Product {
	p.ImageURL = s.images.PublicURL(p.ImageRef)
	return p
}
