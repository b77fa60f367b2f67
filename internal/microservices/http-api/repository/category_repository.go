package repository

import (
	"context"
	"fmt"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/pagination"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	ListPaged(ctx context.Context, page pagination.Page) ([]models.Category, int64, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id int64) error
	FirstOrCreateBySlug(ctx context.Context, name, slug string) (*models.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	if err := r.db.WithContext(ctx).Order("id asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

func (r *categoryRepository) ListPaged(ctx context.Context, page pagination.Page) ([]models.Category, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}
	var list []models.Category
	if err := r.db.WithContext(ctx).Order("id asc").Limit(page.Size).Offset(page.Offset()).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	return list, total, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	var list []models.Category
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	return list, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *models.Category) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create category: %w", translate(err))
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, c *models.Category) error {
	if err := r.db.WithContext(ctx).Model(c).Select("Name", "Slug").Updates(c).Error; err != nil {
		return fmt.Errorf("update category: %w", translate(err))
	}
	return nil
}

// Delete removes the category and its comic links.
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM comic_categories WHERE category_id = ?", id).Error; err != nil {
			return fmt.Errorf("detach category: %w", err)
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FirstOrCreateBySlug is used by the importer to upsert crawled genres.
func (r *categoryRepository) FirstOrCreateBySlug(ctx context.Context, name, slug string) (*models.Category, error) {
	c := models.Category{Name: name, Slug: slug}
	if err := r.db.WithContext(ctx).Where(models.Category{Slug: slug}).FirstOrCreate(&c).Error; err != nil {
		return nil, fmt.Errorf("upsert category %q: %w", slug, err)
	}
	return &c, nil
}
