package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eshop-backend/internal/metrics"
	"eshop-backend/internal/model"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
	List(ctx context.Context) ([]*model.Product, error)
	// Reserve atomically decrements available stock, failing instead of
	// letting it go negative. Runs against the caller's transaction so a
	// failed assembly rolls every prior reservation back.
	Reserve(ctx context.Context, tx *gorm.DB, productID string, quantity int) error
	Restock(ctx context.Context, tx *gorm.DB, productID string, quantity int) error
	Seed(ctx context.Context) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) List(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).Order("id").Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) Reserve(ctx context.Context, tx *gorm.DB, productID string, quantity int) error {
	// Single conditional UPDATE: the stock floor check and the decrement are
	// one statement, so concurrent reservations cannot both pass the check.
	res := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := tx.WithContext(ctx).Model(&model.Product{}).
			Where("id = ?", productID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrProductNotFound
		}
		metrics.StockRejections.Inc()
		return ErrInsufficientStock
	}

	return nil
}

func (r *productRepoImpl) Restock(ctx context.Context, tx *gorm.DB, productID string, quantity int) error {
	res := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "sku_headphones", Name: "Wireless Headphones", Price: 79.99, Stock: 40, Image: "https://cdn.example.com/img/headphones.jpg"},
		{ID: "sku_keyboard", Name: "Mechanical Keyboard", Price: 129.00, Stock: 25, Image: "https://cdn.example.com/img/keyboard.jpg"},
		{ID: "sku_mug", Name: "Ceramic Mug", Price: 12.50, Stock: 120, Image: "https://cdn.example.com/img/mug.jpg"},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}
