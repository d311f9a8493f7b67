package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecore/matchengine/pkg/oms/model"
)

type TradeSQLRepo struct {
	db *gorm.DB
}

func NewTradeSQLRepo(db *gorm.DB) *TradeSQLRepo {
	return &TradeSQLRepo{
		db: db,
	}
}

func (r *TradeSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *TradeSQLRepo) Create(ctx context.Context, record *model.Trade) (*model.Trade, error) {
	return record, r.dbWithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "seq"}},
			DoNothing: true,
		}).
		Create(record).Error
}

func (r *TradeSQLRepo) BulkCreate(ctx context.Context, records []*model.Trade) ([]*model.Trade, error) {
	return records, r.dbWithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "seq"}},
			DoNothing: true,
		}).
		Create(records).Error
}

func (r *TradeSQLRepo) BySymbol(ctx context.Context, symbol string, limit int) ([]*model.Trade, error) {
	var out []*model.Trade
	q := r.dbWithContext(ctx).Where("symbol = ?", symbol).Order("seq desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return out, q.Find(&out).Error
}
