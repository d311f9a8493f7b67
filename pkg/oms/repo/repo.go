package repo

import (
	"gorm.io/gorm"
)

type IRepo interface {
	OrderEvent() IOrderEvent
	Trade() ITrade
}

type Repo struct {
	omsDB *gorm.DB
}

func NewRepo(omsDB *gorm.DB) IRepo {
	return &Repo{
		omsDB: omsDB,
	}
}

func (r *Repo) OrderEvent() IOrderEvent {
	return NewOrderEventSQLRepo(r.omsDB)
}

func (r *Repo) Trade() ITrade {
	return NewTradeSQLRepo(r.omsDB)
}
