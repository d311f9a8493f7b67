package oms

import (
	"time"

	"github.com/tradecore/matchengine/pkg/oms/model"
)

func (s *OMS) addOrderToMap(order *model.Order) {
	s.orderIDMapping.Store(order.OrderID, order)
}

func (s *OMS) GetOrderByOrderID(orderID string) (*model.Order, error) {
	val, ok := s.orderIDMapping.Load(orderID)
	if !ok {
		return nil, ErrOrderNotFound
	}
	return val.(*model.Order), nil
}

func (s *OMS) deleteOrderByOrderID(orderID string) {
	s.orderIDMapping.Delete(orderID)
}

// startCleaner periodically drops terminal orders and their event chains.
// Terminal records are kept around for a while so late cancels can be
// answered with NotActive instead of "unknown order".
func (s *OMS) startCleaner(interval time.Duration, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(maxAge)
		case <-s.stopCh:
			return
		}
	}
}

func (s *OMS) cleanup(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	s.orderIDMapping.Range(func(_, v any) bool {
		order := v.(*model.Order)
		mu := s.recordLock(order.Symbol)
		mu.Lock()
		end := order.IsEnd()
		mu.Unlock()
		if end && order.TransactTime.Before(cutoff) {
			s.deleteOrderByOrderID(order.OrderID)
			s.eventstore.DeleteChainByOrderID(order.OrderID)
		}
		return true
	})
}
