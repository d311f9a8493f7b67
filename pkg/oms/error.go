package oms

import "errors"

var (
	ErrInvalidOrder  = errors.New("invalid order")
	ErrOrderNotFound = errors.New("order not found")
	ErrRiskRejected  = errors.New("order rejected by risk rule")
)
