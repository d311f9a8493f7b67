package orderbook

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidPrice  = errors.New("invalid order price")
	ErrInvalidQty    = errors.New("invalid order quantity")
	ErrDuplicateID   = errors.New("duplicate order id")

	// ErrCrossedBook means the book was observed crossed after a matching
	// loop finished. Always a defect; the book refuses further requests.
	ErrCrossedBook = errors.New("order book crossed after matching")

	ErrEngineStopped = errors.New("engine stopped")

	errOrderTerminal = errors.New("order already terminal")
	errInvalidFill   = errors.New("invalid fill quantity")
)
