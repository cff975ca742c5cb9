package orders

import "errors"

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrLineItemNotFound        = errors.New("line item not found")
	ErrDuplicateIdentifier     = errors.New("duplicate order identifier")
	ErrDuplicateProductInOrder = errors.New("product already present in order")
)
