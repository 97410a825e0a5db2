// Package superchat holds the parameters of a Super Chat image and the client
// for the remote endpoint that renders them.
package superchat

const (
	DefaultPrice = 5000
	MinPrice     = 100
	MaxPrice     = 50000
	// MessageMinPrice is the lowest tier that may carry a message.
	MessageMinPrice = 200
	// DefaultName is sent when no name was entered.
	DefaultName = "Anonymous"
)

// Params describes one rendered image. An empty string means the field was
// not set. Icon is the path of the selected icon file.
type Params struct {
	Name    string
	Icon    string
	Price   int
	Message string
}

// DefaultParams returns the parameters of an untouched form.
func DefaultParams() Params {
	return Params{Price: DefaultPrice}
}

// MessageEnabled reports whether the price tier allows a message.
func (p Params) MessageEnabled() bool {
	return p.Price >= MessageMinPrice
}

// ClampPrice forces price into [MinPrice, MaxPrice].
func ClampPrice(price int) int {
	return min(max(price, MinPrice), MaxPrice)
}
