package types

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Valid reports whether s is one of the two known sides.
func (s TradeSide) Valid() bool {
	return s == TradeSideBuy || s == TradeSideSell
}
