package superchat

// Ladder is the ascending list of price checkpoints the slider snaps to.
var Ladder = [...]int{
	100, 200, 500, 1000, 2000, 5000, 10000, 20000, 30000, 40000, 50000,
}

// Position returns the slider position for price: the index of the greatest
// checkpoint not exceeding it. Prices below the first checkpoint map to 0.
func Position(price int) int {
	n := 0
	for _, v := range Ladder {
		if price >= v {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

// PriceAt returns the checkpoint at slider position pos, clamped to the ladder.
func PriceAt(pos int) int {
	return Ladder[min(max(pos, 0), len(Ladder)-1)]
}
