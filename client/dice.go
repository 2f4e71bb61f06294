package client

import "math/rand"

// RandomRoll stands in for the dice board when there isn't one.
func RandomRoll() int {
	return rand.Intn(6) + 1
}
