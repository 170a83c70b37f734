package service

import "sync"

// FixedRoller replays the given rolls in order, repeating the last one
func FixedRoller(rolls ...int) Roller {
	var mu sync.Mutex
	i := 0
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		roll := rolls[i]
		if i < len(rolls)-1 {
			i++
		}
		return roll
	}
}
