package client

import (
	"quadris/tetris"
	"time"

	"github.com/eiannone/keyboard"
)

// repeatWindow is how close two down presses have to be to count as holding the key.
const repeatWindow = 150 * time.Millisecond

// intent maps a key to a game action. Reversed levels swap left and right.
func intent(ev keyboard.KeyEvent, reversed bool) (tetris.Action, bool) {
	var a tetris.Action
	switch {
	case ev.Key == keyboard.KeyArrowLeft || ev.Rune == 'a':
		a = tetris.MoveLeft
	case ev.Key == keyboard.KeyArrowRight || ev.Rune == 'd':
		a = tetris.MoveRight
	case ev.Key == keyboard.KeyArrowDown || ev.Rune == 's':
		a = tetris.MoveDown
	case ev.Key == keyboard.KeyArrowUp || ev.Rune == 'w' || ev.Rune == 'e':
		a = tetris.RotateRight
	case ev.Key == keyboard.KeySpace:
		a = tetris.DropDown
	case ev.Rune == 'p':
		a = tetris.Pause
	case ev.Rune == 'r':
		a = tetris.Restart
	default:
		return "", false
	}
	if reversed {
		switch a {
		case tetris.MoveLeft:
			a = tetris.MoveRight
		case tetris.MoveRight:
			a = tetris.MoveLeft
		}
	}
	return a, true
}

// downRepeat turns quick repeats of the down key into acceleration.
type downRepeat struct {
	last time.Time
}

func (d *downRepeat) action(now time.Time) tetris.Action {
	held := !d.last.IsZero() && now.Sub(d.last) <= repeatWindow
	d.last = now
	if held {
		return tetris.Accelerate
	}
	return tetris.MoveDown
}

func (d *downRepeat) release() { d.last = time.Time{} }
