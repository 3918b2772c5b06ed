// Package client runs the game in a terminal: it reads the keyboard, drives
// the engine once per frame and draws the screens.
package client

import (
	"fmt"
	"log/slog"
	"os"
	"quadris/level"
	"quadris/progress"
	"quadris/tetris"
	"time"

	"github.com/eiannone/keyboard"
)

type clientState int

const (
	lobby clientState = iota
	selecting
	playing
)

type renderer interface {
	lobby(lobbyView)
	levels(levelsView)
	game(gameView)
}

type Options struct {
	NoGhost bool
	// Level is played right away when it's not zero.
	Level int
	// Frame is the time between two frames.
	Frame  time.Duration
	Logger *slog.Logger
}

// Client owns the engine. Keys and frames are handled one at a time by the
// goroutine running Start.
type Client struct {
	engine  *tetris.Engine
	levels  *level.Manager
	book    *progress.Book
	render  renderer
	options *Options
	logger  *slog.Logger
	kbCh    <-chan keyboard.KeyEvent
	ticker  Ticker
	now     func() time.Time
	close   func()

	state    clientState
	cursor   int
	message  string
	confirm  bool
	down     downRepeat
	last     time.Time
	recorded bool
}

func New(e *tetris.Engine, m *level.Manager, b *progress.Book, o *Options) (*Client, error) {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Frame <= 0 {
		o.Frame = time.Second / 60
	}
	kb, err := keyboard.GetKeys(20)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyboard: %w", err)
	}
	return &Client{
		engine:  e,
		levels:  m,
		book:    b,
		render:  newRender(os.Stdout, o.Logger, o.NoGhost),
		options: o,
		logger:  o.Logger,
		kbCh:    kb,
		ticker:  newWrappedTicker(o.Frame),
		now:     time.Now,
		close:   func() { keyboard.Close() },
	}, nil
}

// Close stops the frame ticker and releases the keyboard.
func (c *Client) Close() {
	c.ticker.Stop()
	if c.close != nil {
		c.close()
	}
}

// Start shows the lobby, or the level in Options, and returns when the player quits.
func (c *Client) Start() {
	if c.options.Level == 0 || !c.startLevel(c.options.Level) {
		c.showLobby()
	}
	for {
		select {
		case event, ok := <-c.kbCh:
			if !ok {
				c.logger.Error("Keyboard events channel closed unexpectedly")
				return
			}
			if event.Err != nil {
				c.logger.Error("keysEvents error", slog.String("error", event.Err.Error()))
				return
			}
			if event.Key == keyboard.KeyCtrlC {
				return
			}
			if !c.key(event) {
				return
			}
		case now := <-c.ticker.C():
			c.frame(now)
		}
	}
}

// key handles a key press and returns false when the player quits.
func (c *Client) key(ev keyboard.KeyEvent) bool {
	switch c.state {
	case lobby:
		return c.lobbyKey(ev)
	case selecting:
		c.selectKey(ev)
	case playing:
		c.playKey(ev)
	}
	return true
}

func (c *Client) lobbyKey(ev keyboard.KeyEvent) bool {
	if ev.Rune != 'x' {
		c.confirm = false
	}
	c.message = ""
	switch ev.Rune {
	case 'p':
		c.engine.StartClassic()
		c.play()
		return true
	case 'l':
		c.cursor = 0
		if id, ok := c.levels.NextUnlocked(); ok {
			c.cursor = c.indexOf(id)
		}
		c.showLevels()
		return true
	case 'c':
		id, ok := c.levels.NextUnlocked()
		if !ok {
			c.message = "Every level is completed"
			break
		}
		if c.startLevel(id) {
			return true
		}
	case 'x':
		if !c.confirm {
			c.confirm = true
			c.message = "Press x again to reset your progress"
			break
		}
		c.confirm = false
		c.message = "Progress reset"
		if err := c.levels.ResetProgress(); err != nil {
			c.message = "Unable to save the progress reset"
		}
	case 'q':
		return false
	}
	c.showLobby()
	return true
}

func (c *Client) selectKey(ev keyboard.KeyEvent) {
	levels := c.levels.Levels()
	c.message = ""
	switch {
	case ev.Key == keyboard.KeyArrowUp || ev.Rune == 'w':
		c.cursor = max(c.cursor-1, 0)
	case ev.Key == keyboard.KeyArrowDown || ev.Rune == 's':
		c.cursor = min(c.cursor+1, len(levels)-1)
	case ev.Key == keyboard.KeyEnter || ev.Key == keyboard.KeySpace:
		if c.cursor < len(levels) && c.startLevel(levels[c.cursor].ID) {
			return
		}
	case ev.Key == keyboard.KeyEsc || ev.Rune == 'm':
		c.showLobby()
		return
	}
	c.showLevels()
}

func (c *Client) playKey(ev keyboard.KeyEvent) {
	s := c.engine.Read()
	switch {
	case ev.Key == keyboard.KeyEsc || ev.Rune == 'm':
		c.showLobby()
		return
	case ev.Rune == 'n' && s.LevelComplete:
		if id, ok := c.nextLevel(s.LevelID); ok && c.startLevel(id) {
			return
		}
		c.showLevels()
		return
	}

	a, ok := intent(ev, c.engine.ReverseControls())
	if !ok {
		return
	}
	if a == tetris.MoveDown {
		a = c.down.action(c.now())
	} else {
		c.down.release()
	}
	c.engine.Action(a)
	if a == tetris.Restart {
		c.recorded = false
	}
	c.showGame()
}

// frame advances the game by the time since the previous frame.
func (c *Client) frame(now time.Time) {
	if c.state != playing {
		return
	}
	if !c.last.IsZero() {
		c.engine.Update(now.Sub(c.last))
	}
	c.last = now
	c.showGame()
}

func (c *Client) startLevel(id int) bool {
	if !c.levels.LoadLevel(id) {
		c.message = fmt.Sprintf("Level %d is locked", id)
		return false
	}
	c.engine.StartLevel(c.levels)
	c.play()
	return true
}

func (c *Client) play() {
	c.state = playing
	c.recorded = false
	c.last = time.Time{}
	c.down.release()
	c.message = ""
	c.showGame()
}

// nextLevel returns the first unlocked level after id.
func (c *Client) nextLevel(id int) (int, bool) {
	for _, l := range c.levels.Levels() {
		if l.ID > id && l.Unlocked {
			return l.ID, true
		}
	}
	return 0, false
}

func (c *Client) indexOf(id int) int {
	for i, l := range c.levels.Levels() {
		if l.ID == id {
			return i
		}
	}
	return 0
}

// record adds a finished game to the history, once.
func (c *Client) record(s *tetris.Snapshot) {
	if c.recorded || !(s.GameOver || s.LevelComplete || s.LevelFailed) {
		return
	}
	c.recorded = true
	if err := c.book.AddGame(progress.Entry{
		ID:      s.AttemptID,
		Mode:    s.Mode,
		LevelID: s.LevelID,
		Score:   s.Score,
		Lines:   s.LinesClear,
		Stars:   s.Stars,
		Passed:  s.LevelComplete,
	}); err != nil {
		c.logger.Warn("game not added to the history", slog.String("attempt", s.AttemptID.String()))
	}
}

func (c *Client) showLobby() {
	c.state = lobby
	c.render.lobby(lobbyView{
		HighScore: c.book.HighScore(),
		Summary:   c.levels.Summary(),
		Message:   c.message,
	})
}

func (c *Client) showLevels() {
	c.state = selecting
	c.render.levels(levelsView{
		Levels:  c.levels.Levels(),
		Cursor:  c.cursor,
		Message: c.message,
	})
}

func (c *Client) showGame() {
	s := c.engine.Read()
	c.record(s)
	title := "Classic"
	if l, ok := c.levels.Active(); ok && s.Mode == tetris.LevelMode {
		title = fmt.Sprintf("Level %d  %s", l.ID, l.Name)
	}
	c.render.game(gameView{Snapshot: s, Title: title})
}
