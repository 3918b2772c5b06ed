package client

import (
	"fmt"
	"io"
	"log/slog"
	"quadris/level"
	"quadris/tetris"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	block = "[]"
	ghost = "::"
	empty = "  "

	clearScreen = "\033[2J"
	resetPos    = "\033[H" // Reset cursor position to 0,0
)

// ANSI colors of the pieces.
var colorMap = map[tetris.Color]lipgloss.Color{
	tetris.Cyan:    lipgloss.Color("6"),
	tetris.Blue:    lipgloss.Color("4"),
	tetris.Orange:  lipgloss.Color("214"),
	tetris.Yellow:  lipgloss.Color("3"),
	tetris.Green:   lipgloss.Color("2"),
	tetris.Red:     lipgloss.Color("1"),
	tetris.Magenta: lipgloss.Color("5"),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	boardStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder())
	panelStyle  = lipgloss.NewStyle().PaddingLeft(2).Width(28)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	lockStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
)

// cell is one square of the board as it's drawn.
type cell struct {
	text  string
	color tetris.Color
}

// gameView is everything the game screen shows.
type gameView struct {
	*tetris.Snapshot
	Title string
}

type lobbyView struct {
	HighScore int
	Summary   level.Summary
	Message   string
}

type levelsView struct {
	Levels  []level.Info
	Cursor  int
	Message string
}

type render struct {
	writer  io.Writer
	logger  *slog.Logger
	noGhost bool
	// screen is the screen drawn last. Game frames only clear the console
	// when coming from another screen.
	screen string
}

func newRender(w io.Writer, l *slog.Logger, noGhost bool) *render {
	return &render{writer: w, logger: l, noGhost: noGhost}
}

func (r *render) print(screen, s string) {
	// the console is raw so new lines don't return the carriage on their own.
	s = resetPos + strings.ReplaceAll(s, "\n", "\r\n")
	if r.screen != screen || screen != "game" {
		s = clearScreen + s
		r.screen = screen
	}
	if _, err := fmt.Fprint(r.writer, s); err != nil {
		r.logger.Error("unable to render", slog.String("error", err.Error()))
	}
}

func (r *render) lobby(v lobbyView) {
	lines := []string{
		titleStyle.Render("Welcome to Quadris"),
		"",
		"(p)lay   (l)evels   (c)ontinue   (q)uit",
		"",
		fmt.Sprintf("High score  %d", v.HighScore),
		fmt.Sprintf("Levels      %d/%d", v.Summary.Completed, v.Summary.TotalLevels),
		fmt.Sprintf("Stars       %d/%d", v.Summary.TotalStars, v.Summary.MaxStars),
		"",
		helpStyle.Render("(x) reset progress"),
	}
	if v.Message != "" {
		lines = append(lines, "", v.Message)
	}
	r.print("lobby", boxStyle.Render(strings.Join(lines, "\n"))+"\n")
}

func (r *render) levels(v levelsView) {
	var list []string
	for i, l := range v.Levels {
		row := fmt.Sprintf("%2d  %-26s %s", l.ID, l.Name, stars(l.BestStars, len(l.Stars)))
		switch {
		case i == v.Cursor:
			row = cursorStyle.Render(row)
		case !l.Unlocked:
			row = lockStyle.Render(row)
		}
		list = append(list, row)
	}
	var detail string
	if v.Cursor >= 0 && v.Cursor < len(v.Levels) {
		detail = describe(v.Levels[v.Cursor])
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(strings.Join(list, "\n")),
		panelStyle.Render(detail),
	)
	help := helpStyle.Render("up/down select   enter play   esc back")
	if v.Message != "" {
		help = v.Message + "\n" + help
	}
	r.print("levels", out+"\n"+help+"\n")
}

func (r *render) game(v gameView) {
	s := v.Snapshot
	var rows []string
	for _, row := range cells(s, r.noGhost) {
		var b strings.Builder
		for _, c := range row {
			b.WriteString(paint(c))
		}
		rows = append(rows, b.String())
	}
	board := boardStyle.Render(strings.Join(rows, "\n"))
	r.print("game", lipgloss.JoinHorizontal(lipgloss.Top, board, panelStyle.Render(panel(v)))+"\n")
}

// cells lays out the stack, the ghost and the current tetromino.
func cells(s *tetris.Snapshot, noGhost bool) [][]cell {
	rows := make([][]cell, s.Height)
	for y := range s.Height {
		rows[y] = make([]cell, s.Width)
		for x := range s.Width {
			rows[y][x] = cell{text: empty}
			if c := s.Stack[y][x]; c != "" {
				rows[y][x] = cell{text: block, color: c}
			}
		}
	}
	t := s.Tetromino
	if t == nil {
		return rows
	}
	place := func(top int, c cell) {
		for iy, row := range t.Grid() {
			for ix, filled := range row {
				y, x := top+iy, s.Offset.X+ix
				if !filled || y < 0 || y >= s.Height || x < 0 || x >= s.Width {
					continue
				}
				rows[y][x] = c
			}
		}
	}
	if !noGhost && !s.GameOver {
		place(s.GhostY, cell{text: ghost, color: t.Color()})
	}
	place(s.Offset.Y, cell{text: block, color: t.Color()})
	return rows
}

func paint(c cell) string {
	color, ok := colorMap[c.color]
	switch {
	case !ok:
		return c.text
	case c.text == block:
		return lipgloss.NewStyle().Reverse(true).Foreground(color).Render(c.text)
	default:
		return lipgloss.NewStyle().Foreground(color).Render(c.text)
	}
}

func panel(v gameView) string {
	s := v.Snapshot
	lines := []string{titleStyle.Render(v.Title), ""}
	lines = append(lines,
		fmt.Sprintf("Score  %d", s.Score),
		fmt.Sprintf("Level  %d", s.Level),
	)
	if s.Mode == tetris.LevelMode {
		lines = append(lines, fmt.Sprintf("Lines  %d/%d", s.LinesClear, s.TargetLines))
		if s.TimeLimited {
			lines = append(lines, "Time   "+clock(s.TimeRemaining))
		}
	} else {
		lines = append(lines, fmt.Sprintf("Lines  %d", s.LinesClear))
	}
	lines = append(lines, "", "Next")
	if n := s.NextTetromino; n != nil {
		for _, row := range n.Grid() {
			var b strings.Builder
			for _, filled := range row {
				if filled {
					b.WriteString(paint(cell{text: block, color: n.Color()}))
				} else {
					b.WriteString(empty)
				}
			}
			lines = append(lines, b.String())
		}
	}
	lines = append(lines, "", status(s))
	return strings.Join(lines, "\n")
}

func status(s *tetris.Snapshot) string {
	switch {
	case s.LevelComplete:
		return titleStyle.Render("Level complete "+stars(s.Stars, level.MaxStars)) +
			"\n" + helpStyle.Render("(n)ext (r)etry (m)enu")
	case s.LevelFailed:
		return titleStyle.Render("Time's up") + "\n" + helpStyle.Render("(r)etry (m)enu")
	case s.GameOver:
		return titleStyle.Render("Game over") + "\n" + helpStyle.Render("(r)estart (m)enu")
	case s.Paused:
		return titleStyle.Render("Paused") + "\n" + helpStyle.Render("(p) resume")
	}
	return helpStyle.Render("arrows move  up rotate\nspace drop  (p)ause  (m)enu")
}

func describe(l level.Info) string {
	lines := []string{titleStyle.Render(l.Name), l.Description, ""}
	lines = append(lines,
		fmt.Sprintf("Target   %d lines", l.TargetLines),
		fmt.Sprintf("Speed    x%.1f", l.Speed),
	)
	if limit, ok := l.Limit(); ok {
		lines = append(lines, "Time     "+clock(limit))
	}
	if len(l.Shapes) > 0 {
		var names []string
		for _, s := range l.Shapes {
			names = append(names, s.String())
		}
		lines = append(lines, "Pieces   "+strings.Join(names, " "))
	}
	if r := l.Rules.MaxRotations; r != nil {
		lines = append(lines, fmt.Sprintf("Rotations %d", *r))
	}
	if l.Rules.DisableDownAcceleration {
		lines = append(lines, "No down acceleration")
	}
	if l.Rules.ReverseControls {
		lines = append(lines, "Reversed controls")
	}
	switch {
	case !l.Unlocked:
		lines = append(lines, "", fmt.Sprintf("Complete level %d to unlock", l.Requires))
	case l.Completed:
		lines = append(lines, "", fmt.Sprintf("Best %d", l.BestScore))
	}
	return strings.Join(lines, "\n")
}

func stars(n, total int) string {
	n = min(n, total)
	return strings.Repeat("★", n) + strings.Repeat("☆", total-n)
}

func clock(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
