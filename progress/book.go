package progress

import (
	"errors"
	"log/slog"
	"quadris/tetris"
	"slices"
	"time"

	"github.com/google/uuid"
)

// HistoryLimit is how many finished games the book remembers.
const HistoryLimit = 50

// Book owns the progress of a player and saves it after every change.
type Book struct {
	store  Store
	logger *slog.Logger
	rec    Record
	now    func() time.Time
}

// NewBook loads the record from store. Missing or unreadable progress starts
// the book empty; it's logged and never returned as an error.
func NewBook(store Store, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Book{store: store, logger: logger, now: time.Now}
	rec, err := store.Load()
	switch {
	case errors.Is(err, ErrNoProgress):
		logger.Info("starting without progress")
		rec = Empty()
	case err != nil:
		logger.Error("unable to load progress, starting over", slog.Any("error", err))
		rec = Empty()
	}
	b.rec = rec.Clone()
	b.rec.normalize()
	return b
}

// Record returns a copy of the current progress.
func (b *Book) Record() Record { return b.rec.Clone() }

func (b *Book) IsCompleted(id int) bool { return b.rec.IsCompleted(id) }

func (b *Book) BestScore(id int) int { return b.rec.BestScores[id] }

func (b *Book) BestStars(id int) int { return b.rec.BestStars[id] }

func (b *Book) HighScore() int { return b.rec.HighScore }

// Complete marks level id as completed and keeps score and stars when they
// beat the stored bests.
func (b *Book) Complete(id, score, stars int) error {
	if !b.rec.IsCompleted(id) {
		b.rec.Completed = append(b.rec.Completed, id)
		slices.Sort(b.rec.Completed)
	}
	if best, ok := b.rec.BestScores[id]; !ok || score > best {
		b.rec.BestScores[id] = score
	}
	if best, ok := b.rec.BestStars[id]; !ok || stars > best {
		b.rec.BestStars[id] = stars
	}
	return b.save()
}

// AddGame records a finished game. Classic games also update the high score.
func (b *Book) AddGame(e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.PlayedAt.IsZero() {
		e.PlayedAt = b.now()
	}
	if e.Mode == tetris.Classic && e.Score > b.rec.HighScore {
		b.rec.HighScore = e.Score
	}
	b.rec.History = slices.Insert(b.rec.History, 0, e)
	if len(b.rec.History) > HistoryLimit {
		b.rec.History = b.rec.History[:HistoryLimit]
	}
	return b.save()
}

// Reset forgets everything and saves the empty record.
func (b *Book) Reset() error {
	b.rec = Empty()
	return b.save()
}

func (b *Book) save() error {
	if err := b.store.Save(b.rec.Clone()); err != nil {
		b.logger.Error("unable to save progress", slog.Any("error", err))
		return err
	}
	return nil
}
