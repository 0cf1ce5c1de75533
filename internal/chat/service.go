package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gopherchat/gopherchat/internal/ai"
)

const timeLayout = "2006-01-02 15:04:05"

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ErrEmptyMessage rejects messages that are empty after trimming.
var ErrEmptyMessage = errors.New("chat: message cannot be empty")

// Event describes one completed exchange, published after the record is
// persisted.
type Event struct {
	RecordID  uint64    `json:"record_id"`
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EventPublisher receives exchange events. Publishing is fire-and-forget; a
// failed publish never fails the exchange itself.
type EventPublisher interface {
	PublishExchange(ctx context.Context, ev Event) error
}

type Service struct {
	repo     *Repo
	provider ai.Provider
	events   EventPublisher // nil disables publishing
	log      *slog.Logger
}

func NewService(repo *Repo, provider ai.Provider, events EventPublisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, provider: provider, events: events, log: log}
}

// Send relays one message to the completion provider and persists the
// exchange. Each call is stateless from the model's perspective: only the
// single user message is sent, never prior history.
func (s *Service) Send(ctx context.Context, userID uint64, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	reply, err := s.provider.Chat(ctx, []ai.Message{{Role: "user", Content: message}})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)

	rec := &Record{
		UserID:   userID,
		Question: message,
		Answer:   reply,
	}
	if err := s.repo.InsertRecord(ctx, rec); err != nil {
		return "", err
	}

	if s.events != nil {
		ev := Event{RecordID: rec.ID, UserID: rec.UserID, CreatedAt: rec.CreatedAt}
		if err := s.events.PublishExchange(ctx, ev); err != nil {
			s.log.Warn("publish chat event failed", "record_id", rec.ID, "error", err)
		}
	}

	return reply, nil
}

// RecordView is one history entry as returned by the API.
type RecordView struct {
	ID        uint64 `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"created_at"`
}

// HistoryPage is one page of a user's history plus pagination totals.
type HistoryPage struct {
	Records     []RecordView `json:"records"`
	Total       int64        `json:"total"`
	TotalPages  int          `json:"total_pages"`
	CurrentPage int          `json:"current_page"`
	PageSize    int          `json:"page_size"`
}

// History returns page `page` (1-based, size `size`) of the user's records,
// newest first. Non-positive page falls back to 1, out-of-range size to the
// default.
func (s *Service) History(ctx context.Context, userID uint64, page, size int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	recs, err := s.repo.ListPage(ctx, userID, (page-1)*size, size)
	if err != nil {
		return nil, err
	}

	views := make([]RecordView, 0, len(recs))
	for _, r := range recs {
		views = append(views, RecordView{
			ID:        r.ID,
			Question:  r.Question,
			Answer:    r.Answer,
			CreatedAt: r.CreatedAt.Format(timeLayout),
		})
	}

	return &HistoryPage{
		Records:     views,
		Total:       total,
		TotalPages:  int((total + int64(size) - 1) / int64(size)),
		CurrentPage: page,
		PageSize:    size,
	}, nil
}
