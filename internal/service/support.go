package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/notify"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

// DefaultSupportPageSize is the inbox page size when none is given.
const DefaultSupportPageSize = 5

// historyLimit caps the per-user history shown to reviewers.
const historyLimit = 10

// SupportPage is one page of the pending support inbox.
type SupportPage struct {
	Messages []model.SupportMessage `json:"messages"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	Pages    int                    `json:"pages"`
}

// Support is the customer support inbox.  Customers write in, every
// reviewer is told, and the first reviewer to answer or resolve a
// message closes it.
type Support struct {
	repo      *repository.SupportRepo
	reviewers *repository.ReviewerRepo
	notifier  notify.Notifier

	Now func() time.Time
}

func NewSupport(repo *repository.SupportRepo, reviewers *repository.ReviewerRepo, n notify.Notifier) *Support {
	return &Support{
		repo:      repo,
		reviewers: reviewers,
		notifier:  n,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

func cleanText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > model.MaxSupportText {
		return "", fmt.Errorf("%w: text must be 1..%d characters", ErrInvalidMessage, model.MaxSupportText)
	}
	return s, nil
}

// Submit stores a customer's message and forwards it to every
// reviewer.
func (s *Support) Submit(ctx context.Context, userID int64, text string) (*model.SupportMessage, error) {
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}
	m := &model.SupportMessage{UserID: userID, Text: text, CreatedAt: s.Now()}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	ids, err := s.reviewers.IDs(ctx)
	if err != nil {
		log.Printf("support: list reviewers for message %d: %v", m.ID, err)
		return m, nil
	}
	if len(ids) == 0 {
		log.Printf("support: no reviewers configured, message %d from user %d waits in the inbox", m.ID, userID)
	}
	for _, rid := range ids {
		s.notifier.Notify(notify.SupportMessage(rid, userID, m.ID, text))
	}
	return m, nil
}

// Pending returns one page of open messages, oldest first.  Pages are
// zero-based.
func (s *Support) Pending(ctx context.Context, page, size int) (*SupportPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultSupportPageSize
	}
	total, err := s.repo.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListPending(ctx, size, page*size)
	if err != nil {
		return nil, err
	}
	return &SupportPage{Messages: msgs, Total: total, Page: page, Pages: (total + size - 1) / size}, nil
}

// Get returns one message or ErrNotFound.
func (s *Support) Get(ctx context.Context, id int64) (*model.SupportMessage, error) {
	m, err := s.repo.Get(ctx, id)
	return m, translate(err)
}

// History returns a user's latest messages, newest first.
func (s *Support) History(ctx context.Context, userID int64) ([]model.SupportMessage, error) {
	return s.repo.ListByUser(ctx, userID, historyLimit)
}

// Reply answers a pending message and sends the answer to its author.
func (s *Support) Reply(ctx context.Context, id, reviewerID int64, text string) (*model.SupportMessage, error) {
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}
	m, err := s.close(ctx, id, reviewerID, text)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(notify.SupportReply(m.UserID, m.ID, text))
	return m, nil
}

// Resolve closes a pending message without a written answer.
func (s *Support) Resolve(ctx context.Context, id, reviewerID int64) (*model.SupportMessage, error) {
	m, err := s.close(ctx, id, reviewerID, "")
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(notify.SupportResolved(m.UserID, m.ID))
	return m, nil
}

func (s *Support) close(ctx context.Context, id, reviewerID int64, reply string) (*model.SupportMessage, error) {
	err := s.repo.MarkHandled(ctx, id, reviewerID, reply, s.Now())
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrAlreadyHandled
	}
	if err != nil {
		return nil, translate(err)
	}
	return s.Get(ctx, id)
}
