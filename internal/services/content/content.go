// Package content covers the contact form, the blog and the store settings.
package content

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"
	"dryfruit_back_end/internal/utils"
)

const maxMessageLength = 5000

type Messages interface {
	Create(ctx context.Context, m *models.ContactMessage) error
	List(ctx context.Context, f store.MessageFilter) ([]models.ContactMessage, int64, error)
	Stats(ctx context.Context) (models.MessageStats, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.ContactMessage, error)
	Delete(ctx context.Context, id string) error
}

type Blog interface {
	List(ctx context.Context, publishedOnly bool, tag string, p store.Page) ([]models.BlogPost, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	Create(ctx context.Context, b *models.BlogPost) error
}

type Settings interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, st *models.Settings) error
}

type Notifier interface {
	ContactReceived(msg models.ContactMessage)
}

type Service struct {
	messages Messages
	blog     Blog
	settings Settings
	notifier Notifier
	defaults models.Settings
}

// NewService takes the settings served before an admin saves any.
func NewService(messages Messages, blog Blog, settings Settings, notifier Notifier, defaults models.Settings) *Service {
	return &Service{messages: messages, blog: blog, settings: settings, notifier: notifier, defaults: defaults}
}

type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	switch {
	case msg.Name == "":
		return nil, apperr.Validation("name is required")
	case msg.Message == "":
		return nil, apperr.Validation("message is required")
	case len(msg.Message) > maxMessageLength:
		return nil, apperr.Validation("message is too long")
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return nil, apperr.Validation("A valid email is required")
	}
	if msg.Subject == "" {
		msg.Subject = "General enquiry"
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperr.Internal(err)
	}
	if s.notifier != nil {
		s.notifier.ContactReceived(*msg)
	}
	return msg, nil
}

type MessagePage struct {
	Items      []models.ContactMessage `json:"items"`
	Stats      models.MessageStats     `json:"stats"`
	Pagination models.Pagination       `json:"pagination"`
}

type MessageQuery struct {
	Page   int
	Limit  int
	Search string
	Status string
}

func (s *Service) ListMessages(ctx context.Context, q MessageQuery) (*MessagePage, error) {
	if q.Status != "" && !models.ValidMessageStatus(q.Status) {
		return nil, apperr.Validation("Unknown message status " + q.Status)
	}
	page := store.Page{Page: q.Page, Limit: q.Limit}.Normalize()
	items, total, err := s.messages.List(ctx, store.MessageFilter{
		Search: strings.TrimSpace(q.Search),
		Status: q.Status,
		Page:   page,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	stats, err := s.messages.Stats(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &MessagePage{Items: items, Stats: stats, Pagination: models.NewPagination(page.Page, page.Limit, total)}, nil
}

func (s *Service) UpdateMessageStatus(ctx context.Context, id, status string) (*models.ContactMessage, error) {
	if !models.ValidMessageStatus(status) {
		return nil, apperr.Validation("status must be new, read, replied or archived")
	}
	m, err := s.messages.UpdateStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Message not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return m, nil
}

func (s *Service) DeleteMessage(ctx context.Context, id string) error {
	err := s.messages.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Message not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

type BlogPage struct {
	Items      []models.BlogPost `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// ListPosts shows drafts to admins only.
func (s *Service) ListPosts(ctx context.Context, includeDrafts bool, tag string, page store.Page) (*BlogPage, error) {
	page = page.Normalize()
	items, total, err := s.blog.List(ctx, !includeDrafts, tag, page)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &BlogPage{Items: items, Pagination: models.NewPagination(page.Page, page.Limit, total)}, nil
}

func (s *Service) GetPost(ctx context.Context, slug string, includeDrafts bool) (*models.BlogPost, error) {
	b, err := s.blog.FindBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !b.Published && !includeDrafts) {
		return nil, apperr.NotFound("Post not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return b, nil
}

func (s *Service) CreatePost(ctx context.Context, b *models.BlogPost) (*models.BlogPost, error) {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" || strings.TrimSpace(b.Content) == "" {
		return nil, apperr.Validation("title and content are required")
	}
	if b.Slug == "" {
		b.Slug = utils.Slugify(b.Title)
	} else {
		b.Slug = utils.Slugify(b.Slug)
	}
	if b.Excerpt == "" {
		b.Excerpt = excerpt(b.Content, 160)
	}
	if err := s.blog.Create(ctx, b); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("A post with this slug already exists")
		}
		return nil, apperr.Internal(err)
	}
	return b, nil
}

func excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

func (s *Service) GetSettings(ctx context.Context) (*models.Settings, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if st.StoreName == "" {
		d := s.defaults
		d.UpdatedAt = st.UpdatedAt
		return &d, nil
	}
	return st, nil
}

// SaveSettings replaces the settings document and returns the previous one.
func (s *Service) SaveSettings(ctx context.Context, st *models.Settings) (before *models.Settings, err error) {
	st.StoreName = strings.TrimSpace(st.StoreName)
	switch {
	case st.StoreName == "":
		return nil, apperr.Validation("storeName is required")
	case st.TaxRate < 0 || st.TaxRate > 100:
		return nil, apperr.Validation("taxRate must be between 0 and 100")
	case st.FreeShippingThreshold < 0:
		return nil, apperr.Validation("freeShippingThreshold cannot be negative")
	}
	if st.SupportEmail != "" {
		if _, err := mail.ParseAddress(st.SupportEmail); err != nil {
			return nil, apperr.Validation("supportEmail is not a valid email")
		}
	}
	before, err = s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.settings.Save(ctx, st); err != nil {
		return nil, apperr.Internal(err)
	}
	return before, nil
}
