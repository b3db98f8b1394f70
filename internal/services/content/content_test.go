package content

import (
	"context"
	"strings"
	"testing"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMessages struct{ items []models.ContactMessage }

func (f *fakeMessages) Create(_ context.Context, m *models.ContactMessage) error {
	m.ID = primitive.NewObjectID()
	m.Status = models.MessageNew
	f.items = append(f.items, *m)
	return nil
}

func (f *fakeMessages) List(_ context.Context, q store.MessageFilter) ([]models.ContactMessage, int64, error) {
	search := strings.ToLower(q.Search)
	out := []models.ContactMessage{}
	for _, m := range f.items {
		if q.Status != "" && m.Status != q.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name+" "+m.Email+" "+m.Subject), search) {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (f *fakeMessages) Stats(context.Context) (models.MessageStats, error) {
	st := models.NewMessageStats()
	for _, m := range f.items {
		st.Total++
		st.ByStatus[m.Status]++
	}
	return st, nil
}

func (f *fakeMessages) UpdateStatus(_ context.Context, id, status string) (*models.ContactMessage, error) {
	for i := range f.items {
		if f.items[i].ID.Hex() == id {
			f.items[i].Status = status
			m := f.items[i]
			return &m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeMessages) Delete(_ context.Context, id string) error {
	for i := range f.items {
		if f.items[i].ID.Hex() == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeBlog struct{ items []models.BlogPost }

func (f *fakeBlog) List(_ context.Context, publishedOnly bool, tag string, _ store.Page) ([]models.BlogPost, int64, error) {
	out := []models.BlogPost{}
	for _, b := range f.items {
		if publishedOnly && !b.Published {
			continue
		}
		if tag != "" && !contains(b.Tags, tag) {
			continue
		}
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (f *fakeBlog) FindBySlug(_ context.Context, slug string) (*models.BlogPost, error) {
	for _, b := range f.items {
		if b.Slug == slug {
			cp := b
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeBlog) Create(_ context.Context, b *models.BlogPost) error {
	if _, err := f.FindBySlug(context.Background(), b.Slug); err == nil {
		return store.ErrDuplicate
	}
	b.ID = primitive.NewObjectID()
	f.items = append(f.items, *b)
	return nil
}

type fakeSettings struct{ st *models.Settings }

func (f *fakeSettings) Get(context.Context) (*models.Settings, error) {
	if f.st == nil {
		return &models.Settings{}, nil
	}
	cp := *f.st
	return &cp, nil
}

func (f *fakeSettings) Save(_ context.Context, st *models.Settings) error {
	cp := *st
	f.st = &cp
	return nil
}

type inbox struct{ got []models.ContactMessage }

func (i *inbox) ContactReceived(m models.ContactMessage) { i.got = append(i.got, m) }

func setup() (*Service, *fakeMessages, *fakeBlog, *inbox) {
	msgs, blog, in := &fakeMessages{}, &fakeBlog{}, &inbox{}
	svc := NewService(msgs, blog, &fakeSettings{}, in, models.Settings{StoreName: "Organic Dry Fruits", TaxRate: 18, FreeShippingThreshold: 999})
	return svc, msgs, blog, in
}

func TestSubmitContact(t *testing.T) {
	svc, _, _, in := setup()
	ctx := context.Background()

	m, err := svc.SubmitContact(ctx, ContactInput{Name: "Asha", Email: "Asha@Example.com", Message: "Do you ship to Goa?"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", m.Email)
	assert.Equal(t, "General enquiry", m.Subject)
	require.Len(t, in.got, 1)

	_, err = svc.SubmitContact(ctx, ContactInput{Name: "Asha", Email: "nope", Message: "hi"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = svc.SubmitContact(ctx, ContactInput{Name: "Asha", Email: "a@b.co", Message: strings.Repeat("x", maxMessageLength+1)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestMessageLifecycle(t *testing.T) {
	svc, _, _, _ := setup()
	ctx := context.Background()
	m, err := svc.SubmitContact(ctx, ContactInput{Name: "Ravi", Email: "ravi@example.com", Message: "Bulk order"})
	require.NoError(t, err)

	page, err := svc.ListMessages(ctx, MessageQuery{Status: models.MessageNew})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = svc.ListMessages(ctx, MessageQuery{Status: "spam"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	updated, err := svc.UpdateMessageStatus(ctx, m.ID.Hex(), models.MessageReplied)
	require.NoError(t, err)
	assert.Equal(t, models.MessageReplied, updated.Status)

	_, err = svc.UpdateMessageStatus(ctx, m.ID.Hex(), "done")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	require.NoError(t, svc.DeleteMessage(ctx, m.ID.Hex()))
	err = svc.DeleteMessage(ctx, m.ID.Hex())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestListMessagesSearchAndStats(t *testing.T) {
	svc, _, _, _ := setup()
	ctx := context.Background()
	for _, in := range []ContactInput{
		{Name: "Ravi", Email: "ravi@example.com", Subject: "Bulk cashews", Message: "Price for 20 kg?"},
		{Name: "Meera", Email: "meera@example.com", Subject: "Late delivery", Message: "Order is late"},
		{Name: "Kabir", Email: "kabir@cashewco.in", Message: "Wholesale"},
	} {
		_, err := svc.SubmitContact(ctx, in)
		require.NoError(t, err)
	}
	late, err := svc.ListMessages(ctx, MessageQuery{Search: "late"})
	require.NoError(t, err)
	require.Len(t, late.Items, 1)
	_, err = svc.UpdateMessageStatus(ctx, late.Items[0].ID.Hex(), models.MessageArchived)
	require.NoError(t, err)

	page, err := svc.ListMessages(ctx, MessageQuery{Search: "CASHEW"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.Equal(t, int64(3), page.Stats.Total)
	assert.Equal(t, int64(2), page.Stats.ByStatus[models.MessageNew])
	assert.Equal(t, int64(1), page.Stats.ByStatus[models.MessageArchived])
	assert.Contains(t, page.Stats.ByStatus, models.MessageReplied)

	page, err = svc.ListMessages(ctx, MessageQuery{Search: "cashew", Status: models.MessageArchived})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestBlogDraftsAreHidden(t *testing.T) {
	svc, _, _, _ := setup()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, &models.BlogPost{Title: "Why Soak Almonds?", Content: "Soaking almonds overnight softens them and makes them easier to digest.", Published: true, Tags: []string{"health"}})
	require.NoError(t, err)
	assert.Equal(t, "why-soak-almonds", post.Slug)
	assert.NotEmpty(t, post.Excerpt)

	_, err = svc.CreatePost(ctx, &models.BlogPost{Title: "Draft", Content: "wip"})
	require.NoError(t, err)

	_, err = svc.CreatePost(ctx, &models.BlogPost{Title: "Why soak almonds", Content: "again"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	public, err := svc.ListPosts(ctx, false, "", store.Page{})
	require.NoError(t, err)
	assert.Len(t, public.Items, 1)
	all, err := svc.ListPosts(ctx, true, "", store.Page{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = svc.GetPost(ctx, "draft", false)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = svc.GetPost(ctx, "draft", true)
	require.NoError(t, err)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short text", excerpt("short   text", 20))
	got := excerpt("one two three four five six", 12)
	assert.Equal(t, "one two…", got)
}

func TestSettings(t *testing.T) {
	svc, _, _, _ := setup()
	ctx := context.Background()

	st, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Organic Dry Fruits", st.StoreName)

	_, err = svc.SaveSettings(ctx, &models.Settings{StoreName: "Nuts & Co", TaxRate: 120})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	before, err := svc.SaveSettings(ctx, &models.Settings{StoreName: "Nuts & Co", TaxRate: 18, Announcement: "Diwali sale"})
	require.NoError(t, err)
	assert.Equal(t, "Organic Dry Fruits", before.StoreName)

	st, err = svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Diwali sale", st.Announcement)
}
