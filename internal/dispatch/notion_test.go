package dispatch

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotion struct {
	mock.Mock
}

func (m *mockNotion) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func TestNotionAdapterPageMapping(t *testing.T) {
	mc := new(mockNotion)
	var captured *notionapi.PageCreateRequest
	mc.On("CreatePage", mock.Anything, mock.AnythingOfType("*notionapi.PageCreateRequest")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*notionapi.PageCreateRequest)
		}).
		Return(&notionapi.Page{}, nil)

	lead := testLead()
	lead.Phone = "+15551234567"
	lead.Summary = "wants a quote"

	a := NewNotionAdapter(mc, "db-123")
	require.NoError(t, a.Sync(context.Background(), lead))

	mc.AssertExpectations(t)
	require.NotNil(t, captured)
	assert.Equal(t, notionapi.DatabaseID("db-123"), captured.Parent.DatabaseID)

	title, ok := captured.Properties["Name"].(notionapi.TitleProperty)
	require.True(t, ok)
	require.Len(t, title.Title, 1)
	assert.Equal(t, "Jane Doe", title.Title[0].Text.Content)

	score, ok := captured.Properties["Score"].(notionapi.NumberProperty)
	require.True(t, ok)
	assert.Equal(t, float64(85), score.Number)

	hot, ok := captured.Properties["Hot Lead"].(notionapi.CheckboxProperty)
	require.True(t, ok)
	assert.True(t, hot.Checkbox)

	phone, ok := captured.Properties["Phone"].(notionapi.PhoneNumberProperty)
	require.True(t, ok)
	assert.Equal(t, "+15551234567", phone.PhoneNumber)

	_, hasEmail := captured.Properties["Email"]
	assert.False(t, hasEmail)
}

func TestNotionAdapterPropagatesError(t *testing.T) {
	mc := new(mockNotion)
	mc.On("CreatePage", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	a := NewNotionAdapter(mc, "db-123")
	err := a.Sync(context.Background(), testLead())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion sync")
}
