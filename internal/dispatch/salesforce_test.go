package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/settings"
)

type mockSalesforce struct {
	mock.Mock
}

func (m *mockSalesforce) InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error) {
	args := m.Called(ctx, sObjectName, record)
	return args.String(0), args.Error(1)
}

func TestSalesforceAdapterRecordMapping(t *testing.T) {
	mc := new(mockSalesforce)
	var captured map[string]any
	mc.On("InsertOne", mock.Anything, "Lead", mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]any)
		}).
		Return("00Q123", nil)

	lead := testLead()
	lead.Phone = "+15551234567"
	lead.Email = "jane@acme.test"
	lead.Source = model.LeadSource
	lead.Summary = "wants a quote"

	a := NewSalesforceAdapter(mc)
	require.NoError(t, a.Sync(context.Background(), lead))

	mc.AssertExpectations(t)
	assert.Equal(t, "Jane", captured["FirstName"])
	assert.Equal(t, "Doe", captured["LastName"])
	assert.Equal(t, "Acme", captured["Company"])
	assert.Equal(t, "+15551234567", captured["Phone"])
	assert.Equal(t, "jane@acme.test", captured["Email"])
	assert.Equal(t, "chat", captured["LeadSource"])
	assert.Equal(t, "Hot", captured["Rating"])
}

func TestSalesforceAdapterDefaults(t *testing.T) {
	mc := new(mockSalesforce)
	var captured map[string]any
	mc.On("InsertOne", mock.Anything, "Lead", mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]any)
		}).
		Return("00Q124", nil)

	lead := testLead()
	lead.Name = ""
	lead.Company = ""
	lead.HotLead = false
	lead.LeadScore = 20

	a := NewSalesforceAdapter(mc)
	require.NoError(t, a.Sync(context.Background(), lead))

	assert.Equal(t, "Unknown", captured["LastName"])
	assert.Equal(t, "Unknown", captured["Company"])
	assert.Equal(t, "Cold", captured["Rating"])
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"", "", "Unknown"},
		{"Cher", "", "Cher"},
		{"Jane Doe", "Jane", "Doe"},
		{"Jean Claude Van Damme", "Jean Claude Van", "Damme"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first)
		assert.Equal(t, tt.last, last)
	}
}

func TestSalesforceAdapterToggle(t *testing.T) {
	a := NewSalesforceAdapter(new(mockSalesforce))
	assert.False(t, a.LiveSyncEnabled(&settings.Settings{}))
	assert.True(t, a.LiveSyncEnabled(&settings.Settings{Sync: settings.Toggles{Salesforce: true}}))
	assert.False(t, a.LiveSyncEnabled(nil))
}
