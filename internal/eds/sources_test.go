package eds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workSourceData = `[Data Source]
DisplayName=Work
Enabled=true
Parent=google-account

[Calendar]
BackendName=caldav
Color=#62a0ea
Selected=true

[Offline]
ReadOnly=false
`

func TestParseSourceEntry(t *testing.T) {
	entry, err := parseSourceEntry("work-uid", workSourceData)
	require.NoError(t, err)

	assert.Equal(t, "Work", entry.DisplayName)
	assert.Equal(t, "google-account", entry.ParentUID)
	assert.True(t, entry.Enabled)
	assert.True(t, entry.HasCalendar)
	assert.True(t, entry.CalendarEnabled)
	assert.True(t, entry.CalendarSelected)
	assert.Equal(t, "caldav", entry.CalendarBackend)
	assert.Equal(t, "#62a0ea", entry.CalendarColor)
	assert.False(t, entry.ReadOnly)
}

func TestParseSourceEntry_AccountWithoutCalendar(t *testing.T) {
	entry, err := parseSourceEntry("google-account", "[Data Source]\nDisplayName=me@example.com\n")
	require.NoError(t, err)
	assert.False(t, entry.HasCalendar)
	assert.True(t, entry.Enabled)
}

func TestAccountName(t *testing.T) {
	entries := map[string]sourceEntry{
		"google-account": {UID: "google-account", DisplayName: "me@example.com"},
		"local-stub":     {UID: "local-stub", DisplayName: "On This Computer"},
	}

	assert.Equal(t, "me@example.com", accountName(sourceEntry{ParentUID: "google-account"}, entries))
	assert.Equal(t, "", accountName(sourceEntry{ParentUID: "local-stub"}, entries))
	assert.Equal(t, "", accountName(sourceEntry{ParentUID: "missing"}, entries))
	assert.Equal(t, "", accountName(sourceEntry{}, entries))
}
