package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		source       LinkSource
		wantJoin     string
		wantProvider string
		wantEventURL bool
	}{
		{
			name: "conference beats description",
			source: LinkSource{
				ConferenceURL: "https://meet.google.com/abc-defg-hij",
				Description:   "Join here: https://zoom.us/j/123456",
				URL:           "https://calendar.google.com/event?eid=123",
			},
			wantJoin:     "https://meet.google.com/abc-defg-hij",
			wantProvider: "google_meet",
			wantEventURL: true,
		},
		{
			name: "zoom meeting over support page",
			source: LinkSource{
				Description: "Docs: https://support.google.com/a/users/answer/9282720\nZoom https://us02web.zoom.us/j/555123",
			},
			wantJoin:     "https://us02web.zoom.us/j/555123",
			wantProvider: "zoom",
			wantEventURL: true,
		},
		{
			name:         "teams link in location",
			source:       LinkSource{Location: "https://teams.microsoft.com/l/meetup-join/abc"},
			wantJoin:     "https://teams.microsoft.com/l/meetup-join/abc",
			wantProvider: "teams",
			wantEventURL: true,
		},
		{
			name:         "calendar page is not a meeting",
			source:       LinkSource{URL: "https://calendar.google.com/event?eid=abc"},
			wantEventURL: true,
		},
		{
			name:   "no links",
			source: LinkSource{Location: "Room 4", Description: "bring snacks"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			joinURL, eventURL, provider := DeriveLinks(tc.source)
			assert.Equal(t, tc.wantJoin, joinURL)
			assert.Equal(t, tc.wantProvider, provider)
			assert.Equal(t, tc.wantEventURL, eventURL != "")
		})
	}
}
