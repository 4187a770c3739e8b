package schedule

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var urlRegex = regexp.MustCompile(`https?://[^\s<>"]+`)

// LinkSource is the text of an event that may carry a meeting link.
type LinkSource struct {
	ConferenceURL string
	URL           string
	Location      string
	Description   string
}

type meetingProvider struct {
	name string
	// matches reports the join rank of a URL on this provider, or -1.
	matches func(host, raw string) int
}

// Lower join ranks win; anything above joinRankCutoff is not a meeting.
const joinRankCutoff = 10

var meetingProviders = []meetingProvider{
	{name: "google_meet", matches: func(host, raw string) int {
		switch {
		case strings.HasSuffix(host, "meet.google.com"):
			return 0
		case strings.HasSuffix(host, "tel.meet"):
			return 4
		case strings.Contains(host, "google.com") && strings.Contains(raw, "meet"):
			return 6
		}
		return -1
	}},
	{name: "zoom", matches: func(host, raw string) int {
		if !strings.HasSuffix(host, "zoom.us") && !strings.HasSuffix(host, "zoomgov.com") {
			return -1
		}
		if strings.Contains(raw, "/j/") || strings.Contains(raw, "/wc/") {
			return 1
		}
		return 5
	}},
	{name: "teams", matches: func(host, raw string) int {
		if host == "teams.microsoft.com" && strings.Contains(raw, "meetup-join") {
			return 1
		}
		if host == "teams.live.com" {
			return 2
		}
		return -1
	}},
	{name: "jitsi", matches: func(host, _ string) int {
		if host == "meet.jit.si" {
			return 2
		}
		return -1
	}},
	{name: "webex", matches: func(host, _ string) int {
		if strings.HasSuffix(host, ".webex.com") {
			return 3
		}
		return -1
	}},
}

type urlCandidate struct {
	Value      string
	SourceRank int
	JoinRank   int
	Provider   string
}

// DeriveLinks picks the best meeting link and the best general link from an
// event. joinURL is empty when nothing looks like a video call.
func DeriveLinks(event LinkSource) (joinURL, eventURL, provider string) {
	candidates := make([]urlCandidate, 0, 8)
	add := func(value string, sourceRank int) {
		name, rank := providerRank(value)
		candidates = append(candidates, urlCandidate{Value: value, SourceRank: sourceRank, JoinRank: rank, Provider: name})
	}

	if value := strings.TrimSpace(event.ConferenceURL); value != "" {
		add(value, 0)
	}
	if value := strings.TrimSpace(event.URL); value != "" {
		add(value, 1)
	}
	for _, found := range extractURLs(event.Location) {
		add(found, 2)
	}
	for _, found := range extractURLs(event.Description) {
		add(found, 3)
	}

	unique := dedupeCandidates(candidates)
	if len(unique) == 0 {
		return "", "", ""
	}

	sort.SliceStable(unique, func(i, j int) bool {
		if unique[i].JoinRank != unique[j].JoinRank {
			return unique[i].JoinRank < unique[j].JoinRank
		}
		if unique[i].SourceRank != unique[j].SourceRank {
			return unique[i].SourceRank < unique[j].SourceRank
		}
		return unique[i].Value < unique[j].Value
	})

	eventURL = unique[0].Value
	if unique[0].JoinRank <= joinRankCutoff {
		joinURL = unique[0].Value
		provider = unique[0].Provider
	}
	return joinURL, eventURL, provider
}

func extractURLs(text string) []string {
	found := urlRegex.FindAllString(strings.TrimSpace(text), -1)
	results := make([]string, 0, len(found))
	for _, item := range found {
		if normalized := normalizeURL(item); normalized != "" {
			results = append(results, normalized)
		}
	}
	return results
}

func dedupeCandidates(candidates []urlCandidate) []urlCandidate {
	seen := make(map[string]urlCandidate, len(candidates))
	for _, candidate := range candidates {
		normalized := normalizeURL(candidate.Value)
		if normalized == "" {
			continue
		}
		candidate.Value = normalized

		existing, ok := seen[normalized]
		if ok && (existing.JoinRank < candidate.JoinRank ||
			(existing.JoinRank == candidate.JoinRank && existing.SourceRank <= candidate.SourceRank)) {
			continue
		}
		seen[normalized] = candidate
	}

	results := make([]urlCandidate, 0, len(seen))
	for _, candidate := range seen {
		results = append(results, candidate)
	}
	return results
}

func normalizeURL(raw string) string {
	value := strings.TrimRight(strings.TrimSpace(raw), ".,;)")
	if value == "" {
		return ""
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return ""
	}
	return parsed.String()
}

func providerRank(value string) (string, int) {
	parsed, err := url.Parse(value)
	if err != nil {
		return "", 50
	}
	host := strings.ToLower(parsed.Hostname())

	for _, p := range meetingProviders {
		if rank := p.matches(host, value); rank >= 0 {
			return p.name, rank
		}
	}
	return "", 50
}
