package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/common"
)

const fixturePage = `
<html><body>
<ul>
  <li class="reusable-search__result-container">
    <span class="entity-result__title-text">Alice Example</span>
    <div class="entity-result__primary-subtitle">  Staff Engineer  </div>
    <a class="app-aware-link" href="https://network.example.com/in/alice-example/?miniProfile=abc123#anchor">profile</a>
  </li>
  <li class="reusable-search__result-container">
    <span class="entity-result__title-text">Bob Example</span>
    <a class="app-aware-link" href="https://network.example.com/in/bob-example/">profile</a>
  </li>
  <li class="reusable-search__result-container">
    <!-- promoted card without a profile link -->
    <span class="entity-result__title-text">Sponsored Result</span>
    <div class="entity-result__primary-subtitle">Advertisement</div>
  </li>
</ul>
</body></html>`

func testExtractor() *Extractor {
	return NewExtractor(common.NewDefaultConfig().Selectors, arbor.NewLogger())
}

func TestExtractCards_ParsesRenderedPage(t *testing.T) {
	records, err := testExtractor().ExtractCards(fixturePage, "Acme")
	require.NoError(t, err)
	require.Len(t, records, 2)

	alice := records[0]
	assert.Equal(t, "Alice Example", alice.Name)
	assert.Equal(t, "Acme", alice.Organization)
	assert.Equal(t, "Staff Engineer", alice.Role, "role text should be trimmed")
	assert.Equal(t, "https://network.example.com/in/alice-example", alice.ProfileID,
		"profile ID drops tracking query, fragment, and trailing slash")
	assert.Equal(t, "https://network.example.com/in/alice-example/?miniProfile=abc123#anchor", alice.ProfileURL,
		"raw link is preserved")
	assert.False(t, alice.ObservedAt.IsZero())

	// Second card has no subtitle; the role extracts as empty.
	bob := records[1]
	assert.Equal(t, "Bob Example", bob.Name)
	assert.Equal(t, "", bob.Role)
	assert.Equal(t, "https://network.example.com/in/bob-example", bob.ProfileID)
}

func TestExtractCards_SkipsCardMissingRequiredFields(t *testing.T) {
	// The third fixture card has no profile link and must be dropped
	// without aborting the rest of the page.
	records, err := testExtractor().ExtractCards(fixturePage, "Acme")
	require.NoError(t, err)
	for _, record := range records {
		assert.NotEqual(t, "Sponsored Result", record.Name)
	}
}

func TestExtractCards_EmptyPageIsValid(t *testing.T) {
	records, err := testExtractor().ExtractCards("<html><body><p>nothing here</p></body></html>", "Acme")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProfileIDFromHref(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{
			name:     "tracking query stripped",
			href:     "https://network.example.com/in/alice/?trk=search",
			expected: "https://network.example.com/in/alice",
		},
		{
			name:     "fragment stripped",
			href:     "https://network.example.com/in/alice#section",
			expected: "https://network.example.com/in/alice",
		},
		{
			name:     "bare path unchanged",
			href:     "https://network.example.com/in/alice",
			expected: "https://network.example.com/in/alice",
		},
		{
			name:     "relative link keeps path",
			href:     "/in/alice/?x=1",
			expected: "/in/alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, profileIDFromHref(tt.href))
		})
	}
}
