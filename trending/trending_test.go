package trending

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreTopic(t *testing.T) {
	hack := ScoreTopic("The watering hack every beginner needs")
	dull := ScoreTopic("Annual report of the horticultural society published in full today")
	assert.Greater(t, hack, dull)

	// Headline-length bonus applies to filmable titles only.
	assert.Greater(t, ScoreTopic("Repot your monstera without killing it"), ScoreTopic("Repot"))
}

func TestParseRSSItems(t *testing.T) {
	feed := `<?xml version="1.0"?><rss><channel>
<item><title><![CDATA[Pruning roses in late summer]]></title><link>https://example.com/a</link><pubDate>Mon, 24 Aug 2026 09:00:00 GMT</pubDate></item>
<item><title>Balcony composting basics</title><link>https://example.com/b</link></item>
<item><link>https://example.com/untitled</link></item>
</channel></rss>`

	items := parseRSSItems(feed)
	assert.Len(t, items, 2)
	assert.Equal(t, "Pruning roses in late summer", items[0].Title)
	assert.Equal(t, "https://example.com/a", items[0].Link)
	assert.Equal(t, "Balcony composting basics", items[1].Title)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, normalize("  Propagate POTHOS "), normalize("propagate pothos"))
}
