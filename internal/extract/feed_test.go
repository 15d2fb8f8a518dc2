package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFixture = `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <item><title>Old notice</title><description>Application DP-1 approved</description>
    <pubDate>Mon, 01 Jan 2024 09:00:00 +0000</pubDate></item>
  <item><title>Undated</title><description>no date here</description></item>
  <item><title>Newest notice</title><description>&lt;p&gt;Application DP-3 &lt;b&gt;pending&lt;/b&gt;&lt;/p&gt;</description>
    <pubDate>Fri, 01 Mar 2024 09:00:00 +0000</pubDate></item>
  <item><title>Middle notice</title><description>Application DP-2 under review</description>
    <pubDate>Thu, 01 Feb 2024 09:00:00 +0000</pubDate></item>
</channel></rss>`

const atomFixture = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><title>First</title><summary>120 units proposed</summary><updated>2024-02-01T00:00:00Z</updated></entry>
  <entry><title>Second</title><content>Rezoning approved</content><published>2024-03-01T00:00:00Z</published></entry>
</feed>`

func TestParseFeed_RSSNewestFirst(t *testing.T) {
	items, err := ParseFeed([]byte(rssFixture))
	require.NoError(t, err)
	require.Len(t, items, 4)

	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}
	assert.Equal(t, []string{"Newest notice", "Middle notice", "Old notice", "Undated"}, titles)
	assert.Equal(t, "Application DP-3 pending", items[0].Body)
	assert.True(t, items[3].Published.IsZero())
}

func TestParseFeed_Atom(t *testing.T) {
	items, err := ParseFeed([]byte(atomFixture))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Second", items[0].Title)
	assert.Equal(t, "Rezoning approved", items[0].Body)
	assert.Equal(t, "120 units proposed", items[1].Body)
}

const rdfFixture = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
  xmlns="http://purl.org/rss/1.0/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel rdf:about="https://city.example/notices"><title>Notices</title>
    <link>https://city.example/notices</link><description>Planning notices</description></channel>
  <item rdf:about="https://city.example/notices/1"><title>Older hearing</title>
    <link>https://city.example/notices/1</link><description>Application DA-7 pending</description>
    <dc:date>2024-01-10T09:00:00Z</dc:date></item>
  <item rdf:about="https://city.example/notices/2"><title>Recent hearing</title>
    <link>https://city.example/notices/2</link><description>Application DA-8 approved</description>
    <dc:date>2024-04-10T09:00:00Z</dc:date></item>
</rdf:RDF>`

const atomXHTMLFixture = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>Council</title><id>urn:council</id>
  <updated>2024-05-01T00:00:00Z</updated>
  <entry><title>Rezoning</title><id>urn:council:1</id><updated>2024-05-01T00:00:00Z</updated>
    <content type="xhtml"><div xmlns="http://www.w3.org/1999/xhtml"><p>Rezoning to <b>RM-4</b> approved</p></div></content>
  </entry>
</feed>`

func TestParseFeed_RSS10(t *testing.T) {
	items, err := ParseFeed([]byte(rdfFixture))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Recent hearing", items[0].Title)
	assert.Equal(t, "Application DA-8 approved", items[0].Body)
	assert.Equal(t, time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC), items[0].Published)
	assert.Equal(t, "Older hearing", items[1].Title)
}

func TestParseFeed_AtomXHTMLContent(t *testing.T) {
	items, err := ParseFeed([]byte(atomXHTMLFixture))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Body, "RM-4")
	assert.Contains(t, items[0].Body, "approved")
	assert.NotContains(t, items[0].Body, "<")
	assert.False(t, items[0].Published.IsZero())
}

func TestParseFeed_Invalid(t *testing.T) {
	_, err := ParseFeed([]byte("this is not a feed"))
	assert.Error(t, err)
}

func TestFeedDecoder_KeepsMostRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte(rssFixture), 0o644))

	text, err := NewFeedDecoder(2).Decode(context.Background(), path)
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Newest notice. Application DP-3 pending", lines[0])
	assert.Equal(t, "Middle notice. Application DP-2 under review", lines[1])
	assert.NotContains(t, text, "DP-1")
}

func TestNewFeedDecoder_Default(t *testing.T) {
	assert.Equal(t, DefaultMaxFeedItems, NewFeedDecoder(0).maxItems)
}
