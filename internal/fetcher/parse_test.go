package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHTML(t *testing.T) {
	page, err := parseHTML(strings.NewReader(`<html><head><title> Page Title </title><style>p{}</style></head>
<body><header>Site header</header><h1>First <em>Heading</em></h1><h1>Second</h1>
<p>Body   text</p><footer>Footer links</footer></body></html>`))
	require.NoError(t, err)

	assert.Equal(t, "Page Title", page.title)
	assert.Equal(t, "First Heading", page.heading)
	assert.Contains(t, page.text, "Body text")
	assert.NotContains(t, page.text, "Site header")
	assert.NotContains(t, page.text, "Footer links")
	assert.NotContains(t, page.text, "p{}")
}

func TestPickTitle(t *testing.T) {
	assert.Equal(t, "A long enough heading", pickTitle("A long enough heading", "Readable", "Tag"))
	assert.Equal(t, "Readable", pickTitle("Short", "Readable", "Tag"))
	assert.Equal(t, "Tag", pickTitle("", "  ", "Tag"))
	assert.Equal(t, untitled, pickTitle("", "", ""))
}
