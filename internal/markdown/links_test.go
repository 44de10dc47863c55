package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	body := []byte(`* [Core](ref/core/README.md)
  * [Open](ref/core/mylib/Open.md#usage)
* [Site](https://example.com/docs)
* <https://example.com/auto>

![logo](img/logo.png)

[ref link][r]

[r]: ref/other.md
`)
	links := ExtractLinks(body)
	require.Len(t, links, 6)

	assert.Equal(t, Link{Kind: LinkKindInline, Text: "Core", Destination: "ref/core/README.md"}, links[0])
	assert.Equal(t, "ref/core/mylib/Open.md", links[1].Target())
	assert.False(t, links[2].IsLocal())
	assert.Equal(t, LinkKindAuto, links[3].Kind)
	assert.False(t, links[3].IsLocal())
	assert.Equal(t, LinkKindImage, links[4].Kind)
	assert.True(t, links[4].IsLocal())
	assert.Equal(t, "ref/other.md", links[5].Destination)
}

func TestLinkTarget(t *testing.T) {
	assert.Equal(t, "a b.md", Link{Destination: "a%20b.md?x=1"}.Target())
	assert.False(t, Link{Kind: LinkKindInline, Destination: "#top"}.IsLocal())
	assert.True(t, Link{Kind: LinkKindInline, Destination: "../x.md"}.IsLocal())
}

func TestDestinationRoundTrip(t *testing.T) {
	for _, p := range []string{"ref/core/Open.md", `ref/wandb\.init.md`, "ref/with space.md"} {
		links := ExtractLinks([]byte("[x](" + Destination(p) + ")\n"))
		require.Len(t, links, 1, p)
		assert.Equal(t, p, links[0].Target(), p)
	}
}
