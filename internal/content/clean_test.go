package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_PreservesHeadingsAndParagraphs(t *testing.T) {
	out := string(Clean([]byte(`<html><body><h1>Title</h1><p>Some text.</p></body></html>`)))
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "Some text.")
}

func TestClean_DropsNavAndScript(t *testing.T) {
	out := string(Clean([]byte(`<html><body><nav>Home | About</nav><script>evil()</script><p>Keep me.</p></body></html>`)))
	assert.NotContains(t, out, "Home")
	assert.NotContains(t, out, "evil()")
	assert.Contains(t, out, "Keep me.")
}

func TestClean_PreservesLinks(t *testing.T) {
	out := string(Clean([]byte(`<p><a href="https://example.com">click</a></p>`)))
	assert.Contains(t, out, "[click](https://example.com)")
}

func TestClean_PreservesLists(t *testing.T) {
	out := string(Clean([]byte(`<ul><li>one</li><li>two</li></ul>`)))
	assert.Contains(t, out, "- one")
	assert.Contains(t, out, "- two")
}

func TestClean_PreservesCodeBlocks(t *testing.T) {
	out := string(Clean([]byte(`<pre><code>fmt.Println("hi")</code></pre>`)))
	assert.True(t, strings.Contains(out, "```"))
	assert.Contains(t, out, `fmt.Println("hi")`)
}

func TestClean_PreservesTable(t *testing.T) {
	out := string(Clean([]byte(`<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>`)))
	assert.Contains(t, out, "| A |")
	assert.Contains(t, out, "| 1 |")
}

func TestClean_MalformedInputFallsBackToOriginal(t *testing.T) {
	// html.Parse is very tolerant; feed it something that, even tolerantly
	// parsed, yields no extractable text so the empty-output fallback kicks in.
	body := []byte("")
	out := Clean(body)
	assert.Equal(t, body, out)
}
