package textnorm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/syncbridge/pms-wits-sync/internal/textnorm"
)

func TestBrAndLiProduceLineBreak(t *testing.T) {
	out := textnorm.HTMLToPlainText("line1<br>line2<li>item</li>")
	assert.Contains(t, out, "line1\r\nline2")
}

func TestParagraphProducesDoubleBreak(t *testing.T) {
	out := textnorm.HTMLToPlainText("<p>Steps</p>")
	assert.Equal(t, "\r\n\r\nSteps\r\n\r\n", out)
}

func TestTableCellProducesTab(t *testing.T) {
	out := textnorm.HTMLToPlainText("<td>a</td><td>b</td>")
	assert.Contains(t, out, "\ta")
}

func TestHeadScriptStyleStripped(t *testing.T) {
	out := textnorm.HTMLToPlainText("<head><title>x</title></head><script>alert(1)</script>body")
	assert.Equal(t, "body", out)
}

func TestNamedEntities(t *testing.T) {
	out := textnorm.HTMLToPlainText("a&nbsp;b&bull;c&copy;")
	assert.Contains(t, out, "a b * c(c)")
}

func TestUnknownEntityDropped(t *testing.T) {
	out := textnorm.HTMLToPlainText("a&zzzz;b")
	assert.Equal(t, "ab", out)
}

func TestCollapsesExcessiveBlankLines(t *testing.T) {
	in := "a" + strings.Repeat("<br>", 1) + strings.Repeat("<p></p>", 5) + "b"
	out := textnorm.HTMLToPlainText(in)
	assert.NotContains(t, out, strings.Repeat("\r\n", 3))
}

func TestEmptyInput(t *testing.T) {
	assert.Equal(t, "", textnorm.HTMLToPlainText(""))
}
