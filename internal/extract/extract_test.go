package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmptyInput(t *testing.T) {
	res := Extract("   ")
	assert.True(t, res.Empty)
	assert.Empty(t, res.Entities)
}

func TestExtractEmail(t *testing.T) {
	res := Extract("contact me at jane.doe@example.com please")
	require.NotEmpty(t, res.Entities)
	var found bool
	for _, e := range res.Entities {
		if e.Label == LabelEmail {
			found = true
			assert.Equal(t, "jane.doe@example.com", e.Text)
		}
	}
	assert.True(t, found, "expected an EMAIL entity")
}

func TestExtractURL(t *testing.T) {
	res := Extract("check https://example.com/path for details")
	var found bool
	for _, e := range res.Entities {
		if e.Label == LabelURL {
			found = true
		}
	}
	assert.True(t, found, "expected a URL entity")
}

func TestExtractFilePath(t *testing.T) {
	res := Extract("open /var/log/syslog now")
	var found bool
	for _, e := range res.Entities {
		if e.Label == LabelFilePath {
			found = true
		}
	}
	assert.True(t, found, "expected a FILE_PATH entity")
}

func TestExtractCommand(t *testing.T) {
	res := Extract("run `ls -la` in the shell")
	require.NotEmpty(t, res.Entities)
	var got string
	for _, e := range res.Entities {
		if e.Label == LabelCommand {
			got = e.Text
		}
	}
	assert.Equal(t, "ls -la", got)
}

func TestExtractTokensDropsStopwords(t *testing.T) {
	res := Extract("please send the file to me")
	for _, tok := range res.Tokens {
		assert.NotEqual(t, "please", tok)
		assert.NotEqual(t, "the", tok)
		assert.NotEqual(t, "to", tok)
		assert.NotEqual(t, "me", tok)
	}
}

func TestExtractEntitiesDoNotOverlap(t *testing.T) {
	res := Extract("Email John Smith at john.smith@example.com about /etc/hosts on 2024-01-05 at 3:00pm")
	for i := 1; i < len(res.Entities); i++ {
		prev, cur := res.Entities[i-1], res.Entities[i]
		assert.LessOrEqual(t, prev.End, cur.Start, "entities %q and %q overlap", prev.Text, cur.Text)
	}
}

func TestExtractPreservesOriginal(t *testing.T) {
	res := Extract("  hello   world  ")
	assert.Equal(t, "  hello   world  ", res.Original)
	assert.Equal(t, "hello world", res.Normalized)
}
