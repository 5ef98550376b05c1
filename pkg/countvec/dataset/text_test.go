package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

const page = `<html><head><title>Greeting</title><style>p { color: red }</style></head>
<body><p>You say <b>goodbye</b></p><script>var x = 1;</script><p>and I say hello.</p></body></html>`

func TestExtractText(t *testing.T) {
	text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Greeting You say goodbye and I say hello.", text)
}

func TestReadText(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "sample.txt")
	htm := filepath.Join(dir, "sample.html")
	require.NoError(t, os.WriteFile(txt, []byte("You say goodbye.\n"), 0o644))
	require.NoError(t, os.WriteFile(htm, []byte(page), 0o644))

	text, err := ReadText(txt, "text")
	require.NoError(t, err)
	assert.Equal(t, "You say goodbye.\n", text)

	text, err = ReadText(htm, "html")
	require.NoError(t, err)
	assert.Contains(t, text, "and I say hello.")
	assert.NotContains(t, text, "var x")

	_, err = ReadText(txt, "pdf")
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)

	_, err = ReadText(filepath.Join(dir, "missing.txt"), "text")
	assert.Error(t, err)
}
