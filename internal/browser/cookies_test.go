package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	content := `[
		{"name":"li_at","value":"token-value","domain":".network.example.com","path":"/","secure":true,"httpOnly":true,"sameSite":"none","expires":4102444800},
		{"name":"session","value":"abc","domain":"network.example.com","path":"/"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cookies, err := LoadCookiesFile(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "li_at", cookies[0].Name)
	assert.Equal(t, ".network.example.com", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, int64(4102444800), cookies[0].Expires)

	// Session cookie with no expiry.
	assert.Equal(t, int64(0), cookies[1].Expires)
}

func TestLoadCookiesFile_MissingFile(t *testing.T) {
	_, err := LoadCookiesFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadCookiesFile_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := LoadCookiesFile(path)
	require.Error(t, err)
}
