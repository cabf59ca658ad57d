package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/common"
	"github.com/ternarybob/vigilo/internal/models"
)

func testManager(config *common.Config) *Manager {
	return NewManager(config, arbor.NewLogger())
}

func TestBuildAllocatorOptions_FlagsToggleIndependently(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Browser.Headless = true
	config.Browser.DisableGPU = true
	config.Browser.NoSandbox = true
	config.Browser.DisableSharedMemory = true

	allOn := testManager(config).buildAllocatorOptions()

	config.Browser.Headless = false
	config.Browser.DisableGPU = false
	config.Browser.NoSandbox = false
	config.Browser.DisableSharedMemory = false

	allOff := testManager(config).buildAllocatorOptions()

	// Base options (no-first-run, no-default-browser-check, user agent) are
	// always present; each enabled flag adds exactly one option.
	assert.Len(t, allOff, 3)
	assert.Len(t, allOn, 7)
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	m := testManager(common.NewDefaultConfig())

	err := m.Authenticate(context.Background(), &Session{}, Credentials{})
	require.Error(t, err)

	var authErr *models.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.AuthMissingCredentials, authErr.Kind)
}

func TestRelease_NilAndDoubleReleaseAreSafe(t *testing.T) {
	m := testManager(common.NewDefaultConfig())

	m.Release(nil)

	cancels := 0
	session := &Session{
		browserCancel: func() { cancels++ },
		allocCancel:   func() { cancels++ },
	}

	m.Release(session)
	m.Release(session)

	assert.Equal(t, 2, cancels, "cancel funcs run exactly once")
}
