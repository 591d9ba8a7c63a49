package vsco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vscoerrors "vscodl/pkg/errors"
)

const scenarioState = `{"users":{"currentUser":{"tkn":"abc"}},"medias":{"bySiteId":{"123":{"nextCursor":"c1"}}},"entities":{"images":{}}}`

func TestExtractPreloadedState(t *testing.T) {
	page := []byte(`<html><body><script>window.__PRELOADED_STATE__ = ` + scenarioState + `</script></body></html>`)

	state, err := extractPreloadedState(page)
	require.NoError(t, err)

	token, siteID, cursor, sites, err := state.session()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
	assert.Equal(t, "123", siteID)
	assert.Equal(t, "c1", cursor)
	assert.Equal(t, 1, sites)
	assert.Empty(t, state.inlineImages())
}

func TestExtractPreloadedStateVariants(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"full page", galleryPage(scenarioState)},
		{"trailing semicolon", `<script>window.__PRELOADED_STATE__ = ` + scenarioState + `;</script>`},
		{"more statements after", "<script>\n  window.__PRELOADED_STATE__ = " + scenarioState + "\nwindow.__OTHER__ = 1;</script>"},
		{"script with attributes", `<script nonce="x">window.__PRELOADED_STATE__ = ` + scenarioState + `</script>`},
		{"other scripts first", `<script>var a = 1;</script><script>window.__PRELOADED_STATE__ = ` + scenarioState + `</script>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := extractPreloadedState([]byte(tt.page))
			require.NoError(t, err)
			assert.Equal(t, "abc", state.Users.CurrentUser.Token)
		})
	}
}

func TestExtractPreloadedStateMalformed(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no marker", `<html><body><script>window.somethingElse = {}</script></body></html>`},
		{"marker outside script", `<p>window.__PRELOADED_STATE__ = {}</p>`},
		{"invalid JSON", `<script>window.__PRELOADED_STATE__ = {"users": </script>`},
		{"empty page", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := extractPreloadedState([]byte(tt.page))
			assert.Nil(t, state)
			assert.True(t, vscoerrors.IsMalformedPage(err), "got %v", err)
		})
	}
}

func TestSessionErrors(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		state, err := extractPreloadedState([]byte(`<script>window.__PRELOADED_STATE__ = {"users":{},"medias":{"bySiteId":{"1":{}}}}</script>`))
		require.NoError(t, err)

		_, _, _, _, err = state.session()
		assert.True(t, vscoerrors.IsMalformedPage(err))
	})

	t.Run("missing site", func(t *testing.T) {
		state, err := extractPreloadedState([]byte(`<script>window.__PRELOADED_STATE__ = {"users":{"currentUser":{"tkn":"t"}},"medias":{"bySiteId":{}}}</script>`))
		require.NoError(t, err)

		_, _, _, _, err = state.session()
		assert.True(t, vscoerrors.IsMalformedPage(err))
	})
}

func TestSessionNullCursorAndSeveralSites(t *testing.T) {
	doc := `{"users":{"currentUser":{"tkn":"t"}},"medias":{"bySiteId":{"900":{"nextCursor":"z"},"200":{"nextCursor":null}}}}`
	state, err := extractPreloadedState([]byte(`<script>window.__PRELOADED_STATE__ = ` + doc + `</script>`))
	require.NoError(t, err)

	_, siteID, cursor, sites, err := state.session()
	require.NoError(t, err)
	assert.Equal(t, "200", siteID, "lowest site id is chosen")
	assert.Equal(t, "", cursor)
	assert.Equal(t, 2, sites)
}

func TestInlineImagesOrdered(t *testing.T) {
	doc := stateJSON("t", "1", "c", map[string]map[string]interface{}{
		"b": {"id": "b"},
		"a": {"id": "a"},
		"c": {"id": "c"},
	})
	state, err := extractPreloadedState([]byte(galleryPage(doc)))
	require.NoError(t, err)

	var ids []string
	for _, raw := range state.inlineImages() {
		ids = append(ids, raw["id"].(string))
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
