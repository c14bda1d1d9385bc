package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = Base{AppName: "Circle Up", AppURL: "https://circleup.test"}

func TestRenderWelcome(t *testing.T) {
	subject, text, html, err := Render(Welcome, NewWelcomeData(base, "Ann", "ann@example.com"))
	require.NoError(t, err)

	assert.Equal(t, "Welcome to Circle Up, Ann", subject)
	assert.Contains(t, text, "https://circleup.test")
	assert.Contains(t, html, "Hi Ann,")
}

func TestRenderFriendAddedUsesPeerName(t *testing.T) {
	data := NewFriendAddedData(base, "Bob", "bob@example.com", "Fox", WithTime(time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)))

	subject, text, _, err := Render(FriendAdded, data)
	require.NoError(t, err)

	assert.Equal(t, "Fox added you on Circle Up", subject)
	assert.Contains(t, text, "02 January 2026, 03:04")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.Error(t, err)
}
