package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	html, err := Render("Application Submitted", "Your ticket number is: TICKET-1 <b>", "help@example.com")
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Application Submitted</title>")
	assert.Contains(t, html, "TICKET-1 &lt;b&gt;")
	assert.Contains(t, html, "mailto:help@example.com")
}

func TestSend_Disabled(t *testing.T) {
	m := New(Config{})
	assert.False(t, m.Enabled())
	assert.ErrorIs(t, m.Send(context.Background(), "a@example.com", "s", "b"), ErrDisabled)
}

func TestNew_DefaultsFromToUser(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", Port: 587, User: "portal@example.com"})
	assert.True(t, m.Enabled())
	assert.Equal(t, "portal@example.com", m.cfg.From)
}
