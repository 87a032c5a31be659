package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashoff_back_end/internal/popup"
)

func TestForwardCommandDeliversToEngine(t *testing.T) {
	cmds := make(chan popup.Command)
	done := make(chan struct{})

	delivered := make(chan popup.Command, 1)
	go func() { delivered <- <-cmds }()

	require.True(t, forwardCommand(cmds, done, popup.CmdDismiss))
	assert.Equal(t, popup.CmdDismiss, <-delivered)
}

func TestForwardCommandAbandonsWhenEngineStopped(t *testing.T) {
	cmds := make(chan popup.Command)
	done := make(chan struct{})
	close(done)

	// plus personne ne lit cmds : l'envoi doit abandonner, pas bloquer
	finished := make(chan bool, 1)
	go func() { finished <- forwardCommand(cmds, done, popup.CmdApply) }()

	select {
	case ok := <-finished:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("forwardCommand est resté bloqué après l'arrêt du moteur")
	}
}
