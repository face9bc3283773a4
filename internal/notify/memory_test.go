package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictperp/internal/notify"
	"predictperp/internal/position"
)

func TestMemory_RecordsEvents(t *testing.T) {
	mem := &notify.Memory{}
	positions := []*position.Position{{ID: 1, Account: "dave"}}

	mem.NotifyLiquidation("dave", positions)

	require.Len(t, mem.Events, 1)
	assert.Equal(t, "dave", mem.Events[0].Account)
	assert.Equal(t, positions, mem.Events[0].Positions)
}

func TestTelegram_NilTokenDisablesSend(t *testing.T) {
	tg, err := notify.NewTelegram("", 0)
	require.NoError(t, err)
	assert.Nil(t, tg)

	// Calling NotifyLiquidation on a nil *Telegram must not panic; this
	// is how the engine can wire Telegram unconditionally and let an
	// empty token disable it silently.
	tg.NotifyLiquidation("dave", nil)
}
