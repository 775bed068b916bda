package review

import (
	"context"
	"testing"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_OneSessionPerAccount(t *testing.T) {
	m := NewManager(stagedImporter(row("a", "x", domain.Uncategorized)), zerolog.Nop())

	first := m.Open("acct-1")
	assert.Same(t, first, m.Open("acct-1"))
	assert.NotSame(t, first, m.Open("acct-2"))

	got, ok := m.Get("acct-1")
	require.True(t, ok)
	assert.Same(t, first, got)

	_, ok = m.Get("acct-3")
	assert.False(t, ok)
}

func TestManager_Close(t *testing.T) {
	m := NewManager(stagedImporter(row("a", "x", domain.Uncategorized)), zerolog.Nop())
	s := m.Open("acct-1")
	require.NoError(t, s.Submit(context.Background(), []byte("x")))
	require.NoError(t, s.Wait(context.Background()))

	require.NoError(t, m.Close("acct-1"))
	assert.Equal(t, StateUpload, s.State())
	_, ok := m.Get("acct-1")
	assert.False(t, ok)

	require.NoError(t, m.Close("never-opened"))
}

func TestManager_CloseAll(t *testing.T) {
	m := NewManager(stagedImporter(row("a", "x", domain.Uncategorized)), zerolog.Nop())
	m.Open("acct-1")
	m.Open("acct-2")

	m.CloseAll()

	_, ok1 := m.Get("acct-1")
	_, ok2 := m.Get("acct-2")
	assert.False(t, ok1)
	assert.False(t, ok2)
}
