package infra

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogoStore_GuardaYRecupera(t *testing.T) {
	store, err := NewLogoStore(t.TempDir())
	require.NoError(t, err)

	datos := []byte("png-bytes")
	ref, err := store.Save(datos, ".PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"), "ref = %s", ref)

	leidos, err := store.Open(ref)
	require.NoError(t, err)
	assert.Equal(t, datos, leidos)
}

func TestLogoStore_ExtensionDesconocidaCaeAPng(t *testing.T) {
	store, err := NewLogoStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save([]byte("x"), ".exe")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))
}

func TestLogoStore_RechazaReferenciasConPath(t *testing.T) {
	store, err := NewLogoStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("../../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, store.Remove("../fuera.png"))
}

func TestLogoStore_RemoveIdempotente(t *testing.T) {
	store, err := NewLogoStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save([]byte("x"), ".jpg")
	require.NoError(t, err)
	require.NoError(t, store.Remove(ref))
	assert.NoError(t, store.Remove(ref))
}
