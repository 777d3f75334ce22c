package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tessera/blocks"
)

func TestValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"acme", true},
		{"club2024", true},
		{"", false},
		{"Acme", false},
		{"my-club", false},
		{"my club", false},
		{"../etc", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCode(tt.code))
		})
	}
}

func TestTenant(t *testing.T) {
	dir := t.TempDir()

	path, err := Tenant(dir, "acme", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "acme", blocks.CatalogFileName), path)

	file, err := blocks.ReadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", file.Tenant)
	require.Len(t, file.Kinds, 1)
	assert.Equal(t, "acme.richText", file.Kinds[0].Name)

	catalog := blocks.NewDefaultCatalog()
	loaded, errs := catalog.LoadCatalogDir(dir)
	assert.Empty(t, errs)
	assert.Equal(t, 1, loaded)
	_, ok := catalog.Lookup("acme.richText")
	assert.True(t, ok)
}

func TestTenant_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "taken"), 0o755))

	tests := []struct {
		name string
		code string
		want error
	}{
		{"invalid code", "Bad-Code", ErrInvalidCode},
		{"directory exists", "taken", ErrExists},
		{"built-in tenant", blocks.KallitechniaTenant, ErrExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tenant(dir, tt.code, zap.NewNop())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
