package migration

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Invoice Table")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(mf.UpPath, "_add_invoice_table.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_add_invoice_table.down.sql"))
	assert.Len(t, mf.Version, 14)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Add Invoice Table")

	_, err = os.Stat(mf.DownPath)
	require.NoError(t, err)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add Invoice Table", "add_invoice_table"},
		{"add-quotations", "add_quotations"},
		{"  weird--name__  ", "weird_name"},
		{"v2 Schema!", "v2_schema"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in))
	}
}
