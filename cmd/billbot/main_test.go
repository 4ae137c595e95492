package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "billbot dev (commit local, built unknown)")
}

func TestMigrateRequiresPostgresJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "telegram:\n  token: t\nstorage:\n  backend: memory\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"migrate", "--config", path})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestServeFailsOnMissingConfig(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve", "--config", filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, root.Execute())
}
