package main

import (
	"bytes"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	root := newRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "sweep"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("env-file"))
}

func TestMigrateCommand_RequiresPostgres(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "redis")
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"migrate", "--env-file", ""})

	err := root.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BACKEND=postgres")
}

func TestEchoLogLevel(t *testing.T) {
	assert.Equal(t, log.DEBUG, echoLogLevel("debug"))
	assert.Equal(t, log.WARN, echoLogLevel(" WARN "))
	assert.Equal(t, log.ERROR, echoLogLevel("error"))
	assert.Equal(t, log.INFO, echoLogLevel(""))
}
