package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "desktop-doctor version "+version+"\n", out.String())
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"diagnose", "version"}, names)
}

func TestRootHelpListsCommands(t *testing.T) {
	root := newRootCmd()

	assert.Contains(t, root.Long, "diagnose")
	assert.Contains(t, root.Long, "version")
}
