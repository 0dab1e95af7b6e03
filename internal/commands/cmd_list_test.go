package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestListEmptyResultWritesToErrWriter(t *testing.T) {
	path := writeDoc(t, "- [ ] one\n")

	var out, errOut bytes.Buffer
	root := &cli.Command{Name: "tickdown", Writer: &out, ErrWriter: &errOut}
	NewListCmd(testFlags(t)).Register(root)

	err := root.Run(context.Background(), []string{"tickdown", "list", path, "--tag", "nope"})
	require.NoError(t, err)

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "No items found")
}

func TestListPlainOutput(t *testing.T) {
	path := writeDoc(t, "- [ ] one\n  - [x] two\n")

	var out, errOut bytes.Buffer
	root := &cli.Command{Name: "tickdown", Writer: &out, ErrWriter: &errOut}
	NewListCmd(testFlags(t)).Register(root)

	err := root.Run(context.Background(), []string{"tickdown", "list", path})
	require.NoError(t, err)

	assert.Equal(t, "□ one\n  ✔ two\n2 item(s), 1 checked\n", out.String())
	assert.Empty(t, errOut.String())
}
