package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWithWriter(t *testing.T) {
	t.Cleanup(func() { Init(false) })

	var buf bytes.Buffer
	InitWithWriter(&buf, true)
	assert.True(t, Enabled())

	Debug("compiled", "table", "People")
	With("component", "test").Warn("slow")
	assert.Contains(t, buf.String(), "msg=compiled table=People")
	assert.Contains(t, buf.String(), "component=test")

	buf.Reset()
	InitWithWriter(&buf, false)
	assert.False(t, Enabled())
	Error("dropped")
	assert.Empty(t, buf.String())
}
