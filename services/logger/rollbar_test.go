package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-admin/core"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", TestMode: true})

	person := core.Person{ID: "u1", Username: "jane", Email: "jane@masomo.cd"}
	logger.Warn("invoices caching page failed", errors.New("redis down"), person)

	out := buf.String()
	assert.Contains(t, out, "WARN invoices caching page failed\n")
	assert.Contains(t, out, "redis down")
	assert.NotContains(t, out, "jane@masomo.cd")

	args := logger.prepare("msg", []interface{}{person, core.Person{ID: "u2"}, 42})
	assert.Equal(t, []interface{}{"msg", 42}, args)
}
