package mem_test

import (
	"testing"

	"github.com/conceptgraph/graphvc/pkg/kv/kvparams"
	"github.com/conceptgraph/graphvc/pkg/kv/kvtest"
	"github.com/conceptgraph/graphvc/pkg/kv/mem"
)

func TestMemKV(t *testing.T) {
	kvtest.TestDriver(t, mem.DriverName, kvparams.Config{})
}
