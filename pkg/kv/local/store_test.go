package local_test

import (
	"testing"

	"github.com/conceptgraph/graphvc/pkg/kv/kvparams"
	"github.com/conceptgraph/graphvc/pkg/kv/kvtest"
	"github.com/conceptgraph/graphvc/pkg/kv/local"
)

func TestLocalKV(t *testing.T) {
	kvtest.TestDriver(t, local.DriverName, kvparams.Config{
		Local: &kvparams.Local{
			Path: t.TempDir(),
		},
	})
}
