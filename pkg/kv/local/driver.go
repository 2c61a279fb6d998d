package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/conceptgraph/graphvc/pkg/kv"
	"github.com/conceptgraph/graphvc/pkg/kv/kvparams"
	"github.com/conceptgraph/graphvc/pkg/logging"
	"github.com/dgraph-io/badger/v4"
)

const (
	DriverName           = "local"
	DefaultDirectoryPath = "~/data/graphvc/kv"
)

var (
	driverLock    = &sync.Mutex{}
	connectionMap = make(map[string]*Store)
)

type Driver struct{}

func normalizeDBParams(p *kvparams.Local) {
	if len(p.Path) == 0 {
		p.Path = DefaultDirectoryPath
	}
}

func (d *Driver) Open(ctx context.Context, kvParams kvparams.Config) (kv.Store, error) {
	driverLock.Lock()
	defer driverLock.Unlock()
	params := kvParams.Local
	if params == nil {
		return nil, fmt.Errorf("missing %s settings: %w", DriverName, kv.ErrDriverConfiguration)
	}
	normalizeDBParams(params)
	connection, ok := connectionMap[params.Path]
	if !ok {
		// no database open for this path
		var logger logging.Logger = logging.DummyLogger{}
		if params.EnableLogging {
			logger = logging.FromContext(ctx).WithField("store", DriverName)
		}
		opts := badger.DefaultOptions(params.Path)
		opts.Logger = &BadgerLogger{logger}
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger database: %w", err)
		}
		connection = &Store{
			db:     db,
			logger: logger,
			path:   params.Path,
		}
		connectionMap[params.Path] = connection
	}
	connection.refCount++
	return connection, nil
}

//nolint:gochecknoinits
func init() {
	kv.Register(DriverName, &Driver{})
}

// BadgerLogger routes badger's internal logging to our logger at debug level.
type BadgerLogger struct {
	logging.Logger
}

func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.Logger.Errorf(format, args...)
}

func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.Logger.Warningf(format, args...)
}

func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.Logger.Debugf(format, args...)
}

func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.Logger.Debugf(format, args...)
}
