package logging

import "context"

// DummyLogger drops everything logged to it. Useful as a default for
// components whose logging is off by default.
type DummyLogger struct{}

func (d DummyLogger) WithContext(context.Context) Logger   { return d }
func (d DummyLogger) WithField(string, interface{}) Logger { return d }
func (d DummyLogger) WithFields(Fields) Logger             { return d }
func (d DummyLogger) WithError(error) Logger               { return d }
func (DummyLogger) Trace(...interface{})                   {}
func (DummyLogger) Debug(...interface{})                   {}
func (DummyLogger) Info(...interface{})                    {}
func (DummyLogger) Warn(...interface{})                    {}
func (DummyLogger) Warning(...interface{})                 {}
func (DummyLogger) Error(...interface{})                   {}
func (DummyLogger) Fatal(...interface{})                   {}
func (DummyLogger) Panic(...interface{})                   {}
func (DummyLogger) Tracef(string, ...interface{})          {}
func (DummyLogger) Debugf(string, ...interface{})          {}
func (DummyLogger) Infof(string, ...interface{})           {}
func (DummyLogger) Warnf(string, ...interface{})           {}
func (DummyLogger) Warningf(string, ...interface{})        {}
func (DummyLogger) Errorf(string, ...interface{})          {}
func (DummyLogger) Fatalf(string, ...interface{})          {}
func (DummyLogger) Panicf(string, ...interface{})          {}
func (DummyLogger) IsTracing() bool                        { return false }
func (DummyLogger) IsDebugging() bool                      { return false }
