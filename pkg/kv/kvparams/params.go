package kvparams

// Config selects and configures a kv driver.
type Config struct {
	Type  string
	Local *Local
}

// Local holds the configuration for the embedded key-value store.
type Local struct {
	// Path is the local directory holding the store's data files.
	Path string
	// EnableLogging routes the store's internal log lines to our logger.
	EnableLogging bool
}
