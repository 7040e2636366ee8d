package log

type (
	// Config contains the config items for logger
	Config struct {
		// Stdout is true if the output needs to goto standard out; default is stderr
		Stdout bool `yaml:"stdout"`
		// Level is the desired log level; see colocated zap_logger.go
		Level string `yaml:"level"`
		// OutputFile is the path to the log output file
		OutputFile string `yaml:"outputFile"`
	}
)
