package publishers

// Logger receives delivery diagnostics from publishers.
type Logger interface {
	DebugObj(msg, key string, obj any)
	WarnObj(msg, key string, obj any)
	ErrorObj(msg, key string, obj any)
}

type discardLogger struct{}

func (discardLogger) DebugObj(string, string, any) {}
func (discardLogger) WarnObj(string, string, any)  {}
func (discardLogger) ErrorObj(string, string, any) {}

func orDiscard(log Logger) Logger {
	if log == nil {
		return discardLogger{}
	}
	return log
}
