package logging

import (
	"log/slog"
	"os"
)

// Default is the base logger for the service. Handlers derive request- and
// component-scoped loggers from it with With.
var Default = slog.New(slog.NewJSONHandler(os.Stderr, nil))
