package events

import "github.com/sirupsen/logrus"

// LogrusSink publishes feed records as structured logrus entries. Ordinary
// transitions log at Info; diagnostics log at Error so they stand out in the
// console the way the original demo flagged them.
type LogrusSink struct {
	Logger *logrus.Logger
}

// NewLogrusSink creates a sink backed by the given logger, or the standard
// logger when nil.
func NewLogrusSink(logger *logrus.Logger) *LogrusSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusSink{Logger: logger}
}

// Publish implements Sink.
func (s *LogrusSink) Publish(r Record) {
	entry := s.Logger.WithFields(logrus.Fields{
		"seq":   r.Seq,
		"actor": r.Actor,
		"state": r.State,
	})
	if r.IsDiagnostic() {
		entry.WithField("diag", r.Diag).Error(r.Message)
		return
	}
	if r.Message != "" {
		entry.Info(r.Message)
		return
	}
	entry.Info(string(r.State))
}
