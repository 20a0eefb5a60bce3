package leaveform

import "go.uber.org/zap"

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(message string)
}

type NotifierFunc func(message string)

func (fn NotifierFunc) Notify(message string) {
	fn(message)
}

type zapNotifier struct {
	logger *zap.Logger
}

// NewZapNotifier logs notifications. It is the default when no UI shell is
// attached.
func NewZapNotifier(logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.L()
	}
	return &zapNotifier{logger: logger}
}

func (n *zapNotifier) Notify(message string) {
	n.logger.Warn("notify", zap.String("message", message))
}
