package cli

import (
	"fmt"
	"io"

	"github.com/Veraticus/bankctl/internal/notify"
)

// FormatNotice renders a notice with the icon and color of its level.
func FormatNotice(n notify.Notice) string {
	msg := n.Message
	if n.Operation != "" {
		msg = string(n.Operation) + ": " + msg
	}
	switch n.Level {
	case notify.LevelError:
		return FormatError(msg)
	case notify.LevelWarn:
		return FormatWarning(msg)
	default:
		return FormatInfo(msg)
	}
}

// WriterNotifier prints notices to w as they are raised.
func WriterNotifier(w io.Writer) notify.Notifier {
	return notify.NotifierFunc(func(n notify.Notice) {
		_, _ = fmt.Fprintln(w, FormatNotice(n))
	})
}
