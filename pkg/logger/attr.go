package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RecipientID records the recipient identifier under the key "recipient_id".
func RecipientID(id string) slog.Attr {
	return slog.String("recipient_id", id)
}

// NotificationID records the notification identifier under the key "notification_id".
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// ChannelID records the channel identifier under the key "channel_id".
func ChannelID(id string) slog.Attr {
	return slog.String("channel_id", id)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
