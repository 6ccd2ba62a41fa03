// Package logger builds configured slog.Logger instances and provides
// attribute helpers shared across the toolkit.
//
// The factory defaults to JSON output at INFO level, which suits log
// aggregation in production. Development setups typically use:
//
//	log := logger.New(logger.WithDevelopment("memberkit"))
//	logger.SetAsDefault(log)
//
// Attribute helpers keep log field names consistent between packages:
//
//	log.Error("send failed", logger.NotificationID(id), logger.Error(err))
package logger
