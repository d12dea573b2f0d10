package messaging

// Заголовки сообщений синхронизации
const (
	HeaderMessageID = "message_id"
	HeaderTimestamp = "timestamp"
	HeaderProfileID = "profile_id"
	HeaderUnitKind  = "unit_kind"
	HeaderUnitID    = "unit_id"
	HeaderError     = "error"
)

const (
	DefaultSyncTopic       = "marketplace.ozon.sync"
	DefaultDeadLetterTopic = "marketplace.ozon.sync.dlq"
)
