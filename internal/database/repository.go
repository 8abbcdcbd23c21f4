package database

// MessageArchive is a best-effort write-only sink for routed messages. The
// hub never reads from it; history served to clients always comes from the
// in-memory message log.
type MessageArchive interface {
	SaveMessage(msg Message) error
	Ping() error
	Close() error
}
