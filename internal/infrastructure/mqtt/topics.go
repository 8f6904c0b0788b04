package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix roots all topics when no prefix is configured.
const DefaultTopicPrefix = "dbaccess"

// Topics builds topic names under one prefix.
//
//	topics := mqtt.NewTopics("ops/orders-api")
//	topics.DBEvent("reconnect")
//	// Returns: "ops/orders-api/db/events/reconnect"
type Topics struct {
	prefix string
}

// NewTopics returns builders rooted at prefix. Leading and trailing slashes
// are trimmed; an empty prefix becomes DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// DBEvent returns the topic for one kind of database event.
//
// Example: dbaccess/db/events/slow_query
func (t Topics) DBEvent(kind string) string {
	return fmt.Sprintf("%s/db/events/%s", t.Prefix(), kind)
}

// AllDBEvents returns a wildcard subscription for every database event.
//
// Example: dbaccess/db/events/+
func (t Topics) AllDBEvents() string {
	return fmt.Sprintf("%s/db/events/+", t.Prefix())
}

// Status returns the retained online/offline status topic.
//
// Example: dbaccess/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/status", t.Prefix())
}
