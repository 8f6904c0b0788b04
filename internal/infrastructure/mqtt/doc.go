// Package mqtt publishes database access events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) on the status topic for offline detection
//
// Topics are rooted at the configured prefix:
//
//	<prefix>/db/events/<kind>   one JSON message per event
//	<prefix>/status             retained online/offline status
//
// # Security Considerations
//
//   - Enable TLS for anything beyond local development (cfg.Broker.TLS=true)
//   - Statement text and bound parameters are published as-is; restrict
//     subscriptions with broker ACLs
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.NewTopics(cfg.MQTT.TopicPrefix).DBEvent("slow_query")
//	err = client.Publish(topic, payload, 1, false)
package mqtt
