// Package diagnostics routes database access events to their destinations.
//
// Each recorder implements database.EventSink and can be passed to
// database.WithEventSink directly or combined with Multi:
//
//	sink := diagnostics.Multi{
//	    diagnostics.NewFileRecorder(fileSink),
//	    diagnostics.NewInfluxRecorder(influxClient, map[string]string{"driver": "mysql"}),
//	    diagnostics.NewMQTTRecorder(mqttClient),
//	    diagnostics.NewAuditRecorder(auditRepo),
//	}
//	exec := database.NewExecutor(manager, database.WithEventSink(sink))
//
// Recorders are advisory. The executor logs their errors and carries on.
package diagnostics
