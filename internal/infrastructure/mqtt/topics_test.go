package mqtt

import "testing"

func TestTopics(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		event  string
		status string
		all    string
	}{
		{
			name:   "default prefix",
			prefix: "",
			event:  "dbaccess/db/events/slow_query",
			status: "dbaccess/status",
			all:    "dbaccess/db/events/+",
		},
		{
			name:   "nested prefix",
			prefix: "ops/orders-api",
			event:  "ops/orders-api/db/events/slow_query",
			status: "ops/orders-api/status",
			all:    "ops/orders-api/db/events/+",
		},
		{
			name:   "slashes trimmed",
			prefix: "/ops/",
			event:  "ops/db/events/slow_query",
			status: "ops/status",
			all:    "ops/db/events/+",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topics := NewTopics(tt.prefix)
			if got := topics.DBEvent("slow_query"); got != tt.event {
				t.Errorf("DBEvent() = %q, want %q", got, tt.event)
			}
			if got := topics.Status(); got != tt.status {
				t.Errorf("Status() = %q, want %q", got, tt.status)
			}
			if got := topics.AllDBEvents(); got != tt.all {
				t.Errorf("AllDBEvents() = %q, want %q", got, tt.all)
			}
		})
	}
}

func TestTopics_ZeroValue(t *testing.T) {
	if got := (Topics{}).DBEvent("failure"); got != "dbaccess/db/events/failure" {
		t.Errorf("zero Topics DBEvent() = %q", got)
	}
}
