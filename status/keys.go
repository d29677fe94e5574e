package status

// Metric keys published by the screen session and its async bridge
const (
	KeySessionActive  = "session.active"
	KeyDriverName     = "session.driver"
	KeyPollsSpawned   = "polls.spawned"
	KeyPollsDelivered = "polls.delivered"
	KeyPollsJoined    = "polls.joined"
	KeyPollsInflight  = "polls.inflight"
	KeyPollsRejected  = "polls.spawn_failed"
	KeyPollLatencyMs  = "polls.latency_ms"
	KeyPollLatencyMax = "polls.latency_max_ms"
)
