package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Signaling
	FieldConnectionID = "connection_id"
	FieldRoomKey      = "room_key"
	FieldTarget       = "target_id"
	FieldMessageType  = "message_type"

	// Service
	FieldService = "service"
)
