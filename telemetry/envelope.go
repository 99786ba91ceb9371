package telemetry

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// encode turns an Event into the wire envelope every broker-backed
// sink ships: a structpb.Struct, marshaled with proto.Marshal. Using
// structpb rather than a hand-maintained generated message keeps the
// wire format self-describing without a .proto/codegen pipeline for
// what is, per message, a handful of scalar fields.
func encode(ev Event) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"kind":       string(ev.Kind),
		"timestamp":  ev.Timestamp.UnixNano(),
		"thread_id":  float64(ev.ThreadID),
		"peer_id":    float64(ev.PeerID),
		"request_id": ev.RequestID,
		"status":     ev.Status,
		"detail":     ev.Detail,
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}
