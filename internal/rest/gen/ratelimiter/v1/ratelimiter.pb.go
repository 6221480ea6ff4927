// Package ratelimiterv1 contains the wire types for the ratelimiter.v1 API.
//
// The messages are maintained by hand against proto/ratelimiter/v1 and use
// legacy protobuf struct tags so the standard gRPC proto codec can encode
// them without checked-in generated descriptors.
package ratelimiterv1

import "fmt"

// BucketSubmitTicketRequest asks the owning replica for permission to issue
// one upstream request against a bucket.
type BucketSubmitTicketRequest struct {
	Path string `protobuf:"bytes,1,opt,name=path,proto3" json:"path,omitempty"`
}

// Reset implements the legacy proto message interface.
func (m *BucketSubmitTicketRequest) Reset() { *m = BucketSubmitTicketRequest{} }

// String implements the legacy proto message interface.
func (m *BucketSubmitTicketRequest) String() string { return fmt.Sprintf("%+v", *m) }

// ProtoMessage implements the legacy proto message interface.
func (*BucketSubmitTicketRequest) ProtoMessage() {}

// GetPath returns the bucket key.
func (m *BucketSubmitTicketRequest) GetPath() string {
	if m != nil {
		return m.Path
	}
	return ""
}

// BucketSubmitTicketResponse is the empty grant acknowledgment.
type BucketSubmitTicketResponse struct{}

// Reset implements the legacy proto message interface.
func (m *BucketSubmitTicketResponse) Reset() { *m = BucketSubmitTicketResponse{} }

// String implements the legacy proto message interface.
func (m *BucketSubmitTicketResponse) String() string { return fmt.Sprintf("%+v", *m) }

// ProtoMessage implements the legacy proto message interface.
func (*BucketSubmitTicketResponse) ProtoMessage() {}

// HeadersSubmitRequest reports observed rate limit headers for a bucket.
type HeadersSubmitRequest struct {
	Path        string            `protobuf:"bytes,1,opt,name=path,proto3" json:"path,omitempty"`
	PreciseTime uint64            `protobuf:"varint,2,opt,name=precise_time,json=preciseTime,proto3" json:"precise_time,omitempty"`
	Headers     map[string]string `protobuf:"bytes,3,rep,name=headers,proto3" json:"headers,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

// Reset implements the legacy proto message interface.
func (m *HeadersSubmitRequest) Reset() { *m = HeadersSubmitRequest{} }

// String implements the legacy proto message interface.
func (m *HeadersSubmitRequest) String() string { return fmt.Sprintf("%+v", *m) }

// ProtoMessage implements the legacy proto message interface.
func (*HeadersSubmitRequest) ProtoMessage() {}

// GetPath returns the bucket key.
func (m *HeadersSubmitRequest) GetPath() string {
	if m != nil {
		return m.Path
	}
	return ""
}

// GetPreciseTime returns the capture time in unix milliseconds.
func (m *HeadersSubmitRequest) GetPreciseTime() uint64 {
	if m != nil {
		return m.PreciseTime
	}
	return 0
}

// GetHeaders returns the reported headers.
func (m *HeadersSubmitRequest) GetHeaders() map[string]string {
	if m != nil {
		return m.Headers
	}
	return nil
}

// HeadersSubmitResponse is the empty report acknowledgment.
type HeadersSubmitResponse struct{}

// Reset implements the legacy proto message interface.
func (m *HeadersSubmitResponse) Reset() { *m = HeadersSubmitResponse{} }

// String implements the legacy proto message interface.
func (m *HeadersSubmitResponse) String() string { return fmt.Sprintf("%+v", *m) }

// ProtoMessage implements the legacy proto message interface.
func (*HeadersSubmitResponse) ProtoMessage() {}
