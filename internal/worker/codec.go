package worker

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ContentTypeJSON     = "application/json"
	ContentTypeProtobuf = "application/x-protobuf"

	headerContentType = "content-type"
)

// Encode serializes v as JSON, or as a protobuf Struct holding the same
// document when contentType asks for protobuf.
func Encode(v any, contentType string) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	if contentType != ContentTypeProtobuf {
		return data, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("protobuf payloads must be JSON objects: %w", err)
	}
	st, err := structpb.NewStruct(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build protobuf struct: %w", err)
	}
	out, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal protobuf payload: %w", err)
	}
	return out, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte, contentType string, v any) error {
	if contentType == ContentTypeProtobuf {
		var st structpb.Struct
		if err := proto.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("failed to unmarshal protobuf payload: %w", err)
		}
		converted, err := json.Marshal(st.AsMap())
		if err != nil {
			return fmt.Errorf("failed to convert protobuf payload: %w", err)
		}
		data = converted
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// ContentTypeOf reads the content-type header, defaulting to JSON.
func ContentTypeOf(headers []kafka.Header) string {
	for _, h := range headers {
		if strings.EqualFold(h.Key, headerContentType) {
			if ct := strings.TrimSpace(string(h.Value)); ct != "" {
				return ct
			}
		}
	}
	return ContentTypeJSON
}

func contentTypeHeader(contentType string) kafka.Header {
	return kafka.Header{Key: headerContentType, Value: []byte(contentType)}
}
