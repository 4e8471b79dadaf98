package ocpp

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Frame is a decoded OCPP-J array message, normalized to a single shape
// regardless of which of the three message types it carried.
type Frame struct {
	Type             MessageTypeId
	MessageID        string
	Action           Action
	Payload          json.RawMessage
	ErrorCode        string
	ErrorDescription string
	ErrorDetails     json.RawMessage
}

// CodecError wraps a framing or validation failure encountered while
// encoding or decoding an OCPP-J message.
type CodecError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ocpp codec: %s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("ocpp codec: %s: %s", e.Operation, e.Message)
}

func (e *CodecError) Unwrap() error { return e.Cause }

// Codec serializes and deserializes OCPP-J array frames over the wire,
// validating struct payloads with go-playground/validator tags on the way
// out.
type Codec struct {
	validate *validator.Validate
}

// NewCodec builds a codec with the OCPP struct-tag validation rules.
func NewCodec() *Codec {
	return &Codec{validate: validator.New()}
}

// EncodeCall frames a `[2, uniqueId, action, payload]` Call message.
func (c *Codec) EncodeCall(messageID string, action Action, payload interface{}) ([]byte, error) {
	if err := c.validatePayload(payload); err != nil {
		return nil, &CodecError{Operation: "EncodeCall", Message: string(action), Cause: err}
	}
	frame := []interface{}{Call, messageID, action, payload}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, &CodecError{Operation: "EncodeCall", Message: "marshal", Cause: err}
	}
	return data, nil
}

// EncodeCallResult frames a `[3, uniqueId, payload]` CallResult message.
func (c *Codec) EncodeCallResult(messageID string, payload interface{}) ([]byte, error) {
	frame := []interface{}{CallResult, messageID, payload}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, &CodecError{Operation: "EncodeCallResult", Message: "marshal", Cause: err}
	}
	return data, nil
}

// EncodeCallError frames a `[4, uniqueId, errorCode, errorDescription, errorDetails]` CallError message.
func (c *Codec) EncodeCallError(messageID, errorCode, errorDescription string, errorDetails interface{}) ([]byte, error) {
	if errorDetails == nil {
		errorDetails = struct{}{}
	}
	frame := []interface{}{CallError, messageID, errorCode, errorDescription, errorDetails}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, &CodecError{Operation: "EncodeCallError", Message: "marshal", Cause: err}
	}
	return data, nil
}

// Decode parses a raw OCPP-J array message into a normalized Frame.
func (c *Codec) Decode(data []byte) (*Frame, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &CodecError{Operation: "Decode", Message: "not a JSON array", Cause: err}
	}
	if len(raw) < 3 {
		return nil, &CodecError{Operation: "Decode", Message: "frame too short"}
	}

	var messageType MessageTypeId
	if err := json.Unmarshal(raw[0], &messageType); err != nil {
		return nil, &CodecError{Operation: "Decode", Message: "messageTypeId", Cause: err}
	}

	var messageID string
	if err := json.Unmarshal(raw[1], &messageID); err != nil {
		return nil, &CodecError{Operation: "Decode", Message: "messageId", Cause: err}
	}

	switch messageType {
	case Call:
		if len(raw) != 4 {
			return nil, &CodecError{Operation: "Decode", Message: "Call frame must have 4 elements"}
		}
		var action Action
		if err := json.Unmarshal(raw[2], &action); err != nil {
			return nil, &CodecError{Operation: "Decode", Message: "action", Cause: err}
		}
		return &Frame{Type: Call, MessageID: messageID, Action: action, Payload: raw[3]}, nil
	case CallResult:
		if len(raw) != 3 {
			return nil, &CodecError{Operation: "Decode", Message: "CallResult frame must have 3 elements"}
		}
		return &Frame{Type: CallResult, MessageID: messageID, Payload: raw[2]}, nil
	case CallError:
		if len(raw) < 4 {
			return nil, &CodecError{Operation: "Decode", Message: "CallError frame must have at least 4 elements"}
		}
		var errorCode, errorDescription string
		if err := json.Unmarshal(raw[2], &errorCode); err != nil {
			return nil, &CodecError{Operation: "Decode", Message: "errorCode", Cause: err}
		}
		if err := json.Unmarshal(raw[3], &errorDescription); err != nil {
			return nil, &CodecError{Operation: "Decode", Message: "errorDescription", Cause: err}
		}
		f := &Frame{Type: CallError, MessageID: messageID, ErrorCode: errorCode, ErrorDescription: errorDescription}
		if len(raw) >= 5 {
			f.ErrorDetails = raw[4]
		}
		return f, nil
	default:
		return nil, &CodecError{Operation: "Decode", Message: fmt.Sprintf("unsupported messageTypeId %d", messageType)}
	}
}

func (c *Codec) validatePayload(payload interface{}) error {
	if payload == nil {
		return nil
	}
	return c.validate.Struct(payload)
}
