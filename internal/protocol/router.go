package protocol

// Route decodes a raw datagram into its envelope and typed packet. Any
// failure returns a zero Envelope and nil Packet.
func Route(raw []byte) (Envelope, Packet, error) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return Envelope{}, nil, err
	}
	p, err := DecodePayload(env.Type, env.Payload)
	if err != nil {
		return Envelope{}, nil, err
	}
	return env, p, nil
}

// DecodePayload decodes a raw payload given its packet type.
func DecodePayload(t PacketType, payload []byte) (Packet, error) {
	switch t {
	case TypeTime:
		return packetOrNil(DecodeTime(payload))
	case TypeGamepad:
		return packetOrNil(DecodeGamepad(payload))
	case TypeHeartbeat:
		return packetOrNil(DecodeHeartbeat(payload))
	case TypeCommand:
		return packetOrNil(DecodeCommand(payload))
	case TypeTelemetry:
		return packetOrNil(DecodeTelemetry(payload))
	default:
		return nil, &DecodeError{Type: t, Field: "type", Err: ErrUnknownPacketType}
	}
}

// packetOrNil keeps a nil concrete pointer from becoming a non-nil Packet.
func packetOrNil[P Packet](p P, err error) (Packet, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
