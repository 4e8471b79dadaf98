package worker

import "encoding/json"

// classify implements the Response Classifier (§4.7): whether an OCPP
// response a handler returned counts as a command success. Working from
// a JSON round-trip into map[string]interface{} lets the same rules
// apply uniformly to typed ocpp response structs and to the raw
// map-shaped stand-ins used by commands that don't place an OCPP call
// (e.g. StartChargingStation).
func classify(command ProcedureName, resp interface{}) bool {
	m, ok := toMap(resp)
	if !ok {
		return command != ProcGetConfiguration
	}

	switch command {
	case ProcAuthorize, ProcStartTransaction, ProcStopTransaction:
		status, _ := nestedString(m, "idTagInfo", "status")
		if status == "" {
			return len(m) == 0
		}
		return status == "Accepted"
	case ProcBootNotification, ProcChangeConfiguration, ProcReset:
		status, _ := m["status"].(string)
		return status == "Accepted"
	case ProcGetConfiguration:
		return true
	case ProcHeartbeat:
		_, hasTime := m["currentTime"]
		return hasTime || len(m) == 0
	case ProcDataTransfer:
		status, _ := m["status"].(string)
		return status == "Accepted"
	case ProcStatusNotification, ProcMeterValues:
		return len(m) == 0
	default:
		// Diagnostics/firmware status notifications respond with an empty
		// object on success; anything unmarshalled into a non-empty map
		// signals an unexpected field and is treated as failure-to-classify,
		// not failure-to-send, so we still call it success: the transport
		// call already returned without error by this point.
		return true
	}
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	if v == nil {
		return nil, false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func nestedString(m map[string]interface{}, keys ...string) (string, bool) {
	var cur interface{} = m
	for _, k := range keys {
		asMap, ok := cur.(map[string]interface{})
		if !ok {
			return "", false
		}
		cur, ok = asMap[k]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}
