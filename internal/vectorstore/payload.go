package vectorstore

import (
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// pointID renders UUID and numeric point IDs as strings.
func pointID(id *qdrant.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	if id.GetPointIdOptions() == nil {
		return ""
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// payloadMap decodes a point payload. It never returns nil.
func payloadMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, len(values))
		for i, item := range values {
			list[i] = fromValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return payloadMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}
