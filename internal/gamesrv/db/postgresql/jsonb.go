package postgresql

import (
	"reflect"

	jsoniter "github.com/json-iterator/go"
)

// json handles all JSONB column marshaling in this package.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// marshalJSONB marshals v for a JSONB column, mapping nil to SQL NULL. Typed
// nils (a nil *models.SessionSetup passed as any) also map to NULL, so a
// cleared document round-trips as NULL rather than jsonb 'null'.
func marshalJSONB(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// unmarshalJSONB unmarshals a nullable JSONB column into v. A NULL column
// leaves v untouched.
func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
