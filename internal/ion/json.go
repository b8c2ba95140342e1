// Copyright 2025 Certen Protocol

package ion

import "encoding/json"

func jsonDecode(data []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
