package service

import "encoding/json"

func jsonMarshal(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	return string(raw), err
}

func jsonUnmarshal(raw string, dest interface{}) error {
	return json.Unmarshal([]byte(raw), dest)
}
