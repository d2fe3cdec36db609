package content

import (
	"encoding/json"
)

// Serializer converts values to and from their textual wire form.
type Serializer interface {
	Serialize(v any) (string, error)
	Deserialize(data string, v any) error
}

// JSONSerializer is the default Serializer, backed by encoding/json.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONSerializer) Deserialize(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}

// DefaultSerializer is used when no Serializer is supplied.
var DefaultSerializer Serializer = JSONSerializer{}
