package utils

import (
	"bytes"
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// JSON preserva números como json.Number para não perder precisão em valores *_micro
var JSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// EncodeJSONField serializa um valor aninhado para ser gravado numa coluna de texto
func EncodeJSONField(value any) (string, error) {
	if value == nil {
		return "", nil
	}

	out, err := JSON.MarshalToString(value)
	if err != nil {
		return "", err
	}

	return out, nil
}

// PrettyJson indenta com tab; jsoniter só aceita indentação com espaços, então a indentação fica com json.Indent
func PrettyJson(in any) (string, error) {
	if raw, ok := in.([]byte); ok {
		var decoded any
		if err := JSON.Unmarshal(raw, &decoded); err != nil {
			return "", err
		}
		in = decoded
	}

	buffer, err := JSON.Marshal(in)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buffer, "", "\t"); err != nil {
		return "", err
	}

	return out.String(), nil
}
