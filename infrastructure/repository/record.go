package repository

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

// FlattenRecord converte um registro para a ordem de colunas do schema.
// Campos ausentes viram texto vazio e campos fora do schema são ignorados.
func FlattenRecord(schema domain.Schema, record domain.Record) ([]string, error) {
	row := make([]string, len(schema.Fields))

	for i, field := range schema.Fields {
		value, ok := record[field]
		if !ok {
			continue
		}

		if schema.IsJSONField(field) {
			encoded, err := utils.EncodeJSONField(value)
			if err != nil {
				return nil, errors.Wrapf(err, "encode field %s", field)
			}
			row[i] = encoded
			continue
		}

		text, err := formatValue(value)
		if err != nil {
			return nil, errors.Wrapf(err, "format field %s", field)
		}
		row[i] = text
	}

	return row, nil
}

func formatValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case map[string]any, []any, domain.Record:
		return utils.EncodeJSONField(v)
	default:
		return fmt.Sprint(v), nil
	}
}
