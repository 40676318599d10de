package snapclient

import (
	"context"
	"fmt"
	"net/url"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	snapdomain "github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/domain"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

// PageFetcher busca uma página da coleção filha de parentID a partir do cursor (vazio na primeira)
type PageFetcher[T any] func(ctx context.Context, parentID, cursor string) (*snapdomain.Page[T], error)

// Paginate segue os cursores até a última página e devolve os itens na ordem da API.
// Qualquer erro descarta o que já foi acumulado.
func Paginate[T any](ctx context.Context, parentID string, fetch PageFetcher[T]) ([]T, error) {
	var (
		results []T
		cursor  string
	)

	for {
		page, err := fetch(ctx, parentID, cursor)
		if err != nil {
			return nil, err
		}

		results = append(results, page.Items...)

		if page.NextCursor == "" {
			return results, nil
		}
		if page.NextCursor == cursor {
			return nil, fmt.Errorf("pagination cursor %q did not advance", cursor)
		}
		cursor = page.NextCursor
	}
}

// CursorFromNextLink extrai o parâmetro cursor do next_link; vazio sinaliza fim da coleção
func CursorFromNextLink(nextLink string) (string, error) {
	if nextLink == "" {
		return "", nil
	}

	parsed, err := url.Parse(nextLink)
	if err != nil {
		return "", errors.Wrapf(err, "invalid next_link %q", nextLink)
	}

	return parsed.Query().Get("cursor"), nil
}

// DecodeCollection desembrulha {"<item>s": [{"<item>": {...}}], "paging": {...}}
func DecodeCollection(body []byte, itemKey string) (*snapdomain.Page[domain.Record], error) {
	collectionKey := itemKey + "s"

	var envelope map[string]jsoniter.RawMessage
	if err := utils.JSON.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrapf(err, "decode %s response", collectionKey)
	}

	rawItems, ok := envelope[collectionKey]
	if !ok {
		return nil, fmt.Errorf("response has no %q collection", collectionKey)
	}

	var wrapped []map[string]jsoniter.RawMessage
	if err := utils.JSON.Unmarshal(rawItems, &wrapped); err != nil {
		return nil, errors.Wrapf(err, "decode %s collection", collectionKey)
	}

	page := &snapdomain.Page[domain.Record]{Items: make([]domain.Record, 0, len(wrapped))}
	for i, item := range wrapped {
		rawItem, ok := item[itemKey]
		if !ok {
			return nil, fmt.Errorf("%s[%d] has no %q entry", collectionKey, i, itemKey)
		}

		var record domain.Record
		if err := utils.JSON.Unmarshal(rawItem, &record); err != nil {
			return nil, errors.Wrapf(err, "decode %s[%d]", collectionKey, i)
		}
		page.Items = append(page.Items, record)
	}

	if rawPaging, ok := envelope["paging"]; ok {
		var paging snapdomain.Paging
		if err := utils.JSON.Unmarshal(rawPaging, &paging); err != nil {
			return nil, errors.Wrap(err, "decode paging")
		}

		cursor, err := CursorFromNextLink(paging.NextLink)
		if err != nil {
			return nil, err
		}
		page.NextCursor = cursor
	}

	return page, nil
}

// listPage busca e decodifica uma página de uma listagem paginada
func (c *SnapClient) listPage(ctx context.Context, resource, cursor, itemKey string, segments ...string) (*snapdomain.Page[domain.Record], error) {
	body, err := c.get(ctx, resource, pageParams(cursor), segments...)
	if err != nil {
		return nil, err
	}

	return DecodeCollection(body, itemKey)
}
