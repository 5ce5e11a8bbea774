package datasource

import (
	"bytes"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
)

// List is a converted collection together with the fallbacks applied to its items.
type List[T any] struct {
	Items         []T                      `json:"items"`
	Warnings      []viewmodel.ParseWarning `json:"warnings,omitempty"`
	NextPageToken string                   `json:"nextPageToken,omitempty"`
}

func (l List[T]) Incomplete() bool {
	return len(l.Warnings) > 0
}

type converter[T any] func(raw json.RawMessage, now time.Time) (viewmodel.Result[T], error)

// rawList reads a collection answered either as a bare array or as an object holding the array under one
// of keys, with an optional next_page_token.
type rawList struct {
	items         []json.RawMessage
	nextPageToken string
}

func decodeList(raw json.RawMessage, keys ...string) (rawList, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return rawList{}, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return rawList{}, err
		}
		return rawList{items: items}, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return rawList{}, err
	}

	ret := rawList{}
	if token, ok := envelope["next_page_token"]; ok {
		_ = json.Unmarshal(token, &ret.nextPageToken)
	}
	for _, key := range append(append([]string{}, keys...), "items", "data", "results") {
		content, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(content, &ret.items); err != nil {
			return rawList{}, err
		}
		break
	}
	return ret, nil
}

// convertAll converts every item. Items that are not objects are dropped and reported as warnings so that
// one malformed record does not break the whole list.
func convertAll[T any](raw rawList, now time.Time, convert converter[T]) List[T] {
	ret := List[T]{
		Items:         make([]T, 0, len(raw.items)),
		NextPageToken: raw.nextPageToken,
	}
	for _, item := range raw.items {
		result, err := convert(item, now)
		if err != nil {
			log.Debugf("dropping malformed list item %s: %s", string(item), err)
			ret.Warnings = append(ret.Warnings, viewmodel.ParseWarning{Field: "items", Kind: viewmodel.WarningJSON, Raw: string(item)})
			continue
		}
		ret.Items = append(ret.Items, result.Value)
		ret.Warnings = append(ret.Warnings, result.Warnings...)
	}
	return ret
}

func decodeAndConvert[T any](raw json.RawMessage, now time.Time, convert converter[T], keys ...string) (List[T], error) {
	list, err := decodeList(raw, keys...)
	if err != nil {
		return List[T]{}, err
	}
	return convertAll(list, now, convert), nil
}
