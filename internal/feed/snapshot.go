package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/nhle/order-dashboard/internal/model"
)

// Entry is one keyed record of a collection snapshot.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Entries splits a snapshot into its records in store key order.
// A null snapshot, or one that is not a collection, yields no entries.
func Entries(raw json.RawMessage) ([]Entry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	switch raw[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		model.SortKeys(keys)

		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			if isNull(obj[k]) {
				continue
			}
			entries = append(entries, Entry{Key: k, Value: obj[k]})
		}
		return entries, nil

	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
		entries := make([]Entry, 0, len(arr))
		for i, v := range arr {
			if isNull(v) {
				continue
			}
			entries = append(entries, Entry{Key: strconv.Itoa(i), Value: v})
		}
		return entries, nil
	}

	return nil, nil
}

func isNull(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

// decodeRecords decodes every entry into T, tagging it with its key.
// Records that fail to decode are logged and skipped.
func decodeRecords[T any](
	collection Collection,
	raw json.RawMessage,
	setID func(*T, string),
) ([]T, error) {
	entries, err := Entries(raw)
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(entries))
	for _, e := range entries {
		var rec T
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			log.Printf("feed %s: skipping record %s: %v", collection, e.Key, err)
			continue
		}
		setID(&rec, e.Key)
		records = append(records, rec)
	}
	return records, nil
}

// DecodeOrders decodes a customerOrders snapshot.
func DecodeOrders(raw json.RawMessage) ([]model.Order, error) {
	return decodeRecords(CollectionOrders, raw, func(o *model.Order, id string) {
		o.ID = id
	})
}

// DecodeNotifications decodes a notifications snapshot.
func DecodeNotifications(raw json.RawMessage) ([]model.Notification, error) {
	return decodeRecords(CollectionNotifications, raw, func(n *model.Notification, id string) {
		n.ID = id
	})
}

// DecodeStock decodes a stock snapshot.
func DecodeStock(raw json.RawMessage) ([]model.StockEntry, error) {
	return decodeRecords(CollectionStock, raw, func(s *model.StockEntry, id string) {
		s.ID = id
	})
}

// Decode builds an UpdateMsg for the given collection from a snapshot.
func Decode(c Collection, raw json.RawMessage) UpdateMsg {
	msg := UpdateMsg{Collection: c}
	var err error
	switch c {
	case CollectionOrders:
		msg.Orders, err = DecodeOrders(raw)
	case CollectionNotifications:
		msg.Notifications, err = DecodeNotifications(raw)
	case CollectionStock:
		msg.Stock, err = DecodeStock(raw)
	default:
		err = fmt.Errorf("unknown collection %q", c)
	}
	if err != nil {
		return UpdateMsg{Collection: c, Err: err}
	}
	return msg
}
