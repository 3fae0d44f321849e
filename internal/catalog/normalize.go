package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"
)

// DecodeRecords turns the elements of the fetched JSON array into RawRecords.
// Numbers are kept as json.Number so large counters survive intact.
func DecodeRecords(items []json.RawMessage) ([]RawRecord, error) {
	out := make([]RawRecord, 0, len(items))
	for i, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()

		var rec RawRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, &SchemaError{Index: i, Err: err}
		}
		if rec == nil {
			return nil, &SchemaError{Index: i, Err: errors.New("record is null")}
		}
		out = append(out, rec)
	}
	return out, nil
}

// FallbackFunc chooses last_modified for a record whose own timestamp is
// missing or unreadable.
type FallbackFunc func(fetchTime time.Time) time.Time

// FetchTimeFallback substitutes the batch fetch time. Records defaulted this
// way always classify as recent.
func FetchTimeFallback(fetchTime time.Time) time.Time { return fetchTime }

// Normalizer maps raw hub records onto ModelRecord.
type Normalizer struct {
	fallback FallbackFunc
}

// NewNormalizer returns a Normalizer using fallback, or FetchTimeFallback when nil.
func NewNormalizer(fallback FallbackFunc) *Normalizer {
	if fallback == nil {
		fallback = FetchTimeFallback
	}
	return &Normalizer{fallback: fallback}
}

// Normalize maps every raw record to a ModelRecord stamped with fetchTime.
// Output order matches input order. Bad field values are defaulted, never rejected.
func (n *Normalizer) Normalize(raws []RawRecord, fetchTime time.Time) []ModelRecord {
	fetchTime = fetchTime.UTC().Truncate(time.Microsecond)

	out := make([]ModelRecord, len(raws))
	for i, raw := range raws {
		out[i] = n.normalizeOne(raw, fetchTime)
	}
	return out
}

func (n *Normalizer) normalizeOne(raw RawRecord, fetchTime time.Time) ModelRecord {
	rec := ModelRecord{
		ModelID:     stringField(raw, "", "modelId", "id"),
		Author:      stringField(raw, DefaultAuthor, "author"),
		Downloads:   intField(raw, "downloads"),
		Likes:       intField(raw, "likes"),
		PipelineTag: stringField(raw, "", "pipeline_tag"),
		LibraryName: stringField(raw, "", "library_name"),
		ModelType:   stringField(raw, "", "model_type"),
		License:     stringField(raw, DefaultLicense, "license"),
		Private:     boolField(raw, "private"),
		FetchTime:   fetchTime,
	}

	if t, ok := timeField(raw, "lastModified"); ok {
		rec.LastModified = t.UTC().Truncate(time.Microsecond)
	} else {
		rec.LastModified = n.fallback(fetchTime)
	}
	rec.IsRecent = IsRecent(rec.LastModified, fetchTime)
	return rec
}

// IsRecent reports whether lastModified falls inside RecentWindow before
// fetchTime. The boundary itself counts as recent.
func IsRecent(lastModified, fetchTime time.Time) bool {
	return !lastModified.Before(fetchTime.Add(-RecentWindow))
}

// stringField returns the first present, non-null value among keys. A value of
// the wrong type yields def.
func stringField(raw RawRecord, def string, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s
		}
		return def
	}
	return def
}

func intField(raw RawRecord, key string) int64 {
	switch v := raw[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return truncFloat(f)
		}
	case float64:
		return truncFloat(v)
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

func truncFloat(f float64) int64 {
	if math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int64(f)
}

func boolField(raw RawRecord, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case float64:
		return v != 0
	}
	return false
}

func timeField(raw RawRecord, key string) (time.Time, bool) {
	switch v := raw[key].(type) {
	case string:
		return parseTimestamp(v)
	case json.Number:
		return parseTimestamp(v.String())
	}
	return time.Time{}, false
}
