package station

import (
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TelemetryValue is the latest reading for one telemetry key.
type TelemetryValue struct {
	Key   string    `json:"key"`
	Value string    `json:"value"`
	At    time.Time `json:"at"`
}

// TelemetryStore keeps the most recently updated telemetry keys. Keys the
// robot stops reporting age out once capacity is reached.
type TelemetryStore struct {
	cache *lru.Cache[string, TelemetryValue]
}

func NewTelemetryStore(capacity int) (*TelemetryStore, error) {
	cache, err := lru.New[string, TelemetryValue](capacity)
	if err != nil {
		return nil, err
	}
	return &TelemetryStore{cache: cache}, nil
}

func (s *TelemetryStore) Put(key, value string, at time.Time) {
	s.cache.Add(key, TelemetryValue{Key: key, Value: value, At: at})
}

func (s *TelemetryStore) Get(key string) (TelemetryValue, bool) {
	return s.cache.Peek(key)
}

// All returns every stored value sorted by key.
func (s *TelemetryStore) All() []TelemetryValue {
	out := s.cache.Values()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *TelemetryStore) Len() int { return s.cache.Len() }

func (s *TelemetryStore) Purge() { s.cache.Purge() }

// splitLine splits user telemetry of the form "caption:value". Lines
// without a colon keep the entry key.
func splitLine(key, value string) (string, string) {
	if k, v, ok := strings.Cut(value, ":"); ok {
		return strings.TrimSpace(k), strings.TrimSpace(v)
	}
	return key, value
}
