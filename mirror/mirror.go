package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis"

	"ticket-marketplace-backend/model"
)

// hashes is the part of the redis client the mirror uses.
type hashes interface {
	HSet(key, field string, value interface{}) *redis.BoolCmd
	HGet(key, field string) *redis.StringCmd
}

// Mirror copies areas into redis for availability reads that should not
// touch the ledger. It is best effort: the ledger stays authoritative.
type Mirror struct {
	client hashes
	prefix string
}

func New(client *redis.Client, prefix string) *Mirror {
	return &Mirror{client: client, prefix: prefix}
}

func (m *Mirror) key(eventID uint64) string {
	return fmt.Sprintf("%s:event:%d:areas", m.prefix, eventID)
}

// SetArea records a as last seen in the ledger.
func (m *Mirror) SetArea(a model.Area) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("setArea: %w", err)
	}
	if err := m.client.HSet(m.key(a.EventID), strconv.FormatUint(a.AreaID, 10), string(b)).Err(); err != nil {
		return fmt.Errorf("setArea: unable to mirror area %d of event %d: %w", a.AreaID, a.EventID, err)
	}
	return nil
}

// Area returns the mirrored area. ok is false when the area was never
// mirrored, which is the case until its first sale is relayed.
func (m *Mirror) Area(eventID, areaID uint64) (a model.Area, ok bool, err error) {
	value, err := m.client.HGet(m.key(eventID), strconv.FormatUint(areaID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Area{}, false, nil
	}
	if err != nil {
		return model.Area{}, false, fmt.Errorf("area: unable to read area %d of event %d: %w", areaID, eventID, err)
	}

	if err := json.Unmarshal([]byte(value), &a); err != nil {
		return model.Area{}, false, fmt.Errorf("area: bad value for area %d of event %d: %w", areaID, eventID, err)
	}
	return a, true, nil
}
