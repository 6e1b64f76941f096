package jwks

import "time"

// snapshot is one fetched key set paired with its expiry. It is never
// mutated after creation; refreshes swap in a new snapshot as a unit.
type snapshot struct {
	keys      []Key
	expiresAt time.Time
}

func (s *snapshot) valid(now time.Time) bool {
	return s != nil && now.Before(s.expiresAt)
}

func (s *snapshot) find(kid string) (Key, bool) {
	for _, key := range s.keys {
		if key.ID == kid {
			return key, true
		}
	}
	return Key{}, false
}
