package correlate

import (
	"strconv"
	"sync"

	"masklink/backend/storage"
)

// VisitedSet accumulates every sender discovered during one run. Insert is a
// single compare-and-insert so concurrent discovery of the same record from
// two query categories still counts once.
type VisitedSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
	all  []storage.Sender
}

func NewVisitedSet() *VisitedSet {
	return &VisitedSet{keys: make(map[string]struct{})}
}

// Insert adds the sender unless an identical (id, mask, realname) record is
// already present, reporting whether it was new.
func (v *VisitedSet) Insert(s storage.Sender) bool {
	key := senderKey(s)
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, dup := v.keys[key]; dup {
		return false
	}
	v.keys[key] = struct{}{}
	v.all = append(v.all, s)
	return true
}

func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.all)
}

// Senders returns a copy of the accumulated records, in discovery order.
func (v *VisitedSet) Senders() []storage.Sender {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]storage.Sender, len(v.all))
	copy(out, v.all)
	return out
}

// senderKey derives the dedup identity. Host identity is its raw text; the
// parsed address and the subnet flag never join the key. The store id does:
// the same mask under two distinct ids is two discoveries.
func senderKey(s storage.Sender) string {
	return strconv.FormatInt(s.ID, 10) + "|" +
		string(s.Mask.Nick) + "!" + string(s.Mask.Ident) + "@" + s.Mask.Host.Raw +
		"|" + s.Realname
}
