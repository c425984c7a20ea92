package proposal

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var storeKeyPrefix = []byte("pending/")

// Record is the persisted part of a registration. Callbacks are rebuilt from Kind
// and Subject when the watcher starts.
type Record struct {
	ProposalID     string    `json:"proposal_id"`
	Memo           string    `json:"memo"`
	Kind           string    `json:"kind"`
	Subject        string    `json:"subject"`
	RegistrationID string    `json:"registration_id"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// Store keeps pending registrations across restarts.
type Store struct {
	db *leveldb.DB
}

func NewStore(db *leveldb.DB) *Store {
	return &Store{db: db}
}

func storeKey(id string) []byte {
	return append(append([]byte{}, storeKeyPrefix...), id...)
}

func (s *Store) Put(rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal pending proposal")
	}
	return errors.Wrapf(s.db.Put(storeKey(rec.ProposalID), raw, nil), "persist pending proposal %s", rec.ProposalID)
}

func (s *Store) Delete(id string) error {
	return errors.Wrapf(s.db.Delete(storeKey(id), nil), "delete pending proposal %s", id)
}

func (s *Store) Get(id string) (*Record, bool, error) {
	raw, err := s.db.Get(storeKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get pending proposal %s", id)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, errors.Wrapf(err, "unmarshal pending proposal %s", id)
	}
	return &rec, true, nil
}

// List returns every persisted registration. Corrupt entries are skipped.
func (s *Store) List() ([]Record, error) {
	it := s.db.NewIterator(util.BytesPrefix(storeKeyPrefix), nil)
	defer it.Release()

	var records []Record
	for it.Next() {
		var rec Record
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(it.Error(), "iterate pending proposals")
}
