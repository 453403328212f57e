package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/chat-wallet/internal/storage"
	"github/chapool/chat-wallet/internal/util"
	"github/chapool/chat-wallet/internal/wallet/token"
)

const nextIndexKey = "next-index"

// KVStore keeps registry documents as JSON in a storage.DB.
//
// Keys:
//
//	u/<user_id>           -> userDoc
//	m/next-index          -> counterDoc
//	t/<chat_id>/<SYMBOL>  -> tokenDoc
type KVStore struct {
	db     storage.DB
	users  *storage.View
	tokens *storage.View
	meta   *storage.View

	// serializes index allocation
	mu sync.Mutex
}

var _ Registry = (*KVStore)(nil)

func NewKVStore(db storage.DB) *KVStore {
	return &KVStore{
		db:     db,
		users:  storage.NewView(db, "u/"),
		tokens: storage.NewView(db, "t/"),
		meta:   storage.NewView(db, "m/"),
	}
}

type userDoc struct {
	Index uint32 `json:"index"`
}

type counterDoc struct {
	Next uint64 `json:"next"`
}

type tokenDoc struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals *uint8 `json:"decimals,omitempty"`
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func tokenKey(chatID int64, symbol string) string {
	return fmt.Sprintf("%d/%s", chatID, strings.ToUpper(symbol))
}

func (s *KVStore) GetOrCreateIndex(ctx context.Context, userID int64) (uint32, error) {
	if doc, ok, err := s.getUser(userID); err != nil || ok {
		return doc.Index, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another caller may have assigned it while we waited
	if doc, ok, err := s.getUser(userID); err != nil || ok {
		return doc.Index, err
	}

	var counter counterDoc
	if err := getJSON(s.meta, nextIndexKey, &counter); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, errors.Wrap(err, "failed to read index counter")
	}

	if counter.Next > math.MaxInt32 {
		return 0, errors.New("derivation index space exhausted")
	}
	index := uint32(counter.Next)

	// counter and assignment commit together so a failed write cannot skip an index
	var batch storage.Batch
	if err := putJSON(&batch, s.meta.Key(nextIndexKey), counterDoc{Next: counter.Next + 1}); err != nil {
		return 0, err
	}
	if err := putJSON(&batch, s.users.Key(userKey(userID)), userDoc{Index: index}); err != nil {
		return 0, err
	}
	if err := s.db.Write(&batch); err != nil {
		return 0, errors.Wrapf(err, "failed to store index for user %d", userID)
	}

	util.LogFromContext(ctx).Info().
		Int64("user_id", userID).
		Uint32("index", index).
		Msg("Assigned derivation index")

	return index, nil
}

func (s *KVStore) getUser(userID int64) (userDoc, bool, error) {
	var doc userDoc
	err := getJSON(s.users, userKey(userID), &doc)
	if errors.Is(err, storage.ErrNotFound) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, errors.Wrapf(err, "failed to read user %d", userID)
	}
	return doc, true, nil
}

func (s *KVStore) GetToken(_ context.Context, chatID int64, symbol string) (*token.Descriptor, error) {
	var doc tokenDoc
	err := getJSON(s.tokens, tokenKey(chatID, symbol), &doc)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil //nolint:nilnil // absent token is not an error
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read token %s", symbol)
	}

	if !common.IsHexAddress(doc.Address) {
		return nil, errors.Errorf("stored token %s has invalid address %q", doc.Symbol, doc.Address)
	}

	return &token.Descriptor{
		Symbol:   doc.Symbol,
		Address:  common.HexToAddress(doc.Address),
		Decimals: doc.Decimals,
	}, nil
}

func (s *KVStore) PutToken(_ context.Context, chatID int64, d token.Descriptor) error {
	doc := tokenDoc{
		Symbol:   strings.ToUpper(d.Symbol),
		Address:  d.Address.Hex(),
		Decimals: d.Decimals,
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal token")
	}
	return s.tokens.Put([]byte(tokenKey(chatID, doc.Symbol)), raw)
}

func (s *KVStore) Close() error {
	return s.db.Close()
}

func getJSON(db storage.DB, key string, v any) error {
	raw, err := db.Get([]byte(key))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func putJSON(b *storage.Batch, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal document")
	}
	b.Put(key, raw)
	return nil
}
