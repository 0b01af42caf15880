package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/luca-patrignani/mental-rps/domain/rps"
)

const blocksBucket = "journal:blocks"

var (
	ErrBucketNotFound = errors.New("journal bucket doesn't exist")
	ErrEmptyJournal   = errors.New("journal is empty")
	ErrNotSettled     = errors.New("round is not settled")
)

// Journal is a hash-chained log of settled rounds backed by bbolt.
// bbolt allows a single writer at a time, which serializes appends.
type Journal struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens (or creates) the journal file at path. A new journal starts with
// a genesis block whose previous hash is "0".
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	j := &Journal{db: db, now: time.Now}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(blocksBucket))
		if err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", blocksBucket, err)
		}
		if k, _ := b.Cursor().Last(); k != nil {
			return nil
		}
		genesis := Block{
			Index:     0,
			Timestamp: j.now().Unix(),
			PrevHash:  "0",
		}
		genesis.Hash = calculateHash(genesis)
		return putBlock(b, genesis)
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize journal: %w", err), db.Close())
	}
	return j, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Shutdown lets the journal be released by a samber/do injector.
func (j *Journal) Shutdown() error {
	return j.Close()
}

// Append records a settled verdict as a new block.
func (j *Journal) Append(v rps.Verdict) (Block, error) {
	if !v.Phase.Terminal() {
		return Block{}, fmt.Errorf("%w: %s", ErrNotSettled, v.Phase)
	}
	var block Block
	err := j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(blocksBucket))
		if b == nil {
			return ErrBucketNotFound
		}
		_, raw := b.Cursor().Last()
		if raw == nil {
			return ErrEmptyJournal
		}
		latest, err := decodeBlock(raw)
		if err != nil {
			return err
		}
		block = Block{
			Index:     latest.Index + 1,
			Timestamp: j.now().Unix(),
			PrevHash:  latest.Hash,
			Record:    recordOf(v),
		}
		block.Hash = calculateHash(block)
		if err := validateBlock(block, latest); err != nil {
			return fmt.Errorf("invalid block: %w", err)
		}
		return putBlock(b, block)
	})
	if err != nil {
		return Block{}, err
	}
	return block, nil
}

// Latest returns the most recently appended block.
func (j *Journal) Latest() (Block, error) {
	var block Block
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(blocksBucket))
		if b == nil {
			return ErrBucketNotFound
		}
		_, raw := b.Cursor().Last()
		if raw == nil {
			return ErrEmptyJournal
		}
		var err error
		block, err = decodeBlock(raw)
		return err
	})
	return block, err
}

// Blocks returns the whole chain, genesis first.
func (j *Journal) Blocks() ([]Block, error) {
	var blocks []Block
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(blocksBucket))
		if b == nil {
			return ErrBucketNotFound
		}
		return b.ForEach(func(_, raw []byte) error {
			block, err := decodeBlock(raw)
			if err != nil {
				return err
			}
			blocks = append(blocks, block)
			return nil
		})
	})
	return blocks, err
}

// Verify validates the integrity of the entire journal by checking the genesis
// block and each subsequent block's hash, index continuity, and previous hash
// linkage.
func (j *Journal) Verify() error {
	blocks, err := j.Blocks()
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return ErrEmptyJournal
	}
	if blocks[0].PrevHash != "0" || blocks[0].Index != 0 || blocks[0].Hash != calculateHash(blocks[0]) {
		return fmt.Errorf("invalid genesis block")
	}
	for i := 1; i < len(blocks); i++ {
		if err := validateBlock(blocks[i], blocks[i-1]); err != nil {
			return fmt.Errorf("block %d invalid: %w", i, err)
		}
	}
	return nil
}

// validateBlock verifies that a block is valid relative to the previous block.
func validateBlock(current, previous Block) error {
	if current.Index != previous.Index+1 {
		return fmt.Errorf("invalid index: expected %d, got %d", previous.Index+1, current.Index)
	}
	if current.PrevHash != previous.Hash {
		return fmt.Errorf("invalid prev hash: expected %s, got %s", previous.Hash, current.PrevHash)
	}
	if expected := calculateHash(current); current.Hash != expected {
		return fmt.Errorf("invalid hash: expected %s, got %s", expected, current.Hash)
	}
	return nil
}

// calculateHash computes the SHA256 hash of a block over its index,
// timestamp, previous hash and JSON marshaled record.
func calculateHash(block Block) string {
	recordBytes, _ := json.Marshal(block.Record)
	data := fmt.Sprintf("%d|%d|%s|%s",
		block.Index,
		block.Timestamp,
		block.PrevHash,
		string(recordBytes),
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func putBlock(b *bolt.Bucket, block Block) error {
	raw, err := cbor.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to encode block %d: %w", block.Index, err)
	}
	if err := b.Put(indexKey(block.Index), raw); err != nil {
		return fmt.Errorf("failed to put block %d: %w", block.Index, err)
	}
	return nil
}

func decodeBlock(raw []byte) (Block, error) {
	var block Block
	if err := cbor.Unmarshal(raw, &block); err != nil {
		return Block{}, fmt.Errorf("failed to decode block: %w", err)
	}
	return block, nil
}

func indexKey(i int) []byte {
	buf := make([]byte, 8)
	//nolint:gosec // indexes are never negative
	binary.BigEndian.PutUint64(buf, uint64(i))
	return buf
}
