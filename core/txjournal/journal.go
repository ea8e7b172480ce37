// Package txjournal keeps signed transactions in an append-only RLP stream
// so that locally created transactions survive a restart.
package txjournal

import (
	"io"
	"io/fs"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/cockroachdb/errors"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gofrs/flock"
	"github.com/ledgerwatch/log/v3"

	"github.com/SipengXie/pangutx/core/types"
)

var (
	// ErrNoActiveJournal is returned by Insert before Open or Rotate.
	ErrNoActiveJournal = errors.New("no active journal")

	// ErrJournalLocked is returned when another process holds the journal.
	ErrJournalLocked = errors.New("journal is locked by another process")
)

// loadBatchSize bounds how many transactions Load hands to add at once.
const loadBatchSize = 1024

// Journal is an append-only file of encoded transactions. Writers hold an
// exclusive lock on <path>.lock; readers do not lock.
type Journal struct {
	path   string
	writer io.WriteCloser // nil until Open or Rotate
	lock   *flock.Flock
	logger log.Logger
}

// New returns a journal at path. Nothing is opened until Load, Open or Rotate.
func New(path string, logger log.Logger) *Journal {
	if logger == nil {
		logger = log.Root()
	}
	return &Journal{
		path:   path,
		logger: logger.New("module", "txjournal"),
	}
}

// Path returns the journal file location.
func (j *Journal) Path() string { return j.path }

// acquire takes the writer lock, once per journal.
func (j *Journal) acquire() error {
	if j.lock != nil {
		return nil
	}
	l := flock.New(j.path + ".lock")
	locked, err := l.TryLock()
	if err != nil {
		return errors.Wrapf(err, "lock journal %s", j.path)
	}
	if !locked {
		return errors.Wrapf(ErrJournalLocked, "%s", j.path)
	}
	j.lock = l
	return nil
}

// Load replays the journal through add in batches. Every entry is decoded
// with sender verification; entries that fail or repeat an identity hash
// already seen are dropped. A missing file is an empty journal, and a
// damaged or truncated tail ends the replay with a warning.
func (j *Journal) Load(signer types.Signer, add func(types.Transactions) []error) error {
	input, err := os.Open(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer input.Close()

	fi, err := input.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat journal %s", j.path)
	}
	// Entry headers can never claim more than the file holds.
	stream := rlp.NewStream(input, uint64(fi.Size()))
	seen := mapset.NewThreadUnsafeSet[common.Hash]()
	total, dropped, duplicate := 0, 0, 0

	flush := func(txs types.Transactions) {
		for _, err := range add(txs) {
			if err != nil {
				j.logger.Debug("Journaled transaction rejected", "err", err)
				dropped++
			}
		}
	}
	var (
		failure error
		batch   types.Transactions
	)
	for {
		raw, err := stream.Raw()
		if err != nil {
			switch {
			case err == io.EOF:
			case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, rlp.ErrValueTooLarge):
				j.logger.Warn("Journal ends in a damaged entry", "path", j.path, "entries", total, "err", err)
			default:
				failure = errors.Wrapf(err, "read journal %s", j.path)
			}
			break
		}
		total++

		tx, err := types.Decode(raw, signer, true)
		if err != nil {
			j.logger.Debug("Dropping malformed journal entry", "err", err)
			dropped++
			continue
		}
		if !seen.Add(tx.Hash(true)) {
			duplicate++
			continue
		}
		if batch = append(batch, tx); batch.Len() >= loadBatchSize {
			flush(batch)
			batch = nil
		}
	}
	if batch.Len() > 0 {
		flush(batch)
	}
	j.logger.Info("Loaded transaction journal", "transactions", total, "dropped", dropped, "duplicate", duplicate)
	return failure
}

// Insert appends the signed encoding of tx.
func (j *Journal) Insert(tx *types.Transaction) error {
	if j.writer == nil {
		return ErrNoActiveJournal
	}
	return errors.Wrapf(rlp.Encode(j.writer, tx), "append %v", tx.Hash(true))
}

// Open attaches an append-only writer to the journal without rewriting it.
func (j *Journal) Open() error {
	if j.writer != nil {
		return nil
	}
	if err := j.acquire(); err != nil {
		return err
	}
	sink, err := os.OpenFile(j.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	j.writer = sink
	return nil
}

// Rotate replaces the journal contents with all and leaves it open for
// appending. The new file is written next to the old one and renamed over it.
func (j *Journal) Rotate(all types.Transactions) error {
	if err := j.acquire(); err != nil {
		return err
	}
	if j.writer != nil {
		if err := j.writer.Close(); err != nil {
			return err
		}
		j.writer = nil
	}
	replacement, err := os.OpenFile(j.path+".new", os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	for _, tx := range all {
		if err = rlp.Encode(replacement, tx); err != nil {
			replacement.Close()
			return err
		}
	}
	if err = replacement.Close(); err != nil {
		return err
	}
	if err = os.Rename(j.path+".new", j.path); err != nil {
		return err
	}
	sink, err := os.OpenFile(j.path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	j.writer = sink

	size := datasize.ByteSize(0)
	if fi, err := sink.Stat(); err == nil {
		size = datasize.ByteSize(fi.Size())
	}
	j.logger.Info("Rewrote transaction journal", "transactions", all.Len(), "size", size.HumanReadable())
	return nil
}

// Close releases the writer and the lock. The journal can be opened again.
func (j *Journal) Close() error {
	var err error
	if j.writer != nil {
		err = j.writer.Close()
		j.writer = nil
	}
	if j.lock != nil {
		if unlockErr := j.lock.Unlock(); unlockErr != nil {
			j.logger.Error("Can't release journal lock", "err", unlockErr)
		}
		j.lock = nil
	}
	return err
}
