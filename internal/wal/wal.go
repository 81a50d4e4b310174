// Package wal implements the region server's single write-ahead log:
// one instance shared by every region hosted on this node, rotated by a
// dedicated log roller goroutine (spec.md §3, §4.5).
package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned by Open when another process already holds
// the WAL directory's lock — the region-server identity collision spec.md
// §4.1 step 2 and §8 name as a fatal *RegionServerRunning* condition.
var ErrAlreadyRunning = errors.New("wal: region server already running for this identity")

// defaultRollSize is the segment size threshold above which the WAL
// implementation calls back into the log roller (spec §4.5).
const defaultRollSize = 64 << 20

// WAL is the append-only log shared by every region on this server.
type WAL struct {
	dir  string
	lock *flock.Flock

	mu       sync.Mutex
	file     *os.File
	segSize  int64
	rollSize int64
	segIndex int

	seqWatermark uint64 // atomic: highest seqID any region has appended

	rollRequested func() // set by the owning LogRoller
}

// Path returns the canonical WAL directory name for one server identity,
// following spec §6: <root>/log_<ip>_<startcode>_<port>.
func Path(root, ip string, startCode int64, port int) string {
	return filepath.Join(root, fmt.Sprintf("log_%s_%d_%d", ip, startCode, port))
}

// Open creates the WAL directory and acquires its exclusive lock. It fails
// with ErrAlreadyRunning if the lock is already held, which is this
// module's equivalent of "fail if that path already exists" — an advisory
// flock is a safe exclusion primitive across process restarts, whereas a
// bare mkdir/stat race is not.
func Open(dir string) (*WAL, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("wal: create dir: %w", err)
	}
	lockPath := filepath.Join(dir, ".lock")
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("wal: acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	w := &WAL{dir: dir, lock: fl, rollSize: defaultRollSize}
	if err := w.openSegment(); err != nil {
		_ = fl.Unlock()
		return nil, err
	}
	return w, nil
}

func (w *WAL) openSegment() error {
	name := filepath.Join(w.dir, fmt.Sprintf("%010d.log", w.segIndex))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.segSize = 0
	return nil
}

// SetRollCallback registers the log roller's request hook, invoked once a
// write pushes the current segment past rollSize.
func (w *WAL) SetRollCallback(fn func()) {
	w.mu.Lock()
	w.rollRequested = fn
	w.mu.Unlock()
}

// Append writes one length-prefixed record (a region name + serialized
// mutation, opaque to this package) to the current segment and raises the
// sequence watermark to seqID.
func (w *WAL) Append(regionName string, seqID uint64, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return errors.New("wal: closed")
	}
	rec := encodeRecord(regionName, seqID, payload)
	n, err := w.file.Write(rec)
	if err != nil {
		return err
	}
	w.segSize += int64(n)
	if w.segSize > w.rollSize && w.rollRequested != nil {
		w.rollRequested()
	}
	for {
		cur := atomic.LoadUint64(&w.seqWatermark)
		if seqID <= cur || atomic.CompareAndSwapUint64(&w.seqWatermark, cur, seqID) {
			break
		}
	}
	return nil
}

// CurrentSeq returns the highest sequence id any region has appended to
// this WAL so far. A region being (re)opened advances its own sequence
// floor to this value (spec.md §4.2 "advance the WAL sequence-id floor")
// so it never reissues an id another region already wrote into the
// shared log.
func (w *WAL) CurrentSeq() uint64 {
	return atomic.LoadUint64(&w.seqWatermark)
}

func encodeRecord(regionName string, seqID uint64, payload []byte) []byte {
	buf := make([]byte, 0, len(regionName)+len(payload)+18)
	var hdr [10]byte
	binary.BigEndian.PutUint16(hdr[0:2], uint16(len(regionName)))
	binary.BigEndian.PutUint64(hdr[2:10], seqID)
	buf = append(buf, hdr[:]...)
	buf = append(buf, regionName...)
	var plen [4]byte
	binary.BigEndian.PutUint32(plen[:], uint32(len(payload)))
	buf = append(buf, plen[:]...)
	buf = append(buf, payload...)
	return buf
}

// Roll closes the current segment and opens a new one, returning the
// closed segment's path so the caller (or the region server's minimum
// sequence-id bookkeeping) may archive/replay it if needed.
func (w *WAL) Roll() (closedSegment string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return "", errors.New("wal: closed")
	}
	closedSegment = w.file.Name()
	if err := w.file.Close(); err != nil {
		return "", err
	}
	w.segIndex++
	if err := w.openSegment(); err != nil {
		return "", err
	}
	return closedSegment, nil
}

// Close closes the current segment and releases the directory lock.
func (w *WAL) Close() error {
	w.mu.Lock()
	var err error
	if w.file != nil {
		err = w.file.Close()
		w.file = nil
	}
	w.mu.Unlock()
	if w.lock != nil {
		_ = w.lock.Unlock()
	}
	return err
}

// Delete closes the WAL and removes its directory, used on graceful
// shutdown and on CALL_SERVER_STARTUP's close-and-recreate sequence.
func (w *WAL) Delete() error {
	if err := w.Close(); err != nil {
		return err
	}
	return os.RemoveAll(w.dir)
}

// nextStartCode derives a fresh start code by adding an incremented
// counter to prev. The region server does not call it: on
// CALL_SERVER_STARTUP it mints the new start code with
// Identity.regenerateStartCode.
func nextStartCode(prev int64, counter *int64) int64 {
	return prev + atomic.AddInt64(counter, 1)
}
