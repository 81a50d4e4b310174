// Package masterservice supplies a minimal reference master: the master
// itself is out of scope per spec.md §1, but the region server's
// master-dialog control loop needs a real peer to integration-test
// against. It durably tracks server heartbeats and hands back queued
// instructions, following internal/layers/pd/service.go's
// bbolt-persisted-map shape; it implements no real placement/scheduling
// algorithm.
package masterservice

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"
)

const (
	boltFileName  = "master.meta"
	serversBucket = "servers"
)

// serverRecord is the persisted view of one region server's last known
// identity and configuration overrides.
type serverRecord struct {
	Address   string            `json:"address"`
	StartCode int64             `json:"startCode"`
	InfoPort  int32             `json:"infoPort"`
	Config    map[string]string `json:"config"`
}

// Service is the master's in-process state: known servers and a queue of
// pending instructions per server address, guarded by one mutex.
type Service struct {
	mu      sync.Mutex
	db      *bolt.DB
	servers map[string]*serverRecord
	queues  map[string][]QueuedInstruction
	config  map[string]string
}

// QueuedInstruction is one instruction awaiting delivery to a region
// server's next report() call.
type QueuedInstruction struct {
	Kind       int32
	RegionName string
	Table      string
	StartKey   []byte
	EndKey     []byte
	IsMeta     bool
	IsRoot     bool
	Families   []string
}

// New creates a master service persisting its server table under dir.
func New(dir string, baseConfig map[string]string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(dir, boltFileName), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("masterservice: open bolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(serversBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	svc := &Service{db: db, servers: make(map[string]*serverRecord), queues: make(map[string][]QueuedInstruction), config: baseConfig}
	if err := svc.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return svc, nil
}

func (s *Service) load() error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(serversBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec serverRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			s.servers[rec.Address] = &rec
			return nil
		})
	})
}

func (s *Service) persist(rec *serverRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(serversBucket))
		return b.Put([]byte(rec.Address), data)
	})
}

// Startup registers or refreshes a server's identity and returns the
// configuration overrides it should apply (spec §6 startup RPC). A
// generation collision (same address, lower start code than the one on
// record) surfaces LeaseStillHeld.
func (s *Service) Startup(address string, startCode int64, infoPort int32) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.servers[address]; ok && rec.StartCode > startCode {
		return nil, ErrLeaseStillHeld
	}
	rec := &serverRecord{Address: address, StartCode: startCode, InfoPort: infoPort, Config: s.config}
	if err := s.persist(rec); err != nil {
		return nil, err
	}
	s.servers[address] = rec
	return s.config, nil
}

// Report returns the queued instructions for that server, clearing the
// queue. It takes only the address: this reference master neither keeps
// nor logs a heartbeat's outbound messages.
func (s *Service) Report(address string) []QueuedInstruction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queues[address]
	delete(s.queues, address)
	return out
}

// Enqueue schedules an instruction for delivery on the named server's
// next report() call, the mechanism an operator or test driver uses to
// simulate the master's assignment decisions (out of scope per spec §1).
func (s *Service) Enqueue(address string, instr QueuedInstruction) {
	s.mu.Lock()
	s.queues[address] = append(s.queues[address], instr)
	s.mu.Unlock()
}

// Servers returns a snapshot of known server addresses, used by tests
// and an eventual status surface.
func (s *Service) Servers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.servers))
	for addr := range s.servers {
		out = append(out, addr)
	}
	return out
}

// Close releases the underlying bolt database.
func (s *Service) Close() error { return s.db.Close() }
