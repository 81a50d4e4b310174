package regionserver

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"regionserver/internal/catalog"
	"regionserver/internal/masterclient"
	"regionserver/internal/observability/metrics"
	"regionserver/internal/region"
	"regionserver/internal/utils"
	"regionserver/internal/wal"
	"regionserver/pkg/api"
)

// state names the phases of spec.md §4.1's lifecycle state machine.
type state int32

const (
	stateStarting state = iota
	stateReportingForDuty
	stateRunning
	stateQuiescing
	stateExiting
	stateAborting
)

func (s state) String() string {
	switch s {
	case stateStarting:
		return "starting"
	case stateReportingForDuty:
		return "reporting_for_duty"
	case stateRunning:
		return "running"
	case stateQuiescing:
		return "quiescing"
	case stateExiting:
		return "exiting"
	case stateAborting:
		return "aborting"
	default:
		return "unknown"
	}
}

// Server is the region server process: it owns the WAL, the region
// registry, the background workers, the master-dialog client, and the
// RPC front end, and drives the state machine of spec.md §4.1.
type Server struct {
	cfg      Config
	identity *Identity
	logger   *zap.SugaredLogger

	wal      *wal.WAL
	roller   *wal.LogRoller
	registry *Registry
	outbound *OutboundBuffer
	queue    *InstructionQueue

	leaseMgr *LeaseManager
	scanners *ScannerRegistry
	watchdog *Watchdog
	flusher  *Flusher
	compactor *Compactor
	catalog  *catalog.Catalog
	worker   *Worker

	frontend *FrontEnd
	grpcSrv  *grpc.Server
	metrics  *metrics.RegionServerCollector

	master *masterclient.Client

	state             atomic.Int32
	heartbeatFailures atomic.Int32
	lastSuccessAt     atomic.Int64

	quit      chan struct{}
	abortOnce sync.Once
	wg        sync.WaitGroup
}

// New assembles a Server from configuration, wiring every collaborator
// the way spec.md §3/§4 describes, mirroring internal/layers/pd/service.go's
// constructor-does-all-the-wiring shape.
func New(cfg Config, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	registry := NewRegistry()
	outbound := &OutboundBuffer{}
	queue := NewInstructionQueue(1024)
	leaseMgr := NewLeaseManager(cfg.ThreadWakeFrequency)
	scanners := NewScannerRegistry(leaseMgr, cfg.ScannerLeasePeriod)
	cat := catalog.New()

	s := &Server{
		cfg: cfg, logger: logger,
		registry: registry, outbound: outbound, queue: queue,
		leaseMgr: leaseMgr, scanners: scanners, catalog: cat,
		metrics: metrics.NewRegionServerCollector(nil, "regionserver"),
		quit:    make(chan struct{}),
	}
	s.watchdog = NewWatchdog(cfg.RootDir, s.abort)
	s.flusher = NewFlusher(cfg, registry, s.watchdog, s.abort, 256)
	s.compactor = NewCompactor(cfg, registry, s.watchdog, cat, outbound, 256)
	s.flusher.SetCompactor(s.compactor.Request)
	s.worker = NewWorker(cfg, cfg.RootDir, registry, outbound, s.watchdog, s.compactor, s.onOnlineCountChanged)
	s.identity = NewIdentity(cfg.Address, cfg.InfoPort, time.Now())
	s.frontend = NewFrontEnd(registry, s.identity, s.flusher, s.watchdog, scanners)
	s.grpcSrv = grpc.NewServer()
	api.RegisterRegionServer(s.grpcSrv, NewRPCServer(s.frontend))
	scanners.OnGone(func(id uint64) { s.logger.Debugw("scanner lease expired", "scannerId", id) })
	return s
}

func (s *Server) setState(v state) {
	s.state.Store(int32(v))
	s.logger.Infow("region server state transition", "state", v.String())
}

func (s *Server) currentState() state { return state(s.state.Load()) }

func (s *Server) onOnlineCountChanged(n int) { s.identity.SetOnlineCount(n) }

// Run executes the full lifecycle of spec.md §4.1 until ctx is canceled
// or the server aborts/is told to stop, returning the reason it exited.
func (s *Server) Run(ctx context.Context) error {
	s.setState(stateStarting)

	if err := s.reportForDuty(ctx); err != nil {
		return fmt.Errorf("regionserver: report for duty: %w", err)
	}

	w, err := wal.Open(wal.Path(s.cfg.RootDir, s.cfg.Address, s.identity.StartCode, s.cfg.InfoPort))
	if err != nil {
		return fmt.Errorf("regionserver: open wal: %w", err)
	}
	s.wal = w
	s.worker.SetWALFloor(w.CurrentSeq)
	s.roller = wal.NewLogRoller(w, func(closed string) {
		s.logger.Infow("wal segment rolled", "closedSegment", closed)
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.wg.Add(5)
	go func() { defer s.wg.Done(); s.worker.Run(runCtx, s.queue) }()
	go func() { defer s.wg.Done(); s.flusher.Run(runCtx) }()
	go func() { defer s.wg.Done(); s.compactor.Run(runCtx) }()
	go func() { defer s.wg.Done(); s.leaseMgr.Run() }()
	go func() { defer s.wg.Done(); s.roller.Run() }()

	lis, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		cancel()
		s.wg.Wait()
		return fmt.Errorf("regionserver: listen %s: %w", s.cfg.Address, err)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.grpcSrv.Serve(lis); err != nil {
			s.logger.Debugw("grpc server stopped", "err", err)
		}
	}()

	s.setState(stateRunning)
	exitReason := s.heartbeatLoop(runCtx)

	s.shutdown()
	cancel()
	s.wg.Wait()
	return exitReason
}

// reportForDuty implements spec §4.1 step 1: retry startup() until the
// master accepts this identity, regenerating the start code on a lease
// collision (spec §4.6).
func (s *Server) reportForDuty(ctx context.Context) error {
	s.setState(stateReportingForDuty)
	backoff := s.cfg.ThreadWakeFrequency
	for attempt := 0; ; attempt++ {
		client, err := masterclient.Dial(ctx, s.cfg.MasterAddress)
		if err != nil {
			s.logger.Warnw("dial master failed, retrying", "attempt", attempt, "err", err)
			if !s.sleepOrDone(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}
		cfgOverrides, err := client.Startup(ctx, s.identity.Address, s.identity.StartCode, int32(s.identity.InfoPort))
		if err == nil {
			s.master = client
			s.cfg.ApplyOverrides(cfgOverrides)
			s.lastSuccessAt.Store(time.Now().UnixNano())
			s.logger.Infow("startup accepted", "identity", s.identity.String())
			return nil
		}
		_ = client.Close()
		if err == masterclient.LeaseStillHeld {
			s.identity.regenerateStartCode(time.Now())
			s.logger.Warnw("lease still held, regenerated start code", "startCode", s.identity.StartCode)
		} else {
			s.logger.Warnw("startup rejected, retrying", "attempt", attempt, "err", err)
		}
		if !s.sleepOrDone(ctx, backoff) {
			return ctx.Err()
		}
	}
}

func (s *Server) sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// heartbeatLoop implements spec §4.1 steps 3-7: on msgInterval, drain the
// outbound buffer, report load, dispatch returned instructions, and
// act on CALL_SERVER_STARTUP / REGIONSERVER_STOP directly rather than
// pushing them through the worker queue; REGIONSERVER_QUIESCE sets the
// quiescing state and is also queued for the worker (see dispatch).
func (s *Server) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.MsgInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.quit:
			return fmt.Errorf("regionserver: stopped")
		case <-ticker.C:
			if reason, done := s.heartbeatOnce(ctx); done {
				return reason
			}
		}
	}
}

func (s *Server) heartbeatOnce(ctx context.Context) (error, bool) {
	if !s.watchdog.Healthy() {
		return nil, false // abort() already fired; wait for the process to be told to exit
	}

	msgs := s.outbound.Drain()
	apiMsgs := make([]*api.OutboundMessage, 0, len(msgs))
	for _, m := range msgs {
		apiMsgs = append(apiMsgs, &api.OutboundMessage{Kind: int32(m.Kind), RegionName: m.RegionName})
	}
	load := s.identity.LoadSnapshot()
	s.identity.SwapRequestCount()

	instructions, err := s.master.Report(ctx, s.identity.Address, s.identity.StartCode, int32(s.identity.InfoPort), apiMsgs)
	if err != nil {
		n := s.heartbeatFailures.Add(1)
		s.metrics.SetHeartbeatFailures(int(n))
		s.logger.Warnw("heartbeat failed", "consecutiveFailures", n, "err", err)

		if int(n) >= s.cfg.RetriesNumber {
			if s.watchdog.Check() {
				s.logger.Warnw("master unreachable after retries, filesystem healthy; stopping", "consecutiveFailures", n)
				s.setState(stateExiting)
				return fmt.Errorf("regionserver: stopping after %d failed heartbeats", n), true
			}
			// filesystem unhealthy: watchdog.Check already called abort();
			// the loop exits via s.quit on its next iteration.
		}

		if elapsed := time.Since(time.Unix(0, s.lastSuccessAt.Load())); elapsed >= s.cfg.MasterLeasePeriod {
			s.abort(fmt.Sprintf("master unreachable for %s", elapsed))
		}
		return nil, false
	}
	s.heartbeatFailures.Store(0)
	s.lastSuccessAt.Store(time.Now().UnixNano())
	s.metrics.SetHeartbeatFailures(0)
	s.publishLoad(load)

	for _, instr := range instructions {
		if s.dispatch(ctx, instr) {
			break
		}
	}
	if s.registry.Quiesced() && s.registry.Empty() {
		s.logger.Infow("quiesce complete, no regions remain online")
		s.setState(stateExiting)
	}
	s.reannounceInFlightOpens()

	if s.currentState() == stateExiting {
		return fmt.Errorf("regionserver: stop requested"), true
	}
	return nil, false
}

// dispatch pushes a routine instruction onto the worker queue, or acts on
// server-lifecycle instructions directly. It returns true if the caller
// should stop processing the rest of this instruction batch; the actual
// decision to end the heartbeat loop is made by heartbeatOnce afterwards,
// based on the resulting state.
func (s *Server) dispatch(ctx context.Context, instr *api.InstructionMessage) bool {
	switch InstructionKind(instr.Kind) {
	case CallServerStartup:
		s.logger.Infow("master requested re-registration")
		if err := s.recreateForNewGeneration(ctx); err != nil {
			s.logger.Errorw("recreate for new generation failed", "err", err)
		}
		return true
	case RegionServerStop:
		s.logger.Infow("master requested stop")
		s.setState(stateExiting)
		return true
	case RegionServerQuiesce:
		s.setState(stateQuiescing)
		s.queue.Push(Instruction{Kind: RegionServerQuiesce})
		return false
	default:
		s.queue.Push(Instruction{
			Kind:       InstructionKind(instr.Kind),
			RegionName: instr.RegionName,
			Descriptor: descriptorFromAPI(instr.Descriptor),
		})
		return false
	}
}

// recreateForNewGeneration implements spec §4.1 step 4's CALL_SERVER_STARTUP
// handling: close every region, delete the WAL, mint a fresh start code,
// reopen the WAL under the new identity, and re-report for duty before
// resuming normal service.
func (s *Server) recreateForNewGeneration(ctx context.Context) error {
	if !s.watchdog.Check() {
		return fmt.Errorf("regionserver: filesystem unhealthy, refusing to recreate for new generation")
	}
	s.setState(stateReportingForDuty)

	s.registry.CloseAll(false)
	if s.roller != nil {
		s.roller.Stop()
	}
	if s.wal != nil {
		if err := s.wal.Delete(); err != nil {
			s.logger.Warnw("wal delete during recreate failed", "err", err)
		}
	}

	s.identity.regenerateStartCode(time.Now())
	if err := s.reportForDuty(ctx); err != nil {
		return fmt.Errorf("re-report for duty: %w", err)
	}

	w, err := wal.Open(wal.Path(s.cfg.RootDir, s.cfg.Address, s.identity.StartCode, s.cfg.InfoPort))
	if err != nil {
		return fmt.Errorf("reopen wal: %w", err)
	}
	s.wal = w
	s.worker.SetWALFloor(w.CurrentSeq)
	s.roller = wal.NewLogRoller(w, func(closed string) {
		s.logger.Infow("wal segment rolled", "closedSegment", closed)
	})
	s.wg.Add(1)
	go func() { defer s.wg.Done(); s.roller.Run() }()

	s.setState(stateRunning)
	return nil
}

func descriptorFromAPI(d *api.RegionDescriptor) region.Descriptor {
	if d == nil {
		return region.Descriptor{}
	}
	return region.Descriptor{
		Table: d.Table, StartKey: d.StartKey, EndKey: d.EndKey,
		IsMetaTable: d.IsMetaTable, IsRootTable: d.IsRootTable, Families: d.Families,
	}
}

func (s *Server) reannounceInFlightOpens() {
	for _, name := range s.worker.OpeningNow() {
		s.outbound.Append(ReportProcessOpen, name)
	}
}

func (s *Server) publishLoad(load Load) {
	s.metrics.SetRequestCount(load.RequestCount)
	s.metrics.SetOnlineRegions(int(load.OnlineRegion))
	s.metrics.SetMemtableBytes(totalMemtableBytes(s.registry.Snapshot()))
	s.metrics.SetOpenScanners(s.scanners.Len())
}

// abort is the watchdog's abort callback (spec §4.9): stop serving new
// requests immediately, then close s.quit so the running heartbeat loop
// returns and the process unwinds. Skips final flushes on shutdown
// since the WAL is assumed to already hold everything durable.
func (s *Server) abort(reason string) {
	s.abortOnce.Do(func() {
		s.logger.Errorw("aborting region server", "reason", reason)
		s.setState(stateAborting)
		s.frontend.SetRunning(false)
		close(s.quit)
	})
}

// shutdown implements spec §4.1 step 8: stop accepting RPCs, close every
// region (skipping final flush only on abort), send a best-effort final
// report (REPORT_EXITING followed by a REPORT_CLOSE per just-closed
// region, spec §7), stop the lease sweep, and release the WAL directory
// lock.
func (s *Server) shutdown() {
	s.frontend.SetRunning(false)
	s.outbound.PrependExiting()

	skipFlush := s.currentState() == stateAborting
	closed := s.registry.CloseAll(skipFlush)
	for _, r := range closed {
		s.outbound.Append(ReportClose, r.Name)
	}

	s.grpcSrv.GracefulStop()
	s.leaseMgr.Stop()
	if s.roller != nil {
		s.roller.Stop()
	}

	s.sendFinalReport()

	if s.wal != nil {
		if skipFlush {
			_ = s.wal.Close()
		} else {
			s.archiveWAL()
			_ = s.wal.Delete()
		}
	}
	if s.master != nil {
		_ = s.master.Close()
	}
	s.setState(stateExiting)
	s.logger.Infow("region server shut down")
}

// sendFinalReport drains the outbound buffer (now holding REPORT_EXITING
// plus one REPORT_CLOSE per region closed during shutdown) and reports it
// to the master on a best-effort basis: a stopped or unreachable master
// must never block process exit (spec §7).
func (s *Server) sendFinalReport() {
	if s.master == nil {
		return
	}
	msgs := s.outbound.Drain()
	if len(msgs) == 0 {
		return
	}
	apiMsgs := make([]*api.OutboundMessage, 0, len(msgs))
	for _, m := range msgs {
		apiMsgs = append(apiMsgs, &api.OutboundMessage{Kind: int32(m.Kind), RegionName: m.RegionName})
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ThreadWakeFrequency)
	defer cancel()
	if _, err := s.master.Report(ctx, s.identity.Address, s.identity.StartCode, int32(s.identity.InfoPort), apiMsgs); err != nil {
		s.logger.Warnw("final report failed", "err", err)
	}
}

// archiveWAL tars up the WAL directory into rootDir/wal-archive before it
// is deleted on a graceful exit, so a completed generation's log segments
// remain available for post-mortem inspection even though replay is no
// longer needed (every region was flushed by CloseAll above).
func (s *Server) archiveWAL() {
	walDir := wal.Path(s.cfg.RootDir, s.cfg.Address, s.identity.StartCode, s.cfg.InfoPort)
	data, err := utils.TarGzDir(walDir, nil)
	if err != nil {
		s.logger.Warnw("wal archive failed", "err", err)
		return
	}
	archiveDir := filepath.Join(s.cfg.RootDir, "wal-archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		s.logger.Warnw("wal archive mkdir failed", "err", err)
		return
	}
	dest := filepath.Join(archiveDir, fmt.Sprintf("%d.tar.gz", s.identity.StartCode))
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		s.logger.Warnw("wal archive write failed", "err", err)
		return
	}
	s.logger.Infow("wal archived", "path", dest)
}
