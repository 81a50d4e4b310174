package regionserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regionserver/internal/catalog"
	"regionserver/internal/region"
)

func TestWorker_OpenRegionInstallsIntoRegistryAndReports(t *testing.T) {
	reg := NewRegistry()
	out := &OutboundBuffer{}
	cfg := DefaultConfig()
	var onlineCount int
	w := NewWorker(cfg, t.TempDir(), reg, out, nil, nil, func(n int) { onlineCount = n })

	instr := Instruction{Kind: RegionOpen, Descriptor: region.Descriptor{Table: "t", Families: []string{"cf"}}}
	q := NewInstructionQueue(1)
	w.openRegion(context.Background(), instr, q)

	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, onlineCount)
	msgs := out.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, ReportOpen, msgs[0].Kind)
}

func TestWorker_OpenRegionRequestsCompactionCheck(t *testing.T) {
	reg := NewRegistry()
	out := &OutboundBuffer{}
	cfg := DefaultConfig()
	compactor := NewCompactor(cfg, reg, nil, catalog.New(), out, 4)
	w := NewWorker(cfg, t.TempDir(), reg, out, nil, compactor, nil)

	instr := Instruction{Kind: RegionOpen, Descriptor: region.Descriptor{Table: "t", Families: []string{"cf"}}}
	q := NewInstructionQueue(1)
	w.openRegion(context.Background(), instr, q)

	assert.Equal(t, 1, reg.Len())
	assert.Len(t, compactor.queue, 1)
}

func TestWorker_CloseRegionReportsAndUpdatesOnlineCount(t *testing.T) {
	reg := NewRegistry()
	r, err := region.New(region.Descriptor{Table: "t", Families: []string{"cf"}}, time.Now(), t.TempDir())
	require.NoError(t, err)
	r.Name = "r1"
	reg.Open(r)

	out := &OutboundBuffer{}
	var onlineCount int
	w := NewWorker(DefaultConfig(), t.TempDir(), reg, out, nil, nil, func(n int) { onlineCount = n })

	w.closeRegion(Instruction{Kind: RegionClose, RegionName: "r1"}, true)

	assert.Zero(t, reg.Len())
	assert.Zero(t, onlineCount)
	msgs := out.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, ReportClose, msgs[0].Kind)
}

func TestWorker_CloseRegionWithoutReportSuppressesMessage(t *testing.T) {
	reg := NewRegistry()
	r, err := region.New(region.Descriptor{Table: "t", Families: []string{"cf"}}, time.Now(), t.TempDir())
	require.NoError(t, err)
	r.Name = "r1"
	reg.Open(r)

	out := &OutboundBuffer{}
	w := NewWorker(DefaultConfig(), t.TempDir(), reg, out, nil, nil, nil)
	w.closeRegion(Instruction{Kind: RegionCloseWithoutReport, RegionName: "r1"}, false)

	assert.Nil(t, out.Drain())
}

func TestWorker_QuiesceClosesUserRegionsAndReportsQuiesced(t *testing.T) {
	reg := NewRegistry()
	user, err := region.New(region.Descriptor{Table: "t", Families: []string{"cf"}}, time.Now(), t.TempDir())
	require.NoError(t, err)
	user.Name = "user1"
	reg.Open(user)

	meta, err := region.New(region.Descriptor{Table: "t", Families: []string{"cf"}, IsMetaTable: true}, time.Now(), t.TempDir())
	require.NoError(t, err)
	meta.Name = "meta1"
	reg.Open(meta)

	out := &OutboundBuffer{}
	w := NewWorker(DefaultConfig(), t.TempDir(), reg, out, nil, nil, nil)
	w.quiesce()

	msgs := out.Drain()
	require.Len(t, msgs, 2)
	assert.Equal(t, ReportClose, msgs[0].Kind)
	assert.Equal(t, ReportQuiesced, msgs[1].Kind)
}

func TestWorker_QuiesceReportsExitingWhenNothingRemainsOnline(t *testing.T) {
	reg := NewRegistry()
	user, err := region.New(region.Descriptor{Table: "t", Families: []string{"cf"}}, time.Now(), t.TempDir())
	require.NoError(t, err)
	user.Name = "user1"
	reg.Open(user)

	out := &OutboundBuffer{}
	w := NewWorker(DefaultConfig(), t.TempDir(), reg, out, nil, nil, nil)
	w.quiesce()

	msgs := out.Drain()
	require.Len(t, msgs, 2)
	assert.Equal(t, ReportExiting, msgs[1].Kind)
}

func TestWorker_OpeningNowTracksInFlightOpens(t *testing.T) {
	w := NewWorker(DefaultConfig(), t.TempDir(), NewRegistry(), &OutboundBuffer{}, nil, nil, nil)
	w.markOpening("r1", true)
	assert.Equal(t, []string{"r1"}, w.OpeningNow())
	w.markOpening("r1", false)
	assert.Empty(t, w.OpeningNow())
}

func TestWorker_RunDispatchesQueuedInstructions(t *testing.T) {
	reg := NewRegistry()
	out := &OutboundBuffer{}
	w := NewWorker(DefaultConfig(), t.TempDir(), reg, out, nil, nil, nil)

	q := NewInstructionQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, q)

	q.Push(Instruction{Kind: RegionOpen, Descriptor: region.Descriptor{Table: "t", Families: []string{"cf"}}})

	require.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}
