package engine_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/flowforge/engine"
	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/node/nodetest"
)

func paths(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join("in", n)
	}
	return out
}

func checkInvariant(t *testing.T, res *engine.Result) {
	t.Helper()
	if res.Succeeded+res.Failed+res.Skipped > res.TotalFiles {
		t.Errorf("succeeded+failed+skipped = %d exceeds total %d",
			res.Succeeded+res.Failed+res.Skipped, res.TotalFiles)
	}
	if len(res.Jobs) != res.Succeeded+res.Failed+res.Skipped {
		t.Errorf("job list has %d entries, counters sum to %d", len(res.Jobs), res.Succeeded+res.Failed+res.Skipped)
	}
	for _, j := range res.Jobs {
		if !j.Status.Terminal() {
			t.Errorf("job %s recorded with non-terminal status %s", j.FileName(), j.Status)
		}
	}
}

func TestRun_SourceToOutput(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a.txt", "b.txt", "c.txt")...)
	out := nodetest.NewOutput("Out", nil)
	reg := nodetest.Registry(node.NewSource(src), node.NewOutput(out))
	g := nodetest.Linear("Src", "Out")

	res, err := engine.New(reg).Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalFiles != 3 || res.Succeeded != 3 || res.Failed != 0 || res.Skipped != 0 {
		t.Errorf("unexpected counts %+v", res)
	}
	if len(out.Consumed()) != 3 {
		t.Errorf("output consumed %d jobs", len(out.Consumed()))
	}
	if res.Duration <= 0 {
		t.Error("duration should be populated")
	}
	if res.Outcome() != engine.OutcomeSuccess {
		t.Errorf("outcome = %v", res.Outcome())
	}
	checkInvariant(t, res)
}

func TestRun_MultipleSourcesInOrder(t *testing.T) {
	s1 := nodetest.NewSource("S1", paths("a1", "a2")...)
	s2 := nodetest.NewSource("S2", paths("b1")...)
	var seen []string
	tr := nodetest.NewTransform("T", func(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
		seen = append(seen, j.FileName())
		return []*job.Job{j}, nil
	})
	reg := nodetest.Registry(node.NewSource(s1), node.NewSource(s2), node.NewTransform(tr))
	g := nodetest.NewGraph("two sources").
		Node("s1", "S1", nil).Node("s2", "S2", nil).Node("t", "T", nil).
		Edge("s1", "t").Edge("s2", "t").Build()

	res, err := engine.New(reg).Run(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d", res.TotalFiles)
	}
	if strings.Join(seen, ",") != "a1,a2,b1" {
		t.Errorf("batch order = %v", seen)
	}
	if res.Succeeded != 3 {
		t.Errorf("jobs with no outputs should succeed, got %+v", res)
	}
}

func TestRun_FilterDropsAreSkipped(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a.jpg", "b.txt", "c.jpg", "d.txt")...)
	filter := nodetest.NewTransform("Filter", func(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
		if j.Extension() != ".jpg" {
			j.Skip()
			return nil, nil
		}
		return []*job.Job{j}, nil
	})
	out := nodetest.NewOutput("Out", nil)
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(filter), node.NewOutput(out))

	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "Filter", "Out"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Succeeded != 2 || res.Skipped != 2 || res.Failed != 0 {
		t.Errorf("unexpected counts %+v", res)
	}
	for _, j := range res.JobsWithStatus(job.Skipped) {
		if j.Extension() != ".txt" {
			t.Errorf("skipped %s", j.FileName())
		}
	}
	checkInvariant(t, res)
}

func TestRun_DropWithoutStatusIsSkipped(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a")...)
	drop := nodetest.NewTransform("Drop", func(context.Context, *job.Job, bool) ([]*job.Job, error) {
		return nil, nil
	})
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(drop))
	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "Drop"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 {
		t.Errorf("expected the dropped job to be Skipped, got %+v", res)
	}
}

func TestRun_TransformFailureIsTerminal(t *testing.T) {
	src := nodetest.NewSource("Src", paths("good", "bad", "marked")...)
	t1 := nodetest.NewTransform("T1", func(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
		switch j.FileName() {
		case "bad":
			return nil, errors.New("cannot read")
		case "marked":
			j.Fail("corrupt header")
			return nil, nil
		}
		return []*job.Job{j}, nil
	})
	t2 := nodetest.NewTransform("T2", nil)
	out := nodetest.NewOutput("Out", nil)
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(t1), node.NewTransform(t2), node.NewOutput(out))

	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "T1", "T2", "Out"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 2 || res.Succeeded != 1 || res.Skipped != 0 {
		t.Fatalf("unexpected counts %+v", res)
	}
	if t2.Calls() != 1 {
		t.Errorf("failed jobs must skip later transforms, T2 saw %d", t2.Calls())
	}
	msgs := map[string]string{}
	for _, j := range res.JobsWithStatus(job.Failed) {
		msgs[j.FileName()] = j.ErrorMessage
	}
	if msgs["bad"] != "cannot read" || msgs["marked"] != "corrupt header" {
		t.Errorf("unexpected failure messages %v", msgs)
	}
	if res.Outcome() != engine.OutcomePartial {
		t.Errorf("outcome = %v", res.Outcome())
	}
	checkInvariant(t, res)
}

func TestRun_OutputFailureIsolated(t *testing.T) {
	src := nodetest.NewSource("Src", paths("1", "2", "3", "4")...)
	first := nodetest.NewOutput("First", func(_ context.Context, j *job.Job, _ bool) error {
		if j.FileName() == "3" {
			return errors.New("disk full")
		}
		return nil
	})
	second := nodetest.NewOutput("Second", nil)
	reg := nodetest.Registry(node.NewSource(src), node.NewOutput(first), node.NewOutput(second))
	g := nodetest.NewGraph("two outputs").
		Node("src", "Src", nil).Node("o1", "First", nil).Node("o2", "Second", nil).
		Edge("src", "o1").Edge("o1", "o2").Build()

	res, err := engine.New(reg).Run(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if res.Succeeded != 3 || res.Failed != 1 {
		t.Errorf("unexpected counts %+v", res)
	}
	if len(second.Consumed()) != 3 {
		t.Errorf("a failed output must stop the job, second output saw %d", len(second.Consumed()))
	}
	failed := res.JobsWithStatus(job.Failed)
	if len(failed) != 1 || failed[0].ErrorMessage != "disk full" {
		t.Errorf("unexpected failed jobs %+v", failed)
	}
}

func TestRun_AllOutputsFail(t *testing.T) {
	src := nodetest.NewSource("Src", paths("1", "2")...)
	out := nodetest.NewOutput("Out", func(context.Context, *job.Job, bool) error { return errors.New("nope") })
	reg := nodetest.Registry(node.NewSource(src), node.NewOutput(out))
	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "Out"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome() != engine.OutcomeFailure {
		t.Errorf("outcome = %v for %+v", res.Outcome(), res)
	}
}

func TestRun_BufferedFlushOrder(t *testing.T) {
	src := nodetest.NewSource("Src", paths("charlie", "alpha", "bravo")...)
	sorter := nodetest.NewBuffered("Sort", func(_ context.Context, b []*job.Job) ([]*job.Job, error) {
		sort.Slice(b, func(i, k int) bool { return b[i].FileName() < b[k].FileName() })
		return b, nil
	})
	var seen []string
	after := nodetest.NewTransform("After", func(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
		seen = append(seen, j.FileName())
		return []*job.Job{j}, nil
	})
	reg := nodetest.Registry(node.NewSource(src), node.NewBuffered(sorter), node.NewTransform(after))

	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "Sort", "After"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(seen, ",") != "alpha,bravo,charlie" {
		t.Errorf("next stage saw %v", seen)
	}
	if sorter.Flushes() != 1 || sorter.Pending() != 0 {
		t.Errorf("flush called %d times, %d left buffered", sorter.Flushes(), sorter.Pending())
	}
	if res.Succeeded != 3 {
		t.Errorf("unexpected counts %+v", res)
	}
}

func TestRun_BufferedOmissionsAreSkipped(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a", "b", "c")...)
	keepFirst := nodetest.NewBuffered("First", func(_ context.Context, b []*job.Job) ([]*job.Job, error) {
		return b[:1], nil
	})
	reg := nodetest.Registry(node.NewSource(src), node.NewBuffered(keepFirst))

	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "First"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Succeeded != 1 || res.Skipped != 2 {
		t.Errorf("unexpected counts %+v", res)
	}
	checkInvariant(t, res)
}

func TestRun_BufferedFlushFailure(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a", "b")...)
	broken := nodetest.NewBuffered("Broken", func(context.Context, []*job.Job) ([]*job.Job, error) {
		return nil, errors.New("out of memory")
	})
	out := nodetest.NewOutput("Out", nil)
	reg := nodetest.Registry(node.NewSource(src), node.NewBuffered(broken), node.NewOutput(out))

	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "Broken", "Out"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 2 || res.Succeeded != 0 {
		t.Fatalf("unexpected counts %+v", res)
	}
	for _, j := range res.Jobs {
		if !strings.Contains(j.ErrorMessage, "Broken") || !strings.Contains(j.ErrorMessage, "out of memory") {
			t.Errorf("flush failure message not descriptive: %q", j.ErrorMessage)
		}
	}
	if len(out.Consumed()) != 0 {
		t.Error("no job should reach the output")
	}
}

func TestRun_FanOut(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a.jpg")...)
	split := nodetest.NewTransform("Split", func(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
		return []*job.Job{j, j.Derive(filepath.Join("in", "a_thumb.jpg"))}, nil
	})
	out := nodetest.NewOutput("Out", nil)
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(split), node.NewOutput(out))

	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "Split", "Out"))
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalFiles != 1 || res.Succeeded != 2 {
		t.Errorf("unexpected counts %+v", res)
	}
	for _, j := range out.Consumed() {
		if j.OriginalPath() != filepath.Join("in", "a.jpg") {
			t.Errorf("fan-out child lost its original path: %q", j.OriginalPath())
		}
	}
}

func TestRun_TransformChainFollowsTopology(t *testing.T) {
	var order []string
	mk := func(key string) *nodetest.Transform {
		return nodetest.NewTransform(key, func(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
			order = append(order, key)
			return []*job.Job{j}, nil
		})
	}
	src := nodetest.NewSource("Src", paths("x")...)
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(mk("A")), node.NewTransform(mk("B")), node.NewTransform(mk("C")))
	// Declared C, A, B; wired Src -> A -> B -> C.
	g := nodetest.NewGraph("shuffled").
		Node("c", "C", nil).Node("a", "A", nil).Node("src", "Src", nil).Node("b", "B", nil).
		Chain("src", "a", "b", "c").Build()

	if _, err := engine.New(reg).Run(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, "") != "ABC" {
		t.Errorf("transforms ran in order %v", order)
	}
}

func TestRun_DryRunReachesNodes(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a")...)
	var sawDry atomic.Bool
	tr := nodetest.NewTransform("T", func(_ context.Context, j *job.Job, dryRun bool) ([]*job.Job, error) {
		if !dryRun {
			return nil, errors.New("expected dry run")
		}
		return []*job.Job{j}, nil
	})
	out := nodetest.NewOutput("Out", func(_ context.Context, _ *job.Job, dryRun bool) error {
		sawDry.Store(dryRun)
		return nil
	})
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(tr), node.NewOutput(out))

	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "T", "Out"), engine.WithDryRun(true))
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun || !sawDry.Load() || res.Succeeded != res.TotalFiles {
		t.Errorf("dry run not propagated: %+v", res)
	}
}

func TestRun_ConcurrencyBound(t *testing.T) {
	for _, limit := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("max=%d", limit), func(t *testing.T) {
			names := make([]string, 24)
			for i := range names {
				names[i] = fmt.Sprintf("f%02d", i)
			}
			src := nodetest.NewSource("Src", paths(names...)...)
			out := nodetest.NewOutput("Out", nil).WithDelay(5 * time.Millisecond)
			reg := nodetest.Registry(node.NewSource(src), node.NewOutput(out))

			runner := &engine.Runner{Registry: reg, MaxConcurrency: limit}
			res, err := runner.Run(context.Background(), nodetest.Linear("Src", "Out"))
			if err != nil {
				t.Fatal(err)
			}
			if out.Peak() > limit {
				t.Errorf("peak concurrency %d exceeds %d", out.Peak(), limit)
			}
			if res.Succeeded != len(names) {
				t.Errorf("succeeded = %d", res.Succeeded)
			}
		})
	}
}

func TestRun_WithMaxConcurrencyOverride(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a", "b", "c", "d")...)
	out := nodetest.NewOutput("Out", nil).WithDelay(5 * time.Millisecond)
	reg := nodetest.Registry(node.NewSource(src), node.NewOutput(out))

	runner := &engine.Runner{Registry: reg, MaxConcurrency: 8}
	if _, err := runner.Run(context.Background(), nodetest.Linear("Src", "Out"), engine.WithMaxConcurrency(1)); err != nil {
		t.Fatal(err)
	}
	if out.Peak() != 1 {
		t.Errorf("peak = %d, want 1", out.Peak())
	}
}

func TestRun_ProgressSerializedOncePerJob(t *testing.T) {
	names := make([]string, 30)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
	}
	src := nodetest.NewSource("Src", paths(names...)...)
	filter := nodetest.NewTransform("Half", func(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
		if strings.HasSuffix(j.FileName(), "0") {
			j.Skip()
			return nil, nil
		}
		return []*job.Job{j}, nil
	})
	out := nodetest.NewOutput("Out", nil).WithDelay(time.Millisecond)
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(filter), node.NewOutput(out))

	var inCallback atomic.Int32
	var overlap atomic.Bool
	seen := map[string]int{}
	progress := func(j job.Job) {
		if inCallback.Add(1) > 1 {
			overlap.Store(true)
		}
		seen[j.ID.String()]++
		time.Sleep(100 * time.Microsecond)
		inCallback.Add(-1)
	}

	runner := &engine.Runner{Registry: reg, MaxConcurrency: 6}
	res, err := runner.Run(context.Background(), nodetest.Linear("Src", "Half", "Out"), engine.WithProgress(progress))
	if err != nil {
		t.Fatal(err)
	}
	if overlap.Load() {
		t.Error("progress callbacks overlapped")
	}
	if len(seen) != len(res.Jobs) {
		t.Errorf("progress saw %d jobs, result has %d", len(seen), len(res.Jobs))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("job %s reported %d times", id, n)
		}
	}
}

func TestRun_StructuralErrorsReturnNoResult(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a")...)
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(nodetest.NewTransform("T", nil)))

	tests := []struct {
		name  string
		build func() *nodetest.GraphBuilder
		code  apperrors.ErrorCode
	}{
		{"empty", func() *nodetest.GraphBuilder { return nodetest.NewGraph("empty") }, apperrors.ErrCodeEmptyGraph},
		{"unknown type", func() *nodetest.GraphBuilder {
			return nodetest.NewGraph("g").Node("x", "Mystery", nil)
		}, apperrors.ErrCodeUnknownNodeType},
		{"dangling", func() *nodetest.GraphBuilder {
			return nodetest.NewGraph("g").Node("src", "Src", nil).Edge("src", "ghost")
		}, apperrors.ErrCodeDanglingConnection},
		{"cycle", func() *nodetest.GraphBuilder {
			return nodetest.NewGraph("g").Node("A", "T", nil).Node("B", "T", nil).Edge("A", "B").Edge("B", "A")
		}, apperrors.ErrCodeGraphCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.New(reg).Run(context.Background(), tt.build().Build())
			if !apperrors.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
			if res != nil {
				t.Error("expected no result")
			}
		})
	}
}

func TestRun_ConfigurationErrorBeforeIO(t *testing.T) {
	var produced atomic.Bool
	src := nodetest.NewSource("Src")
	bad := nodetest.NewTransform("Bad", nil).FailConfigure(errors.New("pattern is required"))
	out := nodetest.NewOutput("Out", func(context.Context, *job.Job, bool) error {
		produced.Store(true)
		return nil
	})
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(bad), node.NewOutput(out))

	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src", "Bad", "Out"))
	if !apperrors.HasCode(err, apperrors.ErrCodeNodeConfiguration) || res != nil {
		t.Fatalf("expected NODE_CONFIGURATION and no result, got %v %v", res, err)
	}
	if produced.Load() {
		t.Error("no output should run")
	}
}

func TestRun_SourceFailure(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a")...)
	src.Err = errors.New("permission denied")
	reg := nodetest.Registry(node.NewSource(src))

	res, err := engine.New(reg).Run(context.Background(), nodetest.Linear("Src"))
	if !apperrors.HasCode(err, apperrors.ErrCodeSourceFailed) || res != nil {
		t.Errorf("expected SOURCE_FAILED and no result, got %v %v", res, err)
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("cause missing from %q", err.Error())
	}
}

func TestRun_CancelledDuringTransforms(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := nodetest.NewSource("Src", paths("a", "b", "c")...)
	var calls int
	tr := nodetest.NewTransform("T", func(ctx context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
		calls++
		cancel()
		return nil, ctx.Err()
	})
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(tr))

	res, err := engine.New(reg).Run(ctx, nodetest.Linear("Src", "T"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res != nil {
		t.Error("a cancelled run must not return a result")
	}
	if calls != 1 {
		t.Errorf("transform should stop after cancellation, ran %d times", calls)
	}
}

func TestRun_CancelledDuringOutputs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	names := make([]string, 50)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
	}
	src := nodetest.NewSource("Src", paths(names...)...)
	var once sync.Once
	var consumed atomic.Int32
	out := nodetest.NewOutput("Out", func(context.Context, *job.Job, bool) error {
		if consumed.Add(1) >= 3 {
			once.Do(cancel)
		}
		return nil
	}).WithDelay(2 * time.Millisecond)
	reg := nodetest.Registry(node.NewSource(src), node.NewOutput(out))

	runner := &engine.Runner{Registry: reg, MaxConcurrency: 2}
	res, err := runner.Run(ctx, nodetest.Linear("Src", "Out"))
	if !errors.Is(err, context.Canceled) || res != nil {
		t.Fatalf("expected cancellation and no result, got %v %v", res, err)
	}
	if int(consumed.Load()) >= len(names) {
		t.Error("cancellation should stop new output tasks")
	}
}

type recordingObserver struct {
	engine.NopObserver
	mu      sync.Mutex
	started int
	stages  []engine.StageReport
	jobs    int
	result  *engine.Result
}

func (o *recordingObserver) RunStarted(ctx context.Context, _ engine.RunInfo) context.Context {
	o.started++
	return ctx
}

func (o *recordingObserver) StageFinished(_ context.Context, s engine.StageReport) {
	o.stages = append(o.stages, s)
}

func (o *recordingObserver) JobFinished(context.Context, job.Job) {
	o.mu.Lock()
	o.jobs++
	o.mu.Unlock()
}

func (o *recordingObserver) RunFinished(_ context.Context, _ engine.RunInfo, res *engine.Result, _ error) {
	o.result = res
}

func TestRun_Observer(t *testing.T) {
	src := nodetest.NewSource("Src", paths("a", "b")...)
	tr := nodetest.NewTransform("T", nil)
	out := nodetest.NewOutput("Out", nil)
	reg := nodetest.Registry(node.NewSource(src), node.NewTransform(tr), node.NewOutput(out))

	obs := &recordingObserver{}
	runner := &engine.Runner{Registry: reg, Observer: engine.Observers(obs, engine.NopObserver{})}
	res, err := runner.Run(context.Background(), nodetest.Linear("Src", "T", "Out"))
	if err != nil {
		t.Fatal(err)
	}
	if obs.started != 1 || obs.result != res {
		t.Error("run lifecycle not observed")
	}
	if len(obs.stages) != 3 {
		t.Fatalf("expected 3 stage reports, got %d", len(obs.stages))
	}
	if obs.stages[0].Category != node.CategorySource || obs.stages[0].Out != 2 {
		t.Errorf("source report %+v", obs.stages[0])
	}
	if obs.stages[2].Category != node.CategoryOutput || obs.stages[2].Out != 2 {
		t.Errorf("output report %+v", obs.stages[2])
	}
	if obs.jobs != 2 {
		t.Errorf("observer saw %d jobs", obs.jobs)
	}
}
