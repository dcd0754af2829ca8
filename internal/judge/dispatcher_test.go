package judge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jjudge-oj/grader/internal/invoker"
	"github.com/jjudge-oj/grader/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	calls []invoker.Request
	resp  invoker.Response
	err   error
	// onInvoke runs during the call, e.g. to advance a fake clock.
	onInvoke func()
}

func (f *fakeInvoker) Invoke(ctx context.Context, req invoker.Request) (invoker.Response, error) {
	f.calls = append(f.calls, req)
	if f.onInvoke != nil {
		f.onInvoke()
	}
	return f.resp, f.err
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDispatcher(inv invoker.Invoker, clock *fakeClock, simulate ...types.Language) *Dispatcher {
	d := NewDispatcher(inv, simulate)
	d.now = clock.Now
	return d
}

func TestDispatcherSuccess(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	inv := &fakeInvoker{resp: invoker.Response{Output: "42\n", MemoryKB: 2048}}
	inv.onInvoke = func() { clock.Advance(120 * time.Millisecond) }
	d := newTestDispatcher(inv, clock)

	out, err := d.Execute(context.Background(), ExecuteRequest{Code: "x", Language: types.LanguageC, Input: "6 7\n", TimeLimit: 1000})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, out.Status)
	assert.Equal(t, "42\n", out.Output)
	assert.Equal(t, int64(120), out.ExecutionTimeMs)
	assert.Equal(t, int64(2048), out.MemoryUsedKB)
	require.Len(t, inv.calls, 1)
	assert.Equal(t, "c", inv.calls[0].EntryPoint)
	assert.Equal(t, "6 7\n", inv.calls[0].Stdin)
}

func TestDispatcherRuntimeErrorKeepsPartialOutput(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	inv := &fakeInvoker{resp: invoker.Response{Output: "partial", Error: "segfault", ExitCode: 139}}
	d := newTestDispatcher(inv, clock)

	out, err := d.Execute(context.Background(), ExecuteRequest{Language: types.LanguageCPP, TimeLimit: 1000})
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Status)
	assert.Equal(t, "partial", out.Output)
	assert.Equal(t, "segfault", out.Error)
	assert.Equal(t, int64(0), out.MemoryUsedKB)
}

func TestDispatcherTimeoutOverridesInvokerResult(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	inv := &fakeInvoker{resp: invoker.Response{Output: "5"}}
	inv.onInvoke = func() { clock.Advance(1500 * time.Millisecond) }
	d := newTestDispatcher(inv, clock)

	out, err := d.Execute(context.Background(), ExecuteRequest{Language: types.LanguageJava, TimeLimit: 1000})
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, out.Status)
	assert.Equal(t, msgTimeLimitExceeded, out.Error)
	assert.Equal(t, "5", out.Output)
	assert.Equal(t, int64(1500), out.ExecutionTimeMs)
}

func TestDispatcherTimeLimitBoundaryIsInclusive(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	inv := &fakeInvoker{}
	inv.onInvoke = func() { clock.Advance(time.Second) }
	d := newTestDispatcher(inv, clock)

	out, err := d.Execute(context.Background(), ExecuteRequest{Language: types.LanguageC, TimeLimit: 1000})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, out.Status)
}

func TestDispatcherUnsupportedLanguageSkipsInvoker(t *testing.T) {
	inv := &fakeInvoker{}
	d := newTestDispatcher(inv, &fakeClock{})

	out, err := d.Execute(context.Background(), ExecuteRequest{Language: types.ParseLanguage("cobol")})
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Status)
	assert.Equal(t, msgUnsupportedLanguage, out.Error)
	assert.Empty(t, inv.calls)
}

func TestDispatcherInvokerFaultIsReturned(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("connection refused")}
	d := newTestDispatcher(inv, &fakeClock{})

	_, err := d.Execute(context.Background(), ExecuteRequest{Language: types.LanguageC})
	assert.EqualError(t, err, "connection refused")
}

func TestDispatcherInvokerFaultAfterLimitIsTimeout(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	inv := &fakeInvoker{err: context.DeadlineExceeded}
	inv.onInvoke = func() { clock.Advance(30 * time.Second) }
	d := newTestDispatcher(inv, clock)

	out, err := d.Execute(context.Background(), ExecuteRequest{Language: types.LanguagePython, TimeLimit: 2000})
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, out.Status)
	assert.Equal(t, msgTimeLimitExceeded, out.Error)
	assert.Equal(t, int64(30000), out.ExecutionTimeMs)
}

func TestDispatcherInvokerFaultWithoutLimitIsReturned(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	inv := &fakeInvoker{err: context.DeadlineExceeded}
	inv.onInvoke = func() { clock.Advance(30 * time.Second) }
	d := newTestDispatcher(inv, clock)

	_, err := d.Execute(context.Background(), ExecuteRequest{Language: types.LanguagePython})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcherSimulatesStdinForConfiguredLanguages(t *testing.T) {
	inv := &fakeInvoker{}
	d := newTestDispatcher(inv, &fakeClock{}, types.LanguagePython, types.LanguageC)

	_, err := d.Execute(context.Background(), ExecuteRequest{Code: "print(input())", Language: types.LanguagePython, Input: "hello\n"})
	require.NoError(t, err)
	_, err = d.Execute(context.Background(), ExecuteRequest{Code: "int main(){}", Language: types.LanguageC, Input: "hello\n"})
	require.NoError(t, err)

	require.Len(t, inv.calls, 2)
	assert.Equal(t, "python3", inv.calls[0].EntryPoint)
	assert.Empty(t, inv.calls[0].Stdin)
	assert.Contains(t, inv.calls[0].Code, `StringIO("hello\n")`)
	assert.True(t, len(inv.calls[0].Code) > len("print(input())"))

	// C has no preamble, so its input is still piped.
	assert.Equal(t, "hello\n", inv.calls[1].Stdin)
	assert.Equal(t, "int main(){}", inv.calls[1].Code)
}
