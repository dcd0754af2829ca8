package judge

import (
	"context"
	"time"

	"github.com/jjudge-oj/grader/internal/invoker"
	"github.com/jjudge-oj/grader/types"
)

const (
	msgTimeLimitExceeded   = "time limit exceeded"
	msgUnsupportedLanguage = "unsupported language"
)

// OutcomeStatus is the normalized status of one execution.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
	OutcomeTimeout OutcomeStatus = "timeout"
)

// ExecuteRequest describes one execution of code against one input.
type ExecuteRequest struct {
	Code     string
	Language types.Language
	Input    string
	// TimeLimit is in milliseconds; non-positive disables the check.
	TimeLimit int64
}

// Outcome is the uniform result record of an execution.
type Outcome struct {
	Status          OutcomeStatus `json:"status"`
	Output          string        `json:"output"`
	Error           string        `json:"error,omitempty"`
	ExecutionTimeMs int64         `json:"execution_time"`
	MemoryUsedKB    int64         `json:"memory_used"`
}

// Executor runs a single request. A returned error is an infrastructure
// fault, distinct from an Outcome with OutcomeError.
type Executor interface {
	Execute(ctx context.Context, req ExecuteRequest) (Outcome, error)
}

// Dispatcher routes execution requests to the runtime invoker and normalizes
// its responses.
type Dispatcher struct {
	invoker       invoker.Invoker
	simulateStdin map[types.Language]bool
	now           func() time.Time
}

// NewDispatcher constructs a dispatcher. Languages in simulateStdin get an
// input-replaying preamble instead of piped stdin.
func NewDispatcher(inv invoker.Invoker, simulateStdin []types.Language) *Dispatcher {
	simulated := make(map[types.Language]bool, len(simulateStdin))
	for _, lang := range simulateStdin {
		if preambleSupported(lang) {
			simulated[lang] = true
		}
	}
	return &Dispatcher{
		invoker:       inv,
		simulateStdin: simulated,
		now:           time.Now,
	}
}

// Execute implements Executor.
//
// The time limit is checked after the invoker returns: a slow invocation is
// allowed to finish and is then reclassified as a timeout. This includes calls
// that fail with an invoker error once the limit has already passed.
func (d *Dispatcher) Execute(ctx context.Context, req ExecuteRequest) (Outcome, error) {
	entryPoint, ok := entryPointFor(req.Language)
	if !ok {
		return Outcome{Status: OutcomeError, Error: msgUnsupportedLanguage}, nil
	}

	invokeReq := invoker.Request{
		EntryPoint: entryPoint,
		Code:       req.Code,
		Stdin:      req.Input,
	}
	if d.simulateStdin[req.Language] {
		invokeReq.Code = withStdinPreamble(req.Language, req.Code, req.Input)
		invokeReq.Stdin = ""
	}

	start := d.now()
	resp, err := d.invoker.Invoke(ctx, invokeReq)
	elapsed := d.now().Sub(start)
	overLimit := req.TimeLimit > 0 && elapsed > time.Duration(req.TimeLimit)*time.Millisecond
	if err != nil {
		if overLimit {
			return Outcome{
				Status:          OutcomeTimeout,
				Error:           msgTimeLimitExceeded,
				ExecutionTimeMs: elapsed.Milliseconds(),
			}, nil
		}
		return Outcome{}, err
	}

	outcome := Outcome{
		Status:          OutcomeSuccess,
		Output:          resp.Output,
		ExecutionTimeMs: elapsed.Milliseconds(),
		MemoryUsedKB:    resp.MemoryKB,
	}
	if resp.Failed() {
		outcome.Status = OutcomeError
		outcome.Error = resp.Error
	}
	if overLimit {
		outcome.Status = OutcomeTimeout
		outcome.Error = msgTimeLimitExceeded
	}
	return outcome, nil
}

// entryPointFor maps each language variant to its single runtime entry point.
func entryPointFor(lang types.Language) (string, bool) {
	switch lang {
	case types.LanguageC:
		return "c", true
	case types.LanguageCPP:
		return "cpp", true
	case types.LanguageJava:
		return "java", true
	case types.LanguagePython:
		return "python3", true
	case types.LanguageJavaScript:
		return "nodejs", true
	case types.LanguageUnsupported:
		return "", false
	default:
		return "", false
	}
}
