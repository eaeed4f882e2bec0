package contest

import "errors"

var (
	// ErrNoContest is returned by operations that need an open contest.
	ErrNoContest = errors.New("no contest is open")
	// ErrEmptyCatalog means the contest has no tasks.
	ErrEmptyCatalog = errors.New("contest has no tasks")
	// ErrUnknownTask means the task id is not part of the open contest.
	ErrUnknownTask = errors.New("task is not part of this contest")
	// ErrLanguageLocked refuses a language change after the contest locked it.
	ErrLanguageLocked = errors.New("contest language is locked")
	// ErrInvalidLanguage rejects an unsupported language.
	ErrInvalidLanguage = errors.New("unsupported language")

	// ErrLaneBusy refuses a run or submit while the same task and mode
	// already has an execution in flight.
	ErrLaneBusy = errors.New("an execution is already in flight for this task and mode")
	// ErrInvalidMode rejects anything but run and submit.
	ErrInvalidMode = errors.New("mode must be run or submit")
	// ErrSubmitTestsUnavailable means the full test set could not be fetched,
	// so no execution was created.
	ErrSubmitTestsUnavailable = errors.New("could not fetch tests for submit")
	// ErrTimeout means polling hit its attempt bound. The server-side job
	// may still finish.
	ErrTimeout = errors.New("execution did not finish within the polling bound")
	// ErrExecutionFailed wraps a server-reported execution failure.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrHintAlreadyUsed is a no-op refusal: the tier was consumed before
	// and nothing was charged.
	ErrHintAlreadyUsed = errors.New("hint tier already used for this task")
	// ErrInvalidHintTier rejects an unknown tier.
	ErrInvalidHintTier = errors.New("unknown hint tier")

	// ErrNoThread means the task has no clarification thread yet.
	ErrNoThread = errors.New("no clarification thread for this task")
	// ErrThreadClosed refuses an answer once the thread left pending.
	ErrThreadClosed = errors.New("clarification thread is no longer answerable")
	// ErrEmptyAnswer rejects a blank answer.
	ErrEmptyAnswer = errors.New("answer is empty")

	// ErrClosed is returned after the controller or orchestrator was closed.
	ErrClosed = errors.New("contest session is closed")
)
