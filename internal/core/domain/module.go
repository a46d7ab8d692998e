package domain

// ModuleCandidate is one physical install location of a package containing a
// native addon. A package duplicated at multiple nesting depths produces one
// candidate per physical copy, so Path is the identity; Name is the logical
// (possibly scoped, e.g. "@scope/name") package name and may repeat.
//
// Names and paths repeat heavily across nested install trees, so both are
// interned.
type ModuleCandidate struct {
	Name InternedString
	Path InternedString
}

// OutcomeStatus is the terminal state of one candidate in a run.
type OutcomeStatus string

const (
	// OutcomeSkipped indicates the candidate's ABI cache record already
	// matched the target identity and no build was attempted.
	OutcomeSkipped OutcomeStatus = "skipped"
	// OutcomeBuilt indicates the candidate was rebuilt successfully.
	OutcomeBuilt OutcomeStatus = "built"
	// OutcomeFailed indicates the candidate's build failed.
	OutcomeFailed OutcomeStatus = "failed"
)

// BuildOutcome is the terminal result for one candidate.
type BuildOutcome struct {
	Candidate ModuleCandidate
	Status    OutcomeStatus

	// Err is set iff Status is OutcomeFailed.
	Err error

	// Warning carries a non-fatal problem attached to a successful build,
	// such as a failed ABI cache record write.
	Warning error
}

// WalkReport is the partial-failure-tolerant result of a tree walk.
type WalkReport struct {
	// Candidates are the native addon modules found, sorted by path.
	Candidates []ModuleCandidate

	// Errors lists structural errors for subtrees that could not be walked.
	// A non-empty list does not invalidate Candidates from other subtrees.
	Errors []error
}
