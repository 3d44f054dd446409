// Package session owns the edit-session lifecycle for a single queue:
// seed a draft from a snapshot, review the structural diff, and commit
// the sparse patch. All state lives in one controller value so callers
// never juggle scattered flags.
package session

import (
	"context"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/queue"
)

type State int

const (
	StateViewing State = iota
	StateEditing
	StateDiffPreview
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	case StateDiffPreview:
		return "diff-preview"
	case StateCommitting:
		return "committing"
	}
	return "unknown"
}

// Session drives one queue through viewing, editing, diff preview and
// commit. It is not safe for concurrent use; the CLI drives it from a
// single goroutine.
type Session struct {
	state State

	snapshot      queue.Value
	snapshotStale bool

	draft      string
	draftDirty bool

	// Preview state, valid only in StateDiffPreview.
	patch         queue.Value
	lines         []queue.Line
	resultPreview queue.Value

	fetchGeneration   uint64
	latestFetchServed uint64
	epoch             uint64
}

func New(snapshot queue.Value) *Session {
	return &Session{
		state:    StateViewing,
		snapshot: queue.Clone(snapshot),
	}
}

func (s *Session) State() State          { return s.state }
func (s *Session) Snapshot() queue.Value { return s.snapshot }
func (s *Session) SnapshotStale() bool   { return s.snapshotStale }
func (s *Session) Draft() string         { return s.draft }

// Patch returns the sparse patch computed by the last Review. A nil
// patch means the edit produced no committable changes.
func (s *Session) Patch() queue.Value { return s.patch }

// DiffLines returns the rendered preview lines from the last Review,
// including removal lines that the patch itself never carries.
func (s *Session) DiffLines() []queue.Line { return s.lines }

// ResultPreview returns the value the queue would have after applying
// the pending patch, or nil when there is nothing to commit.
func (s *Session) ResultPreview() queue.Value { return s.resultPreview }

// BeginEdit seeds the draft from the snapshot and enters editing.
func (s *Session) BeginEdit() error {
	if s.state != StateViewing {
		return faults.NewTypedError(faults.ValidationError, "editing can only start from viewing", nil)
	}
	seeded, err := queue.EncodeIndent(s.snapshot)
	if err != nil {
		return err
	}
	s.state = StateEditing
	s.draft = string(seeded)
	s.draftDirty = false
	s.clearPreview()
	return nil
}

// SetDraft records user-entered text. Once the user has typed, a
// late-arriving baseline reseed no longer touches the visible draft.
// Changing the draft invalidates any open preview: the patch shown
// there was computed from the old text.
func (s *Session) SetDraft(text string) {
	if text == s.draft {
		return
	}
	s.draft = text
	s.draftDirty = true
	if s.state == StateDiffPreview {
		s.state = StateEditing
		s.clearPreview()
	}
}

// NextFetchGeneration hands out an identity for an in-flight detail
// fetch. The matching ReseedBaseline call must present it back.
func (s *Session) NextFetchGeneration() uint64 {
	s.fetchGeneration++
	return s.fetchGeneration
}

// ReseedBaseline replaces the diff baseline with a later-arriving full
// snapshot. Responses older than one already applied are discarded.
// The visible draft is reseeded only when the user has not typed yet.
func (s *Session) ReseedBaseline(generation uint64, snapshot queue.Value) bool {
	if generation <= s.latestFetchServed {
		return false
	}
	s.latestFetchServed = generation
	s.snapshot = queue.Clone(snapshot)
	s.snapshotStale = false
	if s.state == StateEditing && !s.draftDirty {
		if seeded, err := queue.EncodeIndent(s.snapshot); err == nil {
			s.draft = string(seeded)
		}
	}
	return true
}

// Review parses the draft, computes the filtered diff and enters the
// preview state. A parse failure is recoverable: the session falls
// back to editing with the draft intact, any earlier preview is
// discarded so it cannot be committed, and the error is returned for
// display.
func (s *Session) Review() error {
	if s.state != StateEditing && s.state != StateDiffPreview {
		return faults.NewTypedError(faults.ValidationError, "review requires an active edit", nil)
	}

	edited, err := queue.ParseText([]byte(s.draft))
	if err != nil {
		s.state = StateEditing
		s.clearPreview()
		return err
	}

	s.patch = queue.BuildPatch(s.snapshot, edited)
	s.lines = queue.Render(queue.StripReadOnly(s.snapshot), queue.StripReadOnly(edited))
	s.resultPreview = nil
	if s.patch != nil {
		if preview, err := applyMergePatch(s.snapshot, s.patch); err == nil {
			s.resultPreview = preview
		}
	}
	s.state = StateDiffPreview
	return nil
}

// CanCommit reports whether the commit action is enabled. An empty
// diff keeps the preview open but disables committing.
func (s *Session) CanCommit() bool {
	return s.state == StateDiffPreview && s.patch != nil
}

// EmptyDiffMessage is shown in the preview when there is nothing to
// commit.
const EmptyDiffMessage = "no changes to commit; edit the draft or cancel"

// Commit sends the pending patch through apply. On success the session
// returns to viewing with the snapshot marked stale for refetch; on
// failure it returns to the preview with the draft preserved so the
// user can retry. A commit already in flight cannot be re-entered.
func (s *Session) Commit(ctx context.Context, apply func(context.Context, queue.Value) error) error {
	if s.state == StateCommitting {
		return faults.NewTypedError(faults.ConflictError, "a commit is already in flight", nil)
	}
	if s.state != StateDiffPreview {
		return faults.NewTypedError(faults.ValidationError, "commit requires a reviewed diff", nil)
	}
	if s.patch == nil {
		return faults.NewTypedError(faults.ValidationError, EmptyDiffMessage, nil)
	}

	s.state = StateCommitting
	epoch := s.epoch

	err := apply(ctx, s.patch)

	// The session may have been cancelled while the request was in
	// flight; its result is then ignored.
	if s.epoch != epoch {
		return nil
	}
	if err != nil {
		s.state = StateDiffPreview
		return err
	}

	s.state = StateViewing
	s.snapshotStale = true
	s.draft = ""
	s.draftDirty = false
	s.clearPreview()
	return nil
}

// Cancel abandons the edit unconditionally: draft and preview state
// are discarded and any in-flight commit result will be ignored.
func (s *Session) Cancel() {
	s.epoch++
	s.state = StateViewing
	s.draft = ""
	s.draftDirty = false
	s.clearPreview()
}

// BackToEditing returns from the preview to the draft without losing
// the user's text.
func (s *Session) BackToEditing() error {
	if s.state != StateDiffPreview {
		return faults.NewTypedError(faults.ValidationError, "only a diff preview can return to editing", nil)
	}
	s.state = StateEditing
	s.clearPreview()
	return nil
}

func (s *Session) clearPreview() {
	s.patch = nil
	s.lines = nil
	s.resultPreview = nil
}

func applyMergePatch(original, patch queue.Value) (queue.Value, error) {
	originalRaw, err := queue.Encode(original)
	if err != nil {
		return nil, err
	}
	patchRaw, err := queue.Encode(patch)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(originalRaw, patchRaw)
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to preview patched value", err)
	}
	result, err := queue.ParseText(merged)
	if err != nil {
		return nil, err
	}
	restoreNullEntries(result, patch)
	return result, nil
}

// restoreNullEntries re-sets patch entries whose value is null. The
// patch carries full replacement values, so a null sets the field to
// null on the wire; merge-patch semantics would delete it instead.
func restoreNullEntries(merged, patch queue.Value) {
	patchMap, ok := patch.(map[string]any)
	if !ok {
		return
	}
	mergedMap, ok := merged.(map[string]any)
	if !ok {
		return
	}
	for key, value := range patchMap {
		if value == nil {
			mergedMap[key] = nil
			continue
		}
		if _, nested := value.(map[string]any); nested {
			restoreNullEntries(mergedMap[key], value)
		}
	}
}

// DeleteConfirmationToken is the literal the user must type before a
// delete is allowed.
const DeleteConfirmationToken = "DELETE"

// DeleteConfirmation gates a queue deletion behind a typed token.
type DeleteConfirmation struct {
	input string
}

func (d *DeleteConfirmation) SetInput(text string) { d.input = text }

// Confirmed reports whether the typed input matches the token after
// trimming and case folding.
func (d *DeleteConfirmation) Confirmed() bool {
	return ValidateDeleteToken(d.input) == nil
}

// ValidateDeleteToken checks a typed confirmation token. It is usable
// directly as a prompt validator.
func ValidateDeleteToken(input string) error {
	if strings.EqualFold(strings.TrimSpace(input), DeleteConfirmationToken) {
		return nil
	}
	return faults.NewTypedError(faults.ValidationError, `type "DELETE" to confirm`, nil)
}
