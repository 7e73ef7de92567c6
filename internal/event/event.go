// Package event provides a publish/subscribe registry over a fixed set of
// toolbox event kinds.
package event

// Kind identifies an event type.
type Kind string

const (
	KindActorRescaled   Kind = "actor_rescaled"
	KindActorBuilt      Kind = "actor_built"
	KindGroupSaveRolled Kind = "group_save_rolled"
	KindDamageApplied   Kind = "damage_applied"
	KindActorFlattened  Kind = "actor_flattened"
	KindSkillRolled     Kind = "skill_rolled"
)

// Kinds lists every event kind in declaration order.
var Kinds = []Kind{
	KindActorRescaled, KindActorBuilt, KindGroupSaveRolled, KindDamageApplied,
	KindActorFlattened, KindSkillRolled,
}

// Event is implemented by every payload type below.
type Event interface {
	Kind() Kind
}

// ActorRescaled is published after every update batch of a rescale has been
// applied to the target statblock.
type ActorRescaled struct {
	SourceID  string
	TargetID  string
	Name      string
	FolderID  string
	FromLevel int
	ToLevel   int
	Created   bool // target was cloned rather than updated
}

func (ActorRescaled) Kind() Kind { return KindActorRescaled }

// ActorBuilt is published after builder fields are written to a statblock.
type ActorBuilt struct {
	ActorID string
	Name    string
	Level   int
}

func (ActorBuilt) Kind() Kind { return KindActorBuilt }

// SaveResult is one statblock's outcome within a group save.
type SaveResult struct {
	ActorID string
	Name    string
	Roll    int
	Total   int
	Degree  string
}

// GroupSaveRolled is published once per group save.
type GroupSaveRolled struct {
	Save    string
	DC      *int
	Results []SaveResult
}

func (GroupSaveRolled) Kind() Kind { return KindGroupSaveRolled }

// DamageApplied is published after a statblock's hit points change.
type DamageApplied struct {
	ActorID  string
	Name     string
	Amount   int
	Mode     string
	OldValue int
	NewValue int
}

func (DamageApplied) Kind() Kind { return KindDamageApplied }

// ActorFlattened is published after the proficiency-without-level modifier
// is added to (Flattened) or removed from a statblock.
type ActorFlattened struct {
	ActorID   string
	Name      string
	Modifier  int
	Flattened bool
}

func (ActorFlattened) Kind() Kind { return KindActorFlattened }

// SkillRolled is published once per skill or perception check. A secret
// check's total is meant for the game master only.
type SkillRolled struct {
	ActorID string
	Name    string
	Skill   string
	Roll    int
	Total   int
	Secret  bool
}

func (SkillRolled) Kind() Kind { return KindSkillRolled }
