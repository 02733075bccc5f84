package users

// ActionType is the wire name of an action.
type ActionType string

const (
	// TypeTraverse moves the list to another page.
	TypeTraverse ActionType = "user.traverse"

	// TypeFilter replaces the active filter.
	TypeFilter ActionType = "user.filter"

	// TypeSync replaces the current page of users and the total count.
	TypeSync ActionType = "user.sync"
)

// String returns the wire name.
func (t ActionType) String() string {
	return string(t)
}

// Action is anything that can be dispatched. Other stores may define their
// own actions; [UsersStore] only reacts to [UserAction] values.
type Action interface {
	ActionType() ActionType
}

// UserAction is the closed set of actions handled by [UsersStore]:
// [TraverseAction], [FilterAction] and [SyncAction].
type UserAction interface {
	Action
	userAction()
}

// TraverseAction sets the current page index.
type TraverseAction struct {
	Page int
}

// FilterAction sets the filter. A nil Filter clears it.
type FilterAction struct {
	Filter *Filter
}

// SyncAction replaces the current page of users and the total count.
// Count is not checked against len(Users).
type SyncAction struct {
	Users []User
	Count int
}

// UnknownAction is produced when decoding an envelope whose type is not one
// of the user actions. Stores ignore it.
type UnknownAction struct {
	Type ActionType
}

func (TraverseAction) ActionType() ActionType  { return TypeTraverse }
func (FilterAction) ActionType() ActionType    { return TypeFilter }
func (SyncAction) ActionType() ActionType      { return TypeSync }
func (a UnknownAction) ActionType() ActionType { return a.Type }

func (TraverseAction) userAction() {}
func (FilterAction) userAction()   {}
func (SyncAction) userAction()     {}
