package models

// UnattributedID marks an actor that is not a real Discord user.
const UnattributedID = "N/A"

type Actor struct {
	DisplayName string
	ID          string
}

var (
	// UnknownActor is returned when the audit log never produced a match.
	UnknownActor = Actor{DisplayName: "System/Unknown", ID: UnattributedID}

	// SystemActor is used for events that have no actor at all, such as voice transitions.
	SystemActor = Actor{DisplayName: "System", ID: UnattributedID}
)

// Known reports whether the actor refers to a real user.
func (a Actor) Known() bool {
	return a.ID != "" && a.ID != UnattributedID
}

func (a Actor) String() string {
	return a.DisplayName + " (`" + a.ID + "`)"
}
