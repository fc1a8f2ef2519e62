package models

import (
	"sort"
	"time"
)

// ActionCategory mirrors the Discord audit log action type numbers.
type ActionCategory int

const (
	ActionChannelCreate    ActionCategory = 10
	ActionChannelUpdate    ActionCategory = 11
	ActionChannelDelete    ActionCategory = 12
	ActionMemberKick       ActionCategory = 20
	ActionMemberBanAdd     ActionCategory = 22
	ActionMemberBanRemove  ActionCategory = 23
	ActionMemberUpdate     ActionCategory = 24
	ActionMemberRoleUpdate ActionCategory = 25
	ActionBotAdd           ActionCategory = 28
	ActionRoleCreate       ActionCategory = 30
	ActionRoleUpdate       ActionCategory = 31
	ActionRoleDelete       ActionCategory = 32
	ActionInviteCreate     ActionCategory = 40
	ActionMessagePin       ActionCategory = 74
	ActionMessageUnpin     ActionCategory = 75
)

var actionNames = map[ActionCategory]string{
	ActionChannelCreate:    "CHANNEL_CREATE",
	ActionChannelUpdate:    "CHANNEL_UPDATE",
	ActionChannelDelete:    "CHANNEL_DELETE",
	ActionMemberKick:       "MEMBER_KICK",
	ActionMemberBanAdd:     "MEMBER_BAN_ADD",
	ActionMemberBanRemove:  "MEMBER_BAN_REMOVE",
	ActionMemberUpdate:     "MEMBER_UPDATE",
	ActionMemberRoleUpdate: "MEMBER_ROLE_UPDATE",
	ActionBotAdd:           "BOT_ADD",
	ActionRoleCreate:       "ROLE_CREATE",
	ActionRoleUpdate:       "ROLE_UPDATE",
	ActionRoleDelete:       "ROLE_DELETE",
	ActionInviteCreate:     "INVITE_CREATE",
	ActionMessagePin:       "MESSAGE_PIN",
	ActionMessageUnpin:     "MESSAGE_UNPIN",
}

func (c ActionCategory) String() string {
	if name, ok := actionNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// DeltaKey is the direction of a role change inside an audit entry.
type DeltaKey string

const (
	DeltaAdd    DeltaKey = "$add"
	DeltaRemove DeltaKey = "$remove"
)

type RoleDelta struct {
	Key     DeltaKey
	RoleIDs map[string]struct{}
}

func NewRoleDelta(key DeltaKey, roleIDs ...string) RoleDelta {
	d := RoleDelta{Key: key, RoleIDs: make(map[string]struct{}, len(roleIDs))}
	for _, id := range roleIDs {
		d.RoleIDs[id] = struct{}{}
	}
	return d
}

func (d RoleDelta) Contains(roleID string) bool {
	_, ok := d.RoleIDs[roleID]
	return ok
}

// RoleHint narrows attribution of a member role update to one role and direction.
type RoleHint struct {
	RoleID    string
	Direction DeltaKey
}

// AuditEntry is an immutable view of one audit log row.
type AuditEntry struct {
	ID        string
	TargetID  string
	ActorID   string
	ActorName string
	Category  ActionCategory
	Changes   []RoleDelta
	CreatedAt time.Time
}

func (e AuditEntry) Actor() Actor {
	name := e.ActorName
	if name == "" {
		name = e.ActorID
	}
	return Actor{DisplayName: name, ID: e.ActorID}
}

// SortNewestFirst orders entries by CreatedAt descending, in place.
func SortNewestFirst(entries []AuditEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
