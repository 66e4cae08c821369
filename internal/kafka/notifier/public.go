package notifier

import (
	"context"

	"github.com/google/uuid"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/repository/model"
)

// MessageTypeHeader names the message type of each event on the topic.
const MessageTypeHeader = "X-Message-Type"

const (
	MemberRolesUpdateType     = "planet.permission.MemberRolesUpdate"
	PermissionsNodeUpdateType = "planet.permission.PermissionsNodeUpdate"
	RoleUpdateType            = "planet.permission.RoleUpdate"
	ChannelUpdateType         = "planet.permission.ChannelUpdate"
)

type ChangeType string

const (
	ChangeCreate ChangeType = "CREATE"
	ChangeModify ChangeType = "MODIFY"
	ChangeDelete ChangeType = "DELETE"
	ChangeGrant  ChangeType = "GRANT"
	ChangeRevoke ChangeType = "REVOKE"
)

type MemberRolesUpdateMessage struct {
	PlanetId    uuid.UUID  `json:"planetId"`
	UserId      uuid.UUID  `json:"userId"`
	RoleId      uuid.UUID  `json:"roleId"`
	LocalRoleId int        `json:"localRoleId"`
	ChangeType  ChangeType `json:"changeType"`
}

// PermissionsNodeUpdateMessage carries the node state after the change. A
// deleted node is sent with a zero code and mask.
type PermissionsNodeUpdateMessage struct {
	PlanetId   uuid.UUID             `json:"planetId"`
	RoleId     uuid.UUID             `json:"roleId"`
	TargetId   uuid.UUID             `json:"targetId"`
	TargetType permission.TargetType `json:"targetType"`
	Code       uint64                `json:"code,string"`
	Mask       uint64                `json:"mask,string"`
	ChangeType ChangeType            `json:"changeType"`
}

func (m *PermissionsNodeUpdateMessage) Key() permission.NodeKey {
	return permission.NodeKey{RoleId: m.RoleId, TargetId: m.TargetId, TargetType: m.TargetType}
}

type RoleUpdateMessage struct {
	Role       *model.Role `json:"role"`
	ChangeType ChangeType  `json:"changeType"`
}

type ChannelUpdateMessage struct {
	Channel    *model.Channel `json:"channel"`
	ChangeType ChangeType     `json:"changeType"`
}

//go:generate mockgen -source=public.go -destination=mock_notifier.go -package=notifier

type Notifier interface {
	MemberRolesUpdate(ctx context.Context, msg *MemberRolesUpdateMessage) error
	PermissionsNodeUpdate(ctx context.Context, msg *PermissionsNodeUpdateMessage) error
	RoleUpdate(ctx context.Context, role *model.Role, changeType ChangeType) error
	ChannelUpdate(ctx context.Context, channel *model.Channel, changeType ChangeType) error
}
