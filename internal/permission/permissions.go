package permission

import (
	"fmt"
	"math"
	"strings"
)

// TargetType selects which permission bit layout a node or permission uses.
type TargetType int

const (
	TargetChatChannel TargetType = iota + 1
	TargetCategory
	TargetVoiceChannel
)

func (t TargetType) String() string {
	switch t {
	case TargetChatChannel:
		return "chat_channel"
	case TargetCategory:
		return "category"
	case TargetVoiceChannel:
		return "voice_channel"
	default:
		return fmt.Sprintf("target_type(%d)", int(t))
	}
}

func (t TargetType) Valid() bool {
	return t >= TargetChatChannel && t <= TargetVoiceChannel
}

// ParseTargetType accepts the names returned by String and their short forms.
func ParseTargetType(name string) (TargetType, error) {
	switch strings.ToLower(name) {
	case "chat", "chat_channel":
		return TargetChatChannel, nil
	case "category":
		return TargetCategory, nil
	case "voice", "voice_channel":
		return TargetVoiceChannel, nil
	default:
		return 0, fmt.Errorf("unknown target type %q", name)
	}
}

// FullControl is a code granting every bit of any layout.
const FullControl uint64 = math.MaxUint64

// Permission is a single flag (or a union of flags) of one target layout.
// Bit values are a versioned contract with callers and never change.
type Permission struct {
	Value       uint64
	Name        string
	Description string
	TargetType  TargetType
}

// HasPermission reports whether code grants every bit of value.
func HasPermission(code uint64, value uint64) bool {
	if code == FullControl {
		return true
	}
	return code&value == value
}

// CreateCode ORs permissions into a single code.
func CreateCode[P interface{ Permission | PlanetPermission }](permissions ...P) uint64 {
	var code uint64
	for _, p := range permissions {
		switch v := any(p).(type) {
		case Permission:
			code |= v.Value
		case PlanetPermission:
			code |= v.Value
		}
	}
	return code
}

const (
	viewValue              = 0x01
	manageValue            = 0x08
	managePermissionsValue = 0x10
)

var (
	ChatView              = Permission{viewValue, "view", "View the channel in the channel list.", TargetChatChannel}
	ChatViewMessages      = Permission{0x02, "view-messages", "View the messages within the channel.", TargetChatChannel}
	ChatPostMessages      = Permission{0x04, "post-messages", "Post messages to the channel.", TargetChatChannel}
	ChatManage            = Permission{manageValue, "manage", "Manage the channel's details.", TargetChatChannel}
	ChatManagePermissions = Permission{managePermissionsValue, "manage-permissions", "Manage permissions for the channel.", TargetChatChannel}
	ChatEmbed             = Permission{0x20, "embed", "Post embedded content to the channel.", TargetChatChannel}
	ChatAttachContent     = Permission{0x40, "attach-content", "Upload files to the channel.", TargetChatChannel}
	ChatManageMessages    = Permission{0x80, "manage-messages", "Delete and manage messages in the channel.", TargetChatChannel}
	ChatUseEconomy        = Permission{0x100, "use-economy", "Use economic features in the channel.", TargetChatChannel}

	CategoryView              = Permission{viewValue, "view", "View the category in the channel list.", TargetCategory}
	CategoryManage            = Permission{manageValue, "manage", "Manage the category's details.", TargetCategory}
	CategoryManagePermissions = Permission{managePermissionsValue, "manage-permissions", "Manage permissions for the category.", TargetCategory}

	VoiceView              = Permission{viewValue, "view", "View the channel in the channel list.", TargetVoiceChannel}
	VoiceJoin              = Permission{0x02, "join", "Connect to the voice channel.", TargetVoiceChannel}
	VoiceSpeak             = Permission{0x04, "speak", "Speak in the channel.", TargetVoiceChannel}
	VoiceManage            = Permission{manageValue, "manage", "Manage the channel's details.", TargetVoiceChannel}
	VoiceManagePermissions = Permission{managePermissionsValue, "manage-permissions", "Manage permissions for the channel.", TargetVoiceChannel}
)

var layouts = map[TargetType][]Permission{
	TargetChatChannel: {ChatView, ChatViewMessages, ChatPostMessages, ChatManage, ChatManagePermissions,
		ChatEmbed, ChatAttachContent, ChatManageMessages, ChatUseEconomy},
	TargetCategory:     {CategoryView, CategoryManage, CategoryManagePermissions},
	TargetVoiceChannel: {VoiceView, VoiceJoin, VoiceSpeak, VoiceManage, VoiceManagePermissions},
}

var defaultCodes = map[TargetType]uint64{
	TargetChatChannel:  CreateCode(ChatView, ChatViewMessages, ChatPostMessages),
	TargetCategory:     CreateCode(CategoryView),
	TargetVoiceChannel: CreateCode(VoiceView, VoiceJoin, VoiceSpeak),
}

// Layout returns every permission defined for a target type.
func Layout(t TargetType) []Permission {
	return layouts[t]
}

// DefaultCode is the code a new default role starts with for a target type.
func DefaultCode(t TargetType) uint64 {
	return defaultCodes[t]
}

// ManagePermissionsFor returns the permission that gates node edits on a target.
func ManagePermissionsFor(t TargetType) Permission {
	return Permission{managePermissionsValue, "manage-permissions", "Manage permissions for the target.", t}
}

// Lookup finds a permission by layout and name.
func Lookup(t TargetType, name string) (Permission, bool) {
	for _, p := range layouts[t] {
		if p.Name == name {
			return p, true
		}
	}
	return Permission{}, false
}

// Get finds a permission by layout and bit value, falling back to an unnamed
// permission for values outside the known layout.
func Get(t TargetType, value uint64) Permission {
	for _, p := range layouts[t] {
		if p.Value == value {
			return p
		}
	}
	return Permission{Value: value, Name: fmt.Sprintf("0x%x", value), TargetType: t}
}

// PlanetPermission is a planet-wide flag, resolved from role codes rather
// than from per-target nodes.
type PlanetPermission struct {
	Value       uint64
	Name        string
	Description string
}

var (
	PlanetView              = PlanetPermission{0x01, "view", "View the planet. Implicitly granted to members."}
	PlanetInvite            = PlanetPermission{0x02, "invite", "Send invites to the planet."}
	PlanetDisplayRole       = PlanetPermission{0x04, "display-role", "Display the role separately in the role list."}
	PlanetManage            = PlanetPermission{0x08, "manage", "Modify base planet settings."}
	PlanetKick              = PlanetPermission{0x10, "kick", "Kick other members."}
	PlanetBan               = PlanetPermission{0x20, "ban", "Ban other members."}
	PlanetCreateChannels    = PlanetPermission{0x40, "create-channels", "Create channels and categories."}
	PlanetManageRoles       = PlanetPermission{0x80, "manage-roles", "Manage roles."}
	PlanetUseEconomy        = PlanetPermission{0x100, "use-economy", "Use the planet's economy."}
	PlanetManageCurrency    = PlanetPermission{0x200, "manage-currency", "Manage the planet's currency."}
	PlanetManageEcoAccounts = PlanetPermission{0x400, "manage-eco-accounts", "Manage the planet's economy accounts."}
	PlanetForceTransactions = PlanetPermission{0x800, "force-transactions", "Force transactions in the planet."}
	PlanetMentionAll        = PlanetPermission{0x1000, "mention-all", "Mention all roles."}
)

var planetLayout = []PlanetPermission{PlanetView, PlanetInvite, PlanetDisplayRole, PlanetManage, PlanetKick,
	PlanetBan, PlanetCreateChannels, PlanetManageRoles, PlanetUseEconomy, PlanetManageCurrency,
	PlanetManageEcoAccounts, PlanetForceTransactions, PlanetMentionAll}

// PlanetDefaultCode is the planet code a new default role starts with.
var PlanetDefaultCode = CreateCode(PlanetView, PlanetUseEconomy)

func PlanetLayout() []PlanetPermission {
	return planetLayout
}

func LookupPlanet(name string) (PlanetPermission, bool) {
	for _, p := range planetLayout {
		if p.Name == name {
			return p, true
		}
	}
	return PlanetPermission{}, false
}

func GetPlanet(value uint64) PlanetPermission {
	for _, p := range planetLayout {
		if p.Value == value {
			return p
		}
	}
	return PlanetPermission{Value: value, Name: fmt.Sprintf("0x%x", value)}
}
