package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"planet-permission-service/internal/config"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/repository/model"
	"planet-permission-service/internal/rolebitset"
)

//go:embed schema.sql
var schema string

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

const (
	insertPlanetQuery = `INSERT INTO planets (id, name, owner_id, default_role_id) VALUES ($1, $2, $3, $4)`
	getPlanetQuery    = `SELECT id, name, owner_id, default_role_id FROM planets WHERE id = $1`

	roleColumns     = `id, planet_id, local_id, name, authority, is_admin, is_default, permissions, chat_permissions, category_permissions, voice_permissions`
	insertRoleQuery = `INSERT INTO roles (` + roleColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	getRolesQuery   = `SELECT ` + roleColumns + ` FROM roles WHERE planet_id = $1 ORDER BY local_id`

	// the next local id is picked in the same statement; the unique and check
	// constraints reject duplicates and overflow
	createRoleQuery = `INSERT INTO roles (` + roleColumns + `)
SELECT $1, $2, COALESCE(MAX(local_id) + 1, 0), $3, $4, $5, $6, $7, $8, $9, $10 FROM roles WHERE planet_id = $2
RETURNING local_id`

	memberColumns     = `id, planet_id, user_id, role_word_0, role_word_1, role_word_2, role_word_3`
	insertMemberQuery = `INSERT INTO members (` + memberColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	getMemberQuery    = `SELECT ` + memberColumns + ` FROM members WHERE planet_id = $1 AND user_id = $2`

	channelColumns     = `id, planet_id, parent_id, name, type, position, inherits_permissions`
	insertChannelQuery = `INSERT INTO channels (` + channelColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	getChannelQuery    = `SELECT ` + channelColumns + ` FROM channels WHERE id = $1`

	channelsInRangeQuery = `SELECT ` + channelColumns + ` FROM channels
WHERE planet_id = $1 AND position >= $2 AND position < $3 ORDER BY position`

	nodeColumns     = `id, planet_id, role_id, target_id, target_type, code, mask`
	getNodeQuery    = `SELECT ` + nodeColumns + ` FROM permission_nodes WHERE role_id = $1 AND target_id = $2 AND target_type = $3`
	getNodesQuery   = `SELECT ` + nodeColumns + ` FROM permission_nodes WHERE target_id = $1 AND target_type = $2 AND role_id = ANY($3::uuid[])`
	deleteNodeQuery = `DELETE FROM permission_nodes WHERE role_id = $1 AND target_id = $2 AND target_type = $3`

	upsertNodeQuery = `INSERT INTO permission_nodes (` + nodeColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (target_id, target_type, role_id) DO UPDATE SET code = EXCLUDED.code, mask = EXCLUDED.mask`
)

// setMemberRoleQuery grants or revokes one bit of one role word in place. The
// bit condition makes a no-op update match no rows.
func setMemberRoleQuery(word int, value bool) string {
	if value {
		return fmt.Sprintf(`UPDATE members SET role_word_%[1]d = role_word_%[1]d | $1::bigint
WHERE planet_id = $2 AND user_id = $3 AND role_word_%[1]d & $1::bigint = 0
RETURNING role_word_0, role_word_1, role_word_2, role_word_3`, word)
	}
	return fmt.Sprintf(`UPDATE members SET role_word_%[1]d = role_word_%[1]d & ~$1::bigint
WHERE planet_id = $2 AND user_id = $3 AND role_word_%[1]d & $1::bigint <> 0
RETURNING role_word_0, role_word_1, role_word_2, role_word_3`, word)
}

type postgresRepository struct {
	logger *zap.SugaredLogger
	db     *sql.DB
}

func NewPostgresRepository(ctx context.Context, logger *zap.SugaredLogger, wg *sync.WaitGroup, cfg config.PostgresConfig) (Repository, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	repo := newPostgresRepository(logger, db)
	if err := repo.Migrate(pingCtx); err != nil {
		return nil, err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		logger.Info("closing postgres connections")
		if err := db.Close(); err != nil {
			logger.Errorw("failed to close postgres", "error", err)
		}
	}()

	return repo, nil
}

func newPostgresRepository(logger *zap.SugaredLogger, db *sql.DB) *postgresRepository {
	return &postgresRepository{logger: logger, db: db}
}

// Migrate creates any missing tables.
func (p *postgresRepository) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (p *postgresRepository) CreatePlanet(ctx context.Context, planet *model.Planet, defaultRole *model.Role) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			p.logger.Errorw("failed to roll back planet creation", "planetId", planet.Id, "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, insertPlanetQuery, planet.Id, planet.Name, planet.OwnerId, planet.DefaultRoleId); err != nil {
		return wrapPqError(err)
	}

	r := defaultRole
	if _, err := tx.ExecContext(ctx, insertRoleQuery, r.Id, r.PlanetId, r.LocalId, r.Name, int64(r.Authority), r.IsAdmin,
		r.IsDefault, r.Permissions, r.ChatPermissions, r.CategoryPermissions, r.VoicePermissions); err != nil {
		return wrapPqError(err)
	}

	return tx.Commit()
}

func (p *postgresRepository) GetPlanet(ctx context.Context, planetId uuid.UUID) (*model.Planet, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var planet model.Planet
	err := p.db.QueryRowContext(ctx, getPlanetQuery, planetId).
		Scan(&planet.Id, &planet.Name, &planet.OwnerId, &planet.DefaultRoleId)
	if err != nil {
		return nil, wrapPqError(err)
	}
	return &planet, nil
}

func (p *postgresRepository) CreateRole(ctx context.Context, role *model.Role) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= createRoleAttempts; attempt++ {
		err = p.db.QueryRowContext(ctx, createRoleQuery, role.Id, role.PlanetId, role.Name, int64(role.Authority),
			role.IsAdmin, role.IsDefault, role.Permissions, role.ChatPermissions, role.CategoryPermissions,
			role.VoicePermissions).Scan(&role.LocalId)
		if err == nil {
			return nil
		}

		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
			break
		}
	}
	return wrapPqError(err)
}

func (p *postgresRepository) GetRoles(ctx context.Context, planetId uuid.UUID) ([]*model.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, getRolesQuery, planetId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*model.Role
	for rows.Next() {
		var r model.Role
		var authority int64
		if err := rows.Scan(&r.Id, &r.PlanetId, &r.LocalId, &r.Name, &authority, &r.IsAdmin, &r.IsDefault,
			&r.Permissions, &r.ChatPermissions, &r.CategoryPermissions, &r.VoicePermissions); err != nil {
			return nil, err
		}
		r.Authority = uint32(authority)
		roles = append(roles, &r)
	}
	return roles, rows.Err()
}

func (p *postgresRepository) CreateMember(ctx context.Context, member *model.Member) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.db.ExecContext(ctx, insertMemberQuery, member.Id, member.PlanetId, member.UserId,
		member.Roles[0], member.Roles[1], member.Roles[2], member.Roles[3])
	return wrapPqError(err)
}

func (p *postgresRepository) GetMember(ctx context.Context, planetId uuid.UUID, userId uuid.UUID) (*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var m model.Member
	err := p.db.QueryRowContext(ctx, getMemberQuery, planetId, userId).
		Scan(&m.Id, &m.PlanetId, &m.UserId, &m.Roles[0], &m.Roles[1], &m.Roles[2], &m.Roles[3])
	if err != nil {
		return nil, wrapPqError(err)
	}
	return &m, nil
}

func (p *postgresRepository) SetMemberRole(ctx context.Context, planetId uuid.UUID, userId uuid.UUID, localRoleId int,
	value bool) (rolebitset.RoleBitset, error) {

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	word, mask := rolebitset.WordMask(localRoleId)

	var words [rolebitset.WordCount]int64
	err := p.db.QueryRowContext(ctx, setMemberRoleQuery(word, value), int64(mask), planetId, userId).
		Scan(&words[0], &words[1], &words[2], &words[3])
	if err == nil {
		return rolebitset.FromWords(words), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return rolebitset.RoleBitset{}, err
	}

	if _, err := p.GetMember(ctx, planetId, userId); err != nil {
		return rolebitset.RoleBitset{}, err
	}
	if value {
		return rolebitset.RoleBitset{}, ErrAlreadyHasRole
	}
	return rolebitset.RoleBitset{}, ErrDoesNotHaveRole
}

func (p *postgresRepository) CreateChannel(ctx context.Context, channel *model.Channel) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	parentId := uuid.NullUUID{UUID: channel.ParentId, Valid: channel.ParentId != uuid.Nil}
	_, err := p.db.ExecContext(ctx, insertChannelQuery, channel.Id, channel.PlanetId, parentId, channel.Name,
		int(channel.Type), channel.Position, channel.InheritsPermissions)
	return wrapPqError(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (*model.Channel, error) {
	var c model.Channel
	var parentId uuid.NullUUID
	if err := row.Scan(&c.Id, &c.PlanetId, &parentId, &c.Name, &c.Type, &c.Position, &c.InheritsPermissions); err != nil {
		return nil, err
	}
	c.ParentId = parentId.UUID
	return &c, nil
}

func (p *postgresRepository) GetChannel(ctx context.Context, channelId uuid.UUID) (*model.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	channel, err := scanChannel(p.db.QueryRowContext(ctx, getChannelQuery, channelId))
	if err != nil {
		return nil, wrapPqError(err)
	}
	return channel, nil
}

func (p *postgresRepository) GetChannelsInRange(ctx context.Context, planetId uuid.UUID, lower uint64, upper uint64) ([]*model.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, channelsInRangeQuery, planetId, int64(lower), int64(upper))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*model.Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

func scanNode(row rowScanner) (*model.PermissionsNode, error) {
	var n model.PermissionsNode
	if err := row.Scan(&n.Id, &n.PlanetId, &n.RoleId, &n.TargetId, &n.TargetType, &n.Code, &n.Mask); err != nil {
		return nil, err
	}
	return &n, nil
}

func (p *postgresRepository) GetNode(ctx context.Context, roleId uuid.UUID, targetId uuid.UUID, targetType permission.TargetType) (*model.PermissionsNode, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	node, err := scanNode(p.db.QueryRowContext(ctx, getNodeQuery, roleId, targetId, int(targetType)))
	if err != nil {
		return nil, wrapPqError(err)
	}
	return node, nil
}

func (p *postgresRepository) GetNodes(ctx context.Context, targetId uuid.UUID, targetType permission.TargetType, roleIds []uuid.UUID) ([]*model.PermissionsNode, error) {
	if len(roleIds) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ids := make(pq.StringArray, len(roleIds))
	for i, id := range roleIds {
		ids[i] = id.String()
	}

	rows, err := p.db.QueryContext(ctx, getNodesQuery, targetId, int(targetType), ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*model.PermissionsNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func (p *postgresRepository) UpsertNode(ctx context.Context, node *model.PermissionsNode) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if node.Id == uuid.Nil {
		node.Id = uuid.New()
	}

	_, err := p.db.ExecContext(ctx, upsertNodeQuery, node.Id, node.PlanetId, node.RoleId, node.TargetId,
		int(node.TargetType), node.Code, node.Mask)
	return err
}

func (p *postgresRepository) DeleteNode(ctx context.Context, roleId uuid.UUID, targetId uuid.UUID, targetType permission.TargetType) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.db.ExecContext(ctx, deleteNodeQuery, roleId, targetId, int(targetType))
	return err
}

func wrapPqError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
		case pqCheckViolation:
			return fmt.Errorf("%w: %w", ErrRoleLimitReached, err)
		}
	}
	return err
}
