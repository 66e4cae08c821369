package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"planet-permission-service/internal/config"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/repository/model"
	"planet-permission-service/internal/repository/registrytypes"
	"planet-permission-service/internal/rolebitset"
)

const (
	databaseName = "planet-permission-service"

	planetCollectionName  = "planets"
	roleCollectionName    = "roles"
	memberCollectionName  = "members"
	channelCollectionName = "channels"
	nodeCollectionName    = "permissionNodes"

	createRoleAttempts = 3
)

type mongoRepository struct {
	logger   *zap.SugaredLogger
	database *mongo.Database

	planetCollection  *mongo.Collection
	roleCollection    *mongo.Collection
	memberCollection  *mongo.Collection
	channelCollection *mongo.Collection
	nodeCollection    *mongo.Collection
}

func NewMongoRepository(ctx context.Context, logger *zap.SugaredLogger, wg *sync.WaitGroup, cfg config.MongoDBConfig) (Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetRegistry(createCodecRegistry()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	database := client.Database(databaseName)
	repo := &mongoRepository{
		logger:            logger,
		database:          database,
		planetCollection:  database.Collection(planetCollectionName),
		roleCollection:    database.Collection(roleCollectionName),
		memberCollection:  database.Collection(memberCollectionName),
		channelCollection: database.Collection(channelCollectionName),
		nodeCollection:    database.Collection(nodeCollectionName),
	}

	if err := repo.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		logger.Info("disconnecting from mongo")
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Errorw("failed to disconnect from mongo", "error", err)
		}
	}()

	return repo, nil
}

func (m *mongoRepository) createIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[*mongo.Collection][]mongo.IndexModel{
		m.roleCollection: {
			{Keys: bson.D{{Key: "planetId", Value: 1}, {Key: "localId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		m.memberCollection: {
			{Keys: bson.D{{Key: "planetId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		m.channelCollection: {
			{Keys: bson.D{{Key: "planetId", Value: 1}, {Key: "position", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		m.nodeCollection: {
			{Keys: bson.D{{Key: "targetId", Value: 1}, {Key: "targetType", Value: 1}, {Key: "roleId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for collection, models := range indexes {
		if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("collection %s: %w", collection.Name(), err)
		}
	}
	return nil
}

func (m *mongoRepository) CreatePlanet(ctx context.Context, planet *model.Planet, defaultRole *model.Role) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := m.planetCollection.InsertOne(ctx, planet); err != nil {
		return wrapWriteError(err)
	}

	if _, err := m.roleCollection.InsertOne(ctx, defaultRole); err != nil {
		if _, delErr := m.planetCollection.DeleteOne(ctx, bson.M{"_id": planet.Id}); delErr != nil {
			m.logger.Errorw("failed to remove planet without default role", "planetId", planet.Id, "error", delErr)
		}
		return wrapWriteError(err)
	}

	return nil
}

func (m *mongoRepository) GetPlanet(ctx context.Context, planetId uuid.UUID) (*model.Planet, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var planet model.Planet
	if err := m.planetCollection.FindOne(ctx, bson.M{"_id": planetId}).Decode(&planet); err != nil {
		return nil, wrapReadError(err)
	}
	return &planet, nil
}

func (m *mongoRepository) CreateRole(ctx context.Context, role *model.Role) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Concurrent creates can pick the same local id; the unique index rejects
	// all but one, so the losers retry with a fresh id.
	for attempt := 1; ; attempt++ {
		localId, err := m.nextLocalRoleId(ctx, role.PlanetId)
		if err != nil {
			return err
		}
		role.LocalId = localId

		_, err = m.roleCollection.InsertOne(ctx, role)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) || attempt == createRoleAttempts {
			return wrapWriteError(err)
		}
	}
}

func (m *mongoRepository) nextLocalRoleId(ctx context.Context, planetId uuid.UUID) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "localId", Value: -1}}).SetProjection(bson.M{"localId": 1})

	var highest model.Role
	err := m.roleCollection.FindOne(ctx, bson.M{"planetId": planetId}, opts).Decode(&highest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.DefaultRoleLocalId, nil
	}
	if err != nil {
		return 0, err
	}

	if highest.LocalId+1 >= rolebitset.MaxRoles {
		return 0, ErrRoleLimitReached
	}
	return highest.LocalId + 1, nil
}

func (m *mongoRepository) GetRoles(ctx context.Context, planetId uuid.UUID) ([]*model.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := m.roleCollection.Find(ctx, bson.M{"planetId": planetId}, options.Find().SetSort(bson.D{{Key: "localId", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var roles []*model.Role
	if err := cursor.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (m *mongoRepository) CreateMember(ctx context.Context, member *model.Member) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.memberCollection.InsertOne(ctx, member)
	return wrapWriteError(err)
}

func (m *mongoRepository) GetMember(ctx context.Context, planetId uuid.UUID, userId uuid.UUID) (*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var member model.Member
	err := m.memberCollection.FindOne(ctx, bson.D{{Key: "planetId", Value: planetId}, {Key: "userId", Value: userId}}).Decode(&member)
	if err != nil {
		return nil, wrapReadError(err)
	}
	return &member, nil
}

func (m *mongoRepository) SetMemberRole(ctx context.Context, planetId uuid.UUID, userId uuid.UUID, localRoleId int,
	value bool) (rolebitset.RoleBitset, error) {

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	word, mask := rolebitset.WordMask(localRoleId)
	field := fmt.Sprintf("roles.%d", word)
	bit := bson.A{localRoleId & 63}

	filter := bson.D{{Key: "planetId", Value: planetId}, {Key: "userId", Value: userId}}
	var update bson.D
	if value {
		filter = append(filter, bson.E{Key: field, Value: bson.M{"$bitsAllClear": bit}})
		update = bson.D{{Key: "$bit", Value: bson.M{field: bson.M{"or": int64(mask)}}}}
	} else {
		filter = append(filter, bson.E{Key: field, Value: bson.M{"$bitsAllSet": bit}})
		update = bson.D{{Key: "$bit", Value: bson.M{field: bson.M{"and": int64(^mask)}}}}
	}

	var member model.Member
	err := m.memberCollection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&member)
	if err == nil {
		return member.RoleBitset(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return rolebitset.RoleBitset{}, err
	}

	// Nothing matched: either the member is missing or the bit was already in place.
	if _, err := m.GetMember(ctx, planetId, userId); err != nil {
		return rolebitset.RoleBitset{}, err
	}
	if value {
		return rolebitset.RoleBitset{}, ErrAlreadyHasRole
	}
	return rolebitset.RoleBitset{}, ErrDoesNotHaveRole
}

func (m *mongoRepository) CreateChannel(ctx context.Context, channel *model.Channel) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.channelCollection.InsertOne(ctx, channel)
	return wrapWriteError(err)
}

func (m *mongoRepository) GetChannel(ctx context.Context, channelId uuid.UUID) (*model.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var channel model.Channel
	if err := m.channelCollection.FindOne(ctx, bson.M{"_id": channelId}).Decode(&channel); err != nil {
		return nil, wrapReadError(err)
	}
	return &channel, nil
}

func (m *mongoRepository) GetChannelsInRange(ctx context.Context, planetId uuid.UUID, lower uint64, upper uint64) ([]*model.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.D{
		{Key: "planetId", Value: planetId},
		{Key: "position", Value: bson.D{{Key: "$gte", Value: int64(lower)}, {Key: "$lt", Value: int64(upper)}}},
	}
	cursor, err := m.channelCollection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var channels []*model.Channel
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func nodeFilter(roleId uuid.UUID, targetId uuid.UUID, targetType permission.TargetType) bson.D {
	return bson.D{{Key: "targetId", Value: targetId}, {Key: "targetType", Value: targetType}, {Key: "roleId", Value: roleId}}
}

func (m *mongoRepository) GetNode(ctx context.Context, roleId uuid.UUID, targetId uuid.UUID, targetType permission.TargetType) (*model.PermissionsNode, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var node model.PermissionsNode
	if err := m.nodeCollection.FindOne(ctx, nodeFilter(roleId, targetId, targetType)).Decode(&node); err != nil {
		return nil, wrapReadError(err)
	}
	return &node, nil
}

func (m *mongoRepository) GetNodes(ctx context.Context, targetId uuid.UUID, targetType permission.TargetType, roleIds []uuid.UUID) ([]*model.PermissionsNode, error) {
	if len(roleIds) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.D{
		{Key: "targetId", Value: targetId},
		{Key: "targetType", Value: targetType},
		{Key: "roleId", Value: bson.M{"$in": roleIds}},
	}
	cursor, err := m.nodeCollection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var nodes []*model.PermissionsNode
	if err := cursor.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (m *mongoRepository) UpsertNode(ctx context.Context, node *model.PermissionsNode) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if node.Id == uuid.Nil {
		node.Id = uuid.New()
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "code", Value: node.Code}, {Key: "mask", Value: node.Mask}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: node.Id}, {Key: "planetId", Value: node.PlanetId}}},
	}
	_, err := m.nodeCollection.UpdateOne(ctx, nodeFilter(node.RoleId, node.TargetId, node.TargetType), update,
		options.Update().SetUpsert(true))
	return err
}

func (m *mongoRepository) DeleteNode(ctx context.Context, roleId uuid.UUID, targetId uuid.UUID, targetType permission.TargetType) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.nodeCollection.DeleteOne(ctx, nodeFilter(roleId, targetId, targetType))
	return err
}

func wrapReadError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func wrapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}
	return err
}

func createCodecRegistry() *bsoncodec.Registry {
	registry := bson.NewRegistry()
	registry.RegisterTypeEncoder(registrytypes.UUIDType, bsoncodec.ValueEncoderFunc(registrytypes.UuidEncodeValue))
	registry.RegisterTypeDecoder(registrytypes.UUIDType, bsoncodec.ValueDecoderFunc(registrytypes.UuidDecodeValue))
	return registry
}
