package configuration

import (
	"context"
	"fmt"
	"time"

	"crewline/internal/db"
	"crewline/internal/handler"
	"crewline/internal/hub"
	"crewline/internal/model"
	"crewline/internal/repo"
	"crewline/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Container wires the object graph: repositories over one mongo database,
// services over the repositories, the gateway hub over the services.
type Container struct {
	ChatHandler    handler.ChatHandler
	MessageHandler handler.MessageHandler
	GroupHandler   handler.GroupHandler
	MonitorHandler handler.MonitorHandler

	Hub    *hub.Hub
	Tokens service.TokenService
	Groups service.GroupService
	Config Config
	Logger *zap.Logger

	mongoDatabase *mongo.Database
}

func BuildContainer() (*Container, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	con, err := db.OpenConnection(config.Mongo.URI, config.Mongo.Database)
	if err != nil {
		return nil, fmt.Errorf("open mongo: %w", err)
	}

	chatStore := db.NewRepository[model.Chat](con, config.Mongo.ChatsCollection)
	groupStore := db.NewRepository[model.Group](con, config.Mongo.GroupsCollection)
	messageStore := db.NewRepository[model.Message](con, config.Mongo.MessagesCollection)
	userStore := db.NewRepository[model.User](con, config.Mongo.UsersCollection)

	chatRepo := repo.NewChatRepository(con, chatStore, logger)
	groupRepo := repo.NewGroupRepository(con, groupStore, logger)
	messageRepo := repo.NewMessageRepository(con, messageStore, logger)
	userRepo := repo.NewUserRepository(con, userStore)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := chatRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure chat indexes: %w", err)
	}

	perms := service.NewPermissionEngine(groupRepo)
	notifier := service.NewLogNotifier(logger)
	pushProvider := service.NewLogPushProvider(logger)
	objectStore := service.NewLocalObjectStore(config.ObjectStore.BaseURL, logger)
	tokens := service.NewTokenService(config.JWT.SecretKey)

	chatService := service.NewChatService(chatRepo, groupRepo, userRepo, messageRepo, perms, notifier, logger)
	groupService := service.NewGroupService(groupRepo, chatRepo, userRepo, perms, notifier, logger)
	messageService := service.NewMessageService(messageRepo, chatRepo, groupRepo, userRepo, perms, logger)

	presence := hub.NewPresenceRegistry()
	gateway := hub.NewGateway(tokens, userRepo, messageService, chatService, groupService, pushProvider, presence, logger)
	h := hub.NewHub(presence, gateway, logger)
	monitor := hub.NewMonitorService(h)

	// Repair pass for groups whose backing chat creation failed.
	if repaired, rerr := groupService.ReconcileBackingChats(ctx); rerr != nil {
		logger.Warn("startup reconciliation failed", zap.Error(rerr))
	} else if repaired > 0 {
		logger.Info("startup reconciliation complete", zap.Int("repaired", repaired))
	}

	return &Container{
		ChatHandler:    handler.NewChatHandler(chatService),
		MessageHandler: handler.NewMessageHandler(messageService, objectStore),
		GroupHandler:   handler.NewGroupHandler(groupService),
		MonitorHandler: handler.NewMonitorHandler(monitor),
		Hub:            h,
		Tokens:         tokens,
		Groups:         groupService,
		Config:         config,
		Logger:         logger,
		mongoDatabase:  con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.mongoDatabase != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoDatabase.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
