package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mycogenesis/contenthub/internal/blogservice"
	"github.com/mycogenesis/contenthub/internal/common"
	"github.com/mycogenesis/contenthub/internal/notifyservice"
	"github.com/mycogenesis/contenthub/internal/scheduler"
	"github.com/mycogenesis/contenthub/internal/userservice"
)

type application struct {
	config        *Config
	logger        *slog.Logger
	userService   *userservice.UserService
	blogService   *blogservice.BlogService
	manager       *blogservice.ContentManager
	notifyService *notifyservice.NotifyService
	broker        *common.MessageBroker
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupContentExchange(broker)
	if err != nil {
		logger.Error("failed to setup the content exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	userService := userservice.NewUserService(db, broker, cache)
	blogService := blogservice.NewBlogService(db, cache, logger)
	manager := blogservice.NewContentManager(blogService, userService, broker, logger)

	app := &application{
		config:        cfg,
		logger:        logger,
		userService:   userService,
		blogService:   blogService,
		manager:       manager,
		broker:        broker,
		notifyService: notifyservice.NewNotifyService(broker, cfg.Mail.Host, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.Sender, cfg.Mail.Port, logger),
	}

	app.notifyService.SendActivationEmails()
	app.notifyService.SendPublishNotifications()
	defer app.notifyService.Close()

	sched := scheduler.New(manager, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start the scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sched.Stop()

	err = app.serve()
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
