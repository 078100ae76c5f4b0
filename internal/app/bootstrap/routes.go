// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	chatcore "github.com/dalemusser/crewhub/internal/app/chat"
	applicationsfeature "github.com/dalemusser/crewhub/internal/app/features/applications"
	chatfeature "github.com/dalemusser/crewhub/internal/app/features/chat"
	eventsfeature "github.com/dalemusser/crewhub/internal/app/features/events"
	healthfeature "github.com/dalemusser/crewhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/crewhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/crewhub/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/crewhub/internal/app/features/notifications"
	projectsfeature "github.com/dalemusser/crewhub/internal/app/features/projects"
	tasksfeature "github.com/dalemusser/crewhub/internal/app/features/tasks"
	wsfeature "github.com/dalemusser/crewhub/internal/app/features/ws"
	"github.com/dalemusser/crewhub/internal/app/realtime"
	"github.com/dalemusser/crewhub/internal/app/review"
	applicationstore "github.com/dalemusser/crewhub/internal/app/store/applications"
	membershipstore "github.com/dalemusser/crewhub/internal/app/store/memberships"
	messagestore "github.com/dalemusser/crewhub/internal/app/store/messages"
	notificationstore "github.com/dalemusser/crewhub/internal/app/store/notifications"
	projectstore "github.com/dalemusser/crewhub/internal/app/store/projects"
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	systasks "github.com/dalemusser/crewhub/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// jobRunner is started in BuildHandler and stopped in Shutdown.
var jobRunner *systasks.Runner

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. CrewHub builds the realtime plumbing
// here (registry, router, dispatcher, chat ingestor, review service),
// applies session middleware, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.CrewHubMongoDatabase

	// Realtime plumbing. The registry tracks live websocket connections,
	// the router fans frames out to rooms and users, and the dispatcher
	// handles inbound frames.
	registry := realtime.NewRegistry()
	rtRouter := realtime.NewRouter(registry, logger)

	members := membershipstore.New(db)
	notifs := notificationstore.New(db)

	ingestor := chatcore.NewIngestor(messagestore.New(db), rtRouter, logger)
	dispatcher := realtime.NewDispatcher(registry, rtRouter, ingestor, members, notifs, logger)

	reviewSvc := review.NewService(
		applicationstore.New(db),
		members,
		notifs,
		projectstore.New(db),
		rtRouter,
		deps.CrewHubMongoClient,
		logger,
	)

	// Background sweep for connections whose peer vanished without a
	// close frame.
	jobRunner = systasks.NewRunner(logger,
		systasks.StaleConnectionReaperJob(registry, appCfg.ReaperInterval, logger))
	jobRunner.Start()

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.CrewHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Realtime websocket endpoint
	wsHandler := wsfeature.NewHandler(registry, dispatcher, logger)
	r.Mount("/ws", wsfeature.Routes(wsHandler, sessionMgr))

	// Application areas
	projectsHandler := projectsfeature.NewHandler(db, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler, sessionMgr))

	applicationsHandler := applicationsfeature.NewHandler(db, reviewSvc, logger)
	r.Mount("/applications", applicationsfeature.Routes(applicationsHandler, sessionMgr))

	chatHandler := chatfeature.NewHandler(db, ingestor, int64(appCfg.ChatHistoryMax), logger)
	r.Mount("/chat", chatfeature.Routes(chatHandler, sessionMgr))

	tasksHandler := tasksfeature.NewHandler(db, rtRouter, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

	eventsHandler := eventsfeature.NewHandler(db, rtRouter, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler, sessionMgr))

	notificationsHandler := notificationsfeature.NewHandler(db, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	return r, nil
}
