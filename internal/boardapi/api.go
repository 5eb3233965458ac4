package boardapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskgrid/internal/authmw"
	"taskgrid/internal/objstore"
)

var (
	config Config
	engine *gin.Engine
	pool   *pgxpool.Pool
	kc     *authmw.Service
	store  *objstore.Store
)

func initDBConn() {
	var err error
	pool, err = pgxpool.New(
		context.Background(),
		fmt.Sprintf(
			"postgres://%s:%s@%s/%s?sslmode=disable",
			config.DBUser,
			config.DBPassword,
			config.DBAddress,
			config.DBName,
		),
	)
	if err != nil {
		log.Fatalf("could not connect to the database: %v", err)
	}

	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatalf("failed to ping the db: %v", err)
	}

	b, err := os.ReadFile(config.InitSQLPath)
	if err != nil {
		log.Fatalf("failed to open and read the init sql file: %v", err)
	}
	// apply init sql script
	log.Printf("executing initialization script...")
	_, err = pool.Exec(context.Background(), string(b))
	if err != nil {
		log.Fatalf("failed to execute init sql: %v", err)
	}
}

func setCors() {
	corsconfig := cors.DefaultConfig()
	corsconfig.AllowOrigins = config.AllowedOrigins
	corsconfig.AllowMethods = config.AllowedMethods
	corsconfig.AllowHeaders = config.AllowedHeaders
	corsconfig.AllowCredentials = true
	engine.Use(cors.New(corsconfig))
}

func mustInitKc() {
	var err error
	kc, err = authmw.NewService(
		config.AuthAddress,
		config.Realm,
		config.ClientID,
		config.Issuer,
		config.Audience,
		config.ClientSecret,
	)
	if err != nil {
		log.Fatalf("could not initialize the keycloak service: %v", err)
	}
}

func mustInitStore() {
	var err error
	store, err = objstore.New(
		config.StoreEndpoint,
		config.StoreAccessKey,
		config.StoreSecretKey,
		config.StoreBucket,
		config.StorePublicBase,
		config.StoreUseSSL,
	)
	if err != nil {
		log.Fatalf("could not initialize the object store: %v", err)
	}
}

func setRoutes() {
	root := engine.Group("/")
	{
		root.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "alive"})
		})
	}

	auth := root.Group("/auth")
	auth.Use(kc.KCAuth.RequireAuth())
	{
		auth.GET("/me", handleMe)
		auth.PUT("/me", handleMeUpdate)
		auth.POST("/upload", handleAvatarUpload)

		auth.GET("/projects", handleProjectList)
		auth.POST("/projects", handleProjectCreate)
		auth.GET("/projects/:id", handleProjectGet)
		auth.PUT("/projects/:id", handleProjectUpdate)
		auth.DELETE("/projects/:id", handleProjectDelete)
		auth.POST("/projects/:id/leave", handleProjectLeave)
		auth.GET("/projects/:id/board", handleBoard)

		auth.GET("/projects/:id/members", handleMemberList)
		auth.DELETE("/projects/:id/members", handleMemberRemove)
		auth.PUT("/projects/:id/members", handleMemberRole)

		auth.POST("/projects/:id/groups", handleGroupCreate)
		auth.GET("/groups/:groupid", handleGroupGet)
		auth.PUT("/groups/:groupid", handleGroupUpdate)
		auth.DELETE("/groups/:groupid", handleGroupDelete)

		auth.GET("/projects/:id/tasks", handleTaskList)
		auth.PUT("/projects/:id/tasks/reorder", handleTaskReorder)
		auth.POST("/tasks", handleTaskCreate)
		auth.GET("/tasks/:taskid", handleTaskGet)
		auth.PUT("/tasks/:taskid", handleTaskUpdate)
		auth.DELETE("/tasks/:taskid", handleTaskDelete)

		auth.POST("/projects/:id/import", handleImport)

		auth.POST("/projects/:id/invitations", handleInviteCreate)
		auth.GET("/projects/:id/invitations", handleInviteListProject)
		auth.DELETE("/projects/:id/invitations", handleInviteRevoke)
		auth.GET("/invitations", handleInviteListMine)
		auth.POST("/invitations/:invitationid/accept", handleInviteAccept)
		auth.POST("/invitations/:invitationid/decline", handleInviteDecline)
	}
}

func InitAndServe(confPath string) {
	config = loadConfig(confPath)

	engine = gin.Default()
	setGinMode(config.ApiGinMode)

	// external services first; routes need the auth middleware
	mustInitKc()
	mustInitStore()

	setCors()
	setRoutes()

	// init db conn
	initDBConn()

	// serve http
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watchMembership(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port),
		Handler:           engine,
		ReadHeaderTimeout: time.Second * 5,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()

	stop()
	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// close db conn
	pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}

func setGinMode(mode string) {
	switch strings.ToLower(mode) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "envgin":
		gin.SetMode(gin.EnvGinMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
