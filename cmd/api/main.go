package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"skillbridge/internal/adapter/api"
	"skillbridge/internal/adapter/api/handler"
	apimiddleware "skillbridge/internal/adapter/api/middleware"
	"skillbridge/internal/adapter/api/router"
	"skillbridge/internal/adapter/repository"
	"skillbridge/internal/infrastructure/firebase"
	"skillbridge/internal/infrastructure/websocket"
	"skillbridge/internal/usecase"
	"skillbridge/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	participantRepo := repository.NewFirestoreParticipantRepository(firestoreClient)
	skillRepo := repository.NewFirestoreSkillRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient, cfg.StreamInitialBackoff, cfg.StreamMaxBackoff)
	contactRepo := repository.NewFirestoreContactRepository(firestoreClient, cfg.StreamInitialBackoff, cfg.StreamMaxBackoff)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	wsManager := websocket.NewManager(messageRepo, contactRepo)
	wsManager.Start(ctx)

	chatUseCase := usecase.NewChatUseCase(messageRepo, contactRepo, participantRepo)
	participantUseCase := usecase.NewParticipantUseCase(participantRepo, firebaseAuthClient)
	skillUseCase := usecase.NewSkillUseCase(skillRepo, participantRepo)

	// WebSocket sends go through the same append path as HTTP sends.
	wsManager.SetSender(chatUseCase)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	chatHandler := handler.NewChatHandler(chatUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, cfg.Environment)
	participantHandler := handler.NewParticipantHandler(participantUseCase)
	skillHandler := handler.NewSkillHandler(skillUseCase)
	devTokenHandler := handler.NewDevTokenHandler(firebaseAuthClient)

	router.Setup(e)
	router.SetupAuthRouter(e, participantHandler, authMiddleware)
	router.SetupSkillRouter(e, skillHandler, authMiddleware)
	router.SetupChatRouter(e, chatHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)
	router.SetupDevRouter(e, cfg.Environment, devTokenHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
