package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"healthmate/internal/core"
	"healthmate/internal/dataset"
	"healthmate/internal/db"
	httpserver "healthmate/internal/http"
	"healthmate/internal/llm"
)

func main() {
	// .env is optional; deployments usually set the environment directly
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL must be set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Load the reference tables.  Schema problems are fatal here, never
	// per query.
	symptomRows, err := dataset.LoadSymptomTable(envOr("DATASET_SYMPTOMS", "dataset/DiseaseAndSymptoms.csv"))
	if err != nil {
		log.Fatalf("failed to load symptom table: %v", err)
	}
	precautionRows, err := dataset.LoadPrecautionTable(envOr("DATASET_PRECAUTIONS", "dataset/Disease precaution.csv"))
	if err != nil {
		log.Fatalf("failed to load precaution table: %v", err)
	}

	symptomTable := core.NewSymptomTable(symptomRows)
	precautionTable := core.NewPrecautionTable(precautionRows)

	var matcher core.SymptomMatcher
	switch os.Getenv("MATCHER") {
	case "bayes":
		b := core.NewBayesMatcher(symptomRows)
		log.Printf("bayes matcher trained, held-out accuracy %.2f%%", b.Accuracy())
		matcher = b
	default:
		matcher = core.NewOverlapMatcher(symptomRows)
	}
	log.Printf("loaded %d diseases and %d symptom tokens",
		len(symptomTable.AllDiseases()), len(matcher.AllSymptoms()))

	// Open database connection
	dbConn, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer dbConn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	memory := db.NewMemoryRepository(dbConn)
	if v, ok := intEnv("MEMORY_RECENT_CAP"); ok {
		memory.RecentCap = v
	}
	if v, ok := intEnv("MEMORY_RETENTION_DAYS"); ok {
		memory.RetentionDays = v
	}
	users := db.NewUserRepository(dbConn)
	notifier := db.NewNotifier(dbConn, dbURL, envOr("POSTGRES_NOTIFY_CHANNEL", "memory_updates"))

	chat := core.NewChatService(llm.NewOpenAIClient(), matcher, precautionTable, symptomTable, memory)
	chat.Notifier = notifier
	if raw := os.Getenv("PREDICTION_CONFIDENCE"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 && v <= 1 {
			chat.ConfidenceThreshold = v
		}
	}

	// Log memory updates announced by any instance sharing the store.
	listenCtx, stopListen := context.WithCancel(context.Background())
	defer stopListen()
	if updates, err := notifier.Listen(listenCtx); err != nil {
		log.Printf("memory update listener unavailable: %v", err)
	} else {
		go func() {
			for userID := range updates {
				log.Printf("memory updated for user %s", userID)
			}
		}()
	}

	srv := httpserver.NewServer(users, memory, chat, matcher, precautionTable, []byte(jwtSecret))
	addr := ":" + envOr("PORT", "8080")
	log.Printf("Listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
