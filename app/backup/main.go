package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/prepvoice/prepvoice/config"
	"github.com/prepvoice/prepvoice/internal/backup"
	"github.com/prepvoice/prepvoice/internal/logger"
)

func main() {
	var (
		doExport = flag.Bool("export", false, "export collections to the backup bucket")
		fromPref = flag.String("import", "", "import collections from the given snapshot prefix")
	)
	flag.Parse()

	if *doExport == (*fromPref != "") {
		log.Fatal("specify exactly one of -export or -import=<prefix>")
	}

	_ = godotenv.Load()
	l := logger.New()

	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		log.Fatal("GCS_BUCKET environment variable is not set")
	}

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}

	ctx := context.Background()
	a, err := backup.NewArchiver(ctx, bucket, config.MongoDatabase(), l)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer a.Close()

	if *doExport {
		prefix, err := a.Export(ctx)
		if err != nil {
			log.Fatalf("export failed: %v", err)
		}
		l.WithField("prefix", prefix).Info("export complete")
		return
	}

	if err := a.Import(ctx, *fromPref); err != nil {
		log.Fatalf("import failed: %v", err)
	}
	l.WithField("prefix", *fromPref).Info("import complete")
}
