package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shyamsivadas/event-lens/internal/adapters/sqlstore"
	appservices "github.com/shyamsivadas/event-lens/internal/app/services"
	"github.com/shyamsivadas/event-lens/internal/config"
	"github.com/shyamsivadas/event-lens/internal/db"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.LoadForTool()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	driver := flag.String("driver", cfg.Database.Driver, "database driver (sqlite or postgres)")
	dbPath := flag.String("db", cfg.Database.Path, "sqlite database path without .sqlite suffix")
	dbURL := flag.String("database-url", cfg.Database.URL, "postgres connection url")
	name := flag.String("name", "", "event name")
	date := flag.String("date", "", "event date (YYYY-MM-DD)")
	logoURL := flag.String("logo", "", "logo url shown on the capture page")
	filter := flag.String("filter", appservices.DefaultFilterType, "filter baked into photos")
	maxPhotos := flag.Int("max-photos", appservices.DefaultMaxPhotosPerGuest, "photo allotment per guest device")
	flag.Parse()

	database, err := db.Open(db.Options{
		Driver: strings.TrimSpace(*driver),
		Path:   strings.TrimSpace(*dbPath),
		URL:    strings.TrimSpace(*dbURL),
	})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	admin := appservices.NewEventAdminService(sqlstore.NewStore(database))
	event, err := admin.CreateEvent(ctx, appservices.CreateEventCommand{
		Name:              *name,
		Date:              *date,
		LogoURL:           *logoURL,
		FilterType:        *filter,
		MaxPhotosPerGuest: *maxPhotos,
	})
	if err != nil {
		log.Fatalf("create event: %v", err)
	}

	fmt.Printf("Event created: id=%s share_token=%s max_photos_per_guest=%d\n", event.ID, event.ShareToken, event.MaxPhotosPerGuest)
	fmt.Printf("Guest link: %s/e/%s\n", cfg.Server.PublicURL, event.ShareToken)
}
