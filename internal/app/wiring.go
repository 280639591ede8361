package app

import (
	"fmt"
	"log"

	"github.com/nhle/order-dashboard/internal/credential"
	"github.com/nhle/order-dashboard/internal/feed"
	"github.com/nhle/order-dashboard/internal/model"
	"github.com/nhle/order-dashboard/internal/receipt"
)

// NewSource builds the realtime feed source for cfg, loading the database
// secret from the system keyring.
func NewSource(cfg *model.AppConfig) (feed.Source, error) {
	if cfg.Firebase.DatabaseURL == "" {
		return nil, fmt.Errorf("no database URL configured")
	}
	auth, err := credential.Optional(credential.System, cfg.Firebase.AuthCredential)
	if err != nil {
		return nil, fmt.Errorf("loading database secret: %w", err)
	}
	return feed.NewFirebaseSource(cfg.Firebase.DatabaseURL, auth), nil
}

// NewSinks builds the receipt destinations enabled in cfg. The local
// directory always comes first. Optional sinks whose credentials cannot
// be loaded are skipped with a log line.
func NewSinks(cfg *model.AppConfig) []receipt.Sink {
	sinks := []receipt.Sink{receipt.DirSink{Dir: cfg.Receipt.Dir}}

	if s3cfg := cfg.Receipt.S3; s3cfg.Enabled {
		secret, err := credential.Get(credential.KeyS3Secret)
		if err != nil {
			log.Printf("receipt archive disabled: %v", err)
		} else {
			client := receipt.NewS3Client(s3cfg, secret)
			sinks = append(sinks, receipt.NewS3Sink(client, s3cfg.Bucket, s3cfg.Prefix))
		}
	}

	if dcfg := cfg.Receipt.Drafts; dcfg.Enabled {
		password, err := credential.Get(credential.KeyIMAPPassword)
		if err != nil {
			log.Printf("receipt drafts disabled: %v", err)
		} else {
			appender := receipt.NewIMAPAppender(dcfg, password)
			sinks = append(sinks, receipt.NewDraftSink(appender, dcfg, cfg.Receipt.Business.Name))
		}
	}

	return sinks
}
